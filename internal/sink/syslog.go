//go:build !windows && !plan9

package sink

import (
	"fmt"
	"io"
	"log/syslog"

	log "github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

// NewSyslog sends lines to the local syslog daemon at LOG_INFO|LOG_DAEMON.
func NewSyslog(tag string) (Sink, error) {
	if tag == "" {
		tag = "chaindbg"
	}
	hook, err := lsyslog.NewSyslogHook("", "", syslog.LOG_INFO|syslog.LOG_DAEMON, tag)
	if err != nil {
		return nil, fmt.Errorf("connect to syslog: %w", err)
	}

	logger := log.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(log.InfoLevel)
	logger.SetFormatter(&lineFormatter{DisableTimestamp: true})
	logger.AddHook(hook)

	return &logSink{entry: withSession(logger), closer: hook.Writer}, nil
}
