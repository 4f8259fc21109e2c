// Package sink delivers rendered diagnostic lines to their destination.
package sink

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	KindConsole = "console"
	KindFile    = "file"
	KindSyslog  = "syslog"
)

// ErrUnknownSink is returned by Open for an unsupported sink kind.
var ErrUnknownSink = errors.New("unknown sink")

// Sink receives one rendered line per event. Write must not block the caller
// for longer than a local write takes, and never fails: a line that cannot
// be delivered is dropped.
type Sink interface {
	Write(line string)
	Close() error
}

// Open creates the sink named by kind. target is the file path for file
// sinks and the syslog tag for syslog sinks.
func Open(kind, target string) (Sink, error) {
	switch kind {
	case KindConsole, "":
		return NewConsole(os.Stdout), nil
	case KindFile:
		return NewFile(target)
	case KindSyslog:
		return NewSyslog(target)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, kind)
	}
}

// logSink writes lines through a dedicated logrus logger, so destinations
// and hooks come from logrus.
type logSink struct {
	entry  *log.Entry
	closer io.Closer
}

// NewConsole writes lines to w.
func NewConsole(w io.Writer) Sink {
	logger := newLineLogger(w)
	return &logSink{entry: log.NewEntry(logger)}
}

// NewFile appends lines to the file at path, tagging each with a session
// identifier so runs sharing a file can be told apart.
func NewFile(path string) (Sink, error) {
	if path == "" {
		return nil, errors.New("file sink requires an output path")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	logger := newLineLogger(f)
	return &logSink{entry: withSession(logger), closer: f}, nil
}

func (s *logSink) Write(line string) {
	s.entry.Info(line)
}

func (s *logSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func newLineLogger(w io.Writer) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetLevel(log.InfoLevel)
	logger.SetFormatter(&lineFormatter{})
	return logger
}

func withSession(logger *log.Logger) *log.Entry {
	return logger.WithField("session", uuid.NewString())
}

// lineFormatter prints the line behind a timestamp, without the key=value
// framing of the operational log.
type lineFormatter struct {
	// DisableTimestamp leaves the timestamp to the destination (syslog).
	DisableTimestamp bool
}

func (f *lineFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b bytes.Buffer
	if !f.DisableTimestamp {
		b.WriteString(entry.Time.Format(time.RFC3339Nano))
		b.WriteByte(' ')
	}
	b.WriteString(entry.Message)
	if session, ok := entry.Data["session"]; ok {
		fmt.Fprintf(&b, " session=%v", session)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Multi fans a line out to every sink.
type Multi []Sink

func (m Multi) Write(line string) {
	for _, s := range m {
		s.Write(line)
	}
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
