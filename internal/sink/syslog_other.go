//go:build windows || plan9

package sink

import "errors"

// NewSyslog is not available on this platform.
func NewSyslog(string) (Sink, error) {
	return nil, errors.New("syslog sink is not supported on this platform")
}
