//go:build !linux && !darwin

package netmon

import (
	"context"
	"time"
)

type unsupportedWatcher struct{}

// NewWatcher returns a watcher that fails to start.
func NewWatcher(time.Duration) Watcher {
	return unsupportedWatcher{}
}

func (unsupportedWatcher) Start(context.Context, func(Observation)) error {
	return ErrUnsupported
}
