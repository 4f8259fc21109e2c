package netmon

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by watchers on platforms without a
// notification source.
var ErrUnsupported = errors.New("network event watching is not supported on this platform")

// Watcher reports link, feature and address changes using platform-specific
// event mechanisms (netlink on Linux, route sockets on macOS).
type Watcher interface {
	// Start begins watching. State present at start is reported first with
	// Seed set. Blocks until ctx is cancelled or an error occurs.
	Start(ctx context.Context, callback func(Observation)) error
}
