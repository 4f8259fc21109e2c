package netmon

import (
	"net/netip"

	"github.com/dmdmdm-nz/chaindbg/internal/event"
)

// ObservationType tells what a watcher saw.
type ObservationType string

const (
	LinkChanged     ObservationType = "LINK_CHANGED"
	LinkRemoved     ObservationType = "LINK_REMOVED"
	FeaturesChanged ObservationType = "FEATURES_CHANGED"
	AddressAdded    ObservationType = "ADDRESS_ADDED"
	AddressRemoved  ObservationType = "ADDRESS_REMOVED"
)

// Observation is a raw state report from a platform watcher. The service
// turns observations into notifier-style records.
type Observation struct {
	Type ObservationType

	// Device is the full link state for LinkChanged and LinkRemoved. For
	// FeaturesChanged only Index and Features are meaningful.
	Device event.Device

	// HaveFeatures reports whether Device.Features was read for this
	// LinkChanged observation.
	HaveFeatures bool

	// LinkIndex and Addr describe AddressAdded and AddressRemoved.
	LinkIndex int
	Addr      netip.Addr

	// Seed marks state that existed before the watcher started.
	Seed bool
}
