package netmon

import (
	"bytes"
	"sort"
	"sync"

	"github.com/dmdmdm-nz/chaindbg/internal/event"
)

// iffUp is bit 0 of the interface flags word on every supported platform.
const iffUp = 0x1

// Tracker keeps the last known state of every device and derives
// notifier-style records from successive snapshots, in the order the kernel
// raises them.
type Tracker struct {
	mu      sync.RWMutex
	devices map[int]event.Device
}

func NewTracker() *Tracker {
	return &Tracker{devices: make(map[int]event.Device)}
}

// Link records a new snapshot of a device and returns the records describing
// the transition from the previous one. When haveFeatures is false the
// snapshot's feature word is ignored and the tracked one is kept.
func (t *Tracker) Link(dev event.Device, haveFeatures bool) []event.Record {
	t.mu.Lock()
	old, known := t.devices[dev.Index]
	if !haveFeatures {
		dev.Features = old.Features
	}
	t.devices[dev.Index] = dev
	t.mu.Unlock()

	if !known {
		return registered(dev)
	}
	return diff(old, dev)
}

// LinkRemoved forgets a device. The last known snapshot is used when the
// device was tracked, so the records carry the state it went away with.
func (t *Tracker) LinkRemoved(dev event.Device) []event.Record {
	t.mu.Lock()
	old, known := t.devices[dev.Index]
	delete(t.devices, dev.Index)
	t.mu.Unlock()

	if known {
		if dev.Name == "" {
			dev.Name = old.Name
		}
		dev.Flags = old.Flags
		dev.Features = old.Features
	}

	var recs []event.Record
	if dev.Flags&iffUp != 0 {
		recs = append(recs, event.NewDeviceRecord(event.GoingDown, dev))
		down := dev
		down.Flags &^= iffUp
		recs = append(recs, event.NewDeviceRecord(event.Down, down))
		dev = down
	}
	return append(recs, event.NewDeviceRecord(event.Unregister, dev))
}

// Features updates the feature word of a tracked device. Unknown devices are
// ignored.
func (t *Tracker) Features(index int, features uint64) []event.Record {
	t.mu.Lock()
	dev, known := t.devices[index]
	if !known || dev.Features == features {
		t.mu.Unlock()
		return nil
	}
	dev.Features = features
	t.devices[index] = dev
	t.mu.Unlock()

	return []event.Record{event.NewDeviceRecord(event.FeatChange, dev)}
}

// Name returns the name of a tracked device.
func (t *Tracker) Name(index int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	dev, ok := t.devices[index]
	return dev.Name, ok
}

// Indexes returns the tracked device indexes in ascending order.
func (t *Tracker) Indexes() []int {
	t.mu.RLock()
	indexes := make([]int, 0, len(t.devices))
	for index := range t.devices {
		indexes = append(indexes, index)
	}
	t.mu.RUnlock()

	sort.Ints(indexes)
	return indexes
}

// Replay returns REGISTER (and UP) records for every tracked device, ordered
// by index, the way a newly registered notifier learns about existing
// devices.
func (t *Tracker) Replay() []event.Record {
	t.mu.RLock()
	devices := make([]event.Device, 0, len(t.devices))
	for _, dev := range t.devices {
		devices = append(devices, dev)
	}
	t.mu.RUnlock()

	sort.Slice(devices, func(i, j int) bool { return devices[i].Index < devices[j].Index })

	var recs []event.Record
	for _, dev := range devices {
		recs = append(recs, registered(dev)...)
	}
	return recs
}

func registered(dev event.Device) []event.Record {
	recs := []event.Record{event.NewDeviceRecord(event.Register, dev)}
	if dev.Flags&iffUp != 0 {
		recs = append(recs, event.NewDeviceRecord(event.Up, dev))
	}
	return recs
}

func diff(old, cur event.Device) []event.Record {
	var recs []event.Record
	add := func(kind event.Kind, dev event.Device) {
		recs = append(recs, event.NewDeviceRecord(kind, dev))
	}

	if old.Name != cur.Name {
		add(event.ChangeName, cur)
	}
	if old.MTU != cur.MTU {
		add(event.PreChangeMTU, old)
		add(event.ChangeMTU, cur)
	}
	if old.Type != cur.Type {
		add(event.PreTypeChange, old)
		add(event.PostTypeChange, cur)
	}
	if !bytes.Equal(old.HardwareAddr, cur.HardwareAddr) {
		add(event.ChangeAddr, cur)
	}
	if old.MasterIndex != cur.MasterIndex {
		add(event.ChangeUpper, cur)
	}

	switch {
	case old.Flags&iffUp == 0 && cur.Flags&iffUp != 0:
		add(event.PreUp, old)
		add(event.Up, cur)
	case old.Flags&iffUp != 0 && cur.Flags&iffUp == 0:
		add(event.GoingDown, old)
		add(event.Down, cur)
	}
	if (old.Flags^cur.Flags)&^iffUp != 0 {
		add(event.Change, cur)
	}

	if old.Features != cur.Features {
		add(event.FeatChange, cur)
	}
	return recs
}
