package netmon

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmdmdm-nz/chaindbg/internal/event"
)

func kinds(recs []event.Record) []event.Kind {
	out := make([]event.Kind, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Kind)
	}
	return out
}

func eth0() event.Device {
	return event.Device{
		Name:         "eth0",
		Index:        2,
		Flags:        0x1003, // UP|BROADCAST|MULTICAST
		MTU:          1500,
		Type:         1,
		HardwareAddr: net.HardwareAddr{0x02, 0x42, 0xac, 0x11, 0x00, 0x02},
	}
}

func TestTracker_FirstSighting(t *testing.T) {
	tr := NewTracker()

	recs := tr.Link(eth0(), true)
	assert.Equal(t, []event.Kind{event.Register, event.Up}, kinds(recs))

	down := eth0()
	down.Index = 3
	down.Flags = 0
	assert.Equal(t, []event.Kind{event.Register}, kinds(tr.Link(down, true)))
}

func TestTracker_NoChange(t *testing.T) {
	tr := NewTracker()
	tr.Link(eth0(), true)

	assert.Empty(t, tr.Link(eth0(), true))
}

func TestTracker_MTUChange(t *testing.T) {
	tr := NewTracker()
	tr.Link(eth0(), true)

	dev := eth0()
	dev.MTU = 9000
	recs := tr.Link(dev, true)

	require.Equal(t, []event.Kind{event.PreChangeMTU, event.ChangeMTU}, kinds(recs))
	assert.Equal(t, 1500, recs[0].Device.MTU)
	assert.Equal(t, 9000, recs[1].Device.MTU)
}

func TestTracker_TypeChange(t *testing.T) {
	tr := NewTracker()
	tr.Link(eth0(), true)

	dev := eth0()
	dev.Type = 0x300
	recs := tr.Link(dev, true)

	require.Equal(t, []event.Kind{event.PreTypeChange, event.PostTypeChange}, kinds(recs))
	assert.Equal(t, uint16(1), recs[0].Device.Type)
	assert.Equal(t, uint16(0x300), recs[1].Device.Type)
}

func TestTracker_AddressNameAndMaster(t *testing.T) {
	tr := NewTracker()
	tr.Link(eth0(), true)

	dev := eth0()
	dev.Name = "lan0"
	dev.HardwareAddr = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	dev.MasterIndex = 7

	recs := tr.Link(dev, true)
	assert.Equal(t, []event.Kind{event.ChangeName, event.ChangeAddr, event.ChangeUpper}, kinds(recs))
	assert.Equal(t, "lan0", recs[0].Device.Name)
}

func TestTracker_UpDown(t *testing.T) {
	tr := NewTracker()
	dev := eth0()
	dev.Flags = 0x1002
	tr.Link(dev, true)

	up := eth0()
	recs := tr.Link(up, true)
	require.Equal(t, []event.Kind{event.PreUp, event.Up}, kinds(recs))
	assert.Equal(t, uint32(0x1002), recs[0].Device.Flags)

	recs = tr.Link(dev, true)
	assert.Equal(t, []event.Kind{event.GoingDown, event.Down}, kinds(recs))
}

func TestTracker_FlagChange(t *testing.T) {
	tr := NewTracker()
	tr.Link(eth0(), true)

	dev := eth0()
	dev.Flags |= 0x10040 // RUNNING|LOWER_UP
	recs := tr.Link(dev, true)

	require.Equal(t, []event.Kind{event.Change}, kinds(recs))
	assert.Equal(t, uint32(0x11043), recs[0].Device.Flags)
}

func TestTracker_UpWithCarrier(t *testing.T) {
	tr := NewTracker()
	dev := eth0()
	dev.Flags = 0x1002
	tr.Link(dev, true)

	dev.Flags = 0x11043
	assert.Equal(t, []event.Kind{event.PreUp, event.Up, event.Change}, kinds(tr.Link(dev, true)))
}

func TestTracker_Features(t *testing.T) {
	tr := NewTracker()
	dev := eth0()
	dev.Features = 0x1
	tr.Link(dev, true)

	recs := tr.Features(dev.Index, 0x4001)
	require.Equal(t, []event.Kind{event.FeatChange}, kinds(recs))
	assert.Equal(t, uint64(0x4001), recs[0].Device.Features)

	assert.Empty(t, tr.Features(dev.Index, 0x4001))
	assert.Empty(t, tr.Features(99, 0x1))
}

func TestTracker_LinkKeepsFeaturesWhenUnread(t *testing.T) {
	tr := NewTracker()
	dev := eth0()
	dev.Features = 0x4001
	tr.Link(dev, true)

	dev.Features = 0
	assert.Empty(t, tr.Link(dev, false))

	assert.Equal(t, []event.Kind{event.FeatChange}, kinds(tr.Link(dev, true)))
}

func TestTracker_Removed(t *testing.T) {
	tr := NewTracker()
	tr.Link(eth0(), true)

	recs := tr.LinkRemoved(event.Device{Index: 2})
	require.Equal(t, []event.Kind{event.GoingDown, event.Down, event.Unregister}, kinds(recs))
	assert.Equal(t, "eth0", recs[2].Device.Name)
	assert.Zero(t, recs[2].Device.Flags&iffUp)

	_, ok := tr.Name(2)
	assert.False(t, ok)
}

func TestTracker_RemovedUnknown(t *testing.T) {
	tr := NewTracker()

	recs := tr.LinkRemoved(event.Device{Name: "veth9", Index: 9})
	require.Equal(t, []event.Kind{event.Unregister}, kinds(recs))
	assert.Equal(t, "veth9", recs[0].Device.Name)
}

func TestTracker_NameAndIndexes(t *testing.T) {
	tr := NewTracker()
	lo := event.Device{Name: "lo", Index: 1, Flags: 0x9}
	tr.Link(eth0(), true)
	tr.Link(lo, true)

	name, ok := tr.Name(1)
	assert.True(t, ok)
	assert.Equal(t, "lo", name)
	assert.Equal(t, []int{1, 2}, tr.Indexes())
}

func TestTracker_Replay(t *testing.T) {
	tr := NewTracker()
	down := event.Device{Name: "dummy0", Index: 5}
	tr.Link(down, true)
	tr.Link(eth0(), true)

	recs := tr.Replay()
	require.Equal(t, []event.Kind{event.Register, event.Up, event.Register}, kinds(recs))
	assert.Equal(t, "eth0", recs[0].Device.Name)
	assert.Equal(t, "dummy0", recs[2].Device.Name)
}
