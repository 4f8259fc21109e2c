//go:build linux

package netmon

import (
	"fmt"
	"math"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"

	"github.com/dmdmdm-nz/chaindbg/internal/event"
)

func encapName(t uint16) string {
	msg := nl.IfInfomsg{}
	msg.Type = t
	return msg.EncapType()
}

func TestArphrdType(t *testing.T) {
	tests := []struct {
		encap string
		want  uint16
	}{
		{"generic", 0},
		{"ether", unix.ARPHRD_ETHER},
		{"loopback", unix.ARPHRD_LOOPBACK},
		{"ipip", unix.ARPHRD_TUNNEL},
		{"hdlc", unix.ARPHRD_HDLC},
		{"ltalk", unix.ARPHRD_LOCALTLK},
		{"fcfb0", unix.ARPHRD_FCFABRIC},
		{"fcfb12", unix.ARPHRD_FCFABRIC + 12},
		{"ieee802.11/prism", unix.ARPHRD_IEEE80211_PRISM},
		{"ieee802.11/radiotap", unix.ARPHRD_IEEE80211_RADIOTAP},
		{"ieee802.15.4", unix.ARPHRD_IEEE802154},
		{"none", unix.ARPHRD_NONE},
		{"void", unix.ARPHRD_VOID},
		{"unknown823", 823},
	}

	for _, tt := range tests {
		t.Run(tt.encap, func(t *testing.T) {
			got, ok := arphrdType(tt.encap)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArphrdType_Unresolvable(t *testing.T) {
	for _, encap := range []string{"", "netrom", "cisco", "localtlk", "unknown", "unknown70000", "unknownx"} {
		_, ok := arphrdType(encap)
		assert.False(t, ok, encap)
	}
}

func TestArphrdType_InvertsNetlinkNames(t *testing.T) {
	for typ := 0; typ <= math.MaxUint16; typ++ {
		name := encapName(uint16(typ))
		got, ok := arphrdType(name)
		if !ok || got != uint16(typ) {
			t.Fatalf("type %d: netlink name %q resolved to (%d, %v)", typ, name, got, ok)
		}
	}
}

func TestDeviceFromLink(t *testing.T) {
	w := &linuxWatcher{}
	mac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x07}
	link := &netlink.Device{LinkAttrs: netlink.LinkAttrs{
		Name:         "mon0",
		Index:        7,
		RawFlags:     unix.IFF_UP | unix.IFF_BROADCAST,
		MTU:          2304,
		HardwareAddr: mac,
		MasterIndex:  0,
		EncapType:    encapName(unix.ARPHRD_IEEE80211_RADIOTAP),
	}}

	dev, ok := w.deviceFromLink(link)
	require.True(t, ok)
	assert.Equal(t, event.Device{
		Name:         "mon0",
		Index:        7,
		Flags:        unix.IFF_UP | unix.IFF_BROADCAST,
		MTU:          2304,
		Type:         unix.ARPHRD_IEEE80211_RADIOTAP,
		HardwareAddr: mac,
	}, dev)
}

// A link first seen through a listing must not change type when the next
// RTM_NEWLINK reports the raw header type.
func TestDeviceFromLink_NoSpuriousTypeChange(t *testing.T) {
	w := &linuxWatcher{}
	for _, typ := range []uint16{
		0,
		unix.ARPHRD_HDLC,
		unix.ARPHRD_LOCALTLK,
		unix.ARPHRD_FCFABRIC + 1,
		unix.ARPHRD_IEEE80211_PRISM,
		unix.ARPHRD_IEEE80211_RADIOTAP,
		unix.ARPHRD_IEEE802154,
	} {
		t.Run(fmt.Sprintf("type_%d", typ), func(t *testing.T) {
			listed, ok := w.deviceFromLink(&netlink.Device{LinkAttrs: netlink.LinkAttrs{
				Name: "if0", Index: 4, MTU: 1500, EncapType: encapName(typ),
			}})
			require.True(t, ok)

			updated := listed
			updated.Type = typ

			tr := NewTracker()
			tr.Link(listed, false)
			assert.Empty(t, tr.Link(updated, false))
		})
	}
}

func TestSameLink(t *testing.T) {
	base := eth0()

	assert.True(t, sameLink(base, base))

	featuresOnly := base
	featuresOnly.Features = 0xff
	assert.True(t, sameLink(base, featuresOnly), "feature word is ignored")

	sameMAC := base
	sameMAC.HardwareAddr = append(net.HardwareAddr(nil), base.HardwareAddr...)
	assert.True(t, sameLink(base, sameMAC))

	mutations := map[string]func(*event.Device){
		"name":   func(d *event.Device) { d.Name = "eth1" },
		"index":  func(d *event.Device) { d.Index = 9 },
		"flags":  func(d *event.Device) { d.Flags = 0 },
		"mtu":    func(d *event.Device) { d.MTU = 9000 },
		"type":   func(d *event.Device) { d.Type = unix.ARPHRD_LOOPBACK },
		"master": func(d *event.Device) { d.MasterIndex = 5 },
		"mac":    func(d *event.Device) { d.HardwareAddr = net.HardwareAddr{0, 0, 0, 0, 0, 1} },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			changed := eth0()
			mutate(&changed)
			assert.False(t, sameLink(base, changed))
		})
	}
}
