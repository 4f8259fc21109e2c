// Package event defines the records the adapter hands to the renderer.
package event

import (
	"net"
	"net/netip"
)

// Source identifies the notification chain a record came from.
type Source int

const (
	SourceNetdev Source = iota
	SourceInetAddr
	SourceInet6Addr
)

func (s Source) String() string {
	switch s {
	case SourceNetdev:
		return "NETDEV"
	case SourceInetAddr:
		return "INETADDR"
	case SourceInet6Addr:
		return "INET6ADDR"
	default:
		return "UNKNOWN"
	}
}

// Device is the state of a network device at the time of an event.
type Device struct {
	Name         string
	Index        int
	Flags        uint32
	Features     uint64
	MTU          int
	Type         uint16
	HardwareAddr net.HardwareAddr
	MasterIndex  int
}

// Address is an interface address together with its owning device.
type Address struct {
	Device string
	IP     netip.Addr
}

// Record is a single notification. Device is set for SourceNetdev, Address
// for the address sources.
type Record struct {
	Kind    Kind
	Source  Source
	Device  *Device
	Address *Address
}

// NewDeviceRecord returns a netdev record holding a copy of dev.
func NewDeviceRecord(kind Kind, dev Device) Record {
	dev.HardwareAddr = append(net.HardwareAddr(nil), dev.HardwareAddr...)
	return Record{Kind: kind, Source: SourceNetdev, Device: &dev}
}

// NewAddressRecord returns an inet or inet6 record depending on the address
// family of ip.
func NewAddressRecord(kind Kind, device string, ip netip.Addr) Record {
	ip = ip.Unmap()
	source := SourceInet6Addr
	if ip.Is4() {
		source = SourceInetAddr
	}
	return Record{
		Kind:    kind,
		Source:  source,
		Address: &Address{Device: device, IP: ip},
	}
}
