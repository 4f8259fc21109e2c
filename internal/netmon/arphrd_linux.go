//go:build linux

package netmon

import (
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/vishvananda/netlink/nl"
)

var (
	encapOnce  sync.Once
	encapTypes map[string]uint16
)

// buildEncapTypes inverts netlink's own type naming, so every name a link
// can carry in LinkAttrs.EncapType maps back to its ARPHRD_* value.
func buildEncapTypes() {
	encapTypes = make(map[string]uint16)
	for t := 0; t <= math.MaxUint16; t++ {
		msg := nl.IfInfomsg{}
		msg.Type = uint16(t)
		name := msg.EncapType()
		if strings.HasPrefix(name, "unknown") {
			continue
		}
		if _, dup := encapTypes[name]; !dup {
			encapTypes[name] = uint16(t)
		}
	}
}

// arphrdType resolves a netlink EncapType string. Unknown names report
// false.
func arphrdType(encap string) (uint16, bool) {
	encapOnce.Do(buildEncapTypes)
	if t, ok := encapTypes[encap]; ok {
		return t, true
	}
	if rest, ok := strings.CutPrefix(encap, "unknown"); ok {
		if t, err := strconv.ParseUint(rest, 10, 16); err == nil {
			return uint16(t), true
		}
	}
	return 0, false
}
