// Package bitmask decodes bitmask fields into the names of their set bits.
package bitmask

import (
	"strings"

	"github.com/dmdmdm-nz/chaindbg/internal/symbols"
)

// maxWidth is the widest field a uint64 can carry.
const maxWidth = 64

// Names returns the names of the bits set in bits, lowest bit first.
// Only the first width bits are considered, and scanning stops at the first
// table position without a name. Set bits with no name are left out.
func Names(bits uint64, width int, table symbols.Table) []string {
	if bits == 0 || width <= 0 {
		return nil
	}

	limit := min(width, table.Known(), maxWidth)

	var names []string
	for i := 0; i < limit; i++ {
		if bits>>uint(i)&1 == 1 {
			name, _ := table.Lookup(i)
			names = append(names, name)
		}
	}
	return names
}

// Join renders decoded names the way diagnostic lines carry them.
func Join(names []string) string {
	return strings.Join(names, " ")
}
