// Package render turns event records into diagnostic lines.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmdmdm-nz/chaindbg/internal/bitmask"
	"github.com/dmdmdm-nz/chaindbg/internal/event"
	"github.com/dmdmdm-nz/chaindbg/internal/symbols"
)

const (
	flagsWidth    = 32
	featuresWidth = 64
)

// maxLineLen bounds a rendered line: a fixed base plus room for every feature
// name.
var maxLineLen = 128 + symbols.FeatureFlags.Len()*32

// Line renders rec. It reports false when the record has no device to
// attribute the event to, in which case nothing should be emitted.
func Line(rec event.Record) (string, bool) {
	var b strings.Builder

	switch rec.Source {
	case event.SourceNetdev:
		if rec.Device == nil {
			return "", false
		}
		header(&b, rec.Source, rec.Device.Name, rec.Kind)
		deviceExtras(&b, rec.Kind, rec.Device)

	case event.SourceInetAddr, event.SourceInet6Addr:
		if rec.Address == nil || rec.Address.Device == "" {
			return "", false
		}
		header(&b, rec.Source, rec.Address.Device, rec.Kind)
		fmt.Fprintf(&b, " ADDR: %s", rec.Address.IP)

	default:
		return "", false
	}

	return truncate(b.String(), maxLineLen), true
}

func header(b *strings.Builder, source event.Source, dev string, kind event.Kind) {
	if dev == "" {
		dev = `""`
	}
	fmt.Fprintf(b, "C: %s DEV: %s EVENT: NETDEV_%s (0x%x)", source, dev, kindName(kind), uint32(kind))
}

func kindName(kind event.Kind) string {
	if kind.Known() {
		return kind.String()
	}
	return fmt.Sprintf("<unrecognized event code %d>", uint32(kind))
}

func deviceExtras(b *strings.Builder, kind event.Kind, dev *event.Device) {
	switch kind {
	case event.ChangeAddr:
		fmt.Fprintf(b, " MAC: %s", dev.HardwareAddr)

	case event.PreChangeMTU, event.ChangeMTU:
		fmt.Fprintf(b, " %s MTU: %d", phase(kind == event.ChangeMTU), dev.MTU)

	case event.PreTypeChange, event.PostTypeChange:
		fmt.Fprintf(b, " %s TYPE: 0x%x", phase(kind == event.PostTypeChange), dev.Type)

	case event.Change:
		fmt.Fprintf(b, " FLAGS: (0x%x)", dev.Flags)
		appendNames(b, bitmask.Names(uint64(dev.Flags), flagsWidth, symbols.InterfaceFlags))

	case event.FeatChange:
		fmt.Fprintf(b, " FEATURES: (0x%016x)", dev.Features)
		appendNames(b, bitmask.Names(dev.Features, featuresWidth, symbols.FeatureFlags))

	case event.ChangeUpper:
		if dev.MasterIndex == 0 {
			b.WriteString(" MASTER: none")
		} else {
			fmt.Fprintf(b, " MASTER: %d", dev.MasterIndex)
		}
	}
}

func phase(post bool) string {
	if post {
		return "NEW"
	}
	return "OLD"
}

func appendNames(b *strings.Builder, names []string) {
	if len(names) == 0 {
		return
	}
	b.WriteByte(' ')
	b.WriteString(bitmask.Join(names))
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
