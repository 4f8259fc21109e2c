//go:build linux

package netmon

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/dmdmdm-nz/chaindbg/internal/event"
	"github.com/dmdmdm-nz/chaindbg/internal/kernel"
)

type linuxWatcher struct {
	reconcileInterval time.Duration
	features          *featureReader
	// tracked holds the links reported so far, by index.
	tracked map[int]event.Device
}

// NewWatcher creates a Linux-specific watcher using netlink. Links are
// re-listed every reconcileInterval to pick up feature changes, which
// netlink does not announce.
func NewWatcher(reconcileInterval time.Duration) Watcher {
	return &linuxWatcher{
		reconcileInterval: reconcileInterval,
		tracked:           make(map[int]event.Device),
	}
}

func (w *linuxWatcher) Start(ctx context.Context, callback func(Observation)) error {
	w.features = openFeatureReader()
	defer w.features.Close()

	linkCh := make(chan netlink.LinkUpdate)
	linkDone := make(chan struct{})

	addrCh := make(chan netlink.AddrUpdate)
	addrDone := make(chan struct{})

	onError := func(err error) {
		log.WithError(err).Warn("Netlink subscription error")
	}

	if err := netlink.LinkSubscribeWithOptions(linkCh, linkDone, netlink.LinkSubscribeOptions{
		ErrorCallback: onError,
	}); err != nil {
		return fmt.Errorf("subscribe to link updates: %w", err)
	}

	if err := netlink.AddrSubscribeWithOptions(addrCh, addrDone, netlink.AddrSubscribeOptions{
		ErrorCallback: onError,
	}); err != nil {
		close(linkDone)
		return fmt.Errorf("subscribe to address updates: %w", err)
	}

	defer close(linkDone)
	defer close(addrDone)

	if err := w.reconcile(callback, true); err != nil {
		return err
	}
	w.seedAddresses(callback)
	log.WithField("links", len(w.tracked)).Debug("Linux watcher initialized")

	ticker := time.NewTicker(w.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case update, ok := <-linkCh:
			if !ok {
				return fmt.Errorf("link subscription closed")
			}
			w.handleLinkUpdate(update, callback)

		case update, ok := <-addrCh:
			if !ok {
				return fmt.Errorf("address subscription closed")
			}
			w.handleAddrUpdate(update, callback)

		case <-ticker.C:
			if err := w.reconcile(callback, false); err != nil {
				log.WithError(err).Warn("Failed to reconcile links")
			}
		}
	}
}

func (w *linuxWatcher) handleLinkUpdate(update netlink.LinkUpdate, callback func(Observation)) {
	dev, _ := w.deviceFromLink(update.Link)
	dev.Flags = update.IfInfomsg.Flags
	dev.Type = update.IfInfomsg.Type

	log.WithFields(log.Fields{
		"interface": dev.Name,
		"index":     dev.Index,
		"msgType":   update.Header.Type,
		"flags":     fmt.Sprintf("0x%x", dev.Flags),
		"change":    fmt.Sprintf("0x%x", update.IfInfomsg.Change),
	}).Trace("Received link update")

	if update.Header.Type == unix.RTM_DELLINK {
		delete(w.tracked, dev.Index)
		callback(Observation{Type: LinkRemoved, Device: dev})
		return
	}

	haveFeatures := w.readFeatures(&dev)
	if prev, known := w.tracked[dev.Index]; known && !haveFeatures {
		dev.Features = prev.Features
	}
	w.tracked[dev.Index] = dev
	callback(Observation{Type: LinkChanged, Device: dev, HaveFeatures: haveFeatures})
}

func (w *linuxWatcher) handleAddrUpdate(update netlink.AddrUpdate, callback func(Observation)) {
	addr, ok := netip.AddrFromSlice(update.LinkAddress.IP)
	if !ok {
		return
	}

	obsType := AddressRemoved
	if update.NewAddr {
		obsType = AddressAdded
	}

	log.WithFields(log.Fields{
		"index": update.LinkIndex,
		"addr":  addr.Unmap(),
		"new":   update.NewAddr,
	}).Trace("Received address update")

	callback(Observation{Type: obsType, LinkIndex: update.LinkIndex, Addr: addr})
}

// reconcile lists all links, reports the ones that changed or appeared, and
// reports removals for links that are gone.
func (w *linuxWatcher) reconcile(callback func(Observation), seed bool) error {
	links, err := netlink.LinkList()
	if err != nil {
		return fmt.Errorf("list links: %w", err)
	}

	present := make(map[int]struct{}, len(links))
	for _, link := range links {
		dev, typeKnown := w.deviceFromLink(link)
		haveFeatures := w.readFeatures(&dev)
		present[dev.Index] = struct{}{}

		prev, known := w.tracked[dev.Index]
		if known && !typeKnown {
			dev.Type = prev.Type
		}
		if known && !haveFeatures {
			dev.Features = prev.Features
		}
		w.tracked[dev.Index] = dev

		if known && sameLink(prev, dev) {
			if haveFeatures && prev.Features != dev.Features {
				callback(Observation{Type: FeaturesChanged, Device: dev})
			}
			continue
		}
		callback(Observation{Type: LinkChanged, Device: dev, HaveFeatures: haveFeatures, Seed: seed})
	}

	for index, dev := range w.tracked {
		if _, ok := present[index]; !ok {
			delete(w.tracked, index)
			callback(Observation{Type: LinkRemoved, Device: dev})
		}
	}
	return nil
}

func (w *linuxWatcher) seedAddresses(callback func(Observation)) {
	addrs, err := netlink.AddrList(nil, netlink.FAMILY_ALL)
	if err != nil {
		log.WithError(err).Warn("Failed to list addresses")
		return
	}
	for _, a := range addrs {
		addr, ok := netip.AddrFromSlice(a.IP)
		if !ok {
			continue
		}
		callback(Observation{Type: AddressAdded, LinkIndex: a.LinkIndex, Addr: addr, Seed: true})
	}
}

// deviceFromLink builds a snapshot from link attributes. The link type is
// recovered from the encapsulation name; false means it could not be.
func (w *linuxWatcher) deviceFromLink(link netlink.Link) (event.Device, bool) {
	attrs := link.Attrs()
	linkType, ok := arphrdType(attrs.EncapType)
	return event.Device{
		Name:         attrs.Name,
		Index:        attrs.Index,
		Flags:        attrs.RawFlags,
		MTU:          attrs.MTU,
		Type:         linkType,
		HardwareAddr: attrs.HardwareAddr,
		MasterIndex:  attrs.MasterIndex,
	}, ok
}

func (w *linuxWatcher) readFeatures(dev *event.Device) bool {
	if w.features == nil {
		return false
	}
	features, err := w.features.Active(dev.Name)
	if err != nil {
		log.WithError(err).WithField("interface", dev.Name).Trace("Failed to read device features")
		return false
	}
	dev.Features = features
	return true
}

// sameLink compares everything but the feature word.
func sameLink(a, b event.Device) bool {
	return a.Name == b.Name &&
		a.Index == b.Index &&
		a.Flags == b.Flags &&
		a.MTU == b.MTU &&
		a.Type == b.Type &&
		a.MasterIndex == b.MasterIndex &&
		a.HardwareAddr.String() == b.HardwareAddr.String()
}

func openFeatureReader() *featureReader {
	release, err := kernel.Release()
	if err != nil {
		log.WithError(err).Warn("Unable to determine kernel release, feature tracking disabled")
		return nil
	}
	if !kernel.SupportsGFeatures(release) {
		log.WithField("release", release).Info("Kernel lacks ETHTOOL_GFEATURES, feature tracking disabled")
		return nil
	}
	r, err := newFeatureReader()
	if err != nil {
		log.WithError(err).Warn("Unable to open ethtool socket, feature tracking disabled")
		return nil
	}
	return r
}
