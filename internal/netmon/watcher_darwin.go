//go:build darwin

package netmon

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/route"
	"golang.org/x/sys/unix"

	"github.com/dmdmdm-nz/chaindbg/internal/event"
)

type darwinWatcher struct {
	reconcileInterval time.Duration
	// tracked holds the links reported so far, by index.
	tracked map[int]event.Device
}

// NewWatcher creates a macOS-specific watcher using AF_ROUTE sockets.
// Links are re-listed every reconcileInterval to catch departures, which
// route sockets do not announce on darwin.
func NewWatcher(reconcileInterval time.Duration) Watcher {
	return &darwinWatcher{
		reconcileInterval: reconcileInterval,
		tracked:           make(map[int]event.Device),
	}
}

func (w *darwinWatcher) Start(ctx context.Context, callback func(Observation)) error {
	fd, err := unix.Socket(unix.AF_ROUTE, unix.SOCK_RAW, unix.AF_UNSPEC)
	if err != nil {
		return fmt.Errorf("route socket: %w", err)
	}

	// Close socket when context is cancelled
	go func() {
		<-ctx.Done()
		unix.Close(fd)
	}()

	if err := w.reconcile(callback, true); err != nil {
		return err
	}
	log.WithField("links", len(w.tracked)).Debug("Darwin watcher initialized")

	msgCh := make(chan []route.Message)
	go w.read(ctx, fd, msgCh)

	ticker := time.NewTicker(w.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msgs := <-msgCh:
			for _, m := range msgs {
				w.handleMessage(m, callback)
			}
		case <-ticker.C:
			if err := w.reconcile(callback, false); err != nil {
				log.WithError(err).Warn("Failed to reconcile links")
			}
		}
	}
}

func (w *darwinWatcher) read(ctx context.Context, fd int, out chan<- []route.Message) {
	buf := make([]byte, 4096)
	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Warn("Error reading from route socket")
			continue
		}

		msgs, err := route.ParseRIB(route.RIBTypeInterface, buf[:n])
		if err != nil {
			log.WithError(err).Trace("Skipping unparsable routing message")
			continue
		}

		select {
		case out <- msgs:
		case <-ctx.Done():
			return
		}
	}
}

func (w *darwinWatcher) handleMessage(m route.Message, callback func(Observation)) {
	switch msg := m.(type) {
	case *route.InterfaceMessage:
		log.WithFields(log.Fields{
			"index": msg.Index,
			"flags": fmt.Sprintf("0x%x", msg.Flags),
		}).Trace("Received interface message")
		w.handleLink(msg.Index, uint32(msg.Flags), callback, false)

	case *route.InterfaceAddrMessage:
		addr, ok := ifaAddr(msg.Addrs)
		if !ok {
			return
		}
		obsType := AddressAdded
		if msg.Type == unix.RTM_DELADDR {
			obsType = AddressRemoved
		}
		callback(Observation{Type: obsType, LinkIndex: msg.Index, Addr: addr})
	}
}

func (w *darwinWatcher) handleLink(index int, flags uint32, callback func(Observation), seed bool) {
	iface, err := net.InterfaceByIndex(index)
	if err != nil {
		if dev, ok := w.tracked[index]; ok {
			delete(w.tracked, index)
			callback(Observation{Type: LinkRemoved, Device: dev})
		}
		return
	}

	dev := event.Device{
		Name:         iface.Name,
		Index:        iface.Index,
		Flags:        flags,
		MTU:          iface.MTU,
		HardwareAddr: iface.HardwareAddr,
	}
	w.tracked[index] = dev
	callback(Observation{Type: LinkChanged, Device: dev, Seed: seed})
}

func (w *darwinWatcher) reconcile(callback func(Observation), seed bool) error {
	rib, err := route.FetchRIB(unix.AF_UNSPEC, route.RIBTypeInterface, 0)
	if err != nil {
		return fmt.Errorf("fetch interface table: %w", err)
	}
	msgs, err := route.ParseRIB(route.RIBTypeInterface, rib)
	if err != nil {
		return fmt.Errorf("parse interface table: %w", err)
	}

	present := make(map[int]struct{})
	for _, m := range msgs {
		switch msg := m.(type) {
		case *route.InterfaceMessage:
			present[msg.Index] = struct{}{}
			w.handleLink(msg.Index, uint32(msg.Flags), callback, seed)
		case *route.InterfaceAddrMessage:
			if !seed {
				continue
			}
			if addr, ok := ifaAddr(msg.Addrs); ok {
				callback(Observation{Type: AddressAdded, LinkIndex: msg.Index, Addr: addr, Seed: true})
			}
		}
	}

	for index, dev := range w.tracked {
		if _, ok := present[index]; !ok {
			delete(w.tracked, index)
			callback(Observation{Type: LinkRemoved, Device: dev})
		}
	}
	return nil
}

// ifaAddr extracts the interface address from a routing message.
func ifaAddr(addrs []route.Addr) (netip.Addr, bool) {
	if len(addrs) <= unix.RTAX_IFA {
		return netip.Addr{}, false
	}
	switch a := addrs[unix.RTAX_IFA].(type) {
	case *route.Inet4Addr:
		return netip.AddrFrom4(a.IP), true
	case *route.Inet6Addr:
		return netip.AddrFrom16(a.IP), true
	}
	return netip.Addr{}, false
}
