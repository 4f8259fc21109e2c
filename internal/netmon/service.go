package netmon

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/chaindbg/internal/event"
	"github.com/dmdmdm-nz/chaindbg/internal/runtime"
)

// Options tune what the service publishes.
type Options struct {
	// IPv6 enables INET6ADDR records.
	IPv6 bool
	// Replay announces devices that already exist, both at startup and to
	// every new subscriber.
	Replay bool
}

// Service turns watcher observations into records and fans them out to
// subscribers.
type Service struct {
	watcher Watcher
	tracker *Tracker
	opts    Options

	subsMu           sync.Mutex
	subs             map[int]*runtime.SubQueue[event.Record]
	nextSubscriberID int
	closed           bool
}

func NewService(watcher Watcher, opts Options) *Service {
	return &Service{
		watcher: watcher,
		tracker: NewTracker(),
		opts:    opts,
		subs:    make(map[int]*runtime.SubQueue[event.Record]),
	}
}

// Subscribe returns a channel of records and an unsubscribe function. With
// replay enabled the channel starts with REGISTER/UP records for the devices
// already known.
func (s *Service) Subscribe() (<-chan event.Record, func()) {
	var snapshot []event.Record
	if s.opts.Replay {
		snapshot = s.tracker.Replay()
	}

	// Create sub with buffer big enough for the snapshot.
	sub := runtime.NewSubQueue[event.Record](len(snapshot) + 8)

	// Register subscriber in paused mode (live records will enqueue).
	s.subsMu.Lock()
	if s.closed {
		s.subsMu.Unlock()
		sub.Close()
		return sub.Chan(), func() {}
	}
	id := s.nextSubscriberID
	s.nextSubscriberID++
	s.subs[id] = sub
	s.subsMu.Unlock()

	for _, rec := range snapshot {
		sub.OutOfBandSnapshotSend(rec)
	}

	// Transition to live: flush queued live records, then unpause.
	sub.SetPaused(false)

	unsub := func() {
		s.subsMu.Lock()
		if q, ok := s.subs[id]; ok {
			delete(s.subs, id)
			q.Close()
		}
		s.subsMu.Unlock()
	}
	return sub.Chan(), unsub
}

func (s *Service) Start(ctx context.Context) error {
	log.WithFields(log.Fields{
		"ipv6":   s.opts.IPv6,
		"replay": s.opts.Replay,
	}).Info("Starting network event monitoring service")
	defer log.Info("Stopping network event monitoring service")

	if err := s.watcher.Start(ctx, s.handleObservation); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (s *Service) Close() error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, q := range s.subs {
		q.Close()
		delete(s.subs, id)
	}
	return nil
}

func (s *Service) handleObservation(obs Observation) {
	var recs []event.Record

	switch obs.Type {
	case LinkChanged:
		recs = s.tracker.Link(obs.Device, obs.HaveFeatures)
	case LinkRemoved:
		recs = s.tracker.LinkRemoved(obs.Device)
	case FeaturesChanged:
		recs = s.tracker.Features(obs.Device.Index, obs.Device.Features)
	case AddressAdded, AddressRemoved:
		rec, ok := s.addressRecord(obs)
		if !ok {
			return
		}
		recs = []event.Record{rec}
	default:
		log.WithField("type", obs.Type).Warn("Ignoring unknown observation")
		return
	}

	if obs.Seed && !s.opts.Replay {
		return
	}

	log.WithFields(log.Fields{
		"observation": obs.Type,
		"records":     len(recs),
		"seed":        obs.Seed,
	}).Trace("Observation processed")

	for _, rec := range recs {
		s.broadcast(rec)
	}
}

func (s *Service) addressRecord(obs Observation) (event.Record, bool) {
	addr := obs.Addr.Unmap()
	if !addr.IsValid() {
		return event.Record{}, false
	}
	if addr.Is6() && !s.opts.IPv6 {
		return event.Record{}, false
	}

	name, ok := s.tracker.Name(obs.LinkIndex)
	if !ok {
		log.WithFields(log.Fields{
			"index": obs.LinkIndex,
			"addr":  addr,
		}).Debug("Address event for an unknown device")
	}

	kind := event.Up
	if obs.Type == AddressRemoved {
		kind = event.Down
	}
	return event.NewAddressRecord(kind, name, addr), true
}

func (s *Service) broadcast(rec event.Record) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		sub.Enqueue(rec)
	}
}
