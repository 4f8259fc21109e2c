package runtime

import (
	"sync"
)

// SubQueue decouples a producer from one subscriber. Enqueue never blocks;
// items are held in memory and handed to the subscriber channel by a
// dispatcher goroutine.
type SubQueue[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []T
	closed   bool
	maxDepth int    // 0 means unbounded
	dropped  uint64 // items refused because the queue was full

	outCh  chan T // consumer reads from this
	paused bool   // gate dispatch until the replay has been sent
}

// NewSubQueue creates a paused, unbounded queue.
func NewSubQueue[T any](outBuf int) *SubQueue[T] {
	return NewBoundedSubQueue[T](outBuf, 0)
}

// NewBoundedSubQueue creates a paused queue that holds at most maxDepth
// undelivered items. Items past that depth are dropped.
func NewBoundedSubQueue[T any](outBuf, maxDepth int) *SubQueue[T] {
	sq := &SubQueue[T]{
		outCh:    make(chan T, outBuf),
		paused:   true,
		maxDepth: maxDepth,
	}
	sq.cond = sync.NewCond(&sq.mu)
	go sq.dispatch()
	return sq
}

// Chan is the channel exposed to the subscriber.
func (sq *SubQueue[T]) Chan() <-chan T { return sq.outCh }

// Enqueue appends ev and wakes the dispatcher. It reports false when ev was
// dropped, either because the queue is closed or because it is full.
func (sq *SubQueue[T]) Enqueue(ev T) bool {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	if sq.closed {
		return false
	}
	if sq.maxDepth > 0 && len(sq.queue) >= sq.maxDepth {
		sq.dropped++
		return false
	}
	sq.queue = append(sq.queue, ev)
	sq.cond.Signal()
	return true
}

// Dropped returns how many items were refused because the queue was full.
func (sq *SubQueue[T]) Dropped() uint64 {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return sq.dropped
}

// SetPaused gates dispatching (used to hold back live items during replay).
func (sq *SubQueue[T]) SetPaused(v bool) {
	sq.mu.Lock()
	sq.paused = v
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

// OutOfBandSnapshotSend pushes ev straight onto the subscriber channel,
// bypassing the queue. Only valid while paused, and only for as many items
// as the channel buffer holds.
func (sq *SubQueue[T]) OutOfBandSnapshotSend(ev T) {
	sq.outCh <- ev
}

// Close stops the dispatcher and closes the out channel. Undelivered items
// are discarded.
func (sq *SubQueue[T]) Close() {
	sq.mu.Lock()
	sq.closed = true
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

func (sq *SubQueue[T]) dispatch() {
	for {
		sq.mu.Lock()
		for !sq.closed && (sq.paused || len(sq.queue) == 0) {
			sq.cond.Wait()
		}
		if sq.closed {
			sq.queue = nil
			sq.mu.Unlock()
			close(sq.outCh)
			return
		}
		ev := sq.queue[0]
		var zero T
		sq.queue[0] = zero
		sq.queue = sq.queue[1:]
		sq.mu.Unlock()

		// Blocks only on the channel buffer / reader.
		sq.outCh <- ev
	}
}
