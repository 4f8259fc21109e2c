package runtime

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

type worker struct {
	name   string
	run    func(context.Context) error
	closeF func() error
}

// Supervisor runs named workers until the context is cancelled, then closes
// them in reverse registration order.
type Supervisor struct {
	mu      sync.Mutex
	workers []worker
	started int
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

// Add registers a worker. Workers added after Start are not run.
func (s *Supervisor) Add(name string, run func(context.Context) error, closeF func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker{name: name, run: run, closeF: closeF})
}

func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		w := w
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			log.WithField("worker", w.name).Debug("Worker starting")
			if err := w.run(ctx); err != nil {
				log.WithField("worker", w.name).WithError(err).Error("Worker failed")
				s.errOnce.Do(func() { s.err = fmt.Errorf("%s: %w", w.name, err) })
				return
			}
			log.WithField("worker", w.name).Debug("Worker stopped")
		}()
	}
	s.started = len(s.workers)
	return nil
}

// Wait blocks until ctx is done, closes the started workers and returns the
// first worker error, if any.
func (s *Supervisor) Wait(ctx context.Context) error {
	<-ctx.Done()

	s.mu.Lock()
	workers := s.workers[:s.started]
	s.mu.Unlock()

	for i := len(workers) - 1; i >= 0; i-- {
		if workers[i].closeF == nil {
			continue
		}
		if err := workers[i].closeF(); err != nil {
			log.WithField("worker", workers[i].name).WithError(err).Warn("Worker close failed")
		}
	}
	s.wg.Wait()
	return s.err
}
