// Package reporter renders netmon records and hands the lines to a sink.
package reporter

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/chaindbg/internal/event"
	"github.com/dmdmdm-nz/chaindbg/internal/render"
	"github.com/dmdmdm-nz/chaindbg/internal/sink"
)

type Reporter struct {
	sink sink.Sink

	// NetMon subscription
	recCh    <-chan event.Record
	recUnsub func()
}

func NewReporter(s sink.Sink) *Reporter {
	return &Reporter{sink: s}
}

// AttachNetmon wires the record stream (must be called before Start).
func (r *Reporter) AttachNetmon(ch <-chan event.Record, unsub func()) {
	r.recCh = ch
	r.recUnsub = unsub
}

func (r *Reporter) Start(ctx context.Context) error {
	log.Info("Starting event reporter")
	defer log.Info("Stopping event reporter")

	if r.recCh == nil {
		log.Error("AttachNetmon was not called before Start")
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-r.recCh:
			if !ok {
				return nil
			}
			r.report(rec)
		}
	}
}

func (r *Reporter) Close() error {
	if r.recUnsub != nil {
		r.recUnsub()
	}
	return nil
}

func (r *Reporter) report(rec event.Record) {
	line, ok := render.Line(rec)
	if !ok {
		log.WithFields(log.Fields{
			"kind":   rec.Kind,
			"source": rec.Source,
		}).Trace("Record has no device context, nothing to report")
		return
	}
	r.sink.Write(line)
}
