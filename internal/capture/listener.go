package capture

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/notistore/internal/metrics"
	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/store"
)

// maxBatch caps how many queued events are written in one transaction.
const maxBatch = 64

// Inserter is the part of the record store the listener writes through.
type Inserter interface {
	InsertBatch(ctx context.Context, recs []model.Record) ([]int64, error)
}

var _ Inserter = (store.RecordStore)(nil)

// Listener persists incoming events from a single writer goroutine.
type Listener struct {
	records Inserter
	ignored map[string]bool
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewListener returns a listener that drops events from the ignored
// packages. A nil ignored list drops only the platform's own package.
func NewListener(records Inserter, ignored []string, log zerolog.Logger, m *metrics.Metrics) *Listener {
	if ignored == nil {
		ignored = []string{model.SystemPackage}
	}
	set := make(map[string]bool, len(ignored))
	for _, pkg := range ignored {
		set[pkg] = true
	}
	return &Listener{
		records: records,
		ignored: set,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Accept reports whether ev should be stored.
func (l *Listener) Accept(ev Event) bool {
	return !l.ignored[ev.PackageName]
}

// Run drains events until the channel closes or ctx is done. Events that
// are already queued are written together as one batch. Insert failures
// are logged and the batch is dropped.
func (l *Listener) Run(ctx context.Context, events <-chan Event) error {
	for {
		var first Event
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			first = ev
		}

		batch := l.collect(first, events)
		l.flush(ctx, batch)
	}
}

// collect appends whatever is immediately available after first.
func (l *Listener) collect(first Event, events <-chan Event) []model.Record {
	batch := make([]model.Record, 0, 8)
	add := func(ev Event) {
		if !l.Accept(ev) {
			if l.metrics != nil {
				l.metrics.EventsFiltered.WithLabelValues("system").Inc()
			}
			return
		}
		batch = append(batch, ev.Record(l.now()))
	}

	add(first)
	for len(batch) < maxBatch {
		select {
		case ev, ok := <-events:
			if !ok {
				return batch
			}
			add(ev)
		default:
			return batch
		}
	}
	return batch
}

func (l *Listener) flush(ctx context.Context, batch []model.Record) {
	if len(batch) == 0 {
		return
	}

	if _, err := l.records.InsertBatch(ctx, batch); err != nil {
		l.log.Error().Err(err).Int("events", len(batch)).Msg("storing notifications")
		if l.metrics != nil {
			l.metrics.CaptureErrors.Inc()
		}
		return
	}

	if l.metrics != nil {
		l.metrics.EventsCaptured.Add(float64(len(batch)))
	}
	l.log.Debug().Int("events", len(batch)).Msg("stored notifications")
}

// Pipe runs src feeding the listener and returns when the source ends and
// every delivered event has been handled, or as soon as ctx is done.
func (l *Listener) Pipe(ctx context.Context, src Source) error {
	events := make(chan Event, maxBatch)
	errCh := make(chan error, 1)

	go func() {
		defer close(events)
		errCh <- src.Run(ctx, events)
	}()

	runErr := l.Run(ctx, events)

	// A source blocked in a read that ignores ctx is left behind.
	select {
	case srcErr := <-errCh:
		if srcErr != nil {
			return srcErr
		}
		return runErr
	case <-ctx.Done():
		return ctx.Err()
	}
}
