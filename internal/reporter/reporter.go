package reporter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nhle/notistore/internal/metrics"
	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/store"
)

// Config wires a Reporter to its collaborators.
type Config struct {
	Feed     *store.Feed
	Records  store.RecordQuerier
	Resolver IconResolver
	Surface  Surface
	MaxIcons int
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// Reporter keeps a persistent status rollup in sync with the record store.
type Reporter struct {
	cfg Config

	mu       sync.Mutex
	sub      *store.Subscription
	stopped  bool
	prev     []model.Record
	havePrev bool
	last     Rollup
}

// New validates cfg and returns an idle Reporter.
func New(cfg Config) (*Reporter, error) {
	if cfg.Feed == nil || cfg.Records == nil || cfg.Surface == nil {
		return nil, fmt.Errorf("reporter needs a feed, a record querier and a surface")
	}
	if cfg.MaxIcons <= 0 {
		cfg.MaxIcons = MaxIcons
	}
	return &Reporter{cfg: cfg}, nil
}

// Start publishes an initial empty rollup and then follows the store.
// The subscription ends when ctx is done or Stop is called.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.sub != nil || r.stopped {
		r.mu.Unlock()
		return errors.New("reporter already started")
	}
	r.mu.Unlock()

	r.publish(ctx, nil)

	sub := r.cfg.Feed.Subscribe(ctx, r.cfg.Records, func(recs []model.Record) {
		r.handle(ctx, recs)
	}, func(err error) {
		r.cfg.Logger.Warn().Err(err).Msg("skipping rollup update")
	})

	r.mu.Lock()
	r.sub = sub
	stopped := r.stopped
	r.mu.Unlock()

	// Stop ran before the subscription was recorded.
	if stopped {
		sub.Cancel()
		return nil
	}

	r.cfg.Logger.Info().Msg("status reporter started")
	return nil
}

// Stop tears down the subscription. Nothing is rendered after Stop returns.
func (r *Reporter) Stop() {
	r.mu.Lock()
	r.stopped = true
	sub := r.sub
	r.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	r.cfg.Logger.Info().Msg("status reporter stopped")
}

// Last returns the most recently published rollup.
func (r *Reporter) Last() Rollup {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Reporter) handle(ctx context.Context, recs []model.Record) {
	filtered := FilterBlank(recs)

	r.mu.Lock()
	same := r.havePrev && slices.Equal(r.prev, filtered)
	r.mu.Unlock()
	if same {
		return
	}

	r.publish(ctx, filtered)
}

// publish recomputes the rollup for filtered records and renders it.
func (r *Reporter) publish(ctx context.Context, filtered []model.Record) {
	rollup := Compute(ctx, filtered, r.cfg.Resolver, r.cfg.MaxIcons, func(pkg string, err error) {
		r.cfg.Logger.Debug().Err(err).Str("package", pkg).Msg("using fallback icon")
		if r.cfg.Metrics != nil {
			r.cfg.Metrics.IconFallbacks.Inc()
		}
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.prev = append(r.prev[:0], filtered...)
	r.havePrev = true
	r.last = rollup

	if r.cfg.Metrics != nil {
		r.cfg.Metrics.RollupCount.Set(float64(rollup.Count))
	}
	if err := r.cfg.Surface.Render(requestFor(rollup)); err != nil {
		r.cfg.Logger.Warn().Err(err).Msg("rendering status rollup")
	}
}
