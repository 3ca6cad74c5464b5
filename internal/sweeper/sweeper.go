package sweeper

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/notistore/internal/metrics"
	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/scheduler"
	"github.com/nhle/notistore/internal/store"
)

// TaskName is the uniqueness key of the cleanup task.
const TaskName = "notification_cleanup"

// State is the sweeper's run state.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Deleter removes records older than a cutoff.
type Deleter interface {
	DeleteOlderThan(ctx context.Context, cutoffMs int64) (int64, error)
}

// Config wires a Sweeper.
type Config struct {
	Records  Deleter
	Settings store.SettingsStore
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics

	// Location anchors calendar-day cutoffs. Nil means time.Local.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// Sweeper deletes records that have outlived the retention policy.
type Sweeper struct {
	cfg   Config
	state atomic.Int32
}

// New returns an idle Sweeper.
func New(cfg Config) *Sweeper {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Sweeper{cfg: cfg}
}

// State reports whether a sweep is in progress.
func (s *Sweeper) State() State {
	return State(s.state.Load())
}

// Cutoff returns the deletion threshold for a retention of days calendar
// days before now, evaluated in loc. Across a DST change the cutoff keeps
// the wall-clock time, so it is not always a multiple of 24h away.
func Cutoff(now time.Time, days int, loc *time.Location) int64 {
	return now.In(loc).AddDate(0, 0, -days).UnixMilli()
}

// Run performs one sweep. Errors yield ResultRetry; whatever was deleted
// before a failure stays deleted.
func (s *Sweeper) Run(ctx context.Context) scheduler.Result {
	if !s.state.CompareAndSwap(int32(Idle), int32(Running)) {
		s.cfg.Logger.Warn().Msg("sweep already running")
		return scheduler.ResultSuccess
	}
	defer s.state.Store(int32(Idle))

	deleted, err := s.sweep(ctx)
	if err != nil {
		s.cfg.Logger.Error().Err(err).Msg("retention sweep failed")
		s.count(scheduler.ResultRetry)
		return scheduler.ResultRetry
	}

	if s.cfg.Metrics != nil && deleted > 0 {
		s.cfg.Metrics.RecordsDeleted.Add(float64(deleted))
	}
	s.count(scheduler.ResultSuccess)
	return scheduler.ResultSuccess
}

func (s *Sweeper) sweep(ctx context.Context) (int64, error) {
	policy, err := s.cfg.Settings.RetentionPolicy(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading retention policy: %w", err)
	}
	if !policy.AutoCleanupEnabled {
		s.cfg.Logger.Debug().Msg("auto cleanup disabled, skipping sweep")
		return 0, nil
	}
	if policy.RetentionDays < 1 {
		return 0, fmt.Errorf("invalid retention of %d days", policy.RetentionDays)
	}

	now := s.cfg.Now()
	cutoff := Cutoff(now, policy.RetentionDays, s.cfg.Location)

	deleted, err := s.cfg.Records.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired notifications: %w", err)
	}

	if err := s.cfg.Settings.SetLastCleanup(ctx, model.NowMillis(now)); err != nil {
		return deleted, fmt.Errorf("recording cleanup time: %w", err)
	}

	s.cfg.Logger.Info().
		Int64("deleted", deleted).
		Int("retention_days", policy.RetentionDays).
		Time("cutoff", time.UnixMilli(cutoff)).
		Msg("retention sweep finished")
	return deleted, nil
}

func (s *Sweeper) count(r scheduler.Result) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.SweepRuns.WithLabelValues(r.String()).Inc()
	}
}

// Task returns the periodic definition for the scheduler.
func (s *Sweeper) Task(period, flex time.Duration, maxRetries int) scheduler.PeriodicTask {
	return scheduler.PeriodicTask{
		Name:       TaskName,
		Period:     period,
		Flex:       flex,
		MaxRetries: maxRetries,
		Run:        s.Run,
	}
}
