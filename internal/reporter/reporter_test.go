package reporter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notistore/internal/metrics"
	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/store"
	"github.com/nhle/notistore/tests/testutil"
)

func rec(id int64, pkg, msg string, ts int64) model.Record {
	return model.Record{ID: id, PackageName: pkg, AppName: pkg, Message: msg, Timestamp: ts}
}

func TestComputeEmptyUsesPlaceholder(t *testing.T) {
	r := Compute(context.Background(), nil, MapIconResolver{}, MaxIcons, nil)

	assert.Equal(t, 0, r.Count)
	assert.Equal(t, "No new notifications", r.CountText)
	require.Len(t, r.Icons, 1)
	assert.Equal(t, PlaceholderIcon, r.Icons[0].Image)
}

func TestComputeCountsNonBlankAndCapsIcons(t *testing.T) {
	var recs []model.Record
	for i := 0; i < 15; i++ {
		recs = append(recs, rec(int64(i+1), fmt.Sprintf("pkg%02d", i), "body", int64(1000+i)))
	}
	recs = append(recs,
		rec(100, "blank", "   ", 5000),
		rec(101, "empty", "", 5001),
	)

	filtered := FilterBlank(recs)
	r := Compute(context.Background(), filtered, MapIconResolver{}, MaxIcons, nil)

	assert.Equal(t, 15, r.Count)
	assert.Equal(t, "15 new notifications", r.CountText)
	require.Len(t, r.Icons, MaxIcons)
	assert.Equal(t, "pkg14", r.Icons[0].PackageName)
	assert.Equal(t, "pkg05", r.Icons[MaxIcons-1].PackageName)
	for _, icon := range r.Icons {
		assert.NotEqual(t, "blank", icon.PackageName)
	}
}

func TestComputeOrdersDistinctPackagesByLatestTimestamp(t *testing.T) {
	recs := []model.Record{
		rec(1, "com.a", "x", 100),
		rec(2, "com.b", "x", 300),
		rec(3, "com.a", "x", 500),
		rec(4, "com.c", "x", 200),
	}

	r := Compute(context.Background(), recs, MapIconResolver{}, MaxIcons, nil)

	require.Len(t, r.Icons, 3)
	assert.Equal(t, []string{"com.a", "com.b", "com.c"},
		[]string{r.Icons[0].PackageName, r.Icons[1].PackageName, r.Icons[2].PackageName})
	assert.Equal(t, "4 new notifications", r.CountText)
}

func TestComputeFallsBackOnIconFailure(t *testing.T) {
	resolver := IconResolverFunc(func(_ context.Context, pkg, _ string) (string, error) {
		switch pkg {
		case "com.gone":
			return "", errors.New("package uninstalled")
		case "com.panics":
			panic("boom")
		}
		return "icon:" + pkg, nil
	})

	var fallbacks []string
	r := Compute(context.Background(), []model.Record{
		rec(1, "com.ok", "x", 3),
		rec(2, "com.gone", "x", 2),
		rec(3, "com.panics", "x", 1),
	}, resolver, MaxIcons, func(pkg string, _ error) { fallbacks = append(fallbacks, pkg) })

	require.Len(t, r.Icons, 3)
	assert.Equal(t, "icon:com.ok", r.Icons[0].Image)
	assert.Equal(t, FallbackIcon, r.Icons[1].Image)
	assert.Equal(t, FallbackIcon, r.Icons[2].Image)
	assert.Equal(t, []string{"com.gone", "com.panics"}, fallbacks)
}

func TestMapIconResolverUsesHint(t *testing.T) {
	m := MapIconResolver{"com.a": "a.png"}

	icon, err := m.Resolve(context.Background(), "com.a", "hint.png")
	require.NoError(t, err)
	assert.Equal(t, "a.png", icon)

	icon, err = m.Resolve(context.Background(), "com.b", "hint.png")
	require.NoError(t, err)
	assert.Equal(t, "hint.png", icon)

	_, err = m.Resolve(context.Background(), "com.b", "")
	assert.ErrorIs(t, err, ErrIconNotFound)
}

func TestCachingIconResolverSkipsFailures(t *testing.T) {
	ctx := context.Background()
	calls := map[string]int{}
	next := IconResolverFunc(func(_ context.Context, pkg, _ string) (string, error) {
		calls[pkg]++
		if pkg == "com.broken" {
			return "", ErrIconNotFound
		}
		return "icon:" + pkg, nil
	})
	c := NewCachingIconResolver(next, time.Minute)

	for i := 0; i < 3; i++ {
		icon, err := c.Resolve(ctx, "com.a", "")
		require.NoError(t, err)
		assert.Equal(t, "icon:com.a", icon)

		_, err = c.Resolve(ctx, "com.broken", "")
		assert.ErrorIs(t, err, ErrIconNotFound)
	}
	assert.Equal(t, 1, calls["com.a"])
	assert.Equal(t, 3, calls["com.broken"])
}

func TestCountText(t *testing.T) {
	assert.Equal(t, "No new notifications", CountText(0))
	assert.Equal(t, "1 new notification", CountText(1))
	assert.Equal(t, "7 new notifications", CountText(7))
}

func TestRequestIsIdempotent(t *testing.T) {
	recs := []model.Record{rec(1, "com.a", "x", 1), rec(2, "com.b", "y", 2)}
	a := requestFor(Compute(context.Background(), recs, MapIconResolver{}, MaxIcons, nil))
	b := requestFor(Compute(context.Background(), recs, MapIconResolver{}, MaxIcons, nil))
	assert.Equal(t, a, b)
	assert.True(t, a.Ongoing)
	assert.Equal(t, FormatPanel(a), FormatPanel(b))
}

func newTestReporter(t *testing.T) (*Reporter, *store.SQLiteStore, *RecordingSurface) {
	t.Helper()
	feed := store.NewFeed()
	s := testutil.NewTestStore(t, store.WithFeed(feed))
	surface := &RecordingSurface{}

	r, err := New(Config{
		Feed:     feed,
		Records:  s,
		Resolver: MapIconResolver{},
		Surface:  surface,
		Logger:   zerolog.Nop(),
		Metrics:  metrics.New(nil),
	})
	require.NoError(t, err)
	return r, s, surface
}

func TestReporterFollowsStore(t *testing.T) {
	ctx := context.Background()
	r, s, surface := newTestReporter(t)

	require.NoError(t, r.Start(ctx))
	t.Cleanup(r.Stop)

	first, ok := surface.Last()
	require.True(t, ok)
	assert.Equal(t, "No new notifications", first.Title)

	_, err := s.InsertBatch(ctx, []model.Record{
		testutil.Record("com.a", "hello", 10),
		testutil.Record("com.b", "   ", 20),
		testutil.Record("com.c", "world", 30),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		last, _ := surface.Last()
		return last.Title == "2 new notifications"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 2, r.Last().Count)
	require.Len(t, r.Last().Icons, 2)
	assert.Equal(t, "com.c", r.Last().Icons[0].PackageName)
}

func TestReporterSkipsUnchangedSnapshots(t *testing.T) {
	ctx := context.Background()
	r, s, surface := newTestReporter(t)

	require.NoError(t, r.Start(ctx))
	t.Cleanup(r.Stop)

	_, err := s.Insert(ctx, testutil.Record("com.a", "hello", 10))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.Last().Count == 1 }, time.Second, 5*time.Millisecond)
	rendered := len(surface.Requests())

	// A blank insert changes the table but not the filtered snapshot.
	_, err = s.Insert(ctx, testutil.Record("com.b", "", 20))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, rendered, len(surface.Requests()))
}

func TestReporterStopsRendering(t *testing.T) {
	ctx := context.Background()
	r, s, surface := newTestReporter(t)

	require.NoError(t, r.Start(ctx))
	require.Eventually(t, func() bool { return len(surface.Requests()) >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	r.Stop()
	rendered := len(surface.Requests())

	_, err := s.Insert(ctx, testutil.Record("com.a", "after stop", 10))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, rendered, len(surface.Requests()))
	assert.Error(t, r.Start(ctx), "a stopped reporter cannot restart")
}

func TestStopDuringStartLeavesNoSubscription(t *testing.T) {
	for i := 0; i < 20; i++ {
		r, _, _ := newTestReporter(t)

		started := make(chan struct{})
		go func() {
			defer close(started)
			_ = r.Start(context.Background())
		}()
		r.Stop()
		<-started

		r.mu.Lock()
		sub := r.sub
		r.mu.Unlock()
		if sub == nil {
			continue
		}
		select {
		case <-sub.Done():
		case <-time.After(time.Second):
			t.Fatalf("iteration %d: subscription still running after Stop and Start returned", i)
		}
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
