package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/store"
	"github.com/nhle/notistore/tests/testutil"
)

type snapshots struct {
	mu   sync.Mutex
	seen [][]model.Record
}

func (s *snapshots) add(recs []model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, recs)
}

func (s *snapshots) last() []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seen) == 0 {
		return nil
	}
	return s.seen[len(s.seen)-1]
}

func (s *snapshots) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func TestFeedDeliversInitialAndChangedSnapshots(t *testing.T) {
	ctx := context.Background()
	feed := store.NewFeed()
	s := testutil.NewTestStore(t, store.WithFeed(feed))

	var got snapshots
	sub := feed.Subscribe(ctx, s, got.add, nil)
	defer sub.Cancel()

	require.Eventually(t, func() bool { return got.count() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, got.last())

	_, err := s.Insert(ctx, testutil.Record("com.a", "hello", 10))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(got.last()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "hello", got.last()[0].Message)
}

func TestFeedStopsAfterCancel(t *testing.T) {
	ctx := context.Background()
	feed := store.NewFeed()
	s := testutil.NewTestStore(t, store.WithFeed(feed))

	var got snapshots
	sub := feed.Subscribe(ctx, s, got.add, nil)
	require.Eventually(t, func() bool { return got.count() >= 1 }, time.Second, 5*time.Millisecond)

	sub.Cancel()
	seen := got.count()

	_, err := s.Insert(ctx, testutil.Record("com.a", "late", 10))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, seen, got.count())

	// Cancelling twice is fine.
	sub.Cancel()
}

func TestFeedStopsWhenContextDone(t *testing.T) {
	feed := store.NewFeed()
	s := testutil.NewTestStore(t, store.WithFeed(feed))

	ctx, cancel := context.WithCancel(context.Background())
	sub := feed.Subscribe(ctx, s, func([]model.Record) {}, nil)
	cancel()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop after context cancellation")
	}
}
