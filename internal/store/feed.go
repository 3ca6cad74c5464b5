package store

import (
	"context"
	"sync"

	"github.com/nhle/notistore/internal/model"
)

// Feed fans out "records changed" signals to subscribers. A store
// publishes on it after each committed mutation; collaborators receive
// it at construction instead of reaching for a global.
type Feed struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[*Subscription]struct{})}
}

// Publish signals every subscriber. Signals coalesce: a subscriber that
// is still processing sees at most one pending change.
func (f *Feed) Publish() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for sub := range f.subs {
		sub.notify()
	}
}

// Subscription is a cancellable handle on a feed subscription.
type Subscription struct {
	feed    *Feed
	signal  chan struct{}
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	onError func(error)
}

// SnapshotFunc receives the full record list, newest first.
type SnapshotFunc func([]model.Record)

// Subscribe delivers an initial snapshot of q and then a fresh snapshot
// after every published change. fn runs on the subscription's own
// goroutine, one call at a time. Query errors go to onError (if non-nil)
// and skip that delivery. The subscription ends when ctx is done or
// Cancel is called.
func (f *Feed) Subscribe(ctx context.Context, q RecordQuerier, fn SnapshotFunc, onError func(error)) *Subscription {
	sub := &Subscription{
		feed:    f,
		signal:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		onError: onError,
	}

	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()

	sub.notify()
	go sub.loop(ctx, q, fn)
	return sub
}

func (s *Subscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) loop(ctx context.Context, q RecordQuerier, fn SnapshotFunc) {
	defer close(s.done)
	defer s.detach()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-s.signal:
		}

		recs, err := q.QueryByRecency(ctx, 0)
		if s.stopped(ctx) {
			return
		}
		if err != nil {
			if s.onError != nil {
				s.onError(err)
			}
			continue
		}
		fn(recs)
	}
}

func (s *Subscription) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-s.quit:
		return true
	default:
		return false
	}
}

func (s *Subscription) detach() {
	s.feed.mu.Lock()
	delete(s.feed.subs, s)
	s.feed.mu.Unlock()
}

// Cancel ends the subscription and waits for an in-flight delivery to
// return. No callback runs after Cancel returns. It must not be called
// from inside the callback.
func (s *Subscription) Cancel() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}

// Done is closed once the subscription goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
