package testutil

import (
	"testing"

	"github.com/nhle/notistore/internal/model"
	"github.com/nhle/notistore/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T, opts ...store.Option) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", opts...)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Record builds a notification record for tests.
func Record(pkg, message string, ts int64) model.Record {
	return model.Record{
		AppName:     pkg,
		PackageName: pkg,
		Title:       "title from " + pkg,
		Message:     message,
		Timestamp:   ts,
	}
}
