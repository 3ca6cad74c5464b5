package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/nhle/notistore/internal/model"
)

// RetentionPolicy reads the stored policy, falling back to the store's
// defaults for keys that were never written.
func (s *SQLiteStore) RetentionPolicy(ctx context.Context) (model.RetentionPolicy, error) {
	p := s.defaults

	raw, ok, err := s.getSetting(ctx, model.SettingAutoCleanup)
	if err != nil {
		return p, err
	}
	if ok {
		if p.AutoCleanupEnabled, err = strconv.ParseBool(raw); err != nil {
			return p, fmt.Errorf("parsing %s: %w", model.SettingAutoCleanup, err)
		}
	}

	raw, ok, err = s.getSetting(ctx, model.SettingRetentionDays)
	if err != nil {
		return p, err
	}
	if ok {
		if p.RetentionDays, err = strconv.Atoi(raw); err != nil {
			return p, fmt.Errorf("parsing %s: %w", model.SettingRetentionDays, err)
		}
	}

	return p, nil
}

// SetRetentionPolicy stores both policy fields.
func (s *SQLiteStore) SetRetentionPolicy(ctx context.Context, p model.RetentionPolicy) error {
	if p.RetentionDays < 1 {
		return fmt.Errorf("retention days must be at least 1, got %d", p.RetentionDays)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range map[string]string{
		model.SettingAutoCleanup:   strconv.FormatBool(p.AutoCleanupEnabled),
		model.SettingRetentionDays: strconv.Itoa(p.RetentionDays),
	} {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("writing setting %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// LastCleanup returns the time of the last completed sweep in
// milliseconds, or 0 if none has run.
func (s *SQLiteStore) LastCleanup(ctx context.Context) (int64, error) {
	raw, ok, err := s.getSetting(ctx, model.SettingLastCleanup)
	if err != nil || !ok {
		return 0, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", model.SettingLastCleanup, err)
	}
	return ms, nil
}

// SetLastCleanup records the time of a completed sweep.
func (s *SQLiteStore) SetLastCleanup(ctx context.Context, ms int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)",
		model.SettingLastCleanup, strconv.FormatInt(ms, 10))
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", model.SettingLastCleanup, err)
	}
	return nil
}

func (s *SQLiteStore) getSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}
