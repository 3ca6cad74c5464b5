package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/notistore/internal/model"
)

const recordColumns = `id, app_name, package_name, app_icon, title, message,
	timestamp, is_read, tag, notes`

const insertRecordSQL = `
	INSERT INTO notifications (
		app_name, package_name, app_icon, title, message,
		timestamp, is_read, tag, notes
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

// recordArgs fills the default timestamp and returns insert arguments.
func recordArgs(rec model.Record) []any {
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	return []any{
		rec.AppName, rec.PackageName, rec.AppIcon, rec.Title, rec.Message,
		rec.Timestamp, boolToInt(rec.IsRead), rec.Tag, rec.Notes,
	}
}

// Insert appends a record and returns its assigned id. Any id already
// set on rec is ignored.
func (s *SQLiteStore) Insert(ctx context.Context, rec model.Record) (int64, error) {
	result, err := s.db.ExecContext(ctx, insertRecordSQL, recordArgs(rec)...)
	if err != nil {
		return 0, fmt.Errorf("inserting notification from %s: %w", rec.PackageName, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted notification id: %w", err)
	}

	s.changed()
	return id, nil
}

// InsertBatch appends all records in one transaction. Either every record
// is stored or none is.
func (s *SQLiteStore) InsertBatch(ctx context.Context, recs []model.Record) ([]int64, error) {
	if len(recs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, insertRecordSQL)
	if err != nil {
		return nil, fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, 0, len(recs))
	for _, rec := range recs {
		result, err := stmt.ExecContext(ctx, recordArgs(rec)...)
		if err != nil {
			return nil, fmt.Errorf("inserting notification from %s: %w", rec.PackageName, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading inserted notification id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing notification batch: %w", err)
	}

	s.changed()
	return ids, nil
}

// QueryByRecency returns records ordered by timestamp descending.
// limit <= 0 returns every record.
func (s *SQLiteStore) QueryByRecency(ctx context.Context, limit int) ([]model.Record, error) {
	query := "SELECT " + recordColumns + " FROM notifications ORDER BY timestamp DESC, id DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.selectRecords(ctx, query)
}

// QueryByReadState returns read or unread records, newest first.
func (s *SQLiteStore) QueryByReadState(ctx context.Context, isRead bool) ([]model.Record, error) {
	return s.selectRecords(ctx,
		"SELECT "+recordColumns+" FROM notifications WHERE is_read = ? ORDER BY timestamp DESC, id DESC",
		boolToInt(isRead),
	)
}

// QueryByPackage returns the records of one application, newest first.
func (s *SQLiteStore) QueryByPackage(ctx context.Context, packageName string) ([]model.Record, error) {
	return s.selectRecords(ctx,
		"SELECT "+recordColumns+" FROM notifications WHERE package_name = ? ORDER BY timestamp DESC, id DESC",
		packageName,
	)
}

// Get retrieves a single record by id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Record, error) {
	recs, err := s.selectRecords(ctx,
		"SELECT "+recordColumns+" FROM notifications WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return &recs[0], nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM notifications"); err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return n, nil
}

// DeleteOlderThan removes every record with timestamp < cutoffMs and
// returns how many were deleted. A record exactly at the cutoff is kept.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoffMs int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM notifications WHERE timestamp < ?", cutoffMs)
	if err != nil {
		return 0, fmt.Errorf("deleting notifications older than %d: %w", cutoffMs, err)
	}

	n, _ := result.RowsAffected()
	if n > 0 {
		s.changed()
	}
	return n, nil
}

// ClearAll deletes every record.
func (s *SQLiteStore) ClearAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM notifications")
	if err != nil {
		return 0, fmt.Errorf("clearing notifications: %w", err)
	}

	n, _ := result.RowsAffected()
	s.changed()
	return n, nil
}

// MarkRead sets the read flag of a record.
func (s *SQLiteStore) MarkRead(ctx context.Context, id int64, read bool) error {
	return s.updateRecord(ctx, id,
		"UPDATE notifications SET is_read = ? WHERE id = ?", boolToInt(read), id)
}

// SetNotes replaces the user tag and notes of a record.
func (s *SQLiteStore) SetNotes(ctx context.Context, id int64, tag, notes string) error {
	return s.updateRecord(ctx, id,
		"UPDATE notifications SET tag = ?, notes = ? WHERE id = ?", tag, notes, id)
}

// Delete removes a single record.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	return s.updateRecord(ctx, id, "DELETE FROM notifications WHERE id = ?", id)
}

func (s *SQLiteStore) updateRecord(ctx context.Context, id int64, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating notification %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	s.changed()
	return nil
}

func (s *SQLiteStore) selectRecords(ctx context.Context, query string, args ...any) ([]model.Record, error) {
	var recs []model.Record
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	return recs, nil
}
