package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record appends a comparison to the history. A zero CreatedAt is stamped
// with the current time.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("history: record id is required")
	}
	if _, ok := ParseOutcome(string(rec.Outcome)); !ok {
		return fmt.Errorf("history: invalid outcome %q", rec.Outcome)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	var similarity any
	if rec.Outcome != OutcomeFailed {
		similarity = rec.Similarity
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO comparisons (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		formatTime(rec.CreatedAt),
		nullableString(rec.First.Name),
		rec.First.Bytes,
		rec.First.DurationSeconds,
		nullableString(rec.Second.Name),
		rec.Second.Bytes,
		rec.Second.DurationSeconds,
		similarity,
		boolToInt(rec.SameSpeaker),
		rec.Threshold,
		rec.Backend,
		string(rec.Outcome),
		nullableString(rec.Error),
		rec.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("insert comparison: %w", err)
	}
	return nil
}

// Get fetches a record by identifier. A missing record returns nil, nil.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+recordColumns+` FROM comparisons WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comparison: %w", err)
	}
	return rec, nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM comparisons`
	var args []any
	if filter.Outcome != "" {
		query += ` WHERE outcome = ?`
		args = append(args, string(filter.Outcome))
	}
	query += ` ORDER BY created_at DESC, rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comparisons: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns record counts grouped by outcome.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT outcome, COUNT(1) FROM comparisons GROUP BY outcome`)
	if err != nil {
		return Stats{}, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			outcome string
			count   int
		)
		if err := rows.Scan(&outcome, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		switch Outcome(outcome) {
		case OutcomeSame:
			stats.Same += count
		case OutcomeDifferent:
			stats.Different += count
		case OutcomeFailed:
			stats.Failed += count
		}
	}
	return stats, rows.Err()
}

// Prune deletes records created before olderThan.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM comparisons WHERE created_at < ?`, formatTime(olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune comparisons: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every record.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM comparisons`)
	if err != nil {
		return 0, fmt.Errorf("clear comparisons: %w", err)
	}
	return res.RowsAffected()
}
