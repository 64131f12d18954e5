package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("history entry not found")

// Status is the outcome of a recorded query.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Entry is one executed query.
type Entry struct {
	ID          string        `json:"id"`
	Cube        string        `json:"cube"`
	Fingerprint string        `json:"fingerprint"`
	Scenario    string        `json:"scenario,omitempty"`
	MDX         string        `json:"mdx"`
	Status      Status        `json:"status"`
	ErrorCode   string        `json:"error_code,omitempty"`
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	Rows        int           `json:"rows"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Cube        string
	Fingerprint string
	Status      Status

	// Limit caps the number of entries; 0 means no limit.
	Limit int
}

// Record inserts an entry. Re-recording an existing id is a no-op.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("record history: empty id")
	}
	if e.Status != StatusOK && e.Status != StatusFailed {
		return fmt.Errorf("record history: invalid status %q", e.Status)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_history
		(id, cube, fingerprint, scenario, mdx, status, error_code, error, duration_ns, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Cube,
		e.Fingerprint,
		e.Scenario,
		e.MDX,
		string(e.Status),
		e.ErrorCode,
		e.Error,
		e.Duration.Nanoseconds(),
		e.Rows,
		e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

const selectEntry = `
	SELECT id, cube, fingerprint, scenario, mdx, status, error_code, error, duration_ns, row_count, created_at
	FROM query_history`

// Get returns the entry with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", id, err)
	}
	return e, nil
}

// List returns matching entries, newest first. It never returns nil.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var where []string
	var args []any
	if f.Cube != "" {
		where = append(where, "cube = ?")
		args = append(args, f.Cube)
	}
	if f.Fingerprint != "" {
		where = append(where, "fingerprint = ?")
		args = append(args, f.Fingerprint)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := selectEntry
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id COLLATE BINARY DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("list history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e          Entry
		status     string
		durationNS int64
		createdNS  int64
	)
	err := sc.Scan(
		&e.ID,
		&e.Cube,
		&e.Fingerprint,
		&e.Scenario,
		&e.MDX,
		&status,
		&e.ErrorCode,
		&e.Error,
		&durationNS,
		&e.Rows,
		&createdNS,
	)
	if err != nil {
		return Entry{}, err
	}
	e.Status = Status(status)
	e.Duration = time.Duration(durationNS)
	e.CreatedAt = time.Unix(0, createdNS).UTC()
	return e, nil
}
