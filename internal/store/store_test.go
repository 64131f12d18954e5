package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(id string, offset time.Duration, mutate ...func(*Entry)) Entry {
	e := Entry{
		ID:          id,
		Cube:        "Sales",
		Fingerprint: "fp-" + id,
		MDX:         "SELECT [Measures].AllMembers ON COLUMNS FROM [Sales]",
		Status:      StatusOK,
		Duration:    25 * time.Millisecond,
		Rows:        3,
		CreatedAt:   base.Add(offset),
	}
	for _, m := range mutate {
		m(&e)
	}
	return e
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1",
		"busy_timeout": "5000",
		"user_version": "2",
	}
	for name, want := range tests {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestOpen_MigratesV1Database(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("DROP INDEX idx_history_fingerprint")
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_history_fingerprint'").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestClose_Nil(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}

func TestRecordAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := entry("q-1", 0, func(e *Entry) { e.Scenario = "stress" })
	require.NoError(t, s.Record(ctx, want))

	got, err := s.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRecord_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, entry("q-1", 0)))
	require.NoError(t, s.Record(ctx, entry("q-1", time.Hour, func(e *Entry) { e.Rows = 99 })))

	got, err := s.Get(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Rows, "first write wins")
}

func TestRecord_Invalid(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.Record(ctx, entry("", 0)))
	assert.Error(t, s.Record(ctx, entry("q-1", 0, func(e *Entry) { e.Status = "pending" })))
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	failed := func(e *Entry) {
		e.Status = StatusFailed
		e.ErrorCode = "ENGINE_UNAVAILABLE"
		e.Error = "connection refused"
		e.Rows = 0
	}
	other := func(e *Entry) { e.Cube = "Risk" }
	same := func(e *Entry) { e.Fingerprint = "fp-shared" }

	for _, e := range []Entry{
		entry("q-1", 0, same),
		entry("q-2", time.Minute, failed),
		entry("q-3", 2*time.Minute, other),
		entry("q-4", 3*time.Minute, same),
		entry("q-5", 3*time.Minute),
	} {
		require.NoError(t, s.Record(ctx, e))
	}

	ids := func(entries []Entry) []string {
		out := []string{}
		for _, e := range entries {
			out = append(out, e.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first, id breaks ties", Filter{}, []string{"q-5", "q-4", "q-3", "q-2", "q-1"}},
		{"by cube", Filter{Cube: "Risk"}, []string{"q-3"}},
		{"by status", Filter{Status: StatusFailed}, []string{"q-2"}},
		{"by fingerprint", Filter{Fingerprint: "fp-shared"}, []string{"q-4", "q-1"}},
		{"combined", Filter{Cube: "Sales", Status: StatusOK}, []string{"q-5", "q-4", "q-1"}},
		{"limit", Filter{Limit: 2}, []string{"q-5", "q-4"}},
		{"no match", Filter{Cube: "Nope"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	got, err := s.Get(ctx, "q-2")
	require.NoError(t, err)
	assert.Equal(t, "ENGINE_UNAVAILABLE", got.ErrorCode)
	assert.Equal(t, "connection refused", got.Error)
}

func TestList_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)
	got, err := s.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
