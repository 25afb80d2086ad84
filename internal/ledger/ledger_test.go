package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bimmerbailey/credsift/internal/sorter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := openTemp(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }
	ctx := context.Background()

	ok := sorter.Result{
		Path:    "/data/a.txt",
		Lines:   10,
		Dropped: 1,
		Buckets: map[string]int{"good": 6, "len_limit": 3},
		Elapsed: 1500 * time.Millisecond,
	}
	require.NoError(t, l.Record(ctx, "run-1", ok, nil))
	require.NoError(t, l.Record(ctx, "run-1", sorter.Result{Path: "/data/b.txt"}, errors.New("not a regular file")))

	entries, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "/data/b.txt", entries[0].Path, "newest first")
	assert.Equal(t, "not a regular file", entries[0].Error)
	assert.Nil(t, entries[0].Buckets)

	got := entries[1]
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 10, got.Lines)
	assert.Equal(t, 1, got.Dropped)
	assert.Equal(t, 6, got.Good)
	assert.Equal(t, ok.Buckets, got.Buckets)
	assert.Empty(t, got.Error)
	assert.Equal(t, 1500*time.Millisecond, got.Elapsed)
	assert.True(t, fixed.Add(-1500*time.Millisecond).Equal(got.StartedAt))
}

func TestRecent_Limit(t *testing.T) {
	l := openTemp(t)
	ctx := context.Background()

	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, l.Record(ctx, "run", sorter.Result{Path: p}, nil))
	}

	entries, err := l.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Path)
	assert.Equal(t, "b", entries[1].Path)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Record(context.Background(), "run", sorter.Result{Path: "a"}, nil))
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, path, l.Path())

	entries, err := l.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
