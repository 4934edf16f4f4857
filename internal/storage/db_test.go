package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabasePutGetDelete(t *testing.T) {
	ctx := context.Background()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Get(ctx, "history")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.Put(ctx, "history", []byte(`[{"txn_id":"a"}]`)))
	require.NoError(t, db.Put(ctx, "history", []byte(`[{"txn_id":"b"}]`)))

	got, err := db.Get(ctx, "history")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"txn_id":"b"}]`, string(got), "second put should replace the first in full")

	require.NoError(t, db.Delete(ctx, "history"))
	_, err = db.Get(ctx, "history")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, db.Delete(ctx, "history"))
}

func TestDatabaseSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := NewDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.Put(ctx, "fraudshield:history", []byte("[]")))
	require.NoError(t, db.Close())

	db, err = NewDatabase(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	got, err := db.Get(ctx, "fraudshield:history")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	v := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", v))
	v[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}
