package storage

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "materials/p1/plan.pdf", []byte("%PDF-1.4"), "application/pdf"))

	rc, err := store.Open(ctx, "materials/p1/plan.pdf")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "%PDF-1.4", string(body))

	require.NoError(t, store.Delete(ctx, "materials/p1/plan.pdf"))
	_, err = store.Open(ctx, "materials/p1/plan.pdf")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageKeepsKeysInsideBaseDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	path, err := store.resolve("../../etc/passwd")
	require.NoError(t, err)
	require.Contains(t, path, dir)

	_, err = store.resolve("")
	require.Error(t, err)
}
