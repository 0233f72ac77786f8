package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autoprep-inc/autoprep-engine/pkg/apperrors"
)

func newTestStore(t *testing.T) (*FileStore, string, string) {
	t.Helper()
	root := t.TempDir()
	uploads := filepath.Join(root, "uploads")
	processed := filepath.Join(root, "processed")
	require.NoError(t, os.MkdirAll(uploads, 0o755))
	require.NoError(t, os.MkdirAll(processed, 0o755))
	return NewFileStore(uploads, processed, zap.NewNop()), uploads, processed
}

func TestStoreResolvePrefersUploads(t *testing.T) {
	store, uploads, processed := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "data.csv"), []byte("a\n1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processed, "data.csv"), []byte("b\n2\n"), 0o644))

	path, err := store.Resolve("data.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(uploads, "data.csv"), path)
}

func TestStoreResolveFallsBackToProcessed(t *testing.T) {
	store, _, processed := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(processed, "out.csv"), []byte("a\n1\n"), 0o644))

	path, err := store.Resolve("out.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(processed, "out.csv"), path)
}

func TestStoreResolveAddsCSVExtension(t *testing.T) {
	store, uploads, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "sales.csv"), []byte("a\n1\n"), 0o644))

	path, err := store.Resolve("sales")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(uploads, "sales.csv"), path)
}

func TestStoreResolveNotFound(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Resolve("missing.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, apperrors.KindStorage, apperrors.KindOf(err))
}

func TestStoreResolveRejectsTraversal(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Resolve("../secrets.csv")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestStoreLoadAndSaveProcessed(t *testing.T) {
	store, uploads, processed := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "in.csv"), []byte("x,y\n1,2\n3,4\n"), 0o644))

	ds, err := store.Load("in.csv", ",")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Rows())

	path, err := store.SaveProcessed("in_processed.csv", ds)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(processed, "in_processed.csv"), path)

	again, err := store.Load("in_processed.csv", ",")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Rows())
}

func TestStoreListUploads(t *testing.T) {
	store, uploads, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "a.csv"), []byte("x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(uploads, "b.json"), []byte("{}"), 0o644))

	names, err := store.ListUploads()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv"}, names)
}
