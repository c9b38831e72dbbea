package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"energy-forecast/src/helpers"
	"energy-forecast/src/interfaces"
	"energy-forecast/src/logger"
	"energy-forecast/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logger.Logger {
	l := logger.NewLogger(nil, "test")
	l.SetOutput(io.Discard)
	return l
}

const sampleKey = "0cc175b9c0f1b6a831c399e269772661"

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, store interfaces.ICacheStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, sampleKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, sampleKey, []byte("first")))
	require.NoError(t, store.Put(ctx, sampleKey, []byte("second")))

	body, ok, err := store.Get(ctx, sampleKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", string(body))

	require.NoError(t, store.Put(ctx, "92eb5ffee6ae2fec3ad71c777531578f", []byte("b")))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFileStoreContract(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "cache"), quietLogger())
	require.NoError(t, store.Initialize(context.Background()))
	exerciseStore(t, store)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, quietLogger())
	require.NoError(t, store.Put(context.Background(), sampleKey, []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, sampleKey, entries[0].Name())
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	store := NewFileStore(t.TempDir(), quietLogger())
	for _, key := range []string{"", "../escape", ".hidden", `a\b`} {
		err := store.Put(context.Background(), key, []byte("x"))
		var storageErr *helpers.StorageError
		assert.ErrorAs(t, err, &storageErr, "key %q", key)
	}
}

func TestFileStoreUnreadableDirIsStorageError(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	store := NewFileStore(dir, quietLogger())
	require.NoError(t, store.Put(context.Background(), sampleKey, []byte("x")))
	require.NoError(t, os.Chmod(dir, 0o000))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, _, err := store.Get(context.Background(), sampleKey)
	var storageErr *helpers.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestFileStoreCountMissingDir(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent"), quietLogger())
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStoreContract(t *testing.T) {
	store := NewSQLiteStore(":memory:", quietLogger())
	require.NoError(t, store.Initialize(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	first := NewSQLiteStore(path, quietLogger())
	require.NoError(t, first.Initialize(ctx))
	require.NoError(t, first.Put(ctx, sampleKey, []byte("kept")))
	require.NoError(t, first.Close())

	second := NewSQLiteStore(path, quietLogger())
	require.NoError(t, second.Initialize(ctx))
	t.Cleanup(func() { _ = second.Close() })

	body, ok, err := second.Get(ctx, sampleKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "kept", string(body))
}

func TestSQLiteStoreUninitialized(t *testing.T) {
	store := NewSQLiteStore(":memory:", quietLogger())
	_, _, err := store.Get(context.Background(), sampleKey)
	var storageErr *helpers.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestNewStoreSelectsBackend(t *testing.T) {
	cases := map[string]string{"": "file", "file": "file", "sqlite": "sqlite", "postgres": "postgres"}
	for backend, want := range cases {
		cfg := &models.MConfig{Name: "Energy-Forecast", Cache: models.MCacheConfig{Backend: backend, Dir: t.TempDir(), DBPath: ":memory:"}}
		store, err := NewStore(cfg, quietLogger())
		require.NoError(t, err)
		assert.Equal(t, want, store.Name())
	}

	_, err := NewStore(&models.MConfig{Cache: models.MCacheConfig{Backend: "redis"}}, quietLogger())
	assert.Error(t, err)
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "energy_forecast", schemaName("Energy-Forecast"))
	assert.Equal(t, "energy_forecast", schemaName(""))
	assert.Equal(t, "drop", schemaName(`"; DROP`))
}
