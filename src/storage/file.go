package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"energy-forecast/src/helpers"
	"energy-forecast/src/logger"
)

const tempPrefix = ".tmp-"

// -----------------------------------------------------------------------------
// FileStore keeps one file per cache key in a flat directory.
// -----------------------------------------------------------------------------

type FileStore struct {
	Dir    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFileStore(dir string, log *logger.Logger) *FileStore {
	return &FileStore{
		Dir:    dir,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (s *FileStore) Name() string {
	return "file"
}

// -----------------------------------------------------------------------------

func (s *FileStore) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return helpers.NewStorageError(fmt.Sprintf("create cache dir %s", s.Dir), err)
	}
	s.Logger.Info("File cache ready in %s", s.Dir)
	return nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}

	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, helpers.NewStorageError("read cache entry "+key, err)
	}
	return body, true, nil
}

// -----------------------------------------------------------------------------

// Put writes through a temp file and a rename, so a concurrent Get sees
// either the old entry or the complete new one.
func (s *FileStore) Put(ctx context.Context, key string, body []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return helpers.NewStorageError("create cache dir", err)
	}

	tmp, err := os.CreateTemp(s.Dir, tempPrefix+key+"-*")
	if err != nil {
		return helpers.NewStorageError("create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return helpers.NewStorageError("write cache entry "+key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return helpers.NewStorageError("close cache entry "+key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return helpers.NewStorageError("commit cache entry "+key, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Count(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, helpers.NewStorageError("list cache dir", err)
	}

	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), tempPrefix) {
			n++
		}
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (s *FileStore) Close() error {
	return nil
}

// -----------------------------------------------------------------------------

// path rejects keys that would escape the cache directory.
func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, `/\`) {
		return "", helpers.NewStorageError(fmt.Sprintf("invalid cache key %q", key), nil)
	}
	return filepath.Join(s.Dir, key), nil
}
