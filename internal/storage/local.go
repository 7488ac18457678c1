package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes objects to the local filesystem.
type LocalStore struct {
	baseDir string
	prefix  string
}

// NewLocalStore creates a new local filesystem store.
func NewLocalStore(baseDir, prefix string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create base directory %s: %w", baseDir, err)
	}

	return &LocalStore{
		baseDir: baseDir,
		prefix:  prefix,
	}, nil
}

// NewWriter opens a streaming writer for the object at key.
// Bytes go to a temp file first; Close renames it into place so readers
// never observe a partial object. Abort removes the temp file instead.
func (s *LocalStore) NewWriter(ctx context.Context, key string) (Writer, error) {
	path := filepath.Join(s.baseDir, s.prefix+key)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("create temp file %s: %w", tempPath, err)
	}

	return &localWriter{f: f, tempPath: tempPath, finalPath: path}, nil
}

// localWriter finalizes a temp file into its canonical path on Close.
type localWriter struct {
	f         *os.File
	tempPath  string
	finalPath string
}

func (w *localWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

func (w *localWriter) Close() error {
	if err := w.f.Close(); err != nil {
		os.Remove(w.tempPath)
		return fmt.Errorf("close temp file %s: %w", w.tempPath, err)
	}

	if err := os.Rename(w.tempPath, w.finalPath); err != nil {
		os.Remove(w.tempPath)
		return fmt.Errorf("rename %s to %s: %w", w.tempPath, w.finalPath, err)
	}

	return nil
}

// Abort drops the temp file; nothing appears at the final path.
func (w *localWriter) Abort() error {
	w.f.Close()
	if err := os.Remove(w.tempPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file %s: %w", w.tempPath, err)
	}
	return nil
}

// Exists checks if an object is present at key.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	path := filepath.Join(s.baseDir, s.prefix+key)
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// IsAccessible verifies the base directory is writable.
func (s *LocalStore) IsAccessible(ctx context.Context) error {
	probe, err := os.CreateTemp(s.baseDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("base directory %s not writable: %w", s.baseDir, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// URI returns the canonical URI for the given key.
func (s *LocalStore) URI(key string) string {
	absPath, err := filepath.Abs(filepath.Join(s.baseDir, s.prefix+key))
	if err != nil {
		absPath = filepath.Join(s.baseDir, s.prefix+key)
	}
	return "file://" + absPath
}

// Close is a no-op for local storage.
func (s *LocalStore) Close() error {
	return nil
}

var _ Store = (*LocalStore)(nil)
