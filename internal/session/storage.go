package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/marquee/internal/shared"
	"github.com/gofrs/flock"
)

// Storage persists session values under fixed keys.
//
// Get reports whether key exists. Remove ignores missing keys.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(keys ...string) error
}

// MemoryStore is a process-local [Storage].
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

// FileStore keeps session values in a JSON object on disk.
//
// Every access takes its own advisory lock on "<path>.lock", so concurrent callers in one
// process exclude each other like separate processes do. Writes replace the file atomically.
type FileStore struct {
	path string
}

// NewFileStore creates a [FileStore] at path, expanding "~/" and creating the parent directory.
func NewFileStore(path string) (*FileStore, error) {
	path = shared.ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: create session directory: %v", shared.ErrStorage, err)
	}
	return &FileStore{path: path}, nil
}

// locker returns a fresh lock handle; a shared [flock.Flock] would treat a second Lock as already held.
func (f *FileStore) locker() *flock.Flock {
	return flock.New(f.path + ".lock")
}

// Path returns the session file location.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Get(key string) (string, bool, error) {
	lock := f.locker()
	if err := lock.RLock(); err != nil {
		return "", false, fmt.Errorf("%w: acquire lock: %v", shared.ErrStorage, err)
	}
	defer lock.Close()

	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStore) Set(key, value string) error {
	return f.update(func(values map[string]string) {
		values[key] = value
	})
}

func (f *FileStore) Remove(keys ...string) error {
	return f.update(func(values map[string]string) {
		for _, k := range keys {
			delete(values, k)
		}
	})
}

func (f *FileStore) update(mutate func(map[string]string)) error {
	lock := f.locker()
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("%w: acquire lock: %v", shared.ErrStorage, err)
	}
	defer lock.Close()

	values, err := f.read()
	if err != nil {
		return err
	}
	mutate(values)
	return f.write(values)
}

func (f *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read session file: %v", shared.ErrStorage, err)
	}
	if len(data) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: decode session file: %v", shared.ErrStorage, err)
	}
	return values, nil
}

// write replaces the file atomically via a temp file in the same directory.
func (f *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode session file: %v", shared.ErrStorage, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", shared.ErrStorage, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write session file: %v", shared.ErrStorage, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: chmod session file: %v", shared.ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close session file: %v", shared.ErrStorage, err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: replace session file: %v", shared.ErrStorage, err)
	}
	return nil
}
