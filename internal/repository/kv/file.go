package kv

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store backed by a single JSON file on disk. It is the default
// durable backend for a desk running without Redis. The whole map is
// rewritten on every mutation; the data set here is tiny (tokens plus a
// capped notification history), so simplicity wins over smarter formats.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFile loads the file at path if it exists. A missing or corrupt file is
// not an error: the store starts empty, matching the "fall back to empty
// state, never throw" rehydration contract.
func NewFile(path string) *File {
	f := &File{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if err != nil {
		return f
	}
	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return f
	}
	f.data = data
	return f
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return f.flushLocked()
}

func (f *File) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return f.flushLocked()
}

// flushLocked writes through a temp file and renames so a crash mid-write
// cannot leave a half-written store behind.
func (f *File) flushLocked() error {
	raw, err := json.Marshal(f.data)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".kv-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
