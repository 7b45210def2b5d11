// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore is the default [Store]: one JSON document per key under a data
// directory, the Go analogue of browser local storage.
//
// # Durability
//
// Writes go to a temp file in the same directory followed by an atomic
// rename, so a crash mid-write never leaves a truncated document behind.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates the data directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Get implements [Store].
func (store *FileStore) Get(_ context.Context, key string, out any) error {
	store.mu.Lock()
	raw, err := os.ReadFile(store.path(key))
	store.mu.Unlock()

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(key)
		}
		return fmt.Errorf("kvstore: read %q: %w", key, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("kvstore: decode %q: %w", key, err)
	}
	return nil
}

// Set implements [Store].
func (store *FileStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", key, err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	target := store.path(key)
	tmp, err := os.CreateTemp(store.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("kvstore: temp file for %q: %w", key, err)
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("kvstore: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("kvstore: close %q: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("kvstore: commit %q: %w", key, err)
	}
	return nil
}

// Delete implements [Store].
func (store *FileStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if err := os.Remove(store.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("kvstore: delete %q: %w", key, err)
	}
	return nil
}

// Close implements [Store]. It is a no-op for the file backend.
func (store *FileStore) Close() error { return nil }

// path maps a storage key to a filename, replacing separators that would
// escape the data directory.
func (store *FileStore) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, key)
	return filepath.Join(store.dir, safe+".json")
}
