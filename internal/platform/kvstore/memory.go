// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is a volatile in-process [Store].
//
// # Usage
//
// Intended for tests and demo runs; nothing survives a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]json.RawMessage)}
}

// Get implements [Store].
func (store *MemoryStore) Get(_ context.Context, key string, out any) error {
	store.mu.RLock()
	raw, ok := store.docs[key]
	store.mu.RUnlock()

	if !ok {
		return notFound(key)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("kvstore: decode %q: %w", key, err)
	}
	return nil
}

// Set implements [Store].
func (store *MemoryStore) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %q: %w", key, err)
	}

	store.mu.Lock()
	store.docs[key] = raw
	store.mu.Unlock()
	return nil
}

// Delete implements [Store].
func (store *MemoryStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	delete(store.docs, key)
	store.mu.Unlock()
	return nil
}

// Close implements [Store]. It is a no-op for the memory backend.
func (store *MemoryStore) Close() error { return nil }
