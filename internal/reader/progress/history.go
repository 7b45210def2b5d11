// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package progress

import (
	"context"
	"sync"

	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/internal/platform/constants"
	"github.com/minhlq/folio/internal/platform/kvstore"
)

// HistoryEntry is the denormalized per-book record in the global reading
// history, derived from [Record] every time progress is saved.
type HistoryEntry struct {
	// BookID identifies the book this entry summarizes.
	BookID string `json:"bookId"`
	// LastRead is the epoch-millisecond timestamp of the latest save.
	LastRead int64 `json:"lastRead"`
	// Progress is the completion fraction in [0,1].
	Progress float64 `json:"progress"`
	// TotalTimeMs is the accumulated reading time in milliseconds.
	TotalTimeMs int64 `json:"totalTimeMs"`
	// CurrentPage is the 1-based page at the latest save.
	CurrentPage int `json:"currentPage"`
	// TotalPages is the page count known at the latest save.
	TotalPages int `json:"totalPages"`
}

// History is the global reading-history list, shared across all open books.
//
// # Eviction
//
// The list holds at most [constants.ReadingHistoryLimit] entries. A book
// already present is updated in place at its existing index; a new book is
// prepended and, when the cap is exceeded, the tail entry is evicted. This
// is insertion-order eviction, not LRU: re-reading an old book does not
// move it to the front.
//
// # Concurrency
//
// The list is a single shared key in the store, so every read-modify-write
// runs under one writer mutex to keep trackers for different books from
// interleaving.
type History struct {
	mu    sync.Mutex
	store kvstore.Store
}

// NewHistory creates a History backed by store.
func NewHistory(store kvstore.Store) *History {
	return &History{store: store}
}

// Upsert records e in the history list and persists it.
func (h *History) Upsert(ctx context.Context, e HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.loadLocked(ctx)
	if err != nil {
		return err
	}

	idx := -1
	for i := range entries {
		if entries[i].BookID == e.BookID {
			idx = i
			break
		}
	}

	if idx >= 0 {
		entries[idx] = e
	} else {
		entries = append([]HistoryEntry{e}, entries...)
		if len(entries) > constants.ReadingHistoryLimit {
			entries = entries[:constants.ReadingHistoryLimit]
		}
	}

	return h.store.Set(ctx, constants.StorageKeyHistory, entries)
}

// Entries returns the current history list, newest insertions first.
func (h *History) Entries(ctx context.Context) ([]HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadLocked(ctx)
}

// loadLocked reads the persisted list, treating a missing key as empty.
func (h *History) loadLocked(ctx context.Context) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	if err := h.store.Get(ctx, constants.StorageKeyHistory, &entries); err != nil {
		if apperr.IsNotFound(err) {
			return []HistoryEntry{}, nil
		}
		return nil, err
	}
	return entries, nil
}
