// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package kvstore provides the per-device persistent key-value store backing
all reader state.

It maps string keys to JSON-serializable values with no schema enforcement;
callers own validation of whatever they read back.

Core Responsibilities:

  - Layout: flat string keys (reader_settings, reading_progress_<bookId>, ...).
  - Encoding: every value is stored as a JSON document.
  - Backends: file (one document per key), Redis (shared instance), memory.

Each reader store operates on a disjoint, book-scoped key namespace, so no
cross-key locking is required at this layer.
*/
package kvstore

import (
	"context"

	"github.com/minhlq/folio/internal/platform/apperr"
)

// Store is the persistence contract shared by all reader state stores.
type Store interface {
	// Get reads the JSON document at key into out.
	//
	// Returns [apperr.NotFound] if the key has never been written.
	Get(ctx context.Context, key string, out any) error

	// Set JSON-encodes value and persists it at key, replacing any
	// previous document.
	Set(ctx context.Context, key string, value any) error

	// Delete removes the document at key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}

// notFound builds the canonical missing-key error.
func notFound(key string) error {
	return apperr.NotFound("Key " + key)
}
