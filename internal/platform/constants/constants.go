// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, storage key names, and cross-cutting
keys that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Reader Timing: autosave and activity-poll cadences.
  - Persistence: the key-value storage layout owned by the reader stores.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "folio-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Reader Timing

const (
	// DefaultAutosaveInterval is how often an active reading session flushes
	// accrued reading time to the store.
	DefaultAutosaveInterval = 30 * time.Second

	// DefaultIdleThreshold is how long without observed input before a reader
	// is considered inactive.
	DefaultIdleThreshold = 60 * time.Second

	// ActivityPollInterval is the cadence at which the activity detector
	// re-evaluates the active/inactive state.
	ActivityPollInterval = 1 * time.Second
)

// # Persistence Layout
//
// All reader state lives in a flat key-value layout. Each store owns its
// key-space exclusively; per-book keys append the book ID to the prefix.

const (
	// StorageKeySettings holds the global ReaderSettings document.
	StorageKeySettings = "reader_settings"

	// StorageKeyProgressPrefix + bookID holds a ReadingProgress document.
	StorageKeyProgressPrefix = "reading_progress_"

	// StorageKeyBookmarksPrefix + bookID holds a Bookmark array.
	StorageKeyBookmarksPrefix = "bookmarks_"

	// StorageKeyNotesPrefix + bookID holds a Note array.
	StorageKeyNotesPrefix = "notes_"

	// StorageKeyHistory holds the global reading-history list.
	StorageKeyHistory = "reading_history"

	// ReadingHistoryLimit caps the global reading-history list. The oldest
	// inserted entry is evicted first once the cap is reached.
	ReadingHistoryLimit = 100

	// NoteExportVersion is the format version stamped on exported note documents.
	NoteExportVersion = "1.0"
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often idle limiter buckets are reaped.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long an idle client keeps its limiter bucket.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # Response Fields

const (
	FieldCode  = "code"
	FieldError = "error"
)
