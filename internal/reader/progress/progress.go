// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package progress owns per-book reading position and elapsed-time accounting.

# Overview

A [Tracker] is a two-state machine (Active/Idle) driven exclusively by
activity-detector callbacks. While Active, a periodic autosave timer accrues
wall-clock time since the last flush into the running total and persists.
Entering Idle flushes immediately, so time spent away from the book is never
counted.

# Failure Semantics

Persistence failures are logged and non-fatal: the in-memory record stays
authoritative for the rest of the session.
*/
package progress

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/internal/platform/constants"
	"github.com/minhlq/folio/internal/platform/kvstore"
	"github.com/minhlq/folio/internal/reader/activity"
	"github.com/minhlq/folio/pkg/timefmt"
)

// Record is the persisted reading progress for one book.
//
// Invariants: CurrentPage ≤ TotalPages whenever TotalPages is known, and
// TotalTimeMs never decreases while a session is active.
type Record struct {
	// BookID identifies the book.
	BookID string `json:"bookId"`
	// TotalTimeMs is the accumulated active reading time in milliseconds.
	TotalTimeMs int64 `json:"totalTimeMs"`
	// CurrentPage is the 1-based last read page.
	CurrentPage int `json:"currentPage"`
	// TotalPages is the page count known at the last save.
	TotalPages int `json:"totalPages"`
	// LastSaveTime is the epoch-millisecond timestamp of the last save.
	LastSaveTime int64 `json:"lastSaveTime"`
}

// Tracker accumulates reading time and position for a single open book.
//
// All methods are safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	rec       Record
	active    bool
	lastFlush time.Time

	store    kvstore.Store
	history  *History
	detector *activity.Detector
	logger   *slog.Logger

	interval  time.Duration
	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// NewTracker creates a Tracker for bookID.
//
// Any previously persisted record for the book is restored so the session
// controller can resume at the last saved position. The tracker registers
// itself with the detector and starts its autosave loop; the caller must
// call [Tracker.Close] exactly once when the session ends.
func NewTracker(
	ctx context.Context,
	store kvstore.Store,
	history *History,
	detector *activity.Detector,
	logger *slog.Logger,
	bookID string,
	autosaveInterval time.Duration,
) *Tracker {
	t := &Tracker{
		store:    store,
		history:  history,
		detector: detector,
		logger:   logger.With(slog.String("book_id", bookID)),
		interval: autosaveInterval,
		done:     make(chan struct{}),
		now:      time.Now,
	}

	t.rec = Record{BookID: bookID, CurrentPage: 1, TotalPages: 1}
	key := constants.StorageKeyProgressPrefix + bookID
	if err := store.Get(ctx, key, &t.rec); err != nil && !apperr.IsNotFound(err) {
		t.logger.Warn("failed to restore reading progress", constants.FieldError, err.Error())
	}
	t.rec.BookID = bookID

	t.active = detector.Active()
	t.lastFlush = t.now()

	detector.AddListener("progress:"+bookID, t.onActivity)
	go t.autosave()

	return t
}

// UpdateProgress records a new position and persists it immediately, without
// waiting for the autosave timer. TotalPages below 1 is treated as 1 and
// CurrentPage is clamped into [1, TotalPages].
func (t *Tracker) UpdateProgress(ctx context.Context, currentPage, totalPages int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if totalPages < 1 {
		totalPages = 1
	}
	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}

	t.rec.CurrentPage = currentPage
	t.rec.TotalPages = totalPages
	t.accrueLocked()
	t.saveLocked(ctx)
}

// Progress returns the completion percentage as a rounded integer.
func (t *Tracker) Progress() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.rec.TotalPages
	if total < 1 {
		total = 1
	}
	return int(math.Round(float64(t.rec.CurrentPage) / float64(total) * 100))
}

// ReadingTime returns the accumulated reading time as a human-readable
// string, e.g. "1 hour 5 minutes 30 seconds".
func (t *Tracker) ReadingTime() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return timefmt.Reading(time.Duration(t.rec.TotalTimeMs) * time.Millisecond)
}

// LastPosition returns the last saved 1-based page, the restore point for a
// new session on this book.
func (t *Tracker) LastPosition() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec.CurrentPage
}

// Snapshot returns a copy of the current record.
func (t *Tracker) Snapshot() Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec
}

// Close stops the autosave loop, deregisters from the activity detector, and
// performs a final flush and save. Safe to call multiple times; only the
// first call does work.
func (t *Tracker) Close(ctx context.Context) {
	t.closeOnce.Do(func() {
		close(t.done)
		t.detector.RemoveListener("progress:" + t.rec.BookID)

		t.mu.Lock()
		defer t.mu.Unlock()
		t.accrueLocked()
		t.saveLocked(ctx)
	})
}

// onActivity is the detector callback driving the Active/Idle state machine.
//
// Entering Idle flushes accrued time immediately. Returning to Active resets
// the flush mark so idle wall-clock time is never counted.
func (t *Tracker) onActivity(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if active {
		t.active = true
		t.lastFlush = t.now()
		return
	}

	t.accrueLocked()
	t.active = false
	t.saveLocked(context.Background())
}

// autosave is the periodic flush loop that runs while the session is open.
func (t *Tracker) autosave() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.mu.Lock()
			t.accrueLocked()
			t.saveLocked(context.Background())
			t.mu.Unlock()
		}
	}
}

// accrueLocked folds wall-clock time since the last flush into the total.
// It only accrues while the reader is active.
func (t *Tracker) accrueLocked() {
	if !t.active {
		return
	}
	now := t.now()
	if delta := now.Sub(t.lastFlush); delta > 0 {
		t.rec.TotalTimeMs += delta.Milliseconds()
	}
	t.lastFlush = now
}

// saveLocked persists the record and upserts the global history entry.
// Failures are logged and swallowed; the in-memory record stays authoritative.
func (t *Tracker) saveLocked(ctx context.Context) {
	t.rec.LastSaveTime = t.now().UnixMilli()

	key := constants.StorageKeyProgressPrefix + t.rec.BookID
	if err := t.store.Set(ctx, key, t.rec); err != nil {
		t.logger.Error("failed to persist reading progress",
			constants.FieldError, apperr.StorageError(err).Error(),
			slog.Any("cause", err))
	}

	total := t.rec.TotalPages
	if total < 1 {
		total = 1
	}
	entry := HistoryEntry{
		BookID:      t.rec.BookID,
		LastRead:    t.rec.LastSaveTime,
		Progress:    float64(t.rec.CurrentPage) / float64(total),
		TotalTimeMs: t.rec.TotalTimeMs,
		CurrentPage: t.rec.CurrentPage,
		TotalPages:  t.rec.TotalPages,
	}
	if err := t.history.Upsert(ctx, entry); err != nil {
		t.logger.Error("failed to update reading history",
			constants.FieldError, err.Error())
	}
}
