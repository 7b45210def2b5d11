// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package progress

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhlq/folio/internal/platform/constants"
	"github.com/minhlq/folio/internal/platform/kvstore"
	"github.com/minhlq/folio/internal/reader/activity"
)

// fakeClock is a manually advanced clock for deterministic time accrual.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestTracker builds a tracker on a memory store with a fake clock and
// timers that never fire on their own.
func newTestTracker(t *testing.T, bookID string) (*Tracker, *fakeClock, kvstore.Store) {
	t.Helper()

	store := kvstore.NewMemoryStore()
	detector := activity.NewDetector(time.Hour, time.Hour)
	t.Cleanup(detector.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tr := NewTracker(context.Background(), store, NewHistory(store), detector,
		logger, bookID, time.Hour)
	t.Cleanup(func() { tr.Close(context.Background()) })

	clock := newFakeClock()
	tr.mu.Lock()
	tr.now = clock.Now
	tr.lastFlush = clock.Now()
	tr.mu.Unlock()

	return tr, clock, store
}

/*
TestTracker_UpdateProgress verifies the navigation scenario: opening a
ten-page book and moving to page five yields 50% and an immediate save with
a matching history entry.
*/
func TestTracker_UpdateProgress(t *testing.T) {
	ctx := context.Background()
	tr, _, store := newTestTracker(t, "book-1")

	tr.UpdateProgress(ctx, 5, 10)

	assert.Equal(t, 50, tr.Progress())
	assert.Equal(t, 5, tr.LastPosition())

	// 1. Record persisted immediately, not on the timer
	var rec Record
	require.NoError(t, store.Get(ctx, constants.StorageKeyProgressPrefix+"book-1", &rec))
	assert.Equal(t, 5, rec.CurrentPage)
	assert.Equal(t, 10, rec.TotalPages)

	// 2. History entry upserted with the completion fraction
	entries, err := NewHistory(store).Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "book-1", entries[0].BookID)
	assert.InDelta(t, 0.5, entries[0].Progress, 1e-9)
}

/*
TestTracker_ClampsPosition verifies out-of-range positions are clamped
rather than rejected.
*/
func TestTracker_ClampsPosition(t *testing.T) {
	ctx := context.Background()
	tr, _, _ := newTestTracker(t, "book-clamp")

	tr.UpdateProgress(ctx, 50, 10)
	assert.Equal(t, 10, tr.LastPosition())

	tr.UpdateProgress(ctx, 0, 10)
	assert.Equal(t, 1, tr.LastPosition())

	tr.UpdateProgress(ctx, 3, 0) // page count treated as 1
	assert.Equal(t, 1, tr.LastPosition())
	assert.Equal(t, 100, tr.Progress())
}

/*
TestTracker_IdleFlush verifies that entering Idle flushes accrued time
immediately and that idle wall-clock time is never counted.
*/
func TestTracker_IdleFlush(t *testing.T) {
	tr, clock, _ := newTestTracker(t, "book-idle")

	// 1. Five active seconds, then the idle transition flushes them
	clock.Advance(5 * time.Second)
	tr.onActivity(false)
	assert.Equal(t, int64(5000), tr.Snapshot().TotalTimeMs)

	// 2. A long idle gap accrues nothing
	clock.Advance(10 * time.Minute)
	tr.onActivity(true)
	clock.Advance(2 * time.Second)
	tr.onActivity(false)
	assert.Equal(t, int64(7000), tr.Snapshot().TotalTimeMs)

	assert.Equal(t, "7 seconds", tr.ReadingTime())
}

/*
TestTracker_TotalTimeMonotonic verifies the accumulated total never
decreases across flush points.
*/
func TestTracker_TotalTimeMonotonic(t *testing.T) {
	ctx := context.Background()
	tr, clock, _ := newTestTracker(t, "book-mono")

	var prev int64
	for i := 0; i < 5; i++ {
		clock.Advance(time.Duration(i) * time.Second)
		tr.UpdateProgress(ctx, i+1, 10)

		total := tr.Snapshot().TotalTimeMs
		assert.GreaterOrEqual(t, total, prev)
		prev = total
	}
}

/*
TestTracker_RestoresPersistedRecord verifies a new tracker resumes from the
last saved position of a previous session.
*/
func TestTracker_RestoresPersistedRecord(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, constants.StorageKeyProgressPrefix+"book-2", Record{
		BookID:      "book-2",
		TotalTimeMs: 90_000,
		CurrentPage: 7,
		TotalPages:  20,
	}))

	detector := activity.NewDetector(time.Hour, time.Hour)
	t.Cleanup(detector.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tr := NewTracker(ctx, store, NewHistory(store), detector, logger, "book-2", time.Hour)
	t.Cleanup(func() { tr.Close(ctx) })

	assert.Equal(t, 7, tr.LastPosition())
	assert.Equal(t, 35, tr.Progress())
	assert.Equal(t, "1 minute 30 seconds", tr.ReadingTime())
}

/*
TestHistory_UpsertInPlace verifies that an existing book keeps its index in
the history list instead of moving to the front.
*/
func TestHistory_UpsertInPlace(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(kvstore.NewMemoryStore())

	require.NoError(t, h.Upsert(ctx, HistoryEntry{BookID: "a", CurrentPage: 1}))
	require.NoError(t, h.Upsert(ctx, HistoryEntry{BookID: "b", CurrentPage: 1}))
	require.NoError(t, h.Upsert(ctx, HistoryEntry{BookID: "a", CurrentPage: 9}))

	entries, err := h.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest insertion stays first; "a" updated at its old index
	assert.Equal(t, "b", entries[0].BookID)
	assert.Equal(t, "a", entries[1].BookID)
	assert.Equal(t, 9, entries[1].CurrentPage)
}

/*
TestHistory_Eviction verifies the cap evicts the oldest insertion, not the
least recently read book.
*/
func TestHistory_Eviction(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(kvstore.NewMemoryStore())

	for i := 0; i < constants.ReadingHistoryLimit; i++ {
		require.NoError(t, h.Upsert(ctx, HistoryEntry{BookID: bookID(i)}))
	}

	// Touch the oldest book, then insert a brand new one
	require.NoError(t, h.Upsert(ctx, HistoryEntry{BookID: bookID(0), CurrentPage: 5}))
	require.NoError(t, h.Upsert(ctx, HistoryEntry{BookID: "brand-new"}))

	entries, err := h.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, constants.ReadingHistoryLimit)

	assert.Equal(t, "brand-new", entries[0].BookID)

	// bookID(0) sat at the tail despite being recently read, so it was evicted
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.BookID] = true
	}
	assert.False(t, ids[bookID(0)])
	assert.True(t, ids[bookID(1)])
}

func bookID(i int) string {
	return "book-" + string(rune('A'+i/26)) + string(rune('A'+i%26))
}
