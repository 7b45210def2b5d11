// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package activity_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/minhlq/folio/internal/reader/activity"
)

// flipRecorder collects state-flip notifications in order.
type flipRecorder struct {
	mu    sync.Mutex
	flips []bool
}

func (r *flipRecorder) listen(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flips = append(r.flips, active)
}

func (r *flipRecorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(r.flips))
	copy(out, r.flips)
	return out
}

/*
TestEventClass_Valid verifies the recognised interaction event classes.
*/
func TestEventClass_Valid(t *testing.T) {
	valid := []activity.EventClass{
		activity.EventPointerDown,
		activity.EventKeyDown,
		activity.EventPointerMove,
		activity.EventWheel,
		activity.EventTouchStart,
	}
	for _, ev := range valid {
		assert.True(t, ev.Valid(), string(ev))
	}

	assert.False(t, activity.EventClass("scroll").Valid())
	assert.False(t, activity.EventClass("").Valid())
}

/*
TestDetector_IdleAfterThreshold verifies the reader is demoted to idle once
the threshold elapses without events, and that listeners hear exactly one flip.
*/
func TestDetector_IdleAfterThreshold(t *testing.T) {
	d := activity.NewDetector(30*time.Millisecond, 5*time.Millisecond)
	defer d.Close()

	rec := &flipRecorder{}
	d.AddListener("test", rec.listen)

	// 1. Starts active
	assert.True(t, d.Active())

	// 2. Goes idle once the threshold passes
	assert.Eventually(t, func() bool { return !d.Active() },
		time.Second, 5*time.Millisecond)

	// 3. Exactly one idle notification despite many poll ticks
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []bool{false}, rec.snapshot())
}

/*
TestDetector_ObserveFlipsBackImmediately verifies that an observed event
promotes an idle reader to active without waiting for the next poll tick.
*/
func TestDetector_ObserveFlipsBackImmediately(t *testing.T) {
	d := activity.NewDetector(20*time.Millisecond, 5*time.Millisecond)
	defer d.Close()

	rec := &flipRecorder{}
	d.AddListener("test", rec.listen)

	assert.Eventually(t, func() bool { return !d.Active() },
		time.Second, 5*time.Millisecond)

	d.Observe(activity.EventKeyDown)

	// Flip is synchronous, no polling involved
	flips := rec.snapshot()
	if assert.GreaterOrEqual(t, len(flips), 2) {
		assert.Equal(t, []bool{false, true}, flips[:2])
	}
}

/*
TestDetector_ObserveIgnoresUnknownEvents verifies that unrecognised event
classes do not refresh the activity timestamp.
*/
func TestDetector_ObserveIgnoresUnknownEvents(t *testing.T) {
	d := activity.NewDetector(30*time.Millisecond, 5*time.Millisecond)
	defer d.Close()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) && d.Active() {
		d.Observe(activity.EventClass("bogus"))
		time.Sleep(5 * time.Millisecond)
	}

	// Bogus events never reset the clock, so the detector still went idle
	assert.False(t, d.Active())
}

/*
TestDetector_RemoveListener verifies listener removal and idempotency.
*/
func TestDetector_RemoveListener(t *testing.T) {
	d := activity.NewDetector(time.Hour, time.Hour)
	defer d.Close()

	rec := &flipRecorder{}
	d.AddListener("test", rec.listen)
	d.RemoveListener("test")
	d.RemoveListener("test") // no-op

	d.Observe(activity.EventPointerDown)
	assert.Empty(t, rec.snapshot())
}

/*
TestDetector_CloseIsIdempotent verifies Close can be called repeatedly.
*/
func TestDetector_CloseIsIdempotent(t *testing.T) {
	d := activity.NewDetector(time.Hour, time.Hour)
	d.Close()
	d.Close()
}

/*
TestDetector_CloseClearsListeners verifies that no flip can reach a listener
after Close, even when an event is still observed.
*/
func TestDetector_CloseClearsListeners(t *testing.T) {
	d := activity.NewDetector(20*time.Millisecond, 5*time.Millisecond)

	rec := &flipRecorder{}
	d.AddListener("test", rec.listen)

	// Wait for the idle notification to actually land before closing
	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 1 },
		time.Second, 5*time.Millisecond)

	d.Close()

	// The idle-to-active flip happens, but the listener set is gone
	d.Observe(activity.EventKeyDown)
	assert.True(t, d.Active())
	assert.Equal(t, []bool{false}, rec.snapshot())
}
