// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

// Package activity tracks whether the reader is actively interacting with a book.
//
// # Overview
//
// The reading surface reports interaction events (pointer, keyboard, wheel,
// touch) to a [Detector]. The detector keeps a timestamp of the last event
// and periodically compares it against an idle threshold. Listeners are
// notified only when the active/idle state flips, never on every event,
// so downstream consumers (progress accrual, autosave) stay cheap.
package activity

import (
	"sync"
	"time"
)

// EventClass identifies the kind of user interaction reported to the detector.
type EventClass string

const (
	// EventPointerDown is a mouse button press or pen contact.
	EventPointerDown EventClass = "pointerdown"
	// EventKeyDown is any keyboard key press.
	EventKeyDown EventClass = "keydown"
	// EventPointerMove is pointer movement over the reading surface.
	EventPointerMove EventClass = "pointermove"
	// EventWheel is scroll wheel or trackpad scrolling.
	EventWheel EventClass = "wheel"
	// EventTouchStart is the first contact of a touch gesture.
	EventTouchStart EventClass = "touchstart"
)

// Valid reports whether e is a recognised [EventClass] value.
func (e EventClass) Valid() bool {
	switch e {
	case EventPointerDown, EventKeyDown, EventPointerMove, EventWheel, EventTouchStart:
		return true
	}
	return false
}

// Listener is called when the reader's activity state flips.
//
// The bool argument is true when the reader became active, false when the
// reader crossed the idle threshold. Listeners run outside the detector's
// lock and may call back into the detector.
type Listener func(active bool)

// Detector decides whether the reader is currently active.
//
// # Concurrency
//
// All methods are safe for concurrent use. State flips detected by the
// background poll and by [Detector.Observe] go through the same notify path.
type Detector struct {
	mu           sync.Mutex
	lastActivity time.Time
	active       bool
	listeners    map[string]Listener

	threshold    time.Duration
	pollInterval time.Duration

	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// NewDetector creates a Detector and starts its background poll loop.
//
// The reader is considered idle once threshold elapses without an observed
// event. The poll loop re-evaluates the state every pollInterval.
//
// The detector starts in the active state, matching a session that has just
// been opened by a user action.
func NewDetector(threshold, pollInterval time.Duration) *Detector {
	d := &Detector{
		listeners:    make(map[string]Listener),
		threshold:    threshold,
		pollInterval: pollInterval,
		done:         make(chan struct{}),
		now:          time.Now,
	}
	d.lastActivity = d.now()
	d.active = true

	go d.poll()

	return d
}

// Observe records a user interaction event.
//
// Unknown event classes are ignored. If the reader was idle, the state flips
// to active immediately and listeners are notified without waiting for the
// next poll tick.
func (d *Detector) Observe(ev EventClass) {
	if !ev.Valid() {
		return
	}

	d.mu.Lock()
	d.lastActivity = d.now()
	flipped := !d.active
	if flipped {
		d.active = true
	}
	listeners := d.snapshotLocked(flipped)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(true)
	}
}

// Active reports whether the reader is currently considered active.
func (d *Detector) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// AddListener registers fn under id, replacing any existing listener with
// the same id.
func (d *Detector) AddListener(id string, fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[id] = fn
}

// RemoveListener unregisters the listener with the given id.
//
// Removing an unknown id is a no-op.
func (d *Detector) RemoveListener(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, id)
}

// Close stops the background poll loop and clears the listener set so no
// flip can reach a listener afterwards. It is safe to call multiple times.
func (d *Detector) Close() {
	d.closeOnce.Do(func() {
		close(d.done)

		d.mu.Lock()
		d.listeners = map[string]Listener{}
		d.mu.Unlock()
	})
}

// poll is the background loop that demotes the reader to idle once the
// threshold elapses without any observed event.
func (d *Detector) poll() {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			d.evaluate()
		}
	}
}

// evaluate performs one idle check and notifies listeners on a flip.
func (d *Detector) evaluate() {
	d.mu.Lock()
	flipped := d.active && d.now().Sub(d.lastActivity) >= d.threshold
	if flipped {
		d.active = false
	}
	listeners := d.snapshotLocked(flipped)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(false)
	}
}

// snapshotLocked copies the listener set so callbacks run outside the lock.
// It returns nil when no flip occurred.
func (d *Detector) snapshotLocked(flipped bool) []Listener {
	if !flipped || len(d.listeners) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(d.listeners))
	for _, fn := range d.listeners {
		out = append(out, fn)
	}
	return out
}
