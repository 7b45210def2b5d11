// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package session composes one format adapter with the per-book reader stores
into a single open reading session.

# Orchestration

The controller is the only path by which page changes reach persistent
storage: every navigation delegates to the adapter first, then pushes the
adapter's resulting position into the progress tracker. Bookmark jumps are
wired through the same path.

# Shutdown

Close runs a strict order: flush pending progress time, persist bookmarks,
persist notes, release the adapter's native resources. Reordering risks
losing the final minutes of reading time or the last unsaved annotation.
*/
package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/minhlq/folio/internal/format"
	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/internal/platform/constants"
	"github.com/minhlq/folio/internal/platform/kvstore"
	"github.com/minhlq/folio/internal/reader/activity"
	"github.com/minhlq/folio/internal/reader/bookmark"
	"github.com/minhlq/folio/internal/reader/note"
	"github.com/minhlq/folio/internal/reader/progress"
)

// Config carries everything a session needs beyond the document itself.
type Config struct {
	BookID  string
	Adapter format.DocumentAdapter
	Store   kvstore.Store
	History *progress.History
	Logger  *slog.Logger

	// IdleThreshold demotes the reader to idle after this much silence.
	// Zero means the default threshold.
	IdleThreshold time.Duration
	// AutosaveInterval is the active-state flush cadence. Zero means the
	// default interval.
	AutosaveInterval time.Duration
}

// Status is the session summary returned to clients.
type Status struct {
	BookID      string `json:"bookId"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
	// Progress is the integer completion percentage.
	Progress int `json:"progress"`
	// ReadingTime is the formatted accumulated reading time.
	ReadingTime string `json:"readingTime"`
	Active      bool   `json:"active"`
}

// Controller is one open reading session.
type Controller struct {
	bookID   string
	adapter  format.DocumentAdapter
	detector *activity.Detector
	tracker  *progress.Tracker

	bookmarks *bookmark.Store
	notes     *note.Store

	logger    *slog.Logger
	closeOnce sync.Once
}

// Open loads the document through the adapter and assembles the session.
//
// The last saved position is restored from the tracker before the first
// render, so a returning reader lands where they left off.
func Open(ctx context.Context, r io.Reader, cfg Config) (*Controller, error) {
	logger := cfg.Logger.With(slog.String("book_id", cfg.BookID))

	if err := cfg.Adapter.Load(ctx, r); err != nil {
		logger.Error("failed to load document", constants.FieldError, err.Error())
		return nil, err
	}

	idleThreshold := cfg.IdleThreshold
	if idleThreshold <= 0 {
		idleThreshold = constants.DefaultIdleThreshold
	}
	autosaveInterval := cfg.AutosaveInterval
	if autosaveInterval <= 0 {
		autosaveInterval = constants.DefaultAutosaveInterval
	}

	detector := activity.NewDetector(idleThreshold, constants.ActivityPollInterval)
	tracker := progress.NewTracker(ctx, cfg.Store, cfg.History, detector, logger,
		cfg.BookID, autosaveInterval)

	c := &Controller{
		bookID:    cfg.BookID,
		adapter:   cfg.Adapter,
		detector:  detector,
		tracker:   tracker,
		bookmarks: bookmark.NewStore(ctx, cfg.Store, logger, cfg.BookID),
		notes:     note.NewStore(ctx, cfg.Store, logger, cfg.BookID),
		logger:    logger,
	}

	if err := c.adapter.GoToPage(ctx, tracker.LastPosition()); err != nil {
		// The restore render failing is recoverable; the reader starts
		// on whatever page the adapter landed on.
		logger.Warn("failed to restore last position", constants.FieldError, err.Error())
	}
	tracker.UpdateProgress(ctx, c.adapter.CurrentPage(), c.adapter.TotalPages())

	return c, nil
}

// GoToPage navigates the adapter, then pushes the landed position into the
// tracker. Adapter render failures are logged and surfaced, but the session
// stays open and the position still reaches storage.
func (c *Controller) GoToPage(ctx context.Context, page int) error {
	return c.navigate(ctx, func() error { return c.adapter.GoToPage(ctx, page) })
}

// NextPage advances one page.
func (c *Controller) NextPage(ctx context.Context) error {
	return c.navigate(ctx, func() error { return c.adapter.NextPage(ctx) })
}

// PrevPage goes back one page.
func (c *Controller) PrevPage(ctx context.Context) error {
	return c.navigate(ctx, func() error { return c.adapter.PrevPage(ctx) })
}

// GoToBookmark jumps to the page a bookmark marks, through the same path
// ordinary navigation takes.
func (c *Controller) GoToBookmark(ctx context.Context, bookmarkID string) error {
	for _, b := range c.bookmarks.All() {
		if b.ID == bookmarkID {
			return c.GoToPage(ctx, b.Page)
		}
	}
	return apperr.NotFound("Bookmark")
}

// Activity reports a user interaction event to the session's detector.
func (c *Controller) Activity(ev activity.EventClass) {
	c.detector.Observe(ev)
}

// Status returns the current session summary.
func (c *Controller) Status() Status {
	return Status{
		BookID:      c.bookID,
		CurrentPage: c.adapter.CurrentPage(),
		TotalPages:  c.adapter.TotalPages(),
		Progress:    c.tracker.Progress(),
		ReadingTime: c.tracker.ReadingTime(),
		Active:      c.detector.Active(),
	}
}

// BookID returns the book this session reads.
func (c *Controller) BookID() string { return c.bookID }

// Adapter exposes the underlying format adapter for format-specific routes.
func (c *Controller) Adapter() format.DocumentAdapter { return c.adapter }

// Bookmarks returns the session's bookmark store.
func (c *Controller) Bookmarks() *bookmark.Store { return c.bookmarks }

// Notes returns the session's note store.
func (c *Controller) Notes() *note.Store { return c.notes }

// Close tears the session down exactly once. Order matters: stop activity
// flips, flush progress time, persist bookmarks, persist notes, release the
// adapter.
func (c *Controller) Close(ctx context.Context) {
	c.closeOnce.Do(func() {
		c.detector.Close()
		c.tracker.Close(ctx)
		c.bookmarks.Persist(ctx)
		c.notes.Persist(ctx)
		if err := c.adapter.Close(); err != nil {
			c.logger.Warn("failed to release document resources",
				constants.FieldError, err.Error())
		}
		c.logger.Info("reading session closed")
	})
}

// navigate runs one adapter move and pushes the result into the tracker.
func (c *Controller) navigate(ctx context.Context, move func() error) error {
	moveErr := move()
	if moveErr != nil {
		c.logger.Error("navigation render failed", constants.FieldError, moveErr.Error())
	}

	c.tracker.UpdateProgress(ctx, c.adapter.CurrentPage(), c.adapter.TotalPages())
	return moveErr
}
