// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package epubdoc adapts EPUB documents to the reader's page surface.

# Locations

EPUB is a reflowable format with no intrinsic pages. At load time the
concatenated chapter text is sampled at a fixed granularity into a location
table; the adapter's "page" is an index into that table, and the stable
position token exchanged with the rendering engine is a document-relative
fraction. The page count is therefore an approximation, fixed for the life
of the loaded document.

# Navigation Guard

The rendering engine reports asynchronous position-settle events. A manual
jump sets an explicit navigation state before invoking the engine and clears
it only in the jump's completion path; settle events arriving while a jump
is in flight are discarded so programmatic navigation is never overwritten
by a stale report.
*/
package epubdoc

import (
	"bytes"
	"context"
	"io"
	"math"
	"sync"

	"github.com/simp-lee/epub"

	"github.com/minhlq/folio/internal/platform/apperr"
)

// LocationGranularity is the number of text characters each generated
// location spans.
const LocationGranularity = 2048

// Renderer is the asynchronous engine the adapter drives. Display jumps the
// visible view to a document-relative fraction in [0,1].
type Renderer interface {
	Display(ctx context.Context, fraction float64) error
}

// navState is the navigation re-entrancy guard.
type navState int

const (
	navIdle navState = iota
	navJumping
)

// ChapterInfo describes one spine chapter and the location it starts at.
type ChapterInfo struct {
	// Index is the 0-based chapter index.
	Index int `json:"index"`
	// Title is the TOC title, possibly empty.
	Title string `json:"title"`
	// Page is the 1-based location the chapter begins on.
	Page int `json:"page"`
}

// chapterSpan records a chapter's rune extent in the concatenated text.
type chapterSpan struct {
	title string
	start int
	runes int
}

// Adapter is the continuous reflow document adapter.
type Adapter struct {
	mu       sync.Mutex
	book     *epub.Book
	renderer Renderer

	chapters   []chapterSpan
	totalRunes int
	locations  int
	current    int
	nav        navState

	onPageChange func(page, total int)
}

// New creates an unloaded EPUB adapter. A nil renderer is allowed; jumps
// then update position without driving an engine.
func New(renderer Renderer) *Adapter {
	return &Adapter{renderer: renderer}
}

// Load parses the EPUB container and builds the location table.
func (a *Adapter) Load(_ context.Context, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return apperr.LoadFailed("Failed to read EPUB document", err)
	}

	book, err := epub.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return apperr.LoadFailed("Failed to parse EPUB document", err)
	}

	var spans []chapterSpan
	total := 0
	for _, ch := range book.ContentChapters() {
		text, err := ch.TextContent()
		if err != nil {
			// Unreadable chapters shorten the location table but never
			// fail the whole book.
			continue
		}
		n := len([]rune(text))
		spans = append(spans, chapterSpan{title: ch.Title, start: total, runes: n})
		total += n
	}

	locations := (total + LocationGranularity - 1) / LocationGranularity
	if locations < 1 {
		locations = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.book != nil {
		_ = a.book.Close()
	}
	a.book = book
	a.chapters = spans
	a.totalRunes = total
	a.locations = locations
	a.current = 1
	a.nav = navIdle
	return nil
}

// CurrentPage returns the 1-based current location index.
func (a *Adapter) CurrentPage() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// TotalPages returns the location count, an approximation of pages fixed at
// load time.
func (a *Adapter) TotalPages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locations
}

// Fraction returns the stable document-relative position token for the
// current location, in [0,1].
func (a *Adapter) Fraction() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fractionForLocked(a.current)
}

// SetOnPageChange registers a callback fired after every position change,
// with the new page and the total. The callback runs outside the adapter's
// lock.
func (a *Adapter) SetOnPageChange(fn func(page, total int)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onPageChange = fn
}

// GoToPage jumps to the 1-based location, clamped silently.
//
// The navigation guard is set before the renderer is invoked and cleared
// only here, in the completion path, regardless of any settle events the
// renderer emits while the jump is in flight.
func (a *Adapter) GoToPage(ctx context.Context, page int) error {
	a.mu.Lock()

	if page < 1 {
		page = 1
	}
	if page > a.locations {
		page = a.locations
	}

	a.nav = navJumping
	renderer := a.renderer
	fraction := a.fractionForLocked(page)
	a.mu.Unlock()

	if renderer != nil {
		if err := renderer.Display(ctx, fraction); err != nil {
			a.mu.Lock()
			a.nav = navIdle
			a.mu.Unlock()
			return apperr.RenderError("Failed to display location", err)
		}
	}

	a.mu.Lock()
	a.current = page
	a.nav = navIdle
	notify := a.notifyLocked()
	a.mu.Unlock()

	notify()
	return nil
}

// NextPage advances one location; a no-op at the end.
func (a *Adapter) NextPage(ctx context.Context) error {
	return a.GoToPage(ctx, a.CurrentPage()+1)
}

// PrevPage goes back one location; a no-op at the start.
func (a *Adapter) PrevPage(ctx context.Context) error {
	return a.GoToPage(ctx, a.CurrentPage()-1)
}

// GoToChapter jumps to the first location of the 0-based chapter index.
func (a *Adapter) GoToChapter(ctx context.Context, index int) error {
	a.mu.Lock()
	if len(a.chapters) == 0 {
		a.mu.Unlock()
		return a.GoToPage(ctx, 1)
	}
	if index < 0 {
		index = 0
	}
	if index >= len(a.chapters) {
		index = len(a.chapters) - 1
	}
	page := a.locationForRuneLocked(a.chapters[index].start)
	a.mu.Unlock()

	return a.GoToPage(ctx, page)
}

// HandleRelocated processes a position-settle event from the renderer.
//
// It reports whether the event was applied. Events arriving while a manual
// jump is in flight are discarded: the jump's completion path owns the
// resulting position.
func (a *Adapter) HandleRelocated(fraction float64) bool {
	a.mu.Lock()

	if a.nav == navJumping {
		a.mu.Unlock()
		return false
	}

	page := a.locationForFractionLocked(fraction)
	if page == a.current {
		a.mu.Unlock()
		return true
	}

	a.current = page
	notify := a.notifyLocked()
	a.mu.Unlock()

	notify()
	return true
}

// Chapters returns the chapter list with each chapter's starting location.
func (a *Adapter) Chapters() []ChapterInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ChapterInfo, len(a.chapters))
	for i, ch := range a.chapters {
		out[i] = ChapterInfo{
			Index: i,
			Title: ch.title,
			Page:  a.locationForRuneLocked(ch.start),
		}
	}
	return out
}

// Close releases the EPUB container.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.book == nil {
		return nil
	}
	err := a.book.Close()
	a.book = nil
	return err
}

// fractionForLocked maps a 1-based location to its position token.
func (a *Adapter) fractionForLocked(page int) float64 {
	if a.locations <= 1 {
		return 0
	}
	return float64(page-1) / float64(a.locations-1)
}

// locationForFractionLocked maps a position token back to a location.
func (a *Adapter) locationForFractionLocked(fraction float64) int {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return 1 + int(math.Round(fraction*float64(a.locations-1)))
}

// locationForRuneLocked maps a rune offset in the concatenated text to its
// location.
func (a *Adapter) locationForRuneLocked(offset int) int {
	page := 1 + offset/LocationGranularity
	if page > a.locations {
		page = a.locations
	}
	return page
}

// notifyLocked captures the page-change callback with the current state.
// The returned func must be called after unlocking.
func (a *Adapter) notifyLocked() func() {
	fn := a.onPageChange
	if fn == nil {
		return func() {}
	}
	page, total := a.current, a.locations
	return func() { fn(page, total) }
}
