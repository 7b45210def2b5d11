// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package pdfdoc adapts PDF documents to the reader's page surface.

# Rendering

Pages are independently rasterized by a [Rasterizer] collaborator at a
caller-chosen scale. Render requests never overlap: while one is in flight,
the latest requested page is remembered and rendered when the current one
finishes. Intermediate requests are dropped, not queued.

Changing the scale re-renders every page; a full document re-render is the
designed cost of a zoom change.
*/
package pdfdoc

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/minhlq/folio/internal/platform/apperr"
)

// DefaultScale is the raster scale used until the caller chooses another.
const DefaultScale = 1.0

// Rasterizer renders one page of the loaded document at the given scale.
// Implementations may block; the adapter serializes all calls.
type Rasterizer interface {
	RenderPage(ctx context.Context, pageNumber int, scale float64) error
}

// Adapter is the fixed-page raster document adapter.
type Adapter struct {
	mu     sync.Mutex
	reader *pdf.Reader
	raster Rasterizer

	total   int
	current int
	scale   float64

	rendering   bool
	pendingPage int
}

// New creates an unloaded PDF adapter. A nil rasterizer is allowed;
// navigation then tracks position without producing output.
func New(raster Rasterizer) *Adapter {
	return &Adapter{raster: raster, scale: DefaultScale}
}

// Load parses the document and fixes the page count.
func (a *Adapter) Load(_ context.Context, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return apperr.LoadFailed("Failed to read PDF document", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return apperr.LoadFailed("Failed to parse PDF document", err)
	}
	total := reader.NumPage()
	if total < 1 {
		return apperr.LoadFailed("PDF document has no pages", nil)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.reader = reader
	a.total = total
	a.current = 1
	a.pendingPage = 0
	a.rendering = false
	return nil
}

// CurrentPage returns the 1-based current page.
func (a *Adapter) CurrentPage() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// TotalPages returns the page count, fixed at load.
func (a *Adapter) TotalPages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// Scale returns the active raster scale.
func (a *Adapter) Scale() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scale
}

// GoToPage moves to page, clamped silently, and requests its raster.
func (a *Adapter) GoToPage(ctx context.Context, page int) error {
	a.mu.Lock()

	if page < 1 {
		page = 1
	}
	if page > a.total {
		page = a.total
	}
	a.current = page
	a.mu.Unlock()

	return a.render(ctx, page)
}

// NextPage advances one page; a no-op on the last page.
func (a *Adapter) NextPage(ctx context.Context) error {
	return a.GoToPage(ctx, a.CurrentPage()+1)
}

// PrevPage goes back one page; a no-op on the first page.
func (a *Adapter) PrevPage(ctx context.Context) error {
	return a.GoToPage(ctx, a.CurrentPage()-1)
}

// SetScale changes the raster scale and re-renders every page of the
// document at the new scale.
func (a *Adapter) SetScale(ctx context.Context, scale float64) error {
	if scale <= 0 {
		return apperr.ValidationError("Scale must be positive")
	}

	a.mu.Lock()
	a.scale = scale
	total := a.total
	a.mu.Unlock()

	for page := 1; page <= total; page++ {
		if err := a.render(ctx, page); err != nil {
			return err
		}
	}
	return nil
}

// PageText extracts the plain text of the 1-based page n.
func (a *Adapter) PageText(n int) (string, error) {
	a.mu.Lock()
	reader := a.reader
	total := a.total
	a.mu.Unlock()

	if reader == nil || n < 1 || n > total {
		return "", apperr.NotFound("Page")
	}

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", apperr.RenderError("Page content is unavailable", nil)
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", apperr.RenderError("Failed to extract page text", err)
	}
	return text, nil
}

// Close releases the parsed document.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reader = nil
	return nil
}

// render hands page to the rasterizer, coalescing overlapping requests:
// a request arriving while one is in flight replaces any earlier pending
// request, and the latest pending page is rendered when the in-flight one
// finishes.
func (a *Adapter) render(ctx context.Context, page int) error {
	a.mu.Lock()
	if a.raster == nil {
		a.mu.Unlock()
		return nil
	}
	if a.rendering {
		a.pendingPage = page
		a.mu.Unlock()
		return nil
	}
	a.rendering = true
	scale := a.scale
	a.mu.Unlock()

	for {
		err := a.raster.RenderPage(ctx, page, scale)

		a.mu.Lock()
		if err != nil {
			a.rendering = false
			a.pendingPage = 0
			a.mu.Unlock()
			return apperr.RenderError("Failed to render page", err)
		}
		if a.pendingPage == 0 {
			a.rendering = false
			a.mu.Unlock()
			return nil
		}
		page = a.pendingPage
		a.pendingPage = 0
		scale = a.scale
		a.mu.Unlock()
	}
}
