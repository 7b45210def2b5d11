// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package pdfdoc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhlq/folio/internal/platform/apperr"
)

// renderCall records one rasterizer invocation.
type renderCall struct {
	page  int
	scale float64
}

// fakeRasterizer records calls and can re-enter the adapter mid-render to
// simulate requests arriving while a render is in flight.
type fakeRasterizer struct {
	calls    []renderCall
	fail     error
	onRender func(page int)
}

func (r *fakeRasterizer) RenderPage(_ context.Context, page int, scale float64) error {
	r.calls = append(r.calls, renderCall{page, scale})
	if r.onRender != nil {
		fn := r.onRender
		r.onRender = nil
		fn(page)
	}
	return r.fail
}

// newLoaded builds an adapter with document state set directly, sidestepping
// the PDF engine so rendering behavior can be tested in isolation.
func newLoaded(raster Rasterizer, total int) *Adapter {
	a := New(raster)
	a.total = total
	a.current = 1
	return a
}

/*
TestAdapter_LoadRejectsMalformed verifies a non-PDF byte stream fails the
load with the document-load error code.
*/
func TestAdapter_LoadRejectsMalformed(t *testing.T) {
	a := New(nil)
	err := a.Load(context.Background(), strings.NewReader("not a pdf"))
	require.Error(t, err)
	assert.Equal(t, "LOAD_FAILED", apperr.CodeOf(err))
}

/*
TestAdapter_NavigationClampsAndRenders verifies clamped navigation and that
every landed page reaches the rasterizer at the active scale.
*/
func TestAdapter_NavigationClampsAndRenders(t *testing.T) {
	ctx := context.Background()
	raster := &fakeRasterizer{}
	a := newLoaded(raster, 5)

	require.NoError(t, a.GoToPage(ctx, 99))
	assert.Equal(t, 5, a.CurrentPage())

	require.NoError(t, a.NextPage(ctx)) // no-op at the end
	assert.Equal(t, 5, a.CurrentPage())

	require.NoError(t, a.GoToPage(ctx, -3))
	assert.Equal(t, 1, a.CurrentPage())

	require.NoError(t, a.PrevPage(ctx)) // no-op at the start
	assert.Equal(t, 1, a.CurrentPage())

	assert.Equal(t, []renderCall{
		{5, DefaultScale}, {5, DefaultScale}, {1, DefaultScale}, {1, DefaultScale},
	}, raster.calls)
}

/*
TestAdapter_CoalescesOverlappingRenders verifies that requests arriving
while a render is in flight collapse into a single render of the latest
requested page.
*/
func TestAdapter_CoalescesOverlappingRenders(t *testing.T) {
	ctx := context.Background()
	raster := &fakeRasterizer{}
	a := newLoaded(raster, 10)

	raster.onRender = func(int) {
		// Two more navigations land while page 2 is still rendering
		require.NoError(t, a.GoToPage(ctx, 5))
		require.NoError(t, a.GoToPage(ctx, 9))
	}

	require.NoError(t, a.GoToPage(ctx, 2))

	// Page 5 was coalesced away; only the latest pending page rendered
	assert.Equal(t, []renderCall{
		{2, DefaultScale}, {9, DefaultScale},
	}, raster.calls)
	assert.Equal(t, 9, a.CurrentPage())
}

/*
TestAdapter_SetScaleRerendersEveryPage verifies a zoom change re-renders the
whole document at the new scale.
*/
func TestAdapter_SetScaleRerendersEveryPage(t *testing.T) {
	ctx := context.Background()
	raster := &fakeRasterizer{}
	a := newLoaded(raster, 3)

	require.NoError(t, a.SetScale(ctx, 2.0))

	assert.Equal(t, []renderCall{
		{1, 2.0}, {2, 2.0}, {3, 2.0},
	}, raster.calls)
	assert.Equal(t, 2.0, a.Scale())

	err := a.SetScale(ctx, 0)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.CodeOf(err))
}

/*
TestAdapter_RenderFailureIsRecoverable verifies a rasterizer failure
surfaces a render error while navigation state survives.
*/
func TestAdapter_RenderFailureIsRecoverable(t *testing.T) {
	ctx := context.Background()
	raster := &fakeRasterizer{fail: errors.New("raster crashed")}
	a := newLoaded(raster, 4)

	err := a.GoToPage(ctx, 3)
	require.Error(t, err)
	assert.Equal(t, "RENDER_ERROR", apperr.CodeOf(err))

	// Position already moved; the session and later renders stay usable
	assert.Equal(t, 3, a.CurrentPage())

	raster.fail = nil
	require.NoError(t, a.GoToPage(ctx, 4))
	assert.Equal(t, 4, a.CurrentPage())
}
