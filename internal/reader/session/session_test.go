// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package session_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhlq/folio/internal/format"
	"github.com/minhlq/folio/internal/format/textdoc"
	"github.com/minhlq/folio/internal/platform/constants"
	"github.com/minhlq/folio/internal/platform/kvstore"
	"github.com/minhlq/folio/internal/reader/progress"
	"github.com/minhlq/folio/internal/reader/session"
)

// fivePageDoc is a plain-text document that paginates into five pages.
func fivePageDoc() string {
	return strings.Repeat(strings.Repeat("w", 2900)+"\n\n", 5)
}

func testConfig(store kvstore.Store, adapter format.DocumentAdapter, bookID string) session.Config {
	return session.Config{
		BookID:           bookID,
		Adapter:          adapter,
		Store:            store,
		History:          progress.NewHistory(store),
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		IdleThreshold:    time.Hour,
		AutosaveInterval: time.Hour,
	}
}

/*
TestOpen_RestoresLastPosition verifies a returning reader lands on the page
a previous session saved, before any navigation happens.
*/
func TestOpen_RestoresLastPosition(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, constants.StorageKeyProgressPrefix+"book-1", progress.Record{
		BookID:      "book-1",
		CurrentPage: 4,
		TotalPages:  5,
	}))

	c, err := session.Open(ctx, strings.NewReader(fivePageDoc()),
		testConfig(store, textdoc.New(), "book-1"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(ctx) })

	status := c.Status()
	assert.Equal(t, 4, status.CurrentPage)
	assert.Equal(t, 5, status.TotalPages)
	assert.Equal(t, 80, status.Progress)
}

/*
TestOpen_LoadFailureTearsDownNothing verifies a malformed document fails the
open with the load error before any session state exists.
*/
func TestOpen_LoadFailureTearsDownNothing(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	// A text adapter cannot fail on bytes, so use the EPUB adapter with junk
	adapter, err := format.New(format.KindEPUB, format.Deps{})
	require.NoError(t, err)

	_, err = session.Open(ctx, strings.NewReader("junk"), testConfig(store, adapter, "book-x"))
	require.Error(t, err)
}

/*
TestController_NavigationPersists verifies navigation is the path by which
positions reach storage: every move lands in the persisted record.
*/
func TestController_NavigationPersists(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	c, err := session.Open(ctx, strings.NewReader(fivePageDoc()),
		testConfig(store, textdoc.New(), "book-2"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(ctx) })

	require.NoError(t, c.NextPage(ctx))
	require.NoError(t, c.NextPage(ctx))
	require.NoError(t, c.PrevPage(ctx))
	require.NoError(t, c.GoToPage(ctx, 5))

	var rec progress.Record
	require.NoError(t, store.Get(ctx, constants.StorageKeyProgressPrefix+"book-2", &rec))
	assert.Equal(t, 5, rec.CurrentPage)
	assert.Equal(t, 5, rec.TotalPages)

	// History carries the same position
	entries, err := progress.NewHistory(store).Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 5, entries[0].CurrentPage)
}

/*
TestController_GoToBookmark verifies bookmark jumps route through the same
navigation path as ordinary page changes.
*/
func TestController_GoToBookmark(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	c, err := session.Open(ctx, strings.NewReader(fivePageDoc()),
		testConfig(store, textdoc.New(), "book-3"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(ctx) })

	b := c.Bookmarks().Add(ctx, 3, "chapter three", "")
	require.NoError(t, c.GoToBookmark(ctx, b.ID))
	assert.Equal(t, 3, c.Status().CurrentPage)

	var rec progress.Record
	require.NoError(t, store.Get(ctx, constants.StorageKeyProgressPrefix+"book-3", &rec))
	assert.Equal(t, 3, rec.CurrentPage)

	assert.Error(t, c.GoToBookmark(ctx, "missing-id"))
}

/*
TestController_CloseIsIdempotent verifies Close can be called repeatedly and
that annotations survive it.
*/
func TestController_CloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	c, err := session.Open(ctx, strings.NewReader(fivePageDoc()),
		testConfig(store, textdoc.New(), "book-4"))
	require.NoError(t, err)

	c.Bookmarks().Add(ctx, 2, "keep", "")
	c.Notes().Add(ctx, 2, "thought", "", "")

	c.Close(ctx)
	c.Close(ctx)

	var bookmarks []map[string]any
	require.NoError(t, store.Get(ctx, constants.StorageKeyBookmarksPrefix+"book-4", &bookmarks))
	assert.Len(t, bookmarks, 1)

	var notes []map[string]any
	require.NoError(t, store.Get(ctx, constants.StorageKeyNotesPrefix+"book-4", &notes))
	assert.Len(t, notes, 1)
}

/*
TestRegistry verifies session lookup, removal, and shutdown behavior.
*/
func TestRegistry(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := session.NewRegistry(logger)

	store := kvstore.NewMemoryStore()
	c, err := session.Open(ctx, strings.NewReader(fivePageDoc()),
		testConfig(store, textdoc.New(), "book-5"))
	require.NoError(t, err)

	id := registry.Add(c)
	assert.Equal(t, 1, registry.Len())

	got, err := registry.Get(id)
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = registry.Get("unknown")
	assert.Error(t, err)

	registry.CloseAll(ctx)
	assert.Zero(t, registry.Len())
	_, err = registry.Get(id)
	assert.Error(t, err)
}
