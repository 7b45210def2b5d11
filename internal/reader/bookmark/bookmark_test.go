// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package bookmark_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhlq/folio/internal/platform/constants"
	"github.com/minhlq/folio/internal/platform/kvstore"
	"github.com/minhlq/folio/internal/reader/bookmark"
)

func newTestStore(t *testing.T) (*bookmark.Store, kvstore.Store) {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return bookmark.NewStore(context.Background(), kv, logger, "book-1"), kv
}

/*
TestStore_AddMergesSamePage verifies that bookmarking an already-bookmarked
page updates the existing entry in place, preserving identity and creation
time, so a book never holds two bookmarks on one page.
*/
func TestStore_AddMergesSamePage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	first := s.Add(ctx, 12, "Chapter 3", "the twist")
	second := s.Add(ctx, 12, "Chapter 3 (revised)", "the real twist")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "Chapter 3 (revised)", second.Title)
	assert.Equal(t, "the real twist", second.Note)

	assert.Len(t, s.All(), 1)
}

/*
TestStore_SortedByPage verifies the list stays ordered by page regardless of
insertion order.
*/
func TestStore_SortedByPage(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Add(ctx, 30, "c", "")
	s.Add(ctx, 5, "a", "")
	s.Add(ctx, 18, "b", "")

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, []int{5, 18, 30}, []int{all[0].Page, all[1].Page, all[2].Page})
}

/*
TestStore_Remove verifies removal semantics: true for a known id, false
no-op for an unknown one.
*/
func TestStore_Remove(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	b := s.Add(ctx, 7, "keep", "")

	assert.False(t, s.Remove(ctx, "missing-id"))
	assert.Len(t, s.All(), 1)

	assert.True(t, s.Remove(ctx, b.ID))
	assert.Empty(t, s.All())
}

/*
TestStore_Update verifies partial updates touch only the provided fields.
*/
func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	b := s.Add(ctx, 3, "original", "note stays")

	title := "  renamed  "
	got, err := s.Update(ctx, b.ID, bookmark.UpdateFields{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, "note stays", got.Note)

	_, err = s.Update(ctx, "missing-id", bookmark.UpdateFields{Title: &title})
	assert.Error(t, err)
}

/*
TestStore_PersistsAndRestores verifies mutations reach storage and a new
store instance restores them.
*/
func TestStore_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	s.Add(ctx, 9, "resume here", "")

	var persisted []bookmark.Bookmark
	require.NoError(t, kv.Get(ctx, constants.StorageKeyBookmarksPrefix+"book-1", &persisted))
	require.Len(t, persisted, 1)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	restored := bookmark.NewStore(ctx, kv, logger, "book-1")

	got, ok := restored.ByPage(9)
	require.True(t, ok)
	assert.Equal(t, "resume here", got.Title)
}
