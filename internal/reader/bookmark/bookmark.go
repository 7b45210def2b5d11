// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package bookmark owns the per-book bookmark list.

A book holds at most one bookmark per page: adding to an already-bookmarked
page merges the new title and note into the existing entry in place, keeping
its identity and creation time. The list is always kept sorted by page.
*/
package bookmark

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/internal/platform/constants"
	"github.com/minhlq/folio/internal/platform/kvstore"
	"github.com/minhlq/folio/pkg/uuidv7"
)

// Bookmark marks a single page of a book.
type Bookmark struct {
	// ID is the stable UUIDv7 identity of the bookmark.
	ID string `json:"id"`
	// Page is the 1-based bookmarked page.
	Page int `json:"page"`
	// Title is a short user-supplied label.
	Title string `json:"title"`
	// Note is an optional longer annotation.
	Note string `json:"note"`
	// CreatedAt is the epoch-millisecond creation timestamp.
	CreatedAt int64 `json:"createdAt"`
	// UpdatedAt is the epoch-millisecond timestamp of the last merge.
	UpdatedAt int64 `json:"updatedAt"`
}

// UpdateFields carries a partial bookmark update. Nil fields are left
// untouched.
type UpdateFields struct {
	Title *string `json:"title"`
	Note  *string `json:"note"`
}

// Store holds the bookmarks of one open book.
//
// All methods are safe for concurrent use. Persistence failures are logged
// and non-fatal; the in-memory list stays authoritative for the session.
type Store struct {
	mu     sync.Mutex
	items  []Bookmark
	bookID string

	store  kvstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a bookmark store for bookID, restoring any previously
// persisted list.
func NewStore(ctx context.Context, store kvstore.Store, logger *slog.Logger, bookID string) *Store {
	s := &Store{
		bookID: bookID,
		store:  store,
		logger: logger.With(slog.String("book_id", bookID)),
		now:    time.Now,
	}

	key := constants.StorageKeyBookmarksPrefix + bookID
	if err := store.Get(ctx, key, &s.items); err != nil && !apperr.IsNotFound(err) {
		s.logger.Warn("failed to restore bookmarks", constants.FieldError, err.Error())
	}
	s.sortLocked()

	return s
}

// Add bookmarks page with the given title and note and returns the stored
// entry.
//
// If the page is already bookmarked, the existing entry is merge-updated in
// place (title, note, UpdatedAt) preserving its ID and CreatedAt. Otherwise
// a new entry is inserted and the list is re-sorted by page.
func (s *Store) Add(ctx context.Context, page int, title, note string) Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()

	title = strings.TrimSpace(title)
	note = strings.TrimSpace(note)
	nowMs := s.now().UnixMilli()

	for i := range s.items {
		if s.items[i].Page == page {
			s.items[i].Title = title
			s.items[i].Note = note
			s.items[i].UpdatedAt = nowMs
			s.persistLocked(ctx)
			return s.items[i]
		}
	}

	b := Bookmark{
		ID:        uuidv7.New(),
		Page:      page,
		Title:     title,
		Note:      note,
		CreatedAt: nowMs,
		UpdatedAt: nowMs,
	}
	s.items = append(s.items, b)
	s.sortLocked()
	s.persistLocked(ctx)

	return b
}

// Remove deletes the bookmark with the given id. It reports whether a
// bookmark was removed; an unknown id is a no-op returning false.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistLocked(ctx)
			return true
		}
	}
	return false
}

// Update applies a partial update to the bookmark with the given id.
func (s *Store) Update(ctx context.Context, id string, fields UpdateFields) (Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if fields.Title != nil {
			s.items[i].Title = strings.TrimSpace(*fields.Title)
		}
		if fields.Note != nil {
			s.items[i].Note = strings.TrimSpace(*fields.Note)
		}
		s.items[i].UpdatedAt = s.now().UnixMilli()
		s.persistLocked(ctx)
		return s.items[i], nil
	}

	return Bookmark{}, apperr.NotFound("Bookmark")
}

// All returns a copy of the bookmark list, sorted by page.
func (s *Store) All() []Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Bookmark, len(s.items))
	copy(out, s.items)
	return out
}

// ByPage returns the bookmark at page, if any.
func (s *Store) ByPage(page int) (Bookmark, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.items {
		if b.Page == page {
			return b, true
		}
	}
	return Bookmark{}, false
}

// Persist writes the current list to storage. The session controller calls
// this as part of its ordered shutdown.
func (s *Store) Persist(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked(ctx)
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].Page < s.items[j].Page
	})
}

func (s *Store) persistLocked(ctx context.Context) {
	key := constants.StorageKeyBookmarksPrefix + s.bookID
	if err := s.store.Set(ctx, key, s.items); err != nil {
		s.logger.Error("failed to persist bookmarks",
			constants.FieldError, apperr.StorageError(err).Error(),
			slog.Any("cause", err))
	}
}
