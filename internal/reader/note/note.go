// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package note owns the per-book annotation list and its portable export
format.

Unlike bookmarks, notes never merge: a page may carry any number of notes.
The list is kept sorted by (page, createdAt) so annotations read in document
order.
*/
package note

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

// DefaultColor is the highlight color assigned when the client sends none.
const DefaultColor = "#ffeb3b"

// Note is a single annotation anchored to a page.
type Note struct {
	// ID is the stable UUIDv7 identity of the note.
	ID string `json:"id"`
	// Page is the 1-based page the note is anchored to.
	Page int `json:"page"`
	// Content is the annotation text.
	Content string `json:"content"`
	// SelectedText is the highlighted passage the note refers to, if any.
	SelectedText string `json:"selectedText"`
	// Color is the highlight color as a CSS hex value.
	Color string `json:"color"`
	// CreatedAt is the epoch-millisecond creation timestamp.
	CreatedAt int64 `json:"createdAt"`
	// UpdatedAt is the epoch-millisecond timestamp of the last edit.
	UpdatedAt int64 `json:"updatedAt"`
}

// UpdateFields carries a partial note update. Nil fields are left untouched.
type UpdateFields struct {
	Content *string `json:"content"`
	Color   *string `json:"color"`
}

// Store holds the notes of one open book.
//
// All methods are safe for concurrent use. Persistence failures are logged
// and non-fatal; the in-memory list stays authoritative for the session.
type Store struct {
	mu     sync.Mutex
	items  []Note
	bookID string

	store    kvstore.Store
	logger   *slog.Logger
	onChange func()
	now      func() time.Time
}

// NewStore creates a note store for bookID, restoring any previously
// persisted list.
func NewStore(ctx context.Context, store kvstore.Store, logger *slog.Logger, bookID string) *Store {
	s := &Store{
		bookID: bookID,
		store:  store,
		logger: logger.With(slog.String("book_id", bookID)),
		now:    time.Now,
	}

	key := constants.StorageKeyNotesPrefix + bookID
	if err := store.Get(ctx, key, &s.items); err != nil && !apperr.IsNotFound(err) {
		s.logger.Warn("failed to restore notes", constants.FieldError, err.Error())
	}
	s.sortLocked()

	return s
}

// SetOnChange registers a callback fired after any successful mutation,
// including imports. Panels listening for annotation updates hang off this.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Add appends a new note and returns it. Notes never merge; a page may
// carry any number of them.
func (s *Store) Add(ctx context.Context, page int, content, selectedText, color string) Note {
	s.mu.Lock()

	if strings.TrimSpace(color) == "" {
		color = DefaultColor
	}
	nowMs := s.now().UnixMilli()

	n := Note{
		ID:           uuidv7.New(),
		Page:         page,
		Content:      strings.TrimSpace(content),
		SelectedText: selectedText,
		Color:        color,
		CreatedAt:    nowMs,
		UpdatedAt:    nowMs,
	}
	s.items = append(s.items, n)
	s.sortLocked()
	s.persistLocked(ctx)
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return n
}

// Remove deletes the note with the given id. It reports whether a note was
// removed.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()

	removed := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persistLocked(ctx)
			removed = true
			break
		}
	}
	notify := s.onChange
	s.mu.Unlock()

	if removed && notify != nil {
		notify()
	}
	return removed
}

// Update applies a partial update to the note with the given id.
func (s *Store) Update(ctx context.Context, id string, fields UpdateFields) (Note, error) {
	s.mu.Lock()

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if fields.Content != nil {
			s.items[i].Content = strings.TrimSpace(*fields.Content)
		}
		if fields.Color != nil {
			s.items[i].Color = *fields.Color
		}
		s.items[i].UpdatedAt = s.now().UnixMilli()
		s.persistLocked(ctx)
		n := s.items[i]
		notify := s.onChange
		s.mu.Unlock()

		if notify != nil {
			notify()
		}
		return n, nil
	}

	s.mu.Unlock()
	return Note{}, apperr.NotFound("Note")
}

// All returns a copy of the note list, sorted by (page, createdAt).
func (s *Store) All() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Note, len(s.items))
	copy(out, s.items)
	return out
}

// ByPage returns all notes anchored to page.
func (s *Store) ByPage(page int) []Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Note
	for _, n := range s.items {
		if n.Page == page {
			out = append(out, n)
		}
	}
	return out
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
		if s.items[i].Page != s.items[j].Page {
			return s.items[i].Page < s.items[j].Page
		}
		return s.items[i].CreatedAt < s.items[j].CreatedAt
	})
}

func (s *Store) persistLocked(ctx context.Context) {
	key := constants.StorageKeyNotesPrefix + s.bookID
	if err := s.store.Set(ctx, key, s.items); err != nil {
		s.logger.Error("failed to persist notes",
			constants.FieldError, apperr.StorageError(err).Error(),
			slog.Any("cause", err))
	}
}
