// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package catalog serves the library feed: the list of books the reader can
open. The feed is an external JSON document; the catalog consumes it as-is
and never writes it back.
*/
package catalog

import (
	"encoding/json"
	"os"
	"slices"
	"strings"

	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/pkg/pagination"
)

// Book is one entry of the library feed.
type Book struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
	Format     string   `json:"format"`
	Path       string   `json:"path"`
	Size       int64    `json:"size"`
	Year       int      `json:"year"`
	AddedDate  string   `json:"addedDate"`
}

// Feed is the shape of the library document.
type Feed struct {
	Books      []Book   `json:"books"`
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

// Library holds a loaded feed. A Library is immutable after Load.
type Library struct {
	feed Feed
}

// Load reads and parses the library feed at path.
func Load(path string) (*Library, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.LoadFailed("Failed to read library feed", err)
	}

	var feed Feed
	if err := json.Unmarshal(raw, &feed); err != nil {
		return nil, apperr.LoadFailed("Failed to parse library feed", err)
	}
	return &Library{feed: feed}, nil
}

// Empty returns a library with no books, for running without a feed.
func Empty() *Library {
	return &Library{}
}

// Filter narrows a book listing.
type Filter struct {
	// Query matches case-insensitively against title and author.
	Query    string
	Category string
	Tag      string
	Format   string
}

func (f Filter) matches(b Book) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.Author), q) {
			return false
		}
	}
	if f.Category != "" && !slices.Contains(b.Categories, f.Category) {
		return false
	}
	if f.Tag != "" && !slices.Contains(b.Tags, f.Tag) {
		return false
	}
	if f.Format != "" && !strings.EqualFold(b.Format, f.Format) {
		return false
	}
	return true
}

// List returns the feed-order page of books matching the filter, with
// pagination metadata computed over the filtered total.
func (l *Library) List(filter Filter, params pagination.Params) ([]Book, pagination.Meta) {
	matched := make([]Book, 0, len(l.feed.Books))
	for _, b := range l.feed.Books {
		if filter.matches(b) {
			matched = append(matched, b)
		}
	}

	meta := pagination.NewMeta(params.Page, params.Limit, len(matched))

	start := params.Offset()
	if start >= len(matched) {
		return []Book{}, meta
	}
	end := min(start+params.Limit, len(matched))
	return slices.Clone(matched[start:end]), meta
}

// Get returns the book with the given ID.
func (l *Library) Get(id string) (Book, error) {
	for _, b := range l.feed.Books {
		if b.ID == id {
			return b, nil
		}
	}
	return Book{}, apperr.NotFound("Book")
}

// Categories returns the feed's category vocabulary.
func (l *Library) Categories() []string {
	return slices.Clone(l.feed.Categories)
}

// Tags returns the feed's tag vocabulary.
func (l *Library) Tags() []string {
	return slices.Clone(l.feed.Tags)
}

// Len returns the number of books in the feed.
func (l *Library) Len() int {
	return len(l.feed.Books)
}
