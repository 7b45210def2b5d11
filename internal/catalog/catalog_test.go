// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhlq/folio/internal/catalog"
	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/pkg/pagination"
)

const feedJSON = `{
	"books": [
		{"id": "b1", "title": "Moby-Dick", "author": "Herman Melville",
		 "categories": ["fiction"], "tags": ["classic", "sea"],
		 "format": "epub", "path": "moby-dick.epub", "size": 1200000, "year": 1851},
		{"id": "b2", "title": "The Sea-Wolf", "author": "Jack London",
		 "categories": ["fiction"], "tags": ["sea"],
		 "format": "txt", "path": "sea-wolf.txt", "size": 640000, "year": 1904},
		{"id": "b3", "title": "On the Origin of Species", "author": "Charles Darwin",
		 "categories": ["science"], "tags": ["classic"],
		 "format": "pdf", "path": "origin.pdf", "size": 2400000, "year": 1859}
	],
	"categories": ["fiction", "science"],
	"tags": ["classic", "sea"]
}`

func loadFeed(t *testing.T) *catalog.Library {
	t.Helper()

	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte(feedJSON), 0o644))

	library, err := catalog.Load(path)
	require.NoError(t, err)
	return library
}

/*
TestLoad verifies feed parsing and the failure modes of a missing or
malformed feed document.
*/
func TestLoad(t *testing.T) {
	// 1. A well-formed feed loads with its vocabularies intact
	library := loadFeed(t)
	assert.Equal(t, 3, library.Len())
	assert.Equal(t, []string{"fiction", "science"}, library.Categories())
	assert.Equal(t, []string{"classic", "sea"}, library.Tags())

	// 2. A missing file is a load failure
	_, err := catalog.Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Equal(t, "LOAD_FAILED", apperr.CodeOf(err))

	// 3. So is a feed that is not JSON
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	_, err = catalog.Load(bad)
	assert.Equal(t, "LOAD_FAILED", apperr.CodeOf(err))
}

/*
TestList verifies filtering and pagination over the feed.
*/
func TestList(t *testing.T) {
	library := loadFeed(t)
	firstPage := pagination.Params{Page: 1, Limit: 20}

	ids := func(books []catalog.Book) []string {
		out := make([]string, len(books))
		for i, b := range books {
			out[i] = b.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter catalog.Filter
		want   []string
	}{
		{"no filter", catalog.Filter{}, []string{"b1", "b2", "b3"}},
		{"query matches title", catalog.Filter{Query: "sea-wolf"}, []string{"b2"}},
		{"query matches author", catalog.Filter{Query: "darwin"}, []string{"b3"}},
		{"category", catalog.Filter{Category: "science"}, []string{"b3"}},
		{"tag", catalog.Filter{Tag: "sea"}, []string{"b1", "b2"}},
		{"format", catalog.Filter{Format: "EPUB"}, []string{"b1"}},
		{"combined", catalog.Filter{Tag: "classic", Format: "pdf"}, []string{"b3"}},
		{"no match", catalog.Filter{Query: "dragons"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, meta := library.List(tt.filter, firstPage)
			assert.Equal(t, tt.want, ids(books))
			assert.Equal(t, len(tt.want), meta.Total)
		})
	}

	// Pagination slices the filtered list, not the raw feed
	books, meta := library.List(catalog.Filter{}, pagination.Params{Page: 2, Limit: 2})
	assert.Equal(t, []string{"b3"}, ids(books))
	assert.Equal(t, 2, meta.TotalPages)

	// A page past the end is empty, never an error
	books, _ = library.List(catalog.Filter{}, pagination.Params{Page: 9, Limit: 2})
	assert.Empty(t, books)
}

/*
TestGet verifies lookup by feed ID.
*/
func TestGet(t *testing.T) {
	library := loadFeed(t)

	book, err := library.Get("b2")
	require.NoError(t, err)
	assert.Equal(t, "The Sea-Wolf", book.Title)

	_, err = library.Get("b99")
	assert.Equal(t, "NOT_FOUND", apperr.CodeOf(err))
}

/*
TestHTTP_Books verifies the catalog routes end to end.
*/
func TestHTTP_Books(t *testing.T) {
	router := catalog.NewHandler(loadFeed(t)).Routes()

	// 1. Filtered listing carries a pagination meta block
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?tag=sea&limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Data []catalog.Book `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Data, 1)
	assert.Equal(t, "b1", listing.Data[0].ID)
	assert.Equal(t, 2, listing.Meta.Total)

	// 2. Lookup by ID
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/b3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/b99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
