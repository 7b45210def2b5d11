// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package textdoc adapts plain-text documents to the reader's page surface.

# Pagination

Pages are computed once at load by greedily packing paragraphs into
fixed-size character-count pages. A paragraph is never split across pages;
a single paragraph larger than the page budget still occupies exactly one
page and is allowed to overflow it.

# Encoding

The byte stream is decoded by byte-order-mark detection first (UTF-8,
UTF-16LE, UTF-16BE), then a GB18030 heuristic for legacy Chinese text, and
finally falls back to UTF-8.
*/
package textdoc

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/minhlq/folio/internal/platform/apperr"
)

// PageSize is the character budget of one generated page.
const PageSize = 3000

// Match is one search hit.
type Match struct {
	// Page is the 1-based page the hit is on.
	Page int `json:"page"`
	// Position is the rune offset of the hit within its page.
	Position int `json:"position"`
	// Text is the matched text as it appears in the document.
	Text string `json:"text"`
	// Context is the surrounding passage, for result lists.
	Context string `json:"context"`
}

// Adapter is the paginated plain-text document adapter.
type Adapter struct {
	mu      sync.Mutex
	pages   []string
	current int
	loaded  bool
}

// New creates an unloaded plain-text adapter.
func New() *Adapter {
	return &Adapter{}
}

// Load reads, decodes, and paginates the document.
func (a *Adapter) Load(_ context.Context, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return apperr.LoadFailed("Failed to read text document", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.pages = paginate(decode(raw))
	a.current = 1
	a.loaded = true
	return nil
}

// CurrentPage returns the 1-based current page.
func (a *Adapter) CurrentPage() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// TotalPages returns the computed page count. An empty document still has
// one (empty) page.
func (a *Adapter) TotalPages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pages)
}

// GoToPage moves to page, clamped silently into [1, TotalPages].
func (a *Adapter) GoToPage(_ context.Context, page int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if page < 1 {
		page = 1
	}
	if page > len(a.pages) {
		page = len(a.pages)
	}
	a.current = page
	return nil
}

// NextPage advances one page; a no-op on the last page.
func (a *Adapter) NextPage(ctx context.Context) error {
	return a.GoToPage(ctx, a.CurrentPage()+1)
}

// PrevPage goes back one page; a no-op on the first page.
func (a *Adapter) PrevPage(ctx context.Context) error {
	return a.GoToPage(ctx, a.CurrentPage()-1)
}

// Page returns the text of the 1-based page n.
func (a *Adapter) Page(n int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n < 1 || n > len(a.pages) {
		return "", apperr.NotFound("Page")
	}
	return a.pages[n-1], nil
}

// Close releases nothing; the adapter holds only decoded text.
func (a *Adapter) Close() error {
	return nil
}

// Search returns every case-insensitive occurrence of query across all
// pages, with a short surrounding context.
func (a *Adapter) Search(query string) []Match {
	a.mu.Lock()
	defer a.mu.Unlock()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)

	var matches []Match
	for i, page := range a.pages {
		lower := strings.ToLower(page)
		offset := 0
		for {
			idx := strings.Index(lower[offset:], needle)
			if idx < 0 {
				break
			}
			byteAt := offset + idx
			matches = append(matches, Match{
				Page:     i + 1,
				Position: utf8.RuneCountInString(page[:byteAt]),
				Text:     page[byteAt : byteAt+len(needle)],
				Context:  contextAround(page, byteAt, len(needle)),
			})
			offset = byteAt + len(needle)
		}
	}
	return matches
}

// contextAround extracts a short passage surrounding a hit.
func contextAround(page string, at, length int) string {
	const radius = 40

	start := at
	for i := 0; i < radius && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(page[:start])
		start -= size
	}
	end := at + length
	for i := 0; i < radius && end < len(page); i++ {
		_, size := utf8.DecodeRuneInString(page[end:])
		end += size
	}

	return strings.TrimSpace(page[start:end])
}

// paginate packs paragraphs greedily into PageSize-character pages.
func paginate(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	paragraphs := strings.Split(text, "\n\n")

	var pages []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			pages = append(pages, strings.TrimRight(cur.String(), "\n"))
			cur.Reset()
			curLen = 0
		}
	}

	for _, para := range paragraphs {
		paraLen := utf8.RuneCountInString(para) + 2

		// A page already holding text never absorbs a paragraph that
		// would push it past the budget.
		if curLen > 0 && curLen+paraLen > PageSize {
			flush()
		}

		cur.WriteString(para)
		cur.WriteString("\n\n")
		curLen += paraLen

		if curLen >= PageSize {
			flush()
		}
	}
	flush()

	if len(pages) == 0 {
		pages = []string{""}
	}
	return pages
}

// decode converts raw document bytes to a UTF-8 string.
func decode(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return string(raw[3:])
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		if out, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw); err == nil {
			return string(out)
		}
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		if out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw); err == nil {
			return string(out)
		}
	}

	if utf8.Valid(raw) {
		return string(raw)
	}

	// Legacy heuristic: a clean GB18030 decode (no replacement runes) wins.
	if out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(raw); err == nil &&
		!bytes.ContainsRune(out, utf8.RuneError) {
		return string(out)
	}

	return string(raw)
}
