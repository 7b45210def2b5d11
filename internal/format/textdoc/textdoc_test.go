// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package textdoc_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/minhlq/folio/internal/format/textdoc"
)

func load(t *testing.T, content []byte) *textdoc.Adapter {
	t.Helper()
	a := textdoc.New()
	require.NoError(t, a.Load(context.Background(), strings.NewReader(string(content))))
	return a
}

/*
TestAdapter_PaginationNeverSplitsParagraphs verifies paragraphs are packed
greedily and each paragraph lands on exactly one page.
*/
func TestAdapter_PaginationNeverSplitsParagraphs(t *testing.T) {
	// Ten paragraphs of 800 characters pack 3 per 3000-character page
	para := strings.Repeat("a", 800)
	doc := strings.Repeat(para+"\n\n", 10)

	a := load(t, []byte(doc))
	assert.Equal(t, 4, a.TotalPages())

	for n := 1; n <= a.TotalPages(); n++ {
		page, err := a.Page(n)
		require.NoError(t, err)
		for _, p := range strings.Split(page, "\n\n") {
			if p != "" {
				assert.Equal(t, para, p, "page %d holds a partial paragraph", n)
			}
		}
	}
}

/*
TestAdapter_OversizedParagraphOverflowsOnePage verifies a paragraph larger
than the page budget is assigned whole to a single page.
*/
func TestAdapter_OversizedParagraphOverflowsOnePage(t *testing.T) {
	big := strings.Repeat("b", textdoc.PageSize*2)
	doc := "intro\n\n" + big + "\n\noutro"

	a := load(t, []byte(doc))
	assert.Equal(t, 3, a.TotalPages())

	page, err := a.Page(2)
	require.NoError(t, err)
	assert.Equal(t, big, page)
}

/*
TestAdapter_EmptyDocument verifies an empty document still exposes one page.
*/
func TestAdapter_EmptyDocument(t *testing.T) {
	a := load(t, nil)
	assert.Equal(t, 1, a.TotalPages())
	assert.Equal(t, 1, a.CurrentPage())

	page, err := a.Page(1)
	require.NoError(t, err)
	assert.Empty(t, page)
}

/*
TestAdapter_NavigationClamps verifies out-of-range requests are clamped
silently and boundaries are no-ops.
*/
func TestAdapter_NavigationClamps(t *testing.T) {
	ctx := context.Background()
	doc := strings.Repeat(strings.Repeat("x", 2900)+"\n\n", 3)
	a := load(t, []byte(doc))
	require.Equal(t, 3, a.TotalPages())

	require.NoError(t, a.GoToPage(ctx, 99))
	assert.Equal(t, 3, a.CurrentPage())

	require.NoError(t, a.NextPage(ctx)) // no-op at the end
	assert.Equal(t, 3, a.CurrentPage())

	require.NoError(t, a.GoToPage(ctx, -5))
	assert.Equal(t, 1, a.CurrentPage())

	require.NoError(t, a.PrevPage(ctx)) // no-op at the start
	assert.Equal(t, 1, a.CurrentPage())
}

/*
TestAdapter_EncodingDetection verifies BOM-based detection, the GB18030
fallback, and the UTF-8 default all decode to the same text.
*/
func TestAdapter_EncodingDetection(t *testing.T) {
	const text = "第一章 风雪山神庙\n\nplain ascii too"

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	gbk, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  []byte
	}{
		{"utf-8", []byte(text)},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, text...)},
		{"utf-16le bom", utf16le},
		{"gb18030 heuristic", gbk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := load(t, tt.raw)
			page, err := a.Page(1)
			require.NoError(t, err)
			assert.Contains(t, page, "第一章 风雪山神庙")
			assert.Contains(t, page, "plain ascii too")
		})
	}
}

/*
TestAdapter_Search verifies case-insensitive search reports page, position,
and context for every occurrence.
*/
func TestAdapter_Search(t *testing.T) {
	filler := strings.Repeat("z", 2960)
	doc := "The WHALE surfaced.\n\n" + filler + "\n\nA second whale followed."

	a := load(t, []byte(doc))
	require.Equal(t, 2, a.TotalPages())

	matches := a.Search("whale")
	require.Len(t, matches, 2)

	assert.Equal(t, 1, matches[0].Page)
	assert.Equal(t, "WHALE", matches[0].Text)
	assert.Equal(t, 4, matches[0].Position)
	assert.Contains(t, matches[0].Context, "WHALE surfaced")

	assert.Equal(t, 2, matches[1].Page)
	assert.Equal(t, "whale", matches[1].Text)

	assert.Empty(t, a.Search("   "))
	assert.Empty(t, a.Search("kraken"))
}
