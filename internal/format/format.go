// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package format defines the unifying contract every document format adapter
implements, plus format detection and the adapter factory.

# Contract

All adapters expose the same 1-based page surface regardless of how the
underlying format addresses content: fixed raster pages (PDF), fractional
reflow positions (EPUB), or computed character-count pages (plain text).
Out-of-range navigation is clamped silently, never an error, and prev/next
are no-ops at the boundaries.
*/
package format

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/minhlq/folio/internal/platform/apperr"
)

// Kind identifies a supported document format.
type Kind string

const (
	// KindPDF is the fixed-page raster format.
	KindPDF Kind = "pdf"
	// KindEPUB is the continuous reflow format.
	KindEPUB Kind = "epub"
	// KindText is the paginated plain-text format.
	KindText Kind = "txt"
)

// DocumentAdapter is the surface the session controller drives a document
// through.
type DocumentAdapter interface {
	// Load parses the document bytes. It returns [apperr.LoadFailed] on
	// malformed or unsupported input; no other method may be called before
	// a successful Load.
	Load(ctx context.Context, r io.Reader) error

	// CurrentPage returns the 1-based current page.
	CurrentPage() int

	// TotalPages returns the page count. Fixed after load for fixed-page
	// formats; an approximation derived from sampled locations for the
	// reflow format.
	TotalPages() int

	// GoToPage navigates to the 1-based page, clamped silently into
	// [1, TotalPages].
	GoToPage(ctx context.Context, page int) error

	// NextPage advances one page; a no-op on the last page.
	NextPage(ctx context.Context) error

	// PrevPage goes back one page; a no-op on the first page.
	PrevPage(ctx context.Context) error

	// Close releases the underlying engine's resources.
	Close() error
}

// Detect resolves the document format from the file extension, falling back
// to content-type sniffing over the first bytes of the document.
//
// It returns [apperr.InvalidFormat] when neither resolves.
func Detect(path string, sniff []byte) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return KindPDF, nil
	case ".epub":
		return KindEPUB, nil
	case ".txt":
		return KindText, nil
	}

	contentType := http.DetectContentType(sniff)
	switch {
	case contentType == "application/pdf":
		return KindPDF, nil
	case contentType == "application/zip":
		// EPUB is a zip container; a bare zip reaching the reader is
		// treated as one and rejected later by the adapter if it is not.
		return KindEPUB, nil
	case strings.HasPrefix(contentType, "text/plain"):
		return KindText, nil
	}

	return "", apperr.InvalidFormat("Unsupported document format: " + filepath.Base(path))
}
