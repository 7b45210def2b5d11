// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package format

import (
	"github.com/minhlq/folio/internal/format/epubdoc"
	"github.com/minhlq/folio/internal/format/pdfdoc"
	"github.com/minhlq/folio/internal/format/textdoc"
	"github.com/minhlq/folio/internal/platform/apperr"
)

// Deps carries the optional rendering collaborators adapters are built
// with. Nil collaborators are allowed; navigation then runs headless.
type Deps struct {
	// Rasterizer renders fixed PDF pages.
	Rasterizer pdfdoc.Rasterizer
	// Renderer drives the EPUB reflow engine.
	Renderer epubdoc.Renderer
}

// New constructs the adapter for a detected format kind.
func New(kind Kind, deps Deps) (DocumentAdapter, error) {
	switch kind {
	case KindPDF:
		return pdfdoc.New(deps.Rasterizer), nil
	case KindEPUB:
		return epubdoc.New(deps.Renderer), nil
	case KindText:
		return textdoc.New(), nil
	}
	return nil, apperr.InvalidFormat("Unsupported document format: " + string(kind))
}
