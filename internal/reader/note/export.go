// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package note

import (
	"context"
	"encoding/json"

	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/internal/platform/constants"
)

// ExportDocument is the portable note interchange format, written as UTF-8
// JSON at the download/upload boundary.
type ExportDocument struct {
	BookID string `json:"bookId"`
	Notes  []Note `json:"notes"`
	// ExportTime is the epoch-millisecond timestamp of the export.
	ExportTime int64 `json:"exportTime"`
	// Version is a forward-compatibility marker. Imports accept it without
	// validating against it.
	Version string `json:"version"`
}

// importedNote mirrors [Note] with pointer fields so required-field checks
// can tell a missing field from a zero value.
type importedNote struct {
	ID           *string `json:"id"`
	Page         *int    `json:"page"`
	Content      *string `json:"content"`
	SelectedText string  `json:"selectedText"`
	Color        string  `json:"color"`
	CreatedAt    *int64  `json:"createdAt"`
	UpdatedAt    *int64  `json:"updatedAt"`
}

// importDocument is the lenient parse target for uploaded exports. Notes is
// raw so "absent" and "not an array" can each be rejected precisely.
type importDocument struct {
	BookID  string          `json:"bookId"`
	Notes   json.RawMessage `json:"notes"`
	Version string          `json:"version"`
}

// Export serializes the current note list as an [ExportDocument], indented
// for human inspection.
func (s *Store) Export() ([]byte, error) {
	doc := ExportDocument{
		BookID:     s.bookID,
		Notes:      s.All(),
		ExportTime: s.now().UnixMilli(),
		Version:    constants.NoteExportVersion,
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Import merges an uploaded export document into the store.
//
// # Validation
//
// The whole import is rejected with a validation error, and nothing is
// applied, when the top-level notes field is not an array or any entry is
// missing id, page, a string content, createdAt, or updatedAt. Incoming
// notes whose id already exists are silently dropped. It returns the number
// of notes actually added.
func (s *Store) Import(ctx context.Context, payload []byte) (int, error) {
	var doc importDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return 0, apperr.ValidationError("Import payload is not a valid note export")
	}

	var incoming []importedNote
	if doc.Notes == nil || json.Unmarshal(doc.Notes, &incoming) != nil {
		return 0, apperr.ValidationError("Import payload must carry a notes array")
	}

	notes := make([]Note, 0, len(incoming))
	for _, in := range incoming {
		if in.ID == nil || in.Page == nil || in.Content == nil ||
			in.CreatedAt == nil || in.UpdatedAt == nil || *in.Page < 1 {
			return 0, apperr.ValidationError("Import payload contains a malformed note")
		}

		color := in.Color
		if color == "" {
			color = DefaultColor
		}
		notes = append(notes, Note{
			ID:           *in.ID,
			Page:         *in.Page,
			Content:      *in.Content,
			SelectedText: in.SelectedText,
			Color:        color,
			CreatedAt:    *in.CreatedAt,
			UpdatedAt:    *in.UpdatedAt,
		})
	}

	s.mu.Lock()

	existing := make(map[string]bool, len(s.items))
	for _, n := range s.items {
		existing[n.ID] = true
	}

	added := 0
	for _, n := range notes {
		if existing[n.ID] {
			continue
		}
		s.items = append(s.items, n)
		existing[n.ID] = true
		added++
	}

	if added > 0 {
		s.sortLocked()
		s.persistLocked(ctx)
	}
	notify := s.onChange
	s.mu.Unlock()

	// Every successful import notifies, even one that added nothing, so
	// consumers re-read the list after any upload.
	if notify != nil {
		notify()
	}
	return added, nil
}
