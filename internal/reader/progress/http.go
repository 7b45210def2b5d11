// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package progress

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minhlq/folio/internal/platform/respond"
)

// Handler implements the HTTP layer for the reading history.
type Handler struct {
	history *History
}

// NewHandler constructs a new history [Handler].
func NewHandler(history *History) *Handler {
	return &Handler{history: history}
}

// Routes returns a [chi.Router] configured with the history endpoint.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listHistory)
	return router
}

/*
GET /api/v1/history.

Description: Returns the reading history, most recently started first. The
history is capped; the oldest entries fall off once the cap is reached.

Response:
  - 200: []HistoryEntry
  - 500: StorageError: The history could not be loaded
*/
func (handler *Handler) listHistory(writer http.ResponseWriter, request *http.Request) {
	entries, err := handler.history.Entries(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	respond.OK(writer, entries)
}
