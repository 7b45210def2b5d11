// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/minhlq/folio/internal/platform/request"
	"github.com/minhlq/folio/internal/platform/respond"
	"github.com/minhlq/folio/pkg/pagination"
)

// Handler implements the HTTP layer for the book catalog.
type Handler struct {
	library *Library
}

// NewHandler constructs a new catalog [Handler].
func NewHandler(library *Library) *Handler {
	return &Handler{library: library}
}

// Routes returns a [chi.Router] configured with the catalog endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listBooks)
	router.Get("/{id}", handler.getBook)
	return router
}

/*
GET /api/v1/books.

Description: Lists the library's books in feed order with pagination.

Request:
  - query: q: Case-insensitive title/author search
  - query: category, tag, format: Exact-match filters
  - query: page, limit: Pagination

Response:
  - 200: []Book with pagination metadata
*/
func (handler *Handler) listBooks(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	filter := Filter{
		Query:    query.Get("q"),
		Category: query.Get("category"),
		Tag:      query.Get("tag"),
		Format:   query.Get("format"),
	}

	params := pagination.FromRequest(request)
	books, meta := handler.library.List(filter, params)
	respond.Paginated(writer, books, meta)
}

/*
GET /api/v1/books/{id}.

Description: Returns one book by its feed ID.

Response:
  - 200: Book
  - 404: NotFound: No book with that ID
*/
func (handler *Handler) getBook(writer http.ResponseWriter, request *http.Request) {
	book, err := handler.library.Get(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}
