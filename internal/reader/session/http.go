// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package session

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minhlq/folio/internal/format"
	"github.com/minhlq/folio/internal/format/epubdoc"
	"github.com/minhlq/folio/internal/format/pdfdoc"
	"github.com/minhlq/folio/internal/format/textdoc"
	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/internal/platform/kvstore"
	requestutil "github.com/minhlq/folio/internal/platform/request"
	"github.com/minhlq/folio/internal/platform/respond"
	"github.com/minhlq/folio/internal/platform/validate"
	"github.com/minhlq/folio/internal/reader/activity"
	"github.com/minhlq/folio/internal/reader/note"
	"github.com/minhlq/folio/internal/reader/progress"
)

// Handler implements the HTTP layer for reading sessions.
type Handler struct {
	registry *Registry
	store    kvstore.Store
	history  *progress.History
	logger   *slog.Logger

	booksDir         string
	idleThreshold    time.Duration
	autosaveInterval time.Duration
}

// NewHandler constructs a new session [Handler]. booksDir is the root all
// document paths are resolved under.
func NewHandler(
	registry *Registry,
	store kvstore.Store,
	history *progress.History,
	logger *slog.Logger,
	booksDir string,
	idleThreshold, autosaveInterval time.Duration,
) *Handler {
	return &Handler{
		registry:         registry,
		store:            store,
		history:          history,
		logger:           logger,
		booksDir:         booksDir,
		idleThreshold:    idleThreshold,
		autosaveInterval: autosaveInterval,
	}
}

// Routes returns a [chi.Router] configured with the session endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.openSession)

	router.Route("/{id}", func(r chi.Router) {
		r.Get("/", handler.getSession)
		r.Delete("/", handler.closeSession)
		r.Get("/content", handler.getContent)

		// Navigation
		r.Post("/goto", handler.goToPage)
		r.Post("/next", handler.nextPage)
		r.Post("/prev", handler.prevPage)
		r.Post("/activity", handler.reportActivity)

		// Format-specific surfaces
		r.Get("/chapters", handler.listChapters)
		r.Post("/chapters/{index}/goto", handler.goToChapter)
		r.Get("/search", handler.searchText)
		r.Post("/scale", handler.setScale)

		// Bookmarks
		r.Get("/bookmarks", handler.listBookmarks)
		r.Post("/bookmarks", handler.addBookmark)
		r.Post("/bookmarks/{bookmarkId}/goto", handler.goToBookmark)
		r.Delete("/bookmarks/{bookmarkId}", handler.removeBookmark)

		// Notes
		r.Get("/notes", handler.listNotes)
		r.Post("/notes", handler.addNote)
		r.Patch("/notes/{noteId}", handler.updateNote)
		r.Delete("/notes/{noteId}", handler.removeNote)
		r.Get("/notes/export", handler.exportNotes)
		r.Post("/notes/import", handler.importNotes)
	})

	return router
}

// lookup resolves the session referenced by the request path.
func (handler *Handler) lookup(request *http.Request) (*Controller, error) {
	return handler.registry.Get(requestutil.ID(request, "id"))
}

// # Session Lifecycle

// openSessionRequest is the payload for opening a session.
type openSessionRequest struct {
	// Path is the URL-encoded document path, relative to the books root.
	Path string `json:"path"`
	// BookID overrides the identity derived from the path.
	BookID string `json:"bookId"`
}

// openSessionResponse pairs the new session ID with its restored state.
type openSessionResponse struct {
	SessionID string `json:"sessionId"`
	Status    Status `json:"status"`
}

/*
POST /api/v1/sessions.

Description: Opens a reading session for a document under the books root.
The format is inferred from the file extension, falling back to
content-type sniffing.

Request:
  - body: openSessionRequest

Response:
  - 201: openSessionResponse: Session ID plus the restored position
  - 400: Validation: Missing or escaping path
  - 415: InvalidFormat: Undetectable or unsupported document type
  - 422: LoadFailed: The document could not be parsed
  - 502: NetworkError: The document could not be fetched
*/
func (handler *Handler) openSession(writer http.ResponseWriter, request *http.Request) {
	var input openSessionRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	rawPath, err := url.QueryUnescape(input.Path)
	if err != nil {
		rawPath = input.Path
	}
	if err := new(validate.Validator).Required("path", rawPath).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	fullPath, relPath, err := handler.resolvePath(rawPath)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	file, err := os.Open(fullPath)
	if err != nil {
		respond.Error(writer, request,
			apperr.NetworkError("Failed to fetch document", err))
		return
	}
	defer file.Close()

	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)

	kind, err := format.Detect(relPath, sniff[:n])
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	adapter, err := format.New(kind, format.Deps{})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	bookID := strings.TrimSpace(input.BookID)
	if bookID == "" {
		bookID = relPath
	}

	document := io.MultiReader(bytes.NewReader(sniff[:n]), file)
	controller, err := Open(request.Context(), document, Config{
		BookID:           bookID,
		Adapter:          adapter,
		Store:            handler.store,
		History:          handler.history,
		Logger:           handler.logger,
		IdleThreshold:    handler.idleThreshold,
		AutosaveInterval: handler.autosaveInterval,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := handler.registry.Add(controller)
	respond.Created(writer, openSessionResponse{
		SessionID: id,
		Status:    controller.Status(),
	})
}

// resolvePath confines a client-supplied path strictly under the books root.
func (handler *Handler) resolvePath(raw string) (full, rel string, err error) {
	rel = strings.TrimPrefix(filepath.Clean("/"+filepath.FromSlash(raw)), string(filepath.Separator))
	if rel == "" || rel == "." {
		return "", "", apperr.ValidationError("Document path is required")
	}

	full = filepath.Join(handler.booksDir, rel)
	if escaped, relErr := filepath.Rel(handler.booksDir, full); relErr != nil ||
		escaped == ".." || strings.HasPrefix(escaped, ".."+string(filepath.Separator)) {
		return "", "", apperr.ValidationError("Document path escapes the library")
	}
	return full, filepath.ToSlash(rel), nil
}

/*
GET /api/v1/sessions/{id}.

Description: Returns the session's position, progress percentage, and
formatted reading time.

Response:
  - 200: Status
  - 404: NotFound: Unknown session
*/
func (handler *Handler) getSession(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, controller.Status())
}

/*
DELETE /api/v1/sessions/{id}.

Description: Closes the session with the ordered shutdown: flush progress,
persist bookmarks and notes, release the document.

Response:
  - 204: No content
  - 404: NotFound: Unknown session
*/
func (handler *Handler) closeSession(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.registry.Remove(requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	controller.Close(request.Context())
	respond.NoContent(writer)
}

// # Navigation

// gotoRequest is the payload for absolute jumps.
type gotoRequest struct {
	Page int `json:"page"`
}

/*
POST /api/v1/sessions/{id}/goto.

Description: Jumps to a page. Out-of-range pages are clamped silently, never
rejected.

Request:
  - body: gotoRequest

Response:
  - 200: Status: The landed position
  - 404: NotFound: Unknown session
  - 500: RenderError: The landed page failed to render (session stays open)
*/
func (handler *Handler) goToPage(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input gotoRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := controller.GoToPage(request.Context(), input.Page); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, controller.Status())
}

/*
POST /api/v1/sessions/{id}/next.

Description: Advances one page; a no-op on the last page.

Response:
  - 200: Status
  - 404: NotFound: Unknown session
*/
func (handler *Handler) nextPage(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := controller.NextPage(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, controller.Status())
}

/*
POST /api/v1/sessions/{id}/prev.

Description: Goes back one page; a no-op on the first page.

Response:
  - 200: Status
  - 404: NotFound: Unknown session
*/
func (handler *Handler) prevPage(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := controller.PrevPage(request.Context()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, controller.Status())
}

// activityRequest reports one user interaction event.
type activityRequest struct {
	Event string `json:"event"`
}

/*
POST /api/v1/sessions/{id}/activity.

Description: Reports a user interaction event (pointerdown, keydown,
pointermove, wheel, touchstart) to the session's activity detector.

Request:
  - body: activityRequest

Response:
  - 204: No content
  - 400: Validation: Unknown event class
  - 404: NotFound: Unknown session
*/
func (handler *Handler) reportActivity(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input activityRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	ev := activity.EventClass(input.Event)
	if !ev.Valid() {
		respond.Error(writer, request,
			apperr.ValidationError("Unknown activity event: "+input.Event))
		return
	}

	controller.Activity(ev)
	respond.NoContent(writer)
}

// # Format-Specific Surfaces

/*
GET /api/v1/sessions/{id}/content.

Description: Returns the text of the current page for page-oriented formats
(plain text, PDF). Reflowable documents are rendered client-side and have no
server-side page text.

Response:
  - 200: {page, text}
  - 404: NotFound: Unknown session
  - 415: InvalidFormat: The format has no server-side page text
*/
func (handler *Handler) getContent(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := controller.Adapter().CurrentPage()

	var text string
	switch adapter := controller.Adapter().(type) {
	case *textdoc.Adapter:
		text, err = adapter.Page(page)
	case *pdfdoc.Adapter:
		text, err = adapter.PageText(page)
	default:
		err = apperr.InvalidFormat("This format has no server-side page text")
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"page": page, "text": text})
}

/*
GET /api/v1/sessions/{id}/chapters.

Description: Lists the chapters of a reflowable document with the location
each one starts at.

Response:
  - 200: []epubdoc.ChapterInfo
  - 404: NotFound: Unknown session
  - 415: InvalidFormat: The format has no chapter structure
*/
func (handler *Handler) listChapters(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	adapter, ok := controller.Adapter().(*epubdoc.Adapter)
	if !ok {
		respond.Error(writer, request,
			apperr.InvalidFormat("This format has no chapter structure"))
		return
	}
	respond.OK(writer, adapter.Chapters())
}

/*
POST /api/v1/sessions/{id}/chapters/{index}/goto.

Description: Jumps to the first location of a chapter, through the ordinary
navigation path.

Response:
  - 200: Status
  - 400: Validation: Non-numeric chapter index
  - 404: NotFound: Unknown session
  - 415: InvalidFormat: The format has no chapter structure
*/
func (handler *Handler) goToChapter(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	adapter, ok := controller.Adapter().(*epubdoc.Adapter)
	if !ok {
		respond.Error(writer, request,
			apperr.InvalidFormat("This format has no chapter structure"))
		return
	}

	index, err := strconv.Atoi(requestutil.Param(request, "index"))
	if err != nil {
		respond.Error(writer, request,
			apperr.ValidationError("Chapter index must be a number"))
		return
	}

	if err := adapter.GoToChapter(request.Context(), index); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, controller.Status())
}

/*
GET /api/v1/sessions/{id}/search?q=term.

Description: Searches a plain-text document, returning every occurrence
with page, position, and context.

Response:
  - 200: []textdoc.Match
  - 400: Validation: Missing query
  - 404: NotFound: Unknown session
  - 415: InvalidFormat: The format is not searchable server-side
*/
func (handler *Handler) searchText(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	adapter, ok := controller.Adapter().(*textdoc.Adapter)
	if !ok {
		respond.Error(writer, request,
			apperr.InvalidFormat("This format is not searchable server-side"))
		return
	}

	query := request.URL.Query().Get("q")
	if err := new(validate.Validator).Required("q", query).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	matches := adapter.Search(query)
	if matches == nil {
		matches = []textdoc.Match{}
	}
	respond.OK(writer, matches)
}

// scaleRequest is the payload for zoom changes.
type scaleRequest struct {
	Scale float64 `json:"scale"`
}

/*
POST /api/v1/sessions/{id}/scale.

Description: Changes the raster scale of a fixed-page document. The whole
document re-renders at the new scale.

Request:
  - body: scaleRequest

Response:
  - 200: Status
  - 400: Validation: Non-positive scale
  - 404: NotFound: Unknown session
  - 415: InvalidFormat: The format is not rasterized
*/
func (handler *Handler) setScale(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	adapter, ok := controller.Adapter().(*pdfdoc.Adapter)
	if !ok {
		respond.Error(writer, request,
			apperr.InvalidFormat("This format is not rasterized"))
		return
	}

	var input scaleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := adapter.SetScale(request.Context(), input.Scale); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, controller.Status())
}

// # Bookmarks

// addBookmarkRequest is the payload for creating or merging a bookmark.
type addBookmarkRequest struct {
	Page  int    `json:"page"`
	Title string `json:"title"`
	Note  string `json:"note"`
}

/*
GET /api/v1/sessions/{id}/bookmarks.

Description: Lists the session's bookmarks, sorted by page.

Response:
  - 200: []bookmark.Bookmark
  - 404: NotFound: Unknown session
*/
func (handler *Handler) listBookmarks(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, controller.Bookmarks().All())
}

/*
POST /api/v1/sessions/{id}/bookmarks.

Description: Bookmarks a page. An already-bookmarked page is merge-updated
in place rather than duplicated.

Request:
  - body: addBookmarkRequest

Response:
  - 201: bookmark.Bookmark: The stored entry
  - 400: Validation: Page below 1 or oversized title
  - 404: NotFound: Unknown session
*/
func (handler *Handler) addBookmark(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input addBookmarkRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = new(validate.Validator).
		Min("page", input.Page, 1).
		MaxLen("title", input.Title, 200).
		MaxLen("note", input.Note, 2000).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stored := controller.Bookmarks().Add(request.Context(), input.Page, input.Title, input.Note)
	respond.Created(writer, stored)
}

/*
POST /api/v1/sessions/{id}/bookmarks/{bookmarkId}/goto.

Description: Jumps to the page a bookmark marks.

Response:
  - 200: Status
  - 404: NotFound: Unknown session or bookmark
*/
func (handler *Handler) goToBookmark(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	bookmarkID := requestutil.ID(request, "bookmarkId")
	if err := controller.GoToBookmark(request.Context(), bookmarkID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, controller.Status())
}

/*
DELETE /api/v1/sessions/{id}/bookmarks/{bookmarkId}.

Description: Removes a bookmark.

Response:
  - 204: No content
  - 404: NotFound: Unknown session or bookmark
*/
func (handler *Handler) removeBookmark(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !controller.Bookmarks().Remove(request.Context(), requestutil.ID(request, "bookmarkId")) {
		respond.Error(writer, request, apperr.NotFound("Bookmark"))
		return
	}
	respond.NoContent(writer)
}

// # Notes

// addNoteRequest is the payload for creating a note.
type addNoteRequest struct {
	Page         int    `json:"page"`
	Content      string `json:"content"`
	SelectedText string `json:"selectedText"`
	Color        string `json:"color"`
}

// updateNoteRequest is the partial-update payload for a note.
type updateNoteRequest struct {
	Content *string `json:"content"`
	Color   *string `json:"color"`
}

/*
GET /api/v1/sessions/{id}/notes.

Description: Lists the session's notes, sorted by page then creation time.
The optional ?page=N filter narrows to one page.

Response:
  - 200: []note.Note
  - 404: NotFound: Unknown session
*/
func (handler *Handler) listNotes(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if raw := request.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			respond.Error(writer, request,
				apperr.ValidationError("Page filter must be a number"))
			return
		}
		notes := controller.Notes().ByPage(page)
		if notes == nil {
			notes = []note.Note{}
		}
		respond.OK(writer, notes)
		return
	}

	respond.OK(writer, controller.Notes().All())
}

/*
POST /api/v1/sessions/{id}/notes.

Description: Adds a note. Notes never merge; a page may carry any number.

Request:
  - body: addNoteRequest

Response:
  - 201: note.Note: The stored note
  - 400: Validation: Page below 1 or empty content
  - 404: NotFound: Unknown session
*/
func (handler *Handler) addNote(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input addNoteRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = new(validate.Validator).
		Min("page", input.Page, 1).
		Required("content", input.Content).
		MaxLen("content", input.Content, 5000).
		Err()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stored := controller.Notes().Add(request.Context(),
		input.Page, input.Content, input.SelectedText, input.Color)
	respond.Created(writer, stored)
}

/*
PATCH /api/v1/sessions/{id}/notes/{noteId}.

Description: Applies a partial update to a note.

Request:
  - body: updateNoteRequest (Partial JSON)

Response:
  - 200: note.Note: The updated note
  - 404: NotFound: Unknown session or note
*/
func (handler *Handler) updateNote(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateNoteRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := controller.Notes().Update(request.Context(),
		requestutil.ID(request, "noteId"),
		note.UpdateFields{Content: input.Content, Color: input.Color})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}

/*
DELETE /api/v1/sessions/{id}/notes/{noteId}.

Description: Removes a note.

Response:
  - 204: No content
  - 404: NotFound: Unknown session or note
*/
func (handler *Handler) removeNote(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if !controller.Notes().Remove(request.Context(), requestutil.ID(request, "noteId")) {
		respond.Error(writer, request, apperr.NotFound("Note"))
		return
	}
	respond.NoContent(writer)
}

/*
GET /api/v1/sessions/{id}/notes/export.

Description: Downloads the session's notes as a portable JSON document.

Response:
  - 200: ExportDocument as an attachment
  - 404: NotFound: Unknown session
*/
func (handler *Handler) exportNotes(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload, err := controller.Notes().Export()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.Header().Set("Content-Disposition", `attachment; filename="notes.json"`)
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(payload)
}

// importNotesResponse reports how many notes an import actually added.
type importNotesResponse struct {
	Imported int `json:"imported"`
}

/*
POST /api/v1/sessions/{id}/notes/import.

Description: Merges an uploaded note export into the session. Malformed
payloads are rejected wholesale; notes with already-known ids are skipped.

Response:
  - 200: importNotesResponse
  - 400: Validation: Malformed export document
  - 404: NotFound: Unknown session
*/
func (handler *Handler) importNotes(writer http.ResponseWriter, request *http.Request) {
	controller, err := handler.lookup(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	payload, err := io.ReadAll(request.Body)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Failed to read import payload"))
		return
	}

	imported, err := controller.Notes().Import(request.Context(), payload)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, importNotesResponse{Imported: imported})
}
