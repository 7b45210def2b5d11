// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/pkg/uuidv7"
)

// Registry holds every open reading session, keyed by session ID.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Controller
	logger   *slog.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Controller),
		logger:   logger,
	}
}

// Add registers an open session and returns its new session ID.
func (r *Registry) Add(c *Controller) string {
	id := uuidv7.New()

	r.mu.Lock()
	r.sessions[id] = c
	r.mu.Unlock()

	r.logger.Info("reading session opened",
		slog.String("session_id", id),
		slog.String("book_id", c.BookID()))
	return id
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.sessions[id]
	if !ok {
		return nil, apperr.NotFound("Session")
	}
	return c, nil
}

// Remove detaches the session with the given ID and returns it; the caller
// owns closing it.
func (r *Registry) Remove(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.sessions[id]
	if !ok {
		return nil, apperr.NotFound("Session")
	}
	delete(r.sessions, id)
	return c, nil
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll closes every open session. Used on server shutdown so the final
// reading time and annotations of every open book reach storage.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Controller)
	r.mu.Unlock()

	for id, c := range sessions {
		c.Close(ctx)
		r.logger.Info("reading session closed on shutdown", slog.String("session_id", id))
	}
}
