// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

package kvstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/internal/platform/kvstore"
)

type document struct {
	Title string `json:"title"`
	Page  int    `json:"page"`
}

// backends builds one of each non-networked backend for shared contract tests.
func backends(t *testing.T) map[string]kvstore.Store {
	t.Helper()

	fileStore, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)

	return map[string]kvstore.Store{
		"memory": kvstore.NewMemoryStore(),
		"file":   fileStore,
	}
}

/*
TestStore_RoundTrip verifies Set followed by Get returns the same document.
*/
func TestStore_RoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := document{Title: "Moby Dick", Page: 42}

			require.NoError(t, store.Set(ctx, "reading_progress_moby", in))

			var out document
			require.NoError(t, store.Get(ctx, "reading_progress_moby", &out))
			assert.Equal(t, in, out)
		})
	}
}

/*
TestStore_GetMissing verifies a NOT_FOUND error for keys never written.
*/
func TestStore_GetMissing(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var out document
			err := store.Get(context.Background(), "absent", &out)
			require.Error(t, err)

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "NOT_FOUND", ae.Code)
		})
	}
}

/*
TestStore_Overwrite verifies Set replaces the previous document wholesale.
*/
func TestStore_Overwrite(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "k", document{Title: "v1", Page: 1}))
			require.NoError(t, store.Set(ctx, "k", document{Title: "v2", Page: 2}))

			var out document
			require.NoError(t, store.Get(ctx, "k", &out))
			assert.Equal(t, "v2", out.Title)
			assert.Equal(t, 2, out.Page)
		})
	}
}

/*
TestStore_Delete verifies deletion removes the key and is idempotent.
*/
func TestStore_Delete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "k", document{Title: "v"}))
			require.NoError(t, store.Delete(ctx, "k"))

			var out document
			assert.Error(t, store.Get(ctx, "k", &out))

			// Deleting an absent key is not an error.
			assert.NoError(t, store.Delete(ctx, "k"))
		})
	}
}

/*
TestFileStore_KeySanitization verifies path separators in keys cannot escape
the data directory.
*/
func TestFileStore_KeySanitization(t *testing.T) {
	dir := t.TempDir()
	store, err := kvstore.NewFileStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "../escape/attempt", document{Title: "x"}))

	var out document
	require.NoError(t, store.Get(ctx, "../escape/attempt", &out))
	assert.Equal(t, "x", out.Title)
}
