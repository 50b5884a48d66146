// Package kv provides the remote document store: JSON documents at
// hierarchical paths with push notifications on change.
package kv

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("kv: document not found")

// Store is a hierarchical-path document store (e.g. "settings",
// "calendarPosts", "clientAuth/42"). Implementations are treated as opaque;
// callers go through the fallback layer rather than using a Store directly.
type Store interface {
	// Get returns the raw JSON document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Set stores value (marshaled to JSON) at path and notifies subscribers.
	Set(ctx context.Context, path string, value any) error
	// Delete removes the document at path and notifies subscribers with a
	// nil payload.
	Delete(ctx context.Context, path string) error
	// Subscribe registers onChange for push notifications on path. The
	// returned function unsubscribes; it is safe to call exactly once.
	Subscribe(ctx context.Context, path string, onChange func(json.RawMessage)) (func(), error)
}
