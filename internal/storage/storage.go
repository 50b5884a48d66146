// Package storage abstracts the blob store holding uploaded post attachments.
package storage

import "context"

// Storage persists named blobs and serves them back by public URL.
type Storage interface {
	// Save writes the blob and returns its public URL.
	Save(ctx context.Context, name string, content []byte) (string, error)
	// Remove deletes the blob. Missing blobs are not an error.
	Remove(ctx context.Context, name string) error
}
