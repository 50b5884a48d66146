// Package store selects between the two interchangeable persistence backends
// for the post collection: the relational backend and the document store
// behind the fallback policy. Callers never know which one serves them.
package store

import (
	"context"
	"errors"

	"almanac/internal/config"
	"almanac/internal/fallback"
	"almanac/internal/models"
	"almanac/internal/repository"
)

// PostStore is the backend-agnostic contract for the post collection. Writes
// are collection-replacing per client, mirroring the document backend's merge
// rule, so both backends behave identically under it.
type PostStore interface {
	ListAll(ctx context.Context) ([]models.Post, error)
	ListByClient(ctx context.Context, clientID uint) ([]models.Post, error)
	ReplaceClientPosts(ctx context.Context, clientID uint, posts []models.Post, deletedID uint) error
}

// ErrSaveDegraded reports that a document-backend write only reached the
// local cache. The data is not lost, but the remote store does not have it.
var ErrSaveDegraded = errors.New("store: save degraded to local cache only")

// ForConfig returns the PostStore selected by PERSISTENCE_BACKEND.
func ForConfig(cfg *config.Config, repo repository.PostRepository, fb *fallback.Store) PostStore {
	if cfg.PersistenceBackend == config.BackendDocument {
		return NewDocumentPostStore(fb)
	}
	return NewRelationalPostStore(repo)
}

// relationalPostStore adapts the gorm repository to PostStore.
type relationalPostStore struct {
	repo repository.PostRepository
}

// NewRelationalPostStore wraps the relational repository.
func NewRelationalPostStore(repo repository.PostRepository) PostStore {
	return &relationalPostStore{repo: repo}
}

func (s *relationalPostStore) ListAll(ctx context.Context) ([]models.Post, error) {
	return s.repo.ListAll(ctx)
}

func (s *relationalPostStore) ListByClient(ctx context.Context, clientID uint) ([]models.Post, error) {
	return s.repo.ListByClient(ctx, clientID)
}

func (s *relationalPostStore) ReplaceClientPosts(ctx context.Context, clientID uint, posts []models.Post, deletedID uint) error {
	return s.repo.ReplaceClientPosts(ctx, clientID, posts, deletedID)
}

// documentPostStore adapts the fallback store to PostStore. Reads never fail;
// a degraded write surfaces as ErrSaveDegraded so handlers can report it
// without treating it as data loss.
type documentPostStore struct {
	fb *fallback.Store
}

// NewDocumentPostStore wraps the fallback store.
func NewDocumentPostStore(fb *fallback.Store) PostStore {
	return &documentPostStore{fb: fb}
}

func (s *documentPostStore) ListAll(ctx context.Context) ([]models.Post, error) {
	posts, _ := s.fb.LoadPosts(ctx)
	return posts, nil
}

func (s *documentPostStore) ListByClient(ctx context.Context, clientID uint) ([]models.Post, error) {
	posts, _ := s.fb.LoadPosts(ctx)
	mine := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.ClientID == clientID {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

func (s *documentPostStore) ReplaceClientPosts(ctx context.Context, clientID uint, posts []models.Post, deletedID uint) error {
	if ok := s.fb.SavePosts(ctx, clientID, posts, deletedID); !ok {
		return ErrSaveDegraded
	}
	return nil
}
