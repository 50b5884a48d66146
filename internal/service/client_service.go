package service

import (
	"context"
	"regexp"
	"strings"

	"almanac/internal/fallback"
	"almanac/internal/models"
	"almanac/internal/repository"
	"almanac/internal/store"

	"golang.org/x/crypto/bcrypt"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ClientService manages the tenants whose calendars are scheduled. Share
// passwords are stored bcrypt-hashed; the hash is additionally mirrored into
// the clientAuth document so share verification keeps working when the
// relational backend is unreachable.
type ClientService struct {
	repo  repository.ClientRepository
	posts store.PostStore
	fb    *fallback.Store
}

// CreateClientInput carries the add-client form fields.
type CreateClientInput struct {
	Name        string
	ThemeColor  string
	Password    string
	Description string
}

// UpdateClientInput carries the edit-client form fields. An empty Password
// keeps the existing one.
type UpdateClientInput struct {
	ClientID    uint
	Name        string
	ThemeColor  string
	Password    string
	Description string
	Active      *bool
}

// clientAuthDoc is the share-gating document mirrored at clientAuth/{id}.
type clientAuthDoc struct {
	ClientID     uint   `json:"client_id"`
	PasswordHash string `json:"password_hash"`
}

// NewClientService creates a new client service.
func NewClientService(repo repository.ClientRepository, posts store.PostStore, fb *fallback.Store) *ClientService {
	return &ClientService{repo: repo, posts: posts, fb: fb}
}

// ListClients returns the managed clients, newest last.
func (s *ClientService) ListClients(ctx context.Context, includeInactive bool) ([]models.Client, error) {
	return s.repo.List(ctx, includeInactive)
}

// GetClient returns one client with its computed post count.
func (s *ClientService) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	client, err := s.repo.GetByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, models.NewNotFoundError("Client", id)
	}
	return client, err
}

// CreateClient validates the form input, hashes the share password and
// persists the new tenant.
func (s *ClientService) CreateClient(ctx context.Context, in CreateClientInput) (*models.Client, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if in.ThemeColor != "" && !hexColorPattern.MatchString(in.ThemeColor) {
		return nil, models.NewValidationError("Theme color must be a hex value like #1a2b3c")
	}
	if in.Password == "" {
		return nil, models.NewValidationError("Share password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	client := &models.Client{
		Name:         strings.TrimSpace(in.Name),
		ThemeColor:   in.ThemeColor,
		PasswordHash: string(hash),
		Active:       true,
		Description:  in.Description,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, err
	}

	s.mirrorAuth(ctx, client)
	return client, nil
}

// UpdateClient replaces the editable fields of a client.
func (s *ClientService) UpdateClient(ctx context.Context, in UpdateClientInput) (*models.Client, error) {
	client, err := s.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if in.ThemeColor != "" && !hexColorPattern.MatchString(in.ThemeColor) {
		return nil, models.NewValidationError("Theme color must be a hex value like #1a2b3c")
	}

	client.Name = strings.TrimSpace(in.Name)
	client.ThemeColor = in.ThemeColor
	client.Description = in.Description
	if in.Active != nil {
		client.Active = *in.Active
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		client.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, err
	}

	s.mirrorAuth(ctx, client)
	return client, nil
}

// SetActive toggles whether a client's share view is reachable.
func (s *ClientService) SetActive(ctx context.Context, id uint, active bool) error {
	err := s.repo.SetActive(ctx, id, active)
	if repository.IsNotFound(err) {
		return models.NewNotFoundError("Client", id)
	}
	return err
}

// DeleteClient removes the client and all of its posts in both backends.
// There is no undo.
func (s *ClientService) DeleteClient(ctx context.Context, id uint) error {
	if _, err := s.GetClient(ctx, id); err != nil {
		return err
	}

	// Drop the client's posts from whichever post backend is active first so
	// a failed client delete never leaves orphaned posts invisible in the UI.
	if err := s.posts.ReplaceClientPosts(ctx, id, nil, 0); err != nil && err != store.ErrSaveDegraded {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Best-effort: the auth mirror is only a fallback copy.
	s.fb.Save(ctx, fallback.ClientAuthCollection(id), nil)
	return nil
}

// mirrorAuth writes the share auth document through the fallback policy so a
// cached copy exists for offline password checks. Failures are absorbed; the
// relational row remains authoritative.
func (s *ClientService) mirrorAuth(ctx context.Context, client *models.Client) {
	s.fb.Save(ctx, fallback.ClientAuthCollection(client.ID), clientAuthDoc{
		ClientID:     client.ID,
		PasswordHash: client.PasswordHash,
	})
}
