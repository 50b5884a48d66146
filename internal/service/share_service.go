package service

import (
	"context"
	"encoding/json"
	"time"

	"almanac/internal/fallback"
	"almanac/internal/middleware"
	"almanac/internal/models"
	"almanac/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ShareService gates the public read-only calendar views. A successful
// password check issues a short-lived token scoped to exactly one client;
// a failed check mutates nothing and loads nothing.
type ShareService struct {
	clients   repository.ClientRepository
	posts     *PostService
	fb        *fallback.Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewShareService creates a new share service.
func NewShareService(
	clients repository.ClientRepository,
	posts *PostService,
	fb *fallback.Store,
	jwtSecret string,
	tokenTTL time.Duration,
) *ShareService {
	return &ShareService{
		clients:   clients,
		posts:     posts,
		fb:        fb,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// VerifyPassword checks a share-link password attempt and returns a share
// token on success. The comparison is bcrypt-based; wrong passwords surface
// as an unauthorized AppError ("Incorrect password"), never as an exception,
// and no client data is loaded or stored on the failure path.
func (s *ShareService) VerifyPassword(ctx context.Context, clientID uint, password string) (string, error) {
	hash, active, err := s.passwordHash(ctx, clientID)
	if err != nil {
		return "", err
	}
	if !active {
		return "", models.NewNotFoundError("Client", clientID)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		middleware.SharePasswordRejections.Inc()
		return "", models.NewUnauthorizedError("Incorrect password")
	}

	claims := jwt.MapClaims{
		"role":      middleware.RoleShare,
		"client_id": clientID,
		"iat":       time.Now().Unix(),
		"exp":       time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return signed, nil
}

// SharedPosts returns the read-only calendar for a share view: the client's
// posts filtered by month and sorted chronologically.
func (s *ShareService) SharedPosts(ctx context.Context, clientID uint, month string) ([]models.Post, error) {
	return s.posts.ListPosts(ctx, clientID, month)
}

// passwordHash resolves the client's share password hash, preferring the
// relational row and degrading to the mirrored clientAuth document when the
// database is unreachable.
func (s *ShareService) passwordHash(ctx context.Context, clientID uint) (hash string, active bool, err error) {
	client, err := s.clients.GetByID(ctx, clientID)
	if err == nil {
		return client.PasswordHash, client.Active, nil
	}
	if repository.IsNotFound(err) {
		return "", false, models.NewNotFoundError("Client", clientID)
	}

	// Database unavailable: fall back to the mirrored auth document.
	raw, source := s.fb.Load(ctx, fallback.ClientAuthCollection(clientID))
	if source == fallback.SourceEmpty {
		return "", false, models.NewNotFoundError("Client", clientID)
	}
	var doc clientAuthDoc
	if uerr := json.Unmarshal(raw, &doc); uerr != nil || doc.PasswordHash == "" {
		return "", false, models.NewNotFoundError("Client", clientID)
	}
	return doc.PasswordHash, true, nil
}
