package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"almanac/internal/config"
	"almanac/internal/localcache"
	"almanac/internal/middleware"
	"almanac/internal/repository"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:               "0",
		JWTSecret:          "test-secret-not-for-production-use",
		Env:                "test",
		PersistenceBackend: config.BackendRelational,
		CacheDir:           t.TempDir(),
		PublicBaseURL:      "http://localhost:8374",
		ImageUploadDir:     t.TempDir(),
		FeatureFlags:       "share_links=on,image_uploads=on",
		OperatorUsername:   "operator",
		OperatorPassword:   "hunter2",
		OperatorTokenTTLH:  1,
		ShareTokenTTLMin:   30,
	}
}

// newTestServer builds a Server over an in-memory sqlite database and a
// cache-only fallback store (no remote document store).
func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	cache, err := localcache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	srv, err := NewServerWithDeps(testConfig(t), db, nil, nil, cache)
	require.NoError(t, err)

	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

// operatorToken signs an operator JWT the way Login does.
func operatorToken(t *testing.T, s *Server) string {
	t.Helper()
	claims := jwt.MapClaims{
		"role": middleware.RoleOperator,
		"sub":  s.config.OperatorUsername,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(s.config.JWTSecret))
	require.NoError(t, err)
	return signed
}

// doJSON performs a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// createTestClient creates a client through the API and returns its response.
func createTestClient(t *testing.T, app *fiber.App, token, name, password string) clientResponse {
	t.Helper()
	resp := doJSON(t, app, http.MethodPost, "/api/clients/", token, clientPayload{
		Name:       name,
		ThemeColor: "#1a2b3c",
		Password:   password,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created clientResponse
	decodeBody(t, resp, &created)
	return created
}

// sharePath builds a share-surface URL for a client.
func sharePath(clientID uint, suffix string) string {
	p := "/api/shared/client/" + strconv.FormatUint(uint64(clientID), 10)
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

// clientPostsPath builds an operator post-collection URL for a client.
func clientPostsPath(clientID uint, suffix string) string {
	p := "/api/clients/" + strconv.FormatUint(uint64(clientID), 10) + "/posts"
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
