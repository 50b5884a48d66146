package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_ValidCredentials(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Username: "operator",
		Password: "hunter2",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body["token"])
}

func TestLogin_WrongPassword(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Username: "operator",
		Password: "wrong",
	})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_RequiresToken(t *testing.T) {
	srv, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/auth/me", operatorToken(t, srv), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "operator", body["username"])
}

func TestProtectedRoutes_RejectShareToken(t *testing.T) {
	srv, app := newTestServer(t)
	token := operatorToken(t, srv)

	created := createTestClient(t, app, token, "Acme", "1234")

	// Obtain a share token and try to use it on an operator route.
	resp := doJSON(t, app, http.MethodPost, sharePath(created.ID, "verify"), "",
		map[string]string{"password": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verify map[string]string
	decodeBody(t, resp, &verify)

	resp = doJSON(t, app, http.MethodGet, "/api/clients/", verify["token"], nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
