package server

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySharePassword_GrantAndReject(t *testing.T) {
	srv, app := newTestServer(t)
	token := operatorToken(t, srv)
	client := createTestClient(t, app, token, "Acme", "1234")

	// Wrong password: 401, no token, nothing else happens.
	resp := doJSON(t, app, http.MethodPost, sharePath(client.ID, "verify"), "",
		map[string]string{"password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var rejected map[string]string
	decodeBody(t, resp, &rejected)
	assert.Equal(t, "Incorrect password", rejected["error"])

	// Correct password: a token scoped to this client.
	resp = doJSON(t, app, http.MethodPost, sharePath(client.ID, "verify"), "",
		map[string]string{"password": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var granted map[string]string
	decodeBody(t, resp, &granted)
	require.NotEmpty(t, granted["token"])

	resp = doJSON(t, app, http.MethodGet, sharePath(client.ID, "posts"), granted["token"], nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSharedPosts_RequireToken(t *testing.T) {
	srv, app := newTestServer(t)
	token := operatorToken(t, srv)
	client := createTestClient(t, app, token, "Acme", "1234")

	resp := doJSON(t, app, http.MethodGet, sharePath(client.ID, "posts"), "", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestShareToken_PinnedToOneClient(t *testing.T) {
	srv, app := newTestServer(t)
	token := operatorToken(t, srv)
	first := createTestClient(t, app, token, "Acme", "1234")
	second := createTestClient(t, app, token, "Beta", "abcd")

	resp := doJSON(t, app, http.MethodPost, sharePath(first.ID, "verify"), "",
		map[string]string{"password": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var granted map[string]string
	decodeBody(t, resp, &granted)

	// A token for the first client cannot open the second client's view.
	resp = doJSON(t, app, http.MethodGet, sharePath(second.ID, "posts"), granted["token"], nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSharedClient_NeverLeaksHash(t *testing.T) {
	srv, app := newTestServer(t)
	token := operatorToken(t, srv)
	client := createTestClient(t, app, token, "Acme", "1234")

	resp := doJSON(t, app, http.MethodPost, sharePath(client.ID, "verify"), "",
		map[string]string{"password": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var granted map[string]string
	decodeBody(t, resp, &granted)

	resp = doJSON(t, app, http.MethodGet, sharePath(client.ID, ""), granted["token"], nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	decodeBody(t, resp, &body)
	assert.Equal(t, "Acme", body["name"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "posts_count")
}

func TestLegacyClientViewAlias(t *testing.T) {
	srv, app := newTestServer(t)
	token := operatorToken(t, srv)
	client := createTestClient(t, app, token, "Acme", "1234")

	path := "/api/client-view/" + strconv.FormatUint(uint64(client.ID), 10)
	resp := doJSON(t, app, http.MethodPost, path+"/verify", "",
		map[string]string{"password": "1234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var granted map[string]string
	decodeBody(t, resp, &granted)
	require.NotEmpty(t, granted["token"])

	resp = doJSON(t, app, http.MethodGet, path+"/posts", granted["token"], nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVerifySharePassword_UnknownClient(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, sharePath(99, "verify"), "",
		map[string]string{"password": "1234"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOperatorToken_OpensAnyShareView(t *testing.T) {
	srv, app := newTestServer(t)
	token := operatorToken(t, srv)
	client := createTestClient(t, app, token, "Acme", "1234")

	resp := doJSON(t, app, http.MethodGet, sharePath(client.ID, "posts"), token, nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
