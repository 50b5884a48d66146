package localcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get("appSettings")
	assert.False(t, ok)

	require.NoError(t, c.Set("appSettings", []byte(`{"dashboard_title":"Agency"}`)))

	got, ok := c.Get("appSettings")
	require.True(t, ok)
	assert.JSONEq(t, `{"dashboard_title":"Agency"}`, string(got))

	// Overwrite replaces the previous snapshot.
	require.NoError(t, c.Set("appSettings", []byte(`{"dashboard_title":"Other"}`)))
	got, _ = c.Get("appSettings")
	assert.JSONEq(t, `{"dashboard_title":"Other"}`, string(got))
}

func TestFileCacheDelete(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set("calendarPosts", []byte(`[]`)))
	require.NoError(t, c.Delete("calendarPosts"))

	_, ok := c.Get("calendarPosts")
	assert.False(t, ok)

	// Deleting a missing key is not an error.
	assert.NoError(t, c.Delete("calendarPosts"))
}

func TestFileCacheRejectsPathTraversalKeys(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, c.Set("../escape", []byte(`{}`)))
	_, ok := c.Get("../escape")
	assert.False(t, ok)
}

func TestFileCacheClientAuthKeys(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Set("client_auth_42", []byte(`{"client_id":42}`)))
	got, ok := c.Get("client_auth_42")
	require.True(t, ok)
	assert.Contains(t, string(got), "42")
}
