package repository

import (
	"context"
	"testing"

	"almanac/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewClientRepository(db)

	client := &models.Client{
		Name:       "Acme Coffee",
		ThemeColor: "#ff6600",
		Active:     true,
	}
	require.NoError(t, repo.Create(ctx, client))
	require.NotZero(t, client.ID)

	got, err := repo.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Coffee", got.Name)
	assert.Equal(t, "#ff6600", got.ThemeColor)
	assert.Zero(t, got.PostsCount)
}

func TestClientRepositoryPostsCountIsComputed(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	clients := NewClientRepository(db)
	posts := NewPostRepository(db)

	client := &models.Client{Name: "Acme", Active: true}
	require.NoError(t, clients.Create(ctx, client))

	require.NoError(t, posts.ReplaceClientPosts(ctx, client.ID, []models.Post{
		{ID: 1, ClientID: client.ID, Date: "05/03", Title: "a"},
		{ID: 2, ClientID: client.ID, Date: "06/03", Title: "b"},
	}, 0))

	got, err := clients.GetByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.PostsCount, "posts_count reflects the live post collection")
}

func TestClientRepositoryListFiltersInactive(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewClientRepository(db)

	require.NoError(t, repo.Create(ctx, &models.Client{Name: "Active", Active: true}))
	inactive := &models.Client{Name: "Dormant", Active: true}
	require.NoError(t, repo.Create(ctx, inactive))
	require.NoError(t, repo.SetActive(ctx, inactive.ID, false))

	active, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Active", active[0].Name)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestClientRepositoryUpdateMissing(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewClientRepository(db)

	err := repo.Update(ctx, &models.Client{ID: 999, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientRepositoryDeleteCascadesPosts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	clients := NewClientRepository(db)
	posts := NewPostRepository(db)

	victim := &models.Client{Name: "Victim", Active: true}
	survivor := &models.Client{Name: "Survivor", Active: true}
	require.NoError(t, clients.Create(ctx, victim))
	require.NoError(t, clients.Create(ctx, survivor))

	require.NoError(t, posts.ReplaceClientPosts(ctx, victim.ID, []models.Post{
		{ID: 1, ClientID: victim.ID, Date: "05/03", Title: "gone", SocialNetworks: []string{"instagram"}},
	}, 0))
	require.NoError(t, posts.ReplaceClientPosts(ctx, survivor.ID, []models.Post{
		{ID: 2, ClientID: survivor.ID, Date: "06/03", Title: "stays"},
	}, 0))

	require.NoError(t, clients.Delete(ctx, victim.ID))

	_, err := clients.GetByID(ctx, victim.ID)
	assert.True(t, IsNotFound(err))

	remaining, err := posts.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "stays", remaining[0].Title)
}
