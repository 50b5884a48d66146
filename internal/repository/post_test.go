package repository

import (
	"context"
	"testing"

	"almanac/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepositoryRoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)

	post := models.Post{
		ID:             1,
		ClientID:       1,
		Date:           "05/03",
		Year:           2026,
		Day:            "05",
		DayOfWeek:      "Thursday",
		Title:          "Product launch",
		Text:           "Big day",
		Type:           "Feed + Stories",
		PostType:       "Feed",
		Notes:          "check assets",
		SocialNetworks: []string{"instagram", "facebook", "tiktok"},
		Images:         []string{"/img/a.webp", "/img/b.webp"},
	}
	require.NoError(t, repo.ReplaceClientPosts(ctx, 1, []models.Post{post}, 0))

	got, err := repo.ListByClient(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, post.Title, got[0].Title)
	assert.Equal(t, post.Year, got[0].Year)
	assert.Equal(t, []string{"instagram", "facebook", "tiktok"}, got[0].SocialNetworks,
		"social network insertion order survives the row round trip")
	assert.Equal(t, []string{"/img/a.webp", "/img/b.webp"}, got[0].Images)
	assert.False(t, got[0].Completed)
}

func TestReplaceClientPostsIsolation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)

	require.NoError(t, repo.ReplaceClientPosts(ctx, 1, []models.Post{
		{ID: 1, ClientID: 1, Date: "05/03", Title: "a1"},
	}, 0))
	require.NoError(t, repo.ReplaceClientPosts(ctx, 2, []models.Post{
		{ID: 2, ClientID: 2, Date: "07/03", Title: "b1", SocialNetworks: []string{"instagram"}},
	}, 0))

	// Rewriting client 1 must leave client 2 untouched.
	require.NoError(t, repo.ReplaceClientPosts(ctx, 1, []models.Post{
		{ID: 3, ClientID: 1, Date: "09/03", Title: "a-new"},
	}, 0))

	other, err := repo.ListByClient(ctx, 2)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "b1", other[0].Title)
	assert.Equal(t, []string{"instagram"}, other[0].SocialNetworks)

	mine, err := repo.ListByClient(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a-new", mine[0].Title)
}

func TestReplaceClientPostsDeletesByID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPostRepository(db)

	require.NoError(t, repo.ReplaceClientPosts(ctx, 1, []models.Post{
		{ID: 1, ClientID: 1, Date: "05/03", Title: "keep"},
		{ID: 2, ClientID: 1, Date: "06/03", Title: "remove", Images: []string{"/img/x.webp"}},
	}, 0))

	require.NoError(t, repo.ReplaceClientPosts(ctx, 1, []models.Post{
		{ID: 1, ClientID: 1, Date: "05/03", Title: "keep"},
	}, 2))

	got, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(1), got[0].ID)

	// The deleted post's join rows are gone as well.
	var imageCount int64
	require.NoError(t, db.Model(&postImageRow{}).Count(&imageCount).Error)
	assert.Zero(t, imageCount)
}
