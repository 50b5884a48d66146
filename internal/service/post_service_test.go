package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almanac/internal/models"
)

// fakePostStore is an in-memory PostStore with the collection-replacing write
// contract.
type fakePostStore struct {
	posts   []models.Post
	saveErr error
}

func (f *fakePostStore) ListAll(_ context.Context) ([]models.Post, error) {
	out := make([]models.Post, len(f.posts))
	copy(out, f.posts)
	return out, nil
}

func (f *fakePostStore) ListByClient(_ context.Context, clientID uint) ([]models.Post, error) {
	out := make([]models.Post, 0)
	for _, p := range f.posts {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePostStore) ReplaceClientPosts(_ context.Context, clientID uint, posts []models.Post, deletedID uint) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	merged := make([]models.Post, 0, len(f.posts)+len(posts))
	for _, p := range f.posts {
		if p.ClientID == clientID {
			continue
		}
		if deletedID != 0 && p.ID == deletedID {
			continue
		}
		merged = append(merged, p)
	}
	f.posts = append(merged, posts...)
	return nil
}

func newPostService(existing ...models.Post) (*PostService, *fakePostStore) {
	fake := &fakePostStore{posts: existing}
	return NewPostService(fake), fake
}

func TestCreatePost_AllocatesGloballyUniqueID(t *testing.T) {
	svc, _ := newPostService(
		models.Post{ID: 4, ClientID: 1, Date: "01/01"},
		models.Post{ID: 9, ClientID: 2, Date: "02/01"},
	)

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		ClientID: 1,
		Date:     "15/06",
		Title:    "Launch",
		Types:    []string{"Feed"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(10), post.ID)
}

func TestCreatePost_Validation(t *testing.T) {
	svc, _ := newPostService()
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"invalid date", CreatePostInput{ClientID: 1, Date: "31/02", Title: "x", Types: []string{"Feed"}}},
		{"empty title", CreatePostInput{ClientID: 1, Date: "01/02", Title: "  ", Types: []string{"Feed"}}},
		{"no types", CreatePostInput{ClientID: 1, Date: "01/02", Title: "x"}},
		{"blank types only", CreatePostInput{ClientID: 1, Date: "01/02", Title: "x", Types: []string{" ", ""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePost(ctx, tt.in)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestCreatePost_DedupesTagsPreservingOrder(t *testing.T) {
	svc, _ := newPostService()

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		ClientID:       1,
		Date:           "10/10",
		Title:          "Tags",
		Types:          []string{"Reels", "Feed", "Reels", " "},
		SocialNetworks: []string{"instagram", "instagram", "tiktok"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Reels + Feed", post.Type)
	assert.Equal(t, "Reels", post.PostType)
	assert.Equal(t, []string{"instagram", "tiktok"}, post.SocialNetworks)
}

func TestUpdatePost_LeavesCompletionAndNotes(t *testing.T) {
	svc, fake := newPostService(models.Post{
		ID: 1, ClientID: 1, Date: "01/03", Title: "Old",
		Completed: true, Notes: "keep me",
	})

	post, err := svc.UpdatePost(context.Background(), UpdatePostInput{
		ClientID: 1, PostID: 1,
		Date: "05/03", Title: "New", Types: []string{"Stories"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New", post.Title)
	assert.True(t, post.Completed)
	assert.Equal(t, "keep me", post.Notes)
	assert.Equal(t, "05", fake.posts[0].Day)
}

func TestMutations_UnknownPostIs404(t *testing.T) {
	svc, _ := newPostService(models.Post{ID: 1, ClientID: 1, Date: "01/03"})
	ctx := context.Background()

	_, err := svc.ToggleCompleted(ctx, 1, 99)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	// A post belonging to another client is invisible here.
	_, err = svc.ToggleCompleted(ctx, 2, 1)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestDeletePost_PassesDeletedID(t *testing.T) {
	svc, fake := newPostService(
		models.Post{ID: 1, ClientID: 1, Date: "01/03"},
		models.Post{ID: 2, ClientID: 1, Date: "02/03"},
		models.Post{ID: 3, ClientID: 2, Date: "03/03"},
	)

	require.NoError(t, svc.DeletePost(context.Background(), 1, 1))

	ids := make([]uint, 0, len(fake.posts))
	for _, p := range fake.posts {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []uint{2, 3}, ids)
}

func TestImageAttachmentLifecycle(t *testing.T) {
	svc, _ := newPostService(models.Post{ID: 1, ClientID: 1, Date: "01/03"})
	ctx := context.Background()

	_, err := svc.AttachImage(ctx, 1, 1, "http://example.com/a.webp")
	require.NoError(t, err)
	post, err := svc.AttachImage(ctx, 1, 1, "http://example.com/b.webp")
	require.NoError(t, err)
	require.Len(t, post.Images, 2)

	post, err = svc.RemoveImage(ctx, 1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.com/b.webp"}, post.Images)

	_, err = svc.RemoveImage(ctx, 1, 1, 5)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestListPosts_SortedAndMonthFiltered(t *testing.T) {
	svc, _ := newPostService(
		models.Post{ID: 1, ClientID: 1, Date: "05/03"},
		models.Post{ID: 2, ClientID: 1, Date: "20/01"},
		models.Post{ID: 3, ClientID: 1, Date: "01/03"},
	)
	ctx := context.Background()

	all, err := svc.ListPosts(ctx, 1, "all")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint(2), all[0].ID)
	assert.Equal(t, uint(3), all[1].ID)
	assert.Equal(t, uint(1), all[2].ID)

	march, err := svc.ListPosts(ctx, 1, "3")
	require.NoError(t, err)
	require.Len(t, march, 2)
	assert.Equal(t, uint(3), march[0].ID)
}
