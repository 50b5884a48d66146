// Package service contains the application's business logic, sitting between
// HTTP handlers and the persistence backends.
package service

import (
	"context"
	"strings"

	"almanac/internal/models"
	"almanac/internal/schedule"
	"almanac/internal/store"
)

// PostService orchestrates post collection operations over whichever backend
// is active. All writes are collection-replacing per client, so a save never
// touches another client's posts.
type PostService struct {
	posts store.PostStore
}

// CreatePostInput carries the add-post form fields.
type CreatePostInput struct {
	ClientID       uint
	Date           string
	Year           int
	Title          string
	Text           string
	Types          []string
	SocialNetworks []string
}

// UpdatePostInput carries the edit-post form fields.
type UpdatePostInput struct {
	ClientID       uint
	PostID         uint
	Date           string
	Year           int
	Title          string
	Text           string
	Types          []string
	SocialNetworks []string
}

// NewPostService creates a new post service over the given backend.
func NewPostService(posts store.PostStore) *PostService {
	return &PostService{posts: posts}
}

const (
	maxTitleLen = 300
	maxTextLen  = 10000
	maxNotesLen = 10000
)

// ListPosts returns one client's posts, optionally filtered to a month token
// ("all" or empty means no filter), sorted chronologically.
func (s *PostService) ListPosts(ctx context.Context, clientID uint, month string) ([]models.Post, error) {
	posts, err := s.posts.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	filtered := schedule.FilterByMonth(posts, month)
	sorted, err := schedule.SortByDate(filtered)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return sorted, nil
}

// GetPost returns a single post from a client's collection.
func (s *PostService) GetPost(ctx context.Context, clientID, postID uint) (*models.Post, error) {
	posts, err := s.posts.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID == postID {
			return &posts[i], nil
		}
	}
	return nil, models.NewNotFoundError("Post", postID)
}

// CreatePost validates the form input, derives the precomputed day tokens and
// appends the post to the client's collection. New posts always start with
// completed=false and empty notes.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	date, err := schedule.ParseDisplayDateInYear(in.Date, in.Year)
	if err != nil {
		return nil, models.NewValidationError("Invalid date: " + err.Error())
	}
	if err := validatePostFields(in.Title, in.Text); err != nil {
		return nil, err
	}
	types := cleanTags(in.Types)
	if len(types) == 0 {
		return nil, models.NewValidationError("At least one post type is required")
	}

	existing, err := s.posts.ListByClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	all, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	day, dayOfWeek := schedule.DayTokens(date)
	post := models.Post{
		ID:             nextPostID(all),
		ClientID:       in.ClientID,
		Date:           in.Date,
		Year:           in.Year,
		Day:            day,
		DayOfWeek:      dayOfWeek,
		Title:          strings.TrimSpace(in.Title),
		Text:           in.Text,
		Type:           strings.Join(types, models.TypeSeparator),
		PostType:       types[0],
		Completed:      false,
		Notes:          "",
		Images:         []string{},
		SocialNetworks: cleanTags(in.SocialNetworks),
	}

	subset := append(existing, post)
	if err := s.posts.ReplaceClientPosts(ctx, in.ClientID, subset, 0); err != nil {
		return &post, err
	}
	return &post, nil
}

// UpdatePost replaces the editable fields of an existing post. Completion
// status, notes and images are mutated through their dedicated operations.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	date, err := schedule.ParseDisplayDateInYear(in.Date, in.Year)
	if err != nil {
		return nil, models.NewValidationError("Invalid date: " + err.Error())
	}
	if err := validatePostFields(in.Title, in.Text); err != nil {
		return nil, err
	}
	types := cleanTags(in.Types)
	if len(types) == 0 {
		return nil, models.NewValidationError("At least one post type is required")
	}

	day, dayOfWeek := schedule.DayTokens(date)
	return s.mutate(ctx, in.ClientID, in.PostID, func(p *models.Post) error {
		p.Date = in.Date
		p.Year = in.Year
		p.Day = day
		p.DayOfWeek = dayOfWeek
		p.Title = strings.TrimSpace(in.Title)
		p.Text = in.Text
		p.Type = strings.Join(types, models.TypeSeparator)
		p.PostType = types[0]
		p.SocialNetworks = cleanTags(in.SocialNetworks)
		return nil
	})
}

// ToggleCompleted flips a post's completion status.
func (s *PostService) ToggleCompleted(ctx context.Context, clientID, postID uint) (*models.Post, error) {
	return s.mutate(ctx, clientID, postID, func(p *models.Post) error {
		p.Completed = !p.Completed
		return nil
	})
}

// UpdateNotes replaces a post's operator annotation, independent of all other fields.
func (s *PostService) UpdateNotes(ctx context.Context, clientID, postID uint, notes string) (*models.Post, error) {
	if len(notes) > maxNotesLen {
		return nil, models.NewValidationError("Notes too long")
	}
	return s.mutate(ctx, clientID, postID, func(p *models.Post) error {
		p.Notes = notes
		return nil
	})
}

// AttachImage appends an uploaded attachment URL to a post.
func (s *PostService) AttachImage(ctx context.Context, clientID, postID uint, url string) (*models.Post, error) {
	if strings.TrimSpace(url) == "" {
		return nil, models.NewValidationError("Image URL is required")
	}
	return s.mutate(ctx, clientID, postID, func(p *models.Post) error {
		p.Images = append(p.Images, url)
		return nil
	})
}

// RemoveImage removes an attachment by index.
func (s *PostService) RemoveImage(ctx context.Context, clientID, postID uint, index int) (*models.Post, error) {
	return s.mutate(ctx, clientID, postID, func(p *models.Post) error {
		if index < 0 || index >= len(p.Images) {
			return models.NewValidationError("Image index out of range")
		}
		p.Images = append(p.Images[:index], p.Images[index+1:]...)
		return nil
	})
}

// DeletePost removes a post from the client's collection. Removal is
// immediate and irreversible; there is no soft delete.
func (s *PostService) DeletePost(ctx context.Context, clientID, postID uint) error {
	posts, err := s.posts.ListByClient(ctx, clientID)
	if err != nil {
		return err
	}

	subset := make([]models.Post, 0, len(posts))
	found := false
	for _, p := range posts {
		if p.ID == postID {
			found = true
			continue
		}
		subset = append(subset, p)
	}
	if !found {
		return models.NewNotFoundError("Post", postID)
	}

	return s.posts.ReplaceClientPosts(ctx, clientID, subset, postID)
}

// mutate loads the client's collection, applies fn to the targeted post and
// writes the collection back.
func (s *PostService) mutate(ctx context.Context, clientID, postID uint, fn func(*models.Post) error) (*models.Post, error) {
	posts, err := s.posts.ListByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var updated *models.Post
	for i := range posts {
		if posts[i].ID == postID {
			if err := fn(&posts[i]); err != nil {
				return nil, err
			}
			updated = &posts[i]
			break
		}
	}
	if updated == nil {
		return nil, models.NewNotFoundError("Post", postID)
	}

	if err := s.posts.ReplaceClientPosts(ctx, clientID, posts, 0); err != nil {
		return updated, err
	}
	return updated, nil
}

func validatePostFields(title, text string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if len(text) > maxTextLen {
		return models.NewValidationError("Text too long (max 10000 characters)")
	}
	return nil
}

// cleanTags trims and de-duplicates tags while preserving insertion order.
func cleanTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// nextPostID allocates an id unique across the full collection, so a post id
// never collides between clients when the relational backend enforces a
// global primary key.
func nextPostID(all []models.Post) uint {
	var max uint
	for _, p := range all {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}
