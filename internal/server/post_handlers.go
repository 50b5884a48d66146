package server

import (
	"almanac/internal/models"
	"almanac/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postPayload is the create/update post request body.
type postPayload struct {
	Date           string   `json:"date"`
	Year           int      `json:"year"`
	Title          string   `json:"title"`
	Text           string   `json:"text"`
	Types          []string `json:"types"`
	SocialNetworks []string `json:"social_networks"`
}

// postWriteResponse reports the saved post plus whether the write reached the
// remote store. synced=false means the change is cached locally and will be
// visible, but the document store does not have it yet.
type postWriteResponse struct {
	Post   *models.Post `json:"post"`
	Synced bool         `json:"synced"`
}

func postWritten(c *fiber.Ctx, status int, post *models.Post, err error) error {
	if err != nil && !degradedWrite(err) {
		return respondError(c, err)
	}
	return c.Status(status).JSON(postWriteResponse{Post: post, Synced: err == nil})
}

// GetClientPosts lists one client's posts sorted chronologically, optionally
// filtered by the month query ("all" or empty disables the filter).
func (s *Server) GetClientPosts(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}
	month := c.Query("month")

	posts, err := s.postService.ListPosts(c.UserContext(), clientID, month)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetPost returns a single post.
func (s *Server) GetPost(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), clientID, postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost schedules a new post on the client's calendar.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}

	var req postPayload
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		ClientID:       clientID,
		Date:           req.Date,
		Year:           req.Year,
		Title:          req.Title,
		Text:           req.Text,
		Types:          req.Types,
		SocialNetworks: req.SocialNetworks,
	})
	return postWritten(c, fiber.StatusCreated, post, err)
}

// UpdatePost replaces a post's editable fields.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req postPayload
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		ClientID:       clientID,
		PostID:         postID,
		Date:           req.Date,
		Year:           req.Year,
		Title:          req.Title,
		Text:           req.Text,
		Types:          req.Types,
		SocialNetworks: req.SocialNetworks,
	})
	return postWritten(c, fiber.StatusOK, post, err)
}

// ToggleCompleted flips a post's completion status.
func (s *Server) ToggleCompleted(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	post, err := s.postService.ToggleCompleted(c.UserContext(), clientID, postID)
	return postWritten(c, fiber.StatusOK, post, err)
}

// UpdateNotes replaces a post's operator annotation.
func (s *Server) UpdateNotes(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdateNotes(c.UserContext(), clientID, postID, req.Notes)
	return postWritten(c, fiber.StatusOK, post, err)
}

// DeletePost removes a post permanently.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	err = s.postService.DeletePost(c.UserContext(), clientID, postID)
	if err != nil && !degradedWrite(err) {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": postID, "synced": err == nil})
}

// RemovePostImage detaches an attachment by index. The stored file is left in
// place; attachments can be shared between drafts.
func (s *Server) RemovePostImage(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}
	index, err := c.ParamsInt("index")
	if err != nil || index < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid image index"))
	}

	post, err := s.postService.RemoveImage(c.UserContext(), clientID, postID, index)
	return postWritten(c, fiber.StatusOK, post, err)
}
