package server

import (
	"io"

	"almanac/internal/featureflags"
	"almanac/internal/models"
	"almanac/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadPostImage accepts a multipart "image" field, re-encodes it and
// attaches the stored URL to the post.
func (s *Server) UploadPostImage(c *fiber.Ctx) error {
	clientID, err := s.parseID(c, "clientId")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	if !s.featureFlags.Enabled(featureflags.FlagImageUploads, clientID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewValidationError("Image uploads are disabled"))
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Missing image file"))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	url, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondError(c, err)
	}

	post, err := s.postService.AttachImage(c.UserContext(), clientID, postID, url)
	return postWritten(c, fiber.StatusCreated, post, err)
}
