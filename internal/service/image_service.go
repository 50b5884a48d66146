package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoders for common upload formats
	"image/jpeg"
	_ "image/png"
	"strings"

	"almanac/internal/config"
	"almanac/internal/models"
	"almanac/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	defaultMaxUploadSizeMB = 10
	// maxDimension bounds the longest edge of a stored attachment.
	maxDimension = 2048
	webpQuality  = 80
	jpegQuality  = 82
)

// ImageService validates, re-encodes and stores post attachments. Large
// uploads are downscaled and converted to WebP; failures abandon the upload
// with no partial state.
type ImageService struct {
	store              storage.Storage
	maxUploadSizeBytes int64
}

// NewImageService creates a new image service.
func NewImageService(store storage.Storage, cfg *config.Config) *ImageService {
	maxMB := defaultMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxMB = cfg.ImageMaxUploadSizeMB
	}
	return &ImageService{
		store:              store,
		maxUploadSizeBytes: int64(maxMB) * 1024 * 1024,
	}
}

// UploadImageInput carries one multipart upload.
type UploadImageInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Upload processes and stores an attachment, returning its public URL.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("Empty upload")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(
			fmt.Sprintf("Image too large (max %d MB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !strings.HasPrefix(in.ContentType, "image/") {
		return "", models.NewValidationError("Only image uploads are allowed")
	}

	src, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Unrecognized image format")
	}

	resized := downscale(src, maxDimension)

	var buf bytes.Buffer
	name := uuid.NewString()
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: webpQuality}); err != nil {
		// WebP encoding is best-effort; fall back to JPEG rather than failing
		// the upload.
		buf.Reset()
		if jerr := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); jerr != nil {
			return "", models.NewInternalError(jerr)
		}
		name += ".jpg"
	} else {
		name += ".webp"
	}

	url, err := s.store.Save(ctx, name, buf.Bytes())
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return url, nil
}

// downscale returns src scaled so its longest edge is at most maxEdge,
// preserving aspect ratio. Images already within bounds are returned as-is.
func downscale(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
