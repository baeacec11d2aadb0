// Package images stores the photo previews attached to image-derived
// food entries.
package images

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// Errors for image operations.
var (
	ErrNotFound        = errors.New("image not found")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrInvalidRef      = errors.New("invalid image reference")
)

// Store saves image bytes and hands back an opaque reference.
type Store interface {
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, string, error)
	Delete(ctx context.Context, ref string) error
}

// Extension picks a file extension for an image MIME type.
func Extension(mimeType string) (string, error) {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil || !strings.HasPrefix(base, "image/") {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}
	switch base {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	case "image/gif":
		return ".gif", nil
	case "image/heic":
		return ".heic", nil
	}
	if exts, _ := mime.ExtensionsByType(base); len(exts) > 0 {
		if ext := alnum(exts[0]); ext != "" {
			return "." + ext, nil
		}
	}
	// Subtypes like "x-icon" lose their punctuation so refs stay parseable.
	if ext := alnum(strings.TrimPrefix(base, "image/")); ext != "" {
		return "." + ext, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
}

func alnum(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, s)
}

// ContentType is the inverse of Extension for references this package
// produced.
func ContentType(ref string) string {
	i := strings.LastIndexByte(ref, '.')
	if i < 0 {
		return "application/octet-stream"
	}
	switch ext := strings.ToLower(ref[i:]); ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".heic":
		return "image/heic"
	default:
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
		return "application/octet-stream"
	}
}

// newName returns a fresh object name for mimeType.
func newName(mimeType string) (string, error) {
	ext, err := Extension(mimeType)
	if err != nil {
		return "", err
	}
	return uuid.NewString() + ext, nil
}
