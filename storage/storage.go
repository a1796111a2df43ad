package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

const menuImagePrefix = "menu_images/"

var ErrUnsupportedImage = errors.New("unsupported image type, use jpg, jpeg, png, gif or webp")

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageStore keeps menu images and hands back the URL to show them at.
// Delete and Copy leave URLs the store does not own untouched.
type ImageStore interface {
	Save(ctx context.Context, filename string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
	Copy(ctx context.Context, url string) (string, error)
}

// IsImagePath reports whether p ends in an image extension we serve.
func IsImagePath(p string) bool {
	_, ok := imageExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

// objectKey builds a collision-free key that keeps the original extension.
func objectKey(filename string) (string, string, error) {
	ext := strings.ToLower(path.Ext(filename))
	contentType, ok := imageExtensions[ext]
	if !ok {
		return "", "", ErrUnsupportedImage
	}
	return menuImagePrefix + uuid.NewString() + ext, contentType, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

func keyFromURL(base, url string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if base == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}
