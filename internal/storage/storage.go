// Package storage persists uploaded recipe images and returns their public
// URLs.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidImage is returned for payloads that are not a supported base64
// data URI.
var ErrInvalidImage = errors.New("invalid image")

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeDataURI parses "data:image/png;base64,<payload>".
func DecodeDataURI(uri string) (*Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}

	contentType := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidImage, contentType)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	return &Image{Data: data, ContentType: contentType, Extension: ext}, nil
}

// objectKey names a new object under recipes/.
func objectKey(ext string) string {
	return "recipes/" + uuid.NewString() + "." + ext
}

// Store is implemented by LocalStore and S3Store.
type Store interface {
	Save(ctx context.Context, img *Image) (string, error)
	Delete(ctx context.Context, url string) error
}
