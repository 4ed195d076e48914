package repository

import "context"

// ImageStorage stores product images and returns their public URL.
type ImageStorage interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}
