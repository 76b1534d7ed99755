package policies

import (
	"context"
	"io"
)

// Uploader stores binary content and returns a public URL for it.
type Uploader interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (publicURL string, err error)
}
