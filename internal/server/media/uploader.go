// Package media uploads post cover images to the external media host and
// returns their public URLs.
package media

import (
	"context"
	"io"
)

// Uploader sends an image payload to the media host and returns the public
// URL under which it can be fetched.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}
