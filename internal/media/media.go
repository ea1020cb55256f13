// Package media uploads receipt images to an external host and returns
// durable URLs. Upload failures never block a transaction: the caller
// decides whether to save without the receipt.
package media

import "context"

// Uploader is the media-store collaborator.
type Uploader interface {
	// Upload stores the image and returns its public URL.
	Upload(ctx context.Context, filename, contentType string, content []byte) (string, error)
}
