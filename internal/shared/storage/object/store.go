package object

import (
	"context"
	"io"
	"time"

	"briefly-backend/internal/shared/apperr"
)

// ErrNotFound is returned when no blob exists for an id.
var ErrNotFound = apperr.NotFound("File not found")

// Blob describes a stored binary object.
type Blob struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BlobStore stores uploaded files by opaque id with filename and content type metadata.
type BlobStore interface {
	// Put streams r into a new blob. An empty contentType is sniffed from the data.
	Put(ctx context.Context, fileName, contentType string, r io.Reader) (Blob, error)
	// Get opens a blob for streaming. The caller closes the reader.
	Get(ctx context.Context, id string) (io.ReadCloser, Blob, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, id string) error
	// List enumerates stored blobs. Used by reconciliation.
	List(ctx context.Context) ([]Blob, error)
}
