package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open when no object exists for a key.
var ErrNotFound = errors.New("blob not found")

// PutResult describes one persisted blob payload.
type PutResult struct {
	Key         string
	SHA256      string
	SizeBytes   int64
	ContentType string
}

// Object is an opened blob with its stored metadata.
type Object struct {
	Reader      io.ReadCloser
	ContentType string
	SizeBytes   int64
}

// BlobStore is the byte-storage abstraction used by the file service.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (PutResult, error)
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}
