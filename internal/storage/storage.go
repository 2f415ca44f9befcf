package storage

import (
	"context"
	"io"
)

// Reader is the minimal stream an upload consumes.
type Reader = io.Reader

// Uploader is the opaque file-store capability: put a named blob, get back a
// publicly servable URL. Avatars and event images go through this.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r Reader) (publicURL string, err error)
}
