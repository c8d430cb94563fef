package storage

import (
	"context"
	"io"
)

// Service persists uploaded question images. Paths are relative,
// slash-separated keys like "photo/20260901/diagram.png"; the row in
// the questions table stores exactly this key.
type Service interface {
	Save(ctx context.Context, relPath string, r io.Reader) error
	// URL resolves a stored key to something a client can fetch: a local
	// static path or a presigned object URL depending on the backend.
	URL(ctx context.Context, relPath string) (string, error)
	Remove(ctx context.Context, relPath string) error
}
