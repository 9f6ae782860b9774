package media

import (
	"context"
	"io"
)

// Backend stores uploaded media and hands back the public URL clients use to
// fetch it.
type Backend interface {
	EnsureReady(ctx context.Context) error
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Store wraps a media backend with a stable API.
type Store struct {
	backend Backend
}

// NewStore constructs a Store wrapper for the provided backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// EnsureReady prepares the backend (directories or bucket).
func (s *Store) EnsureReady(ctx context.Context) error {
	return s.backend.EnsureReady(ctx)
}

// Save stores an object under key and returns its public URL.
func (s *Store) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return s.backend.Save(ctx, key, r, size, contentType)
}

// Delete removes a stored object.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}
