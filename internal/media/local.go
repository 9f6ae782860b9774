package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PublicPathPrefix is the URL prefix under which locally stored media is
// served back to clients.
const PublicPathPrefix = "/uploads"

// Namespaces created under the upload directory at startup.
var localNamespaces = []string{
	"profiles",
	"trails/photos",
	"trails/videos",
}

// LocalBackend stores media on the local filesystem. Files land under the
// configured directory and are served statically under /uploads.
type LocalBackend struct {
	dir string
}

// NewLocalBackend constructs a filesystem backend rooted at dir.
func NewLocalBackend(dir string) (*LocalBackend, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory is required")
	}
	return &LocalBackend{dir: dir}, nil
}

// EnsureReady creates the upload directory tree.
func (l *LocalBackend) EnsureReady(ctx context.Context) error {
	for _, ns := range localNamespaces {
		if err := os.MkdirAll(filepath.Join(l.dir, filepath.FromSlash(ns)), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the object under the upload directory and returns its
// /uploads-relative public path.
func (l *LocalBackend) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	dst := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	return PublicPathPrefix + "/" + key, nil
}

// Delete removes the object file.
func (l *LocalBackend) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return os.Remove(filepath.Join(l.dir, filepath.FromSlash(key)))
}

// Dir returns the root upload directory.
func (l *LocalBackend) Dir() string {
	return l.dir
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("media key is required")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return errors.New("invalid media key")
	}
	return nil
}
