package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalService stores images on the local filesystem under a root
// directory, served back through the /static/ route.
type LocalService struct {
	root string
}

func NewLocalService(root string) (*LocalService, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("upload root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &LocalService{root: filepath.Clean(root)}, nil
}

// Root returns the directory local images are written under.
func (s *LocalService) Root() string {
	return s.root
}

func (s *LocalService) Save(ctx context.Context, relPath string, r io.Reader) error {
	target, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	_, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf("write image %s: %w", relPath, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close image %s: %w", relPath, closeErr)
	}
	return nil
}

func (s *LocalService) URL(ctx context.Context, relPath string) (string, error) {
	if _, err := s.resolve(relPath); err != nil {
		return "", err
	}
	return "/static/" + relPath, nil
}

func (s *LocalService) Remove(ctx context.Context, relPath string) error {
	target, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove image %s: %w", relPath, err)
	}
	return nil
}

// resolve maps a relative key onto the root and refuses keys that would
// escape it.
func (s *LocalService) resolve(relPath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid image path %q", relPath)
	}
	return filepath.Join(s.root, clean), nil
}

var _ Service = (*LocalService)(nil)
