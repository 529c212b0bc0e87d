package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// LocalStore writes images into a directory that is served back statically
// under PublicPath.
type LocalStore struct {
	dir        string
	publicPath string
	now        func() time.Time
	suffix     func() string
}

// NewLocalStore creates dir if needed and returns a store writing into it.
func NewLocalStore(dir, publicPath string) (*LocalStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &LocalStore{
		dir:        dir,
		publicPath: "/" + strings.Trim(publicPath, "/"),
		now:        time.Now,
		suffix:     func() string { return uuid.NewString()[:8] },
	}, nil
}

// Dir returns the directory images are written to.
func (s *LocalStore) Dir() string { return s.dir }

// PublicPath returns the URL prefix saved images are served under.
func (s *LocalStore) PublicPath() string { return s.publicPath }

// Save writes the file as "<unix millis>-<random>-<original name>" and returns
// its public path.
func (s *LocalStore) Save(_ context.Context, file *multipart.FileHeader) (string, error) {
	base := filepath.Base(filepath.Clean("/" + file.Filename))
	if base == "/" || base == "." {
		base = "image"
	}
	name := fmt.Sprintf("%d-%s-%s", s.now().UnixMilli(), s.suffix(), base)

	if err := fasthttp.SaveMultipartFile(file, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("failed to save image %s: %w", name, err)
	}
	return path.Join(s.publicPath, name), nil
}

// Remove deletes a file previously returned by Save. Missing files are ignored.
func (s *LocalStore) Remove(_ context.Context, location string) error {
	name := strings.TrimPrefix(location, s.publicPath+"/")
	if name == location || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("location %s is not managed by this store", location)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image %s: %w", name, err)
	}
	return nil
}
