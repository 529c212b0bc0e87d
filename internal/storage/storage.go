// Package storage persists uploaded product images and hands back an
// addressable location for them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Backend names accepted by New.
const (
	DriverLocal      = "local"
	DriverCloudinary = "cloudinary"
)

// ErrUnsupportedFormat is returned when a backend refuses the file's format.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageStore stores image bytes and returns where they can be fetched from.
type ImageStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	// Remove deletes a previously saved image by the location Save returned.
	Remove(ctx context.Context, location string) error
}

// Config selects and parameterizes the image backend.
type Config struct {
	Driver string

	UploadDir  string
	PublicPath string

	CloudinaryURL       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
}

// New builds the backend named by cfg.Driver.
func New(cfg Config) (ImageStore, error) {
	switch cfg.Driver {
	case DriverLocal, "":
		return NewLocalStore(cfg.UploadDir, cfg.PublicPath)
	case DriverCloudinary:
		return NewCloudinaryStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// extension returns the lower-cased extension of name without the dot.
func extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
