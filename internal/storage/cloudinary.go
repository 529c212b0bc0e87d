package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// AllowedFormats are the image formats the remote store accepts.
var AllowedFormats = []string{"jpg", "png", "jpeg"}

// cloudinaryAPI is the part of the Cloudinary upload API the store uses.
type cloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStore uploads images to a Cloudinary folder.
type CloudinaryStore struct {
	client cloudinaryAPI
	folder string
}

// NewCloudinaryStore builds a store from a CLOUDINARY_URL or from explicit credentials.
func NewCloudinaryStore(cfg Config) (*CloudinaryStore, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case cfg.CloudinaryURL != "":
		cld, err = cloudinary.NewFromURL(cfg.CloudinaryURL)
	case cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "":
		cld, err = cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	default:
		return nil, errors.New("cloudinary credentials are not configured")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return newCloudinaryStore(&cld.Upload, cfg.CloudinaryFolder), nil
}

func newCloudinaryStore(client cloudinaryAPI, folder string) *CloudinaryStore {
	if folder == "" {
		folder = "products"
	}
	return &CloudinaryStore{client: client, folder: strings.Trim(folder, "/")}
}

// Save uploads the file and returns its secure URL.
func (s *CloudinaryStore) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if !isAllowedFormat(file.Filename) {
		return "", fmt.Errorf("%w: %s (allowed: %s)", ErrUnsupportedFormat, file.Filename, strings.Join(AllowedFormats, ", "))
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %s: %w", file.Filename, err)
	}
	defer src.Close()

	res, err := s.client.Upload(ctx, src, uploader.UploadParams{
		Folder:         s.folder,
		AllowedFormats: api.CldAPIArray(AllowedFormats),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", file.Filename, err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("failed to upload image %s: %s", file.Filename, res.Error.Message)
	}
	return res.SecureURL, nil
}

// Remove destroys the asset behind a URL returned by Save.
func (s *CloudinaryStore) Remove(ctx context.Context, location string) error {
	publicID, err := publicIDFromURL(location)
	if err != nil {
		return err
	}
	res, err := s.client.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to remove image %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("failed to remove image %s: %s", publicID, res.Error.Message)
	}
	return nil
}

func isAllowedFormat(name string) bool {
	ext := extension(name)
	for _, allowed := range AllowedFormats {
		if ext == allowed {
			return true
		}
	}
	return false
}

// publicIDFromURL turns .../image/upload/v123/products/abc.png into products/abc.
func publicIDFromURL(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid image location %s: %w", location, err)
	}
	_, rest, found := strings.Cut(u.Path, "/upload/")
	if !found || rest == "" {
		return "", fmt.Errorf("image location %s is not a cloudinary upload", location)
	}
	if first, after, ok := strings.Cut(rest, "/"); ok && len(first) > 1 && first[0] == 'v' && isDigits(first[1:]) {
		rest = after
	}
	return strings.TrimSuffix(rest, path.Ext(rest)), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
