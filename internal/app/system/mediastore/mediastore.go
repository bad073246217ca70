// Package mediastore stores listing images in an S3-compatible bucket.
package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ErrUnsupportedType is returned for uploads that are not a known image type.
var ErrUnsupportedType = errors.New("mediastore: unsupported image type")

// extensions maps accepted content types to object key extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Extension returns the object extension for contentType.
func Extension(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	ext, ok := extensions[ct]
	return ext, ok
}

// Config holds the bucket settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base URL objects are served from. When empty the
	// endpoint URL is used.
	PublicURL string
}

// Store puts objects into one bucket.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// New creates the client. It does not contact the server.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("mediastore: endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("mediastore: client for %s: %w", cfg.Endpoint, err)
	}
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		base = strings.TrimRight(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	}
	return &Store{client: client, bucket: cfg.Bucket, publicURL: base, logger: logger}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("mediastore: check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("mediastore: make bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created media bucket", zap.String("bucket", s.bucket))
	return nil
}

// PutImage uploads an image for a listing and returns its public URL.
func (s *Store) PutImage(ctx context.Context, propertyID, contentType string, r io.Reader, size int64) (string, error) {
	ext, ok := Extension(contentType)
	if !ok {
		return "", ErrUnsupportedType
	}
	key := ObjectKey(propertyID, uuid.NewString(), ext)

	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: strings.ToLower(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("mediastore: put %s: %w", key, err)
	}
	s.logger.Info("stored listing image",
		zap.String("property_id", propertyID),
		zap.String("key", info.Key),
		zap.Int64("size", info.Size))
	return s.URL(key), nil
}

// URL returns the public URL of key.
func (s *Store) URL(key string) string {
	return s.publicURL + "/" + key
}

// ObjectKey builds the object key for an image of a listing.
func ObjectKey(propertyID, name, ext string) string {
	return fmt.Sprintf("properties/%s/%s%s", propertyID, name, ext)
}
