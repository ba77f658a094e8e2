// Package storage persists generated skill documents as blobs, either
// on the local filesystem or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	// ErrFileNotFound is returned when a requested blob does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPath is returned when a path is empty or escapes the store.
	ErrInvalidPath = errors.New("invalid path")
)

// BlobStorage stores and retrieves skill documents by relative path.
type BlobStorage interface {
	// Save stores data from the reader at the given path.
	Save(ctx context.Context, path string, reader io.Reader) error

	// Open retrieves the blob at the given path.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Remove deletes the blob at the given path.
	Remove(ctx context.Context, path string) error

	// Exists reports whether a blob exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)

	// URL returns an address for the blob: a filesystem path for local
	// storage, a presigned URL for S3.
	URL(ctx context.Context, path string) (string, error)
}

// Config selects and parameterizes a storage backend.
type Config struct {
	Type          string        `yaml:"type" mapstructure:"type"`
	BaseDir       string        `yaml:"base_dir" mapstructure:"base_dir"`
	Bucket        string        `yaml:"bucket" mapstructure:"bucket"`
	Region        string        `yaml:"region" mapstructure:"region"`
	PresignExpiry time.Duration `yaml:"presign_expiry" mapstructure:"presign_expiry"`
}

// New creates a BlobStorage for the configured backend.
func New(cfg Config) (BlobStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStorage(cfg.BaseDir)

	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("bucket is required for S3 storage")
		}
		if cfg.Region == "" {
			return nil, fmt.Errorf("region is required for S3 storage")
		}

		s3Storage, err := NewS3Storage(cfg.Bucket, cfg.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		if cfg.PresignExpiry > 0 {
			s3Storage.presignExpiration = cfg.PresignExpiry
		}
		return s3Storage, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
