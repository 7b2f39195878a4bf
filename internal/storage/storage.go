// Package storage persists vector stores on different media: local files, SQLite databases
// and S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/remixer1943/Ai/internal/store"
)

// Source yields a persisted vector store. The retriever depends only on this.
type Source interface {
	Load(ctx context.Context) (*store.VectorStore, error)
	Location() string
}

// Medium is a Source that can also be written by the builder.
type Medium interface {
	Source
	Save(ctx context.Context, vs *store.VectorStore) error
	Close() error
}

// Local is implemented by media backed by a local filesystem path.
type Local interface {
	Path() string
}

// S3Options configures the S3 medium.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// Options configures Open.
type Options struct {
	Compression store.Compression
	S3          S3Options
	// ReadOnly opens the medium for Load only; a missing SQLite database is an
	// error instead of being created.
	ReadOnly bool
}

// Open returns the medium for handle:
//
//	/path/to/store.bin, file:///path  file with the binary codec
//	sqlite:///path/to/store.db        SQLite database
//	s3://bucket/key                   S3-compatible object
func Open(handle string, opts Options) (Medium, error) {
	switch {
	case handle == "":
		return nil, fmt.Errorf("empty vector store location")
	case strings.HasPrefix(handle, "sqlite://"):
		path := strings.TrimPrefix(handle, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("sqlite handle %q has no path", handle)
		}
		if opts.ReadOnly {
			return OpenSQLiteReadOnly(path)
		}
		return NewSQLiteMedium(path)
	case strings.HasPrefix(handle, "s3://"):
		bucket, key, err := parseS3Handle(handle)
		if err != nil {
			return nil, err
		}
		return NewS3Medium(bucket, key, opts.S3, opts.Compression)
	case strings.HasPrefix(handle, "file://"):
		return NewFileMedium(strings.TrimPrefix(handle, "file://"), opts.Compression), nil
	default:
		return NewFileMedium(handle, opts.Compression), nil
	}
}

func parseS3Handle(handle string) (bucket, key string, err error) {
	u, err := url.Parse(handle)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 handle %q: %w", handle, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 handle %q must be s3://bucket/key", handle)
	}
	return bucket, key, nil
}
