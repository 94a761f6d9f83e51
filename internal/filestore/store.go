package filestore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/akshardoc/akshardoc/internal/config"
)

// Store holds completed job artifacts keyed by output file name.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

func New(cfg config.FileStoreConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "local":
		return newLocalStore(cfg.Dir)
	case "s3":
		return newS3Store(cfg.S3)
	}
	return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	return !strings.ContainsAny(key, "/\\")
}
