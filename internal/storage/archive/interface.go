// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"

	"github.com/quantumtrade/tradebot/internal/config"
	"github.com/quantumtrade/tradebot/internal/core"
)

// Storage is a cold store for trade history snapshots
type Storage interface {
	Name() string

	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// FromConfig builds the configured backend. It returns nil, nil when cold
// storage is disabled.
func FromConfig(cfg config.ColdStorageConfig) (Storage, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown cold storage type %q", cfg.Type))
	}
}
