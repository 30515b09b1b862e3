package storage

import (
	"context"
	"fmt"

	"github.com/unalkalkan/rgadapt/pkg/types"
)

// New creates a storage backend based on the configuration
func New(ctx context.Context, cfg types.StorageConfig) (Backend, error) {
	switch cfg.Adapter {
	case "local":
		return NewLocalBackend(cfg.Local.BasePath)
	case "s3":
		return NewS3Backend(ctx, S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UseSSL:          cfg.S3.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Adapter)
	}
}
