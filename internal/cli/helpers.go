package cli

import (
	"context"
	"errors"
	"fmt"

	"satchel/internal/config"
	"satchel/internal/storage"
)

func requireBucket(cfg *config.Config) (string, error) {
	if cfg.Bucket == "" {
		return "", errors.New("bucket is not configured (set bucket in config or " + config.EnvBucket + ")")
	}
	return cfg.Bucket, nil
}

func objectStoreFromConfig(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	store, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create object store: %w", err)
	}
	return store, nil
}
