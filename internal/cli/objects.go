package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"satchel/internal/config"
	"satchel/internal/storage"
)

func uploadFile(ctx context.Context, cfg *config.Config, opts uploadOptions, filePath string) error {
	bucket, err := requireBucket(cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read file %s: %w", filePath, err)
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(filePath)
	}

	store, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}
	if err := store.PutObject(ctx, bucket, name, data); err != nil {
		return fmt.Errorf("store object %s: %w", name, err)
	}

	fmt.Printf("uploaded %s (%d bytes)\n", name, len(data))
	return nil
}

func downloadObject(ctx context.Context, cfg *config.Config, opts downloadOptions, key string) error {
	bucket, err := requireBucket(cfg)
	if err != nil {
		return err
	}

	store, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	data, err := store.GetObject(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("object %s not found", key)
		}
		return fmt.Errorf("read object %s: %w", key, err)
	}

	outPath := opts.Output
	if outPath == "-" {
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		return nil
	}
	if outPath == "" {
		outPath = filepath.Base(filepath.FromSlash(key))
	}
	if err := os.WriteFile(outPath, data, 0o600); err != nil {
		return fmt.Errorf("write file %s: %w", outPath, err)
	}

	fmt.Printf("downloaded %s to %s (%d bytes)\n", key, outPath, len(data))
	return nil
}

func presignObject(ctx context.Context, cfg *config.Config, opts presignOptions, key string) error {
	bucket, err := requireBucket(cfg)
	if err != nil {
		return err
	}

	store, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	expiry := time.Duration(cfg.Presign.ExpirySeconds) * time.Second
	if opts.ExpirySeconds > 0 {
		expiry = time.Duration(opts.ExpirySeconds) * time.Second
	}

	link, err := store.PresignGetObject(ctx, bucket, key, expiry)
	if err != nil {
		return fmt.Errorf("presign object %s: %w", key, err)
	}

	fmt.Println(link)
	return nil
}

func listObjects(ctx context.Context, cfg *config.Config, opts lsOptions) error {
	bucket, err := requireBucket(cfg)
	if err != nil {
		return err
	}

	store, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	keys, err := store.ListKeys(ctx, bucket)
	if err != nil {
		return fmt.Errorf("list objects: %w", err)
	}

	for _, key := range keys {
		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		fmt.Println(key)
	}
	return nil
}

func removeObject(ctx context.Context, cfg *config.Config, key string) error {
	bucket, err := requireBucket(cfg)
	if err != nil {
		return err
	}

	store, err := objectStoreFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	if err := store.DeleteObject(ctx, bucket, key); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}

	fmt.Printf("removed %s\n", key)
	return nil
}
