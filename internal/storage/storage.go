package storage

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	appconfig "satchel/internal/config"
	"satchel/internal/crypto"
	"satchel/internal/state"
)

// ErrNotFound reports that no object exists under the requested key.
var ErrNotFound = errors.New("object not found")

// ObjectStore is the storage capability the gateway and CLI run against.
// The bucket travels with every call; clients hold no bucket state.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	ListKeys(ctx context.Context, bucket string) ([]string, error)
	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// NewFromConfig builds the store selected by cfg: the S3 client when the
// backend resolves to s3, the local filesystem client otherwise.
func NewFromConfig(ctx context.Context, cfg *appconfig.Config) (ObjectStore, error) {
	if cfg.Backend() == "s3" {
		return NewS3Client(ctx, cfg.S3)
	}

	root := cfg.Local.Root
	if root == "" {
		dir, err := state.ObjectStoreDir()
		if err != nil {
			return nil, err
		}
		root = dir
	}
	base := cfg.Local.PublicBaseURL
	if base == "" {
		base = "http://" + cfg.Listen
	}
	key, err := signingKey(cfg)
	if err != nil {
		return nil, err
	}
	return NewLocalClient(root, base, crypto.NewSigner(key)), nil
}

// signingKey resolves the key for presigned local URLs: a passphrase from
// the environment or config, derived through the persisted salt, or a
// random per-process key when no passphrase is configured.
func signingKey(cfg *appconfig.Config) ([]byte, error) {
	passphrase := os.Getenv(appconfig.EnvSigningPassphrase)
	if passphrase == "" {
		passphrase = cfg.Local.SigningPassphrase
	}
	if passphrase == "" {
		return crypto.NewRandomKey()
	}

	saltPath, err := state.SigningSaltPath()
	if err != nil {
		return nil, err
	}
	salt, err := crypto.LoadOrCreateSalt(saltPath)
	if err != nil {
		return nil, err
	}
	return crypto.KeyFromPassphraseWithSalt(passphrase, salt)
}

func validateBucket(bucket string) error {
	if strings.TrimSpace(bucket) == "" {
		return errors.New("bucket is required")
	}
	if strings.ContainsAny(bucket, "/\\") || bucket == "." || bucket == ".." {
		return errors.New("invalid bucket name")
	}
	return nil
}
