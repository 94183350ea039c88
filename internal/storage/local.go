package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"satchel/internal/crypto"
)

// LocalClient stores objects as files under root, one directory per
// bucket. Presigned URLs point at the daemon's /local fetch route and
// carry an HMAC token over the bucket, key, and expiry.
type LocalClient struct {
	root    string
	baseURL string
	signer  *crypto.Signer
	now     func() time.Time
}

func NewLocalClient(root, baseURL string, signer *crypto.Signer) *LocalClient {
	return &LocalClient{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		now:     time.Now,
	}
}

func (c *LocalClient) PutObject(_ context.Context, bucket, key string, data []byte) error {
	fullPath, err := c.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(fullPath, data, 0o600)
}

func (c *LocalClient) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	fullPath, err := c.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}
	return os.ReadFile(fullPath)
}

func (c *LocalClient) DeleteObject(_ context.Context, bucket, key string) error {
	fullPath, err := c.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *LocalClient) ListKeys(_ context.Context, bucket string) ([]string, error) {
	if err := validateBucket(bucket); err != nil {
		return nil, err
	}
	bucketDir := filepath.Join(c.root, bucket)
	if _, err := os.Stat(bucketDir); err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	keys := make([]string, 0)
	err := filepath.WalkDir(bucketDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(bucketDir, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(keys)
	return keys, nil
}

// PresignGetObject mints a signed fetch URL without touching the object;
// links for keys that do not exist yet are valid and 404 on use.
func (c *LocalClient) PresignGetObject(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if c.signer == nil {
		return "", errors.New("local signer is not configured")
	}
	if _, err := c.objectPath(bucket, key); err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	expires := c.now().Add(expiry).Unix()
	signature := c.signer.Sign(bucket, key, expires)
	return fmt.Sprintf("%s/local/%s/%s?expires=%d&signature=%s",
		c.baseURL, url.PathEscape(bucket), escapeKeyPath(key), expires, signature), nil
}

// VerifyPresignedGet checks the token and expiry carried by a presigned
// local URL. bucket and key must already be percent-decoded.
func (c *LocalClient) VerifyPresignedGet(bucket, key string, expires int64, signature string) error {
	if c.signer == nil {
		return errors.New("local signer is not configured")
	}
	if !c.signer.Verify(bucket, key, expires, signature) {
		return errors.New("invalid signature")
	}
	if c.now().Unix() > expires {
		return errors.New("presigned URL expired")
	}
	return nil
}

func (c *LocalClient) objectPath(bucket, key string) (string, error) {
	if err := validateBucket(bucket); err != nil {
		return "", err
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) || cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return "", errors.New("invalid key path")
	}
	return filepath.Join(c.root, bucket, cleaned), nil
}

func escapeKeyPath(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
