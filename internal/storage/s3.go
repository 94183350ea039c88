package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/transfermanager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	appconfig "satchel/internal/config"
)

const (
	defaultDeleteTimeout   = 30 * time.Second
	defaultListPageTimeout = 30 * time.Second
)

type s3Uploader interface {
	UploadObject(ctx context.Context, input *transfermanager.UploadObjectInput, optFns ...func(*transfermanager.Options)) (*transfermanager.UploadObjectOutput, error)
}

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type listObjectsV2Paginator interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type awsListObjectsV2Paginator struct {
	inner *s3.ListObjectsV2Paginator
}

func (p *awsListObjectsV2Paginator) HasMorePages() bool {
	if p.inner == nil {
		return false
	}
	return p.inner.HasMorePages()
}

func (p *awsListObjectsV2Paginator) NextPage(ctx context.Context, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if p.inner == nil {
		return nil, errors.New("s3 paginator is not configured")
	}
	return p.inner.NextPage(ctx, optFns...)
}

func newAWSListObjectsV2Paginator(client s3.ListObjectsV2APIClient, input *s3.ListObjectsV2Input) listObjectsV2Paginator {
	return &awsListObjectsV2Paginator{inner: s3.NewListObjectsV2Paginator(client, input)}
}

// S3Client talks to S3 or any S3-compatible endpoint. Keys are namespaced
// under an optional prefix; the bucket arrives with each call.
type S3Client struct {
	uploader  s3Uploader
	api       s3API
	presigner s3Presigner
	prefix    string

	deleteTimeout   time.Duration
	listPageTimeout time.Duration

	newListObjectsV2Paginator func(s3.ListObjectsV2APIClient, *s3.ListObjectsV2Input) listObjectsV2Paginator
}

func NewS3Client(ctx context.Context, cfg appconfig.S3Config) (*S3Client, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, errors.New("s3 region is required")
	}
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Host == "" {
			return nil, errors.New("s3 endpoint must be a valid http(s) URL")
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, errors.New("s3 endpoint must use http or https")
		}
	}
	prefix, err := normalizePrefix(cfg.Prefix)
	if err != nil {
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Client{
		uploader:                  transfermanager.New(client),
		api:                       client,
		presigner:                 s3.NewPresignClient(client),
		prefix:                    prefix,
		deleteTimeout:             defaultDeleteTimeout,
		listPageTimeout:           defaultListPageTimeout,
		newListObjectsV2Paginator: newAWSListObjectsV2Paginator,
	}, nil
}

func (c *S3Client) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if c.uploader == nil {
		return errors.New("s3 uploader is not configured")
	}
	if err := validateBucket(bucket); err != nil {
		return err
	}
	fullKey, err := c.prefixedKey(key)
	if err != nil {
		return err
	}

	_, err = c.uploader.UploadObject(ctx, &transfermanager.UploadObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(fullKey),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (c *S3Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if c.api == nil {
		return nil, errors.New("s3 api client is not configured")
	}
	if err := validateBucket(bucket); err != nil {
		return nil, err
	}
	fullKey, err := c.prefixedKey(key)
	if err != nil {
		return nil, err
	}

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get object: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

func (c *S3Client) DeleteObject(ctx context.Context, bucket, key string) error {
	if c.api == nil {
		return errors.New("s3 api client is not configured")
	}
	if err := validateBucket(bucket); err != nil {
		return err
	}
	fullKey, err := c.prefixedKey(key)
	if err != nil {
		return err
	}

	if c.deleteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deleteTimeout)
		defer cancel()
	}
	_, err = c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fullKey),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (c *S3Client) ListKeys(ctx context.Context, bucket string) ([]string, error) {
	if c.api == nil {
		return nil, errors.New("s3 api client is not configured")
	}
	if err := validateBucket(bucket); err != nil {
		return nil, err
	}
	if c.newListObjectsV2Paginator == nil {
		return nil, errors.New("s3 paginator factory is not configured")
	}

	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if c.prefix != "" {
		input.Prefix = aws.String(c.prefix)
	}
	paginator := c.newListObjectsV2Paginator(c.api, input)
	if paginator == nil {
		return nil, errors.New("s3 paginator is not configured")
	}

	keys := make([]string, 0)
	for paginator.HasMorePages() {
		page, err := c.nextListPage(ctx, paginator)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key := strings.ReplaceAll(*obj.Key, "\\", "/")
			if c.prefix != "" {
				if !strings.HasPrefix(key, c.prefix) {
					continue
				}
				key = strings.TrimPrefix(key, c.prefix)
			}
			if key == "" {
				continue
			}
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys, nil
}

func (c *S3Client) nextListPage(ctx context.Context, paginator listObjectsV2Paginator) (*s3.ListObjectsV2Output, error) {
	if c.listPageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.listPageTimeout)
		defer cancel()
	}
	return paginator.NextPage(ctx)
}

// PresignGetObject signs a GET URL for the key. Signing is local
// computation; the object is never read and need not exist.
func (c *S3Client) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if c.presigner == nil {
		return "", errors.New("s3 presigner is not configured")
	}
	if err := validateBucket(bucket); err != nil {
		return "", err
	}
	fullKey, err := c.prefixedKey(key)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = time.Hour
	}

	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(fullKey),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}
	return req.URL, nil
}

func (c *S3Client) prefixedKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("invalid object key")
	}
	normalized := strings.ReplaceAll(trimmed, "\\", "/")
	if strings.HasPrefix(normalized, "/") {
		return "", errors.New("invalid object key")
	}
	for _, segment := range strings.Split(normalized, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", errors.New("invalid object key")
		}
	}
	return c.prefix + normalized, nil
}

func normalizePrefix(prefix string) (string, error) {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return "", nil
	}
	normalized := strings.ReplaceAll(trimmed, "\\", "/")
	if strings.HasPrefix(normalized, "/") {
		return "", errors.New("invalid s3 prefix")
	}
	parts := make([]string, 0)
	for _, segment := range strings.Split(normalized, "/") {
		if segment == "" {
			continue
		}
		if segment == "." || segment == ".." {
			return "", errors.New("invalid s3 prefix")
		}
		parts = append(parts, segment)
	}
	if len(parts) == 0 {
		return "", errors.New("invalid s3 prefix")
	}
	return strings.Join(parts, "/") + "/", nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
