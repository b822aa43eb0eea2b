package store

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	prefix          string
	region          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL: false,
		region: "us-east-1",
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// MinioSink uploads documents to a bucket.
type MinioSink struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioSink(opts ...MinioOpts) (*MinioSink, error) {
	cfg := newConfig(opts...)
	if cfg.endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure:       cfg.useSSL,
		Region:       cfg.region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, err
	}

	return &MinioSink{cfg: cfg, client: minioClient}, nil
}

// Write buffers the document and uploads it once complete, so a failed download uploads nothing.
func (s *MinioSink) Write(ctx context.Context, name string, fill FillFunc) (string, error) {
	var buf bytes.Buffer
	if _, err := fill(&buf); err != nil {
		return "", err
	}

	key := path.Join(s.cfg.prefix, name)
	info, err := s.client.PutObject(ctx, s.cfg.bucket, key, &buf, int64(buf.Len()), minio.PutObjectOptions{
		ContentType: reportContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", key, s.cfg.bucket, err)
	}
	return fmt.Sprintf("s3://%s/%s", info.Bucket, info.Key), nil
}

func (s *MinioSink) Type() string {
	return "minio"
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

// WithPrefix stores every object under the given key prefix, usually the job id.
func WithPrefix(prefix string) MinioOpts {
	return func(c *minioConfig) {
		c.prefix = prefix
	}
}

// WithRegion overrides the us-east-1 default. An empty region keeps the default.
func WithRegion(region string) MinioOpts {
	return func(c *minioConfig) {
		if region != "" {
			c.region = region
		}
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}
