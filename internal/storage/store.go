// Package storage provides durable blob storage for artifacts and fetching
// of stored blob content.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore is the put/delete surface the pipeline needs. Objects are
// addressed by hierarchical path (candidate/stage/filename) and Put returns
// a durable, fetchable URL.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, blobURL string) error
}

// Opt configures a MinioStore.
type Opt func(c *storeConfig)

type storeConfig struct {
	endpoint  string
	bucket    string
	accessKey string
	secretKey string
	useSSL    bool
}

// WithEndpoint sets the object storage endpoint (host:port).
func WithEndpoint(endpoint string) Opt {
	return func(c *storeConfig) {
		c.endpoint = endpoint
	}
}

// WithBucket sets the bucket all objects are stored under.
func WithBucket(bucket string) Opt {
	return func(c *storeConfig) {
		c.bucket = bucket
	}
}

// WithCredentials sets the access and secret keys.
func WithCredentials(accessKey, secretKey string) Opt {
	return func(c *storeConfig) {
		c.accessKey = accessKey
		c.secretKey = secretKey
	}
}

// WithSSL enables HTTPS for object URLs and API calls.
func WithSSL(useSSL bool) Opt {
	return func(c *storeConfig) {
		c.useSSL = useSSL
	}
}

// MinioStore implements ObjectStore against an S3-compatible endpoint.
type MinioStore struct {
	cfg    *storeConfig
	client *minio.Client
}

// NewMinioStore creates an object store client.
func NewMinioStore(opts ...Opt) (*MinioStore, error) {
	cfg := &storeConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.endpoint == "" || cfg.bucket == "" {
		return nil, fmt.Errorf("object storage endpoint and bucket are required")
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &MinioStore{cfg: cfg, client: client}, nil
}

// Put uploads data under path and returns the object's URL.
func (s *MinioStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	path = strings.TrimPrefix(path, "/")
	_, err := s.client.PutObject(ctx, s.cfg.bucket, path, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", path, err)
	}

	scheme := "http"
	if s.cfg.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.endpoint, s.cfg.bucket, path), nil
}

// Delete removes the object a blob URL points at. The URL must be one
// previously returned by Put.
func (s *MinioStore) Delete(ctx context.Context, blobURL string) error {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return fmt.Errorf("invalid blob URL %s: %w", blobURL, err)
	}

	objectPath := strings.TrimPrefix(parsed.Path, "/")
	objectPath = strings.TrimPrefix(objectPath, s.cfg.bucket+"/")
	if objectPath == "" {
		return fmt.Errorf("blob URL %s has no object path", blobURL)
	}

	if err := s.client.RemoveObject(ctx, s.cfg.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objectPath, err)
	}
	return nil
}
