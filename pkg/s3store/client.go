// Package s3store wraps aws-sdk-go-v2's S3 client with the two operations
// the core needs: fetching an uploaded source's bytes for ingestion, and
// writing a finished podcast's WAV audio. Path-style addressing is used
// throughout (spec.md §6), matching the goadesign-goa-ai bedrock package's
// convention of a narrow client interface so tests can substitute a fake.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// API is the subset of *s3.Client this package drives, narrow enough to
// fake in tests.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config carries the connection parameters for one S3-compatible endpoint.
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// NewClient builds an *s3.Client from Config. When Endpoint is set, it is
// used as a custom base endpoint (for S3-compatible object stores such as
// MinIO); PathStyle forces bucket-in-path addressing for those backends.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("s3store: load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

// Store performs bucket-scoped object reads/writes against one bucket.
type Store struct {
	client API
	bucket string
}

// New binds a Store to one bucket; the ingestion worker uses the uploads
// bucket, the podcast generator the podcasts bucket (spec.md §6).
func New(client API, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Get fetches the full object body for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3store: get %s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3store: read %s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// Put uploads data to key with the given content type.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3store: put %s/%s: %w", s.bucket, key, err)
	}
	return nil
}
