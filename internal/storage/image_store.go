package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/spec-kit/estate-service/internal/config"
)

// StoredImage identifies an uploaded object.
type StoredImage struct {
	URL string
	Key string
}

// ImageStore abstracts the external object store holding listing photos.
type ImageStore interface {
	Store(ctx context.Context, data []byte, contentType string) (StoredImage, error)
	Delete(ctx context.Context, key string) error
}

// S3ImageStore stores images in an S3-compatible bucket (AWS or MinIO).
type S3ImageStore struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3ImageStore builds the client from static credentials and an optional
// custom endpoint.
func NewS3ImageStore(ctx context.Context, cfg config.StorageConfig) (*S3ImageStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket)
	}

	return &S3ImageStore{client: client, bucket: cfg.Bucket, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Store uploads the image bytes under a date-partitioned random key.
func (s *S3ImageStore) Store(ctx context.Context, data []byte, contentType string) (StoredImage, error) {
	key := randomStorageKey()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return StoredImage{}, fmt.Errorf("put object: %w", err)
	}

	return StoredImage{URL: fmt.Sprintf("%s/%s", s.publicURL, key), Key: key}, nil
}

// Ping verifies the bucket is reachable; used by the readiness probe.
func (s *S3ImageStore) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket: %w", err)
	}
	return nil
}

// Delete removes a previously stored object.
func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func randomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("houses/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.NewString())
}
