package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kendall-kelly/tailor-orders-api/config"
)

// S3API is the subset of the S3 client the storage backend uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage keeps image bytes in an S3 (or S3-compatible) bucket and references them by absolute URL
type S3Storage struct {
	client  S3API
	bucket  string
	baseURL string
}

// NewS3Storage builds an S3 client from the application credentials
func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	loaded, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(cfg.AWSRegion),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(loaded, func(o *s3.Options) {
		if cfg.AWSS3Endpoint != "" {
			// S3-compatible stores (MinIO, R2) expect path-style addressing
			o.BaseEndpoint = aws.String(cfg.AWSS3Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StorageWithClient(client, cfg.AWSS3Bucket, PublicBaseURL(cfg)), nil
}

// NewS3StorageWithClient wires an existing client (primarily for testing)
func NewS3StorageWithClient(client S3API, bucket, baseURL string) *S3Storage {
	return &S3Storage{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// PublicBaseURL is the URL prefix objects in the configured bucket are served from
func PublicBaseURL(cfg *config.Config) string {
	switch {
	case cfg.AWSS3PublicURL != "":
		return cfg.AWSS3PublicURL
	case cfg.AWSS3Endpoint != "":
		return strings.TrimRight(cfg.AWSS3Endpoint, "/") + "/" + cfg.AWSS3Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.AWSS3Bucket, cfg.AWSRegion)
	}
}

func (s *S3Storage) Name() string {
	return BackendS3
}

// Put uploads content under key and returns the object's absolute URL
func (s *S3Storage) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

// Delete removes the object behind an absolute URL or bare key
func (s *S3Storage) Delete(ctx context.Context, reference string) error {
	key, err := s.KeyFor(reference)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// KeyFor recovers the object key from a stored reference
func (s *S3Storage) KeyFor(reference string) (string, error) {
	if !IsAbsoluteURL(reference) {
		key := strings.TrimLeft(reference, "/")
		if key == "" {
			return "", fmt.Errorf("empty S3 reference")
		}
		return key, nil
	}

	if key, ok := strings.CutPrefix(reference, s.baseURL+"/"); ok && key != "" {
		return key, nil
	}

	parsed, err := url.Parse(reference)
	if err != nil {
		return "", fmt.Errorf("invalid S3 reference %q: %w", reference, err)
	}
	key := strings.TrimLeft(parsed.Path, "/")
	// path-style URLs carry the bucket as the first segment
	key = strings.TrimPrefix(key, s.bucket+"/")
	if key == "" {
		return "", fmt.Errorf("invalid S3 reference %q", reference)
	}
	return key, nil
}
