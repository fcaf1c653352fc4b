// Package objstore implements the object store port against S3-compatible
// storage (MinIO in local development). All operations run through a
// bounded retry wrapper so transient store hiccups do not fail a pipeline
// run outright.
package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"lakeflow/internal/config"
	"lakeflow/internal/domain"
)

// S3Store implements domain.ObjectStore against one bucket.
type S3Store struct {
	client *s3.Client
	bucket string
	retry  Retryer
}

// NewS3Store creates a store configured for S3-compatible storage.
// MinIO requires path-style URLs.
func NewS3Store(cfg *config.Config) (*S3Store, error) {
	scheme := "http"
	if cfg.S3UseSSL {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s", scheme, cfg.S3Endpoint)

	client := s3.New(s3.Options{
		Region: cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.S3KeyID, cfg.S3Secret, "",
		),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})

	return &S3Store{
		client: client,
		bucket: cfg.S3Bucket,
		retry:  Retryer{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
	}, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("head bucket %q: %w", s.bucket, err)
	}
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

// Put writes data under key.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	return s.retry.Do(ctx, func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			return fmt.Errorf("put %q: %w", key, err)
		}
		return nil
	})
}

// Get reads the object at key. Missing keys return a not-found error
// without retrying.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.retry.Do(ctx, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNoSuchKey(err) {
				return domain.ErrNotFound("object %q not found", key)
			}
			return fmt.Errorf("get %q: %w", key, err)
		}
		defer out.Body.Close()
		data, err = io.ReadAll(out.Body)
		if err != nil {
			return fmt.Errorf("read %q: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// List returns the keys under prefix, in lexical order.
func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.retry.Do(ctx, func() error {
		keys = keys[:0]
		paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return fmt.Errorf("list %q: %w", prefix, err)
			}
			for _, obj := range page.Contents {
				keys = append(keys, aws.ToString(obj.Key))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// Upload copies a local file into the store under key.
func (s *S3Store) Upload(ctx context.Context, key, localPath string) error {
	return s.retry.Do(ctx, func() error {
		f, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("open %q: %w", localPath, err)
		}
		defer f.Close()

		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		if err != nil {
			return fmt.Errorf("upload %q: %w", key, err)
		}
		return nil
	})
}

// Download copies the object at key to a local file.
func (s *S3Store) Download(ctx context.Context, key, localPath string) error {
	return s.retry.Do(ctx, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isNoSuchKey(err) {
				return domain.ErrNotFound("object %q not found", key)
			}
			return fmt.Errorf("get %q: %w", key, err)
		}
		defer out.Body.Close()

		f, err := os.Create(localPath)
		if err != nil {
			return fmt.Errorf("create %q: %w", localPath, err)
		}
		defer f.Close()

		if _, err := io.Copy(f, out.Body); err != nil {
			return fmt.Errorf("write %q: %w", localPath, err)
		}
		return f.Close()
	})
}

func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
