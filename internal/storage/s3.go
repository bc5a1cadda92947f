package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store uploads images to a bucket. urlFor maps an object key to the URL
// clients download it from.
type S3Store struct {
	client S3API
	bucket string
	urlFor func(key string) string
}

func NewS3Store(client S3API, bucket string, urlFor func(key string) string) *S3Store {
	return &S3Store{client: client, bucket: bucket, urlFor: urlFor}
}

func (s *S3Store) Save(ctx context.Context, img *Image) (string, error) {
	key := objectKey(img.Extension)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return s.urlFor(key), nil
}

func (s *S3Store) Delete(ctx context.Context, url string) error {
	idx := strings.Index(url, "recipes/")
	if idx < 0 {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(url[idx:]),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
