package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Service stores images in Amazon S3 (or compatible APIs) and hands
// out presigned GET URLs for the detail view.
type S3Service struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	bucket    string
	keyPrefix string
	urlTTL    time.Duration
}

func NewS3Service(client *s3.Client, bucket, keyPrefix string, urlTTL time.Duration) (*S3Service, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	return &S3Service{
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		urlTTL:    urlTTL,
	}, nil
}

func (s *S3Service) Save(ctx context.Context, relPath string, r io.Reader) error {
	key, err := s.key(relPath)
	if err != nil {
		return err
	}
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
		ACL:    types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", relPath, err)
	}
	return nil
}

func (s *S3Service) URL(ctx context.Context, relPath string) (string, error) {
	key, err := s.key(relPath)
	if err != nil {
		return "", err
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.urlTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", relPath, err)
	}
	return req.URL, nil
}

func (s *S3Service) Remove(ctx context.Context, relPath string) error {
	key, err := s.key(relPath)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", relPath, err)
	}
	return nil
}

func (s *S3Service) key(relPath string) (string, error) {
	trimmed := strings.Trim(relPath, "/")
	if trimmed == "" || strings.Contains(trimmed, "..") {
		return "", fmt.Errorf("invalid image path %q", relPath)
	}
	if s.keyPrefix == "" {
		return trimmed, nil
	}
	return s.keyPrefix + "/" + trimmed, nil
}

var _ Service = (*S3Service)(nil)
