// Package archive stores exported handover sheets in an S3-compatible
// bucket (AWS S3, MinIO, LocalStack).
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrDisabled is returned when archival is requested but no bucket is set.
var ErrDisabled = errors.New("archive: no bucket configured")

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes private objects to a single bucket.
type Uploader struct {
	client objectPutter
	bucket string
}

// NewS3Uploader loads the default AWS configuration (environment, shared
// config, instance role) and builds a path-style client. endpoint overrides
// the service endpoint for MinIO or LocalStack.
func NewS3Uploader(ctx context.Context, bucket, endpoint string) (*Uploader, error) {
	if bucket == "" {
		return nil, ErrDisabled
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewUploader(newClient(cfg, endpoint), bucket), nil
}

func newClient(cfg aws.Config, endpoint string) *s3.Client {
	base := cfg.BaseEndpoint
	if endpoint != "" {
		base = aws.String(endpoint)
	}
	return s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: base,
		UsePathStyle: true,
	})
}

func NewUploader(client *s3.Client, bucket string) *Uploader {
	return &Uploader{client: client, bucket: bucket}
}

// Upload stores data under key and returns its s3:// location.
func (u *Uploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if u == nil || u.bucket == "" {
		return "", ErrDisabled
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}

func (u *Uploader) Bucket() string {
	if u == nil {
		return ""
	}
	return u.bucket
}
