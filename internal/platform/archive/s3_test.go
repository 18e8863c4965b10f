package archive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestUpload(t *testing.T) {
	fake := &fakePutter{}
	u := &Uploader{client: fake, bucket: "ward-archive"}

	loc, err := u.Upload(context.Background(), "handover/ward-3.xlsx", []byte("sheet"), "application/octet-stream")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if loc != "s3://ward-archive/handover/ward-3.xlsx" {
		t.Errorf("unexpected location %s", loc)
	}
	if aws.ToString(fake.input.Bucket) != "ward-archive" || aws.ToString(fake.input.Key) != "handover/ward-3.xlsx" {
		t.Errorf("unexpected target %s/%s", aws.ToString(fake.input.Bucket), aws.ToString(fake.input.Key))
	}
	if fake.input.ACL != types.ObjectCannedACLPrivate {
		t.Errorf("expected private ACL, got %s", fake.input.ACL)
	}
	if string(fake.body) != "sheet" {
		t.Errorf("unexpected body %q", fake.body)
	}
	if aws.ToInt64(fake.input.ContentLength) != 5 {
		t.Errorf("unexpected content length %d", aws.ToInt64(fake.input.ContentLength))
	}
}

func TestUpload_WrapsError(t *testing.T) {
	cause := errors.New("access denied")
	u := &Uploader{client: &fakePutter{err: cause}, bucket: "b"}

	_, err := u.Upload(context.Background(), "k", nil, "text/plain")
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestUpload_Disabled(t *testing.T) {
	var u *Uploader
	if _, err := u.Upload(context.Background(), "k", nil, ""); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
	if _, err := NewS3Uploader(context.Background(), "", ""); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled for empty bucket, got %v", err)
	}
}

func TestNewClient_EndpointOverride(t *testing.T) {
	cfg := aws.Config{Region: "eu-west-2", BaseEndpoint: aws.String("https://s3.example")}

	opts := newClient(cfg, "http://minio:9000").Options()
	if aws.ToString(opts.BaseEndpoint) != "http://minio:9000" {
		t.Errorf("expected endpoint override, got %s", aws.ToString(opts.BaseEndpoint))
	}
	if !opts.UsePathStyle {
		t.Error("expected path-style addressing")
	}

	opts = newClient(cfg, "").Options()
	if aws.ToString(opts.BaseEndpoint) != "https://s3.example" {
		t.Errorf("expected configured endpoint, got %s", aws.ToString(opts.BaseEndpoint))
	}
	if opts.Region != "eu-west-2" {
		t.Errorf("unexpected region %s", opts.Region)
	}
}
