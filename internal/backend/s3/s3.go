// Package s3 implements backend.Store over an S3-family bucket using
// minio-go, grounded on internal/backend/s3/s3.go. Credentials are plain
// config fields supplied by the caller — this package does not broker any
// SDK authentication flow (Non-goal per spec).
package s3

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/duskvault/duskvault/internal/backend"
)

// Config describes how to reach an S3-family bucket.
type Config struct {
	Endpoint string
	Bucket   string
	KeyID    string
	Secret   string
	Region   string
	UseHTTPS bool
}

// Backend stores objects in an S3-family bucket.
type Backend struct {
	client *minio.Client
	bucket string
}

var _ backend.Store = (*Backend)(nil)

// New constructs a Backend from cfg. It does not perform any network call;
// Init verifies/creates the bucket.
func New(cfg Config) (*Backend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.KeyID, cfg.Secret, ""),
		Secure: cfg.UseHTTPS,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "s3.New")
	}

	return &Backend{client: client, bucket: cfg.Bucket}, nil
}

func (b *Backend) Init(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return errors.Wrap(err, "BucketExists")
	}
	if exists {
		return nil
	}
	return errors.Wrap(b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}), "MakeBucket")
}

func (b *Backend) Exists(ctx context.Context, path string) (bool, error) {
	_, err := b.client.StatObject(ctx, b.bucket, path, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if b.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "StatObject")
}

func (b *Backend) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "GetObject")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if b.IsNotExist(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "reading object")
	}
	return data, nil
}

func (b *Backend) Put(ctx context.Context, path string, data []byte) error {
	opts := minio.PutObjectOptions{
		ContentType:    "application/octet-stream",
		SendContentMd5: true,
	}
	_, err := b.client.PutObject(ctx, b.bucket, path, bytes.NewReader(data), int64(len(data)), opts)
	return errors.Wrap(err, "PutObject")
}

func (b *Backend) Delete(ctx context.Context, path string) error {
	err := b.client.RemoveObject(ctx, b.bucket, path, minio.RemoveObjectOptions{})
	if b.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "RemoveObject")
}

func (b *Backend) List(ctx context.Context, prefix string, fn func(path string, info backend.Info) error) error {
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return errors.Wrap(obj.Err, "ListObjects")
		}
		if err := fn(obj.Key, backend.Info{Size: obj.Size, Modified: obj.LastModified}); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (b *Backend) Stat(ctx context.Context, path string) (backend.Info, error) {
	info, err := b.client.StatObject(ctx, b.bucket, path, minio.StatObjectOptions{})
	if err != nil {
		if b.IsNotExist(err) {
			return backend.Info{}, err
		}
		return backend.Info{}, errors.Wrap(err, "StatObject")
	}
	return backend.Info{Size: info.Size, Modified: info.LastModified}, nil
}

func (b *Backend) IsNotExist(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || strings.Contains(err.Error(), "key does not exist")
}
