// Package testutil provides test utilities and mocks for transfer operations.
// This package is internal and should only be used for testing within the module.
package testutil

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/s3api"
)

// MockS3Client is a mock implementation of the S3API interface for testing.
// It allows customization of each S3 operation through function fields.
type MockS3Client struct {
	PutObjectFunc     func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObjectFunc     func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2Func func(context.Context, *s3.ListObjectsV2Input, ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// PutObject mocks the S3 PutObject operation.
func (m *MockS3Client) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

// GetObject mocks the S3 GetObject operation.
func (m *MockS3Client) GetObject(
	ctx context.Context,
	params *s3.GetObjectInput,
	optFns ...func(*s3.Options),
) (*s3.GetObjectOutput, error) {
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, params, optFns...)
	}
	return &s3.GetObjectOutput{}, nil
}

// ListObjectsV2 mocks the S3 ListObjectsV2 operation.
func (m *MockS3Client) ListObjectsV2(
	ctx context.Context,
	params *s3.ListObjectsV2Input,
	optFns ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, params, optFns...)
	}
	return &s3.ListObjectsV2Output{}, nil
}

// Ensure MockS3Client implements S3API
var _ s3api.S3API = (*MockS3Client)(nil)

// MockMinioClient mocks the subset of the MinIO client used by the MinIO storage backend.
type MockMinioClient struct {
	PutObjectFunc   func(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjectsFunc func(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	OpenObjectFunc  func(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// PutObject mocks the MinIO PutObject operation.
func (m *MockMinioClient) PutObject(
	ctx context.Context,
	bucket, key string,
	r io.Reader,
	size int64,
	opts minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, bucket, key, r, size, opts)
	}
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

// ListObjects mocks the MinIO ListObjects operation.
func (m *MockMinioClient) ListObjects(
	ctx context.Context,
	bucket string,
	opts minio.ListObjectsOptions,
) <-chan minio.ObjectInfo {
	if m.ListObjectsFunc != nil {
		return m.ListObjectsFunc(ctx, bucket, opts)
	}
	ch := make(chan minio.ObjectInfo)
	close(ch)
	return ch
}

// OpenObject mocks opening an object for reading.
func (m *MockMinioClient) OpenObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if m.OpenObjectFunc != nil {
		return m.OpenObjectFunc(ctx, bucket, key)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

// ObjectInfoChannel returns a closed channel pre-filled with infos.
func ObjectInfoChannel(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}
