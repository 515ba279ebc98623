package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// MinioAPI is the subset of the MinIO client used by Minio.
type MinioAPI interface {
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	OpenObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error)
}

// MinioConfig holds the connection settings of a MinIO backend.
type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
	Secure          bool
	Transport       http.RoundTripper
}

// minioClient adapts *minio.Client to MinioAPI.
type minioClient struct {
	*minio.Client
}

// OpenObject returns a reader over the object. MinIO defers request errors
// to the first read; they surface from the copy in Get.
func (c minioClient) OpenObject(ctx context.Context, bucketName, objectName string) (io.ReadCloser, error) {
	obj, err := c.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Minio implements s3types.Storage on top of the MinIO client.
type Minio struct {
	client MinioAPI
}

// NewMinio connects a MinIO client described by cfg.
func NewMinio(cfg MinioConfig) (*Minio, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required: %w", errors.ErrInvalidInput)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		Secure:    cfg.Secure,
		Region:    cfg.Region,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return NewMinioWithClient(minioClient{client}), nil
}

// NewMinioWithClient wraps an existing MinioAPI implementation.
func NewMinioWithClient(client MinioAPI) *Minio {
	return &Minio{client: client}
}

// Put implements s3types.Storage.
func (m *Minio) Put(ctx context.Context, in *s3types.PutInput) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:  in.ContentType,
		UserMetadata: in.Metadata,
		StorageClass: string(in.StorageClass),
	}

	info, err := m.client.PutObject(ctx, in.Bucket, in.Key, in.Body, in.Size, opts)
	if err != nil {
		if in.Progress != nil {
			in.Progress.Error(err)
		}
		return "", errors.NewClientError("upload", in.Bucket, in.Key, classifyMinio(err))
	}

	if in.Progress != nil {
		in.Progress.Update(info.Size, in.Size)
		in.Progress.Complete()
	}
	return info.ETag, nil
}

// Get implements s3types.Storage.
func (m *Minio) Get(
	ctx context.Context,
	bucket, key string,
	w io.Writer,
	progress s3types.ProgressTracker,
) (int64, error) {
	obj, err := m.client.OpenObject(ctx, bucket, key)
	if err != nil {
		return 0, failProgress(progress, errors.NewClientError("download", bucket, key, classifyMinio(err)))
	}
	defer obj.Close()

	written, err := pool.Copy(w, obj)
	if err != nil {
		return written, failProgress(progress, errors.NewClientError("download", bucket, key, classifyMinio(err)))
	}

	if progress != nil {
		progress.Update(written, written)
		progress.Complete()
	}
	return written, nil
}

// List implements s3types.Storage.
func (m *Minio) List(ctx context.Context, bucket, prefix string) ([]s3types.Object, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	var objects []s3types.Object
	for info := range m.client.ListObjects(ctx, bucket, opts) {
		if info.Err != nil {
			return nil, errors.NewClientError("list", bucket, prefix, classifyMinio(info.Err))
		}
		objects = append(objects, s3types.Object{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
			ETag:         info.ETag,
			StorageClass: info.StorageClass,
		})
	}
	return objects, nil
}

func failProgress(progress s3types.ProgressTracker, err error) error {
	if progress != nil {
		progress.Error(err)
	}
	return err
}

// classifyMinio maps MinIO error responses onto the module's sentinel errors.
func classifyMinio(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", errors.ErrBucketNotFound, err)
	case "AccessDenied":
		return fmt.Errorf("%w: %w", errors.ErrAccessDenied, err)
	case "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %w", errors.ErrInvalidCredentials, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
	}
	return err
}

var _ s3types.Storage = (*Minio)(nil)
