package storage

import (
	"context"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations/download"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// AWS implements s3types.Storage on top of the AWS SDK v2 S3 client.
type AWS struct {
	uploader   *upload.Uploader
	downloader *download.Downloader
	lister     *list.Lister
}

// NewAWS creates an AWS storage from an S3 API client.
func NewAWS(client s3api.S3API) *AWS {
	return &AWS{
		uploader:   upload.New(client),
		downloader: download.New(client),
		lister:     list.New(client),
	}
}

// Put implements s3types.Storage.
func (a *AWS) Put(ctx context.Context, in *s3types.PutInput) (string, error) {
	return a.uploader.Put(ctx, in)
}

// Get implements s3types.Storage.
func (a *AWS) Get(
	ctx context.Context,
	bucket, key string,
	w io.Writer,
	progress s3types.ProgressTracker,
) (int64, error) {
	return a.downloader.Download(ctx, bucket, key, w, progress)
}

// List implements s3types.Storage.
func (a *AWS) List(ctx context.Context, bucket, prefix string) ([]s3types.Object, error) {
	return a.lister.ListAll(ctx, bucket, prefix)
}

var _ s3types.Storage = (*AWS)(nil)
