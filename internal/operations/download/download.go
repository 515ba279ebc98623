package download

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// Downloader handles S3 download operations with progress tracking support.
type Downloader struct {
	s3Client s3api.S3API
}

// New creates a new Downloader instance.
func New(s3Client s3api.S3API) *Downloader {
	return &Downloader{
		s3Client: s3Client,
	}
}

// Download streams bucket/key into writer and returns the number of bytes written.
func (d *Downloader) Download(
	ctx context.Context,
	bucket, key string,
	writer io.Writer,
	tracker s3types.ProgressTracker,
) (int64, error) {
	output, err := d.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fail(tracker, errors.NewClientError("download", bucket, key, operations.Classify(err)))
	}
	defer output.Body.Close()

	size := aws.ToInt64(output.ContentLength)

	var reader io.Reader = output.Body
	if tracker != nil {
		reader = &progressReader{
			reader:          output.Body,
			progressTracker: tracker,
			total:           size,
		}
	}

	written, err := pool.Copy(writer, reader)
	if err != nil {
		return written, fail(tracker, errors.NewClientError("download", bucket, key, err))
	}

	if tracker != nil {
		if size == 0 {
			size = written
		}
		tracker.Update(written, size)
		tracker.Complete()
	}

	return written, nil
}

func fail(tracker s3types.ProgressTracker, err error) error {
	if tracker != nil {
		tracker.Error(err)
	}
	return err
}

// progressReader wraps an io.Reader to track progress
type progressReader struct {
	reader          io.Reader
	progressTracker s3types.ProgressTracker
	total           int64
	bytesRead       int64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.bytesRead += int64(n)
		pr.progressTracker.Update(pr.bytesRead, pr.total)
	}
	//nolint:wrapcheck // io.Reader interface contract - error comes from underlying reader
	return n, err
}
