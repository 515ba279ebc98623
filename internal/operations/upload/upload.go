package upload

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// Uploader handles S3 upload operations.
type Uploader struct {
	s3Client s3api.S3API
}

// New creates a new Uploader instance.
func New(s3Client s3api.S3API) *Uploader {
	return &Uploader{
		s3Client: s3Client,
	}
}

// Put uploads in.Body to in.Bucket/in.Key and returns the object's ETag.
// For request signing the body should also implement io.Seeker.
func (u *Uploader) Put(ctx context.Context, in *s3types.PutInput) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(in.Bucket),
		Key:           aws.String(in.Key),
		Body:          in.Body,
		ContentLength: aws.Int64(in.Size),
	}

	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}
	if in.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(in.StorageClass)
	}
	if len(in.Metadata) > 0 {
		input.Metadata = in.Metadata
	}

	output, err := u.s3Client.PutObject(ctx, input)
	if err != nil {
		if in.Progress != nil {
			in.Progress.Error(err)
		}
		return "", errors.NewClientError("upload", in.Bucket, in.Key, operations.Classify(err))
	}

	if in.Progress != nil {
		in.Progress.Update(in.Size, in.Size)
		in.Progress.Complete()
	}

	return aws.ToString(output.ETag), nil
}
