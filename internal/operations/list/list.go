package list

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// maxPageSize is the largest page S3 returns for ListObjectsV2.
const maxPageSize int32 = 1000

// Lister handles listing of S3 objects.
type Lister struct {
	client s3.ListObjectsV2APIClient
}

// New creates a new Lister.
func New(client s3.ListObjectsV2APIClient) *Lister {
	return &Lister{client: client}
}

// ListAll returns every object in bucket whose key starts with prefix.
func (l *Lister) ListAll(ctx context.Context, bucket, prefix string) ([]s3types.Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	paginator := s3.NewListObjectsV2Paginator(l.client, input, func(o *s3.ListObjectsV2PaginatorOptions) {
		o.Limit = maxPageSize
	})

	var objects []s3types.Object
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.NewClientError("list", bucket, prefix, operations.Classify(err))
		}
		objects = append(objects, convertPage(page)...)
	}

	return objects, nil
}

func convertPage(output *s3.ListObjectsV2Output) []s3types.Object {
	objects := make([]s3types.Object, 0, len(output.Contents))
	for _, obj := range output.Contents {
		objects = append(objects, s3types.Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         aws.ToString(obj.ETag),
			StorageClass: string(obj.StorageClass),
		})
	}
	return objects
}
