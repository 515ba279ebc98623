package operations

import (
	stderrors "errors"
	"fmt"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
)

// Classify maps an AWS SDK error onto the module's sentinel errors.
// The SDK error stays in the chain so callers can still inspect it.
// Errors that match no known code are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var noSuchKey *awstypes.NoSuchKey
	if stderrors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
	}
	var noSuchBucket *awstypes.NoSuchBucket
	if stderrors.As(err, &noSuchBucket) {
		return fmt.Errorf("%w: %w", errors.ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
		case "NoSuchBucket":
			return fmt.Errorf("%w: %w", errors.ErrBucketNotFound, err)
		case "AccessDenied", "Forbidden", "AllAccessDisabled":
			return fmt.Errorf("%w: %w", errors.ErrAccessDenied, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
			return fmt.Errorf("%w: %w", errors.ErrInvalidCredentials, err)
		}
	}

	var respErr *awshttp.ResponseError
	if stderrors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %w", errors.ErrObjectNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %w", errors.ErrAccessDenied, err)
		}
	}

	return err
}
