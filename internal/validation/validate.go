package validation

import (
	"fmt"
	"mime"
	"net"
	"regexp"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
)

const (
	maxKeyLength           = 1024
	maxMetadataKeyLength   = 128
	maxMetadataValueLength = 2048
)

// bucketNamePattern covers length, the character set and the first and last
// character of a bucket name.
var bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

var reservedMetadataPrefixes = []string{"aws:", "x-amz-", "x-amz:"}

func invalidBucket(bucket, msg string) error {
	return errors.NewValidationError("validateBucketName", errors.ErrInvalidBucketName).
		WithBucket(bucket).
		WithMessage(msg)
}

// ValidateBucketName checks bucket against the S3 naming rules that matter
// for addressing: 3 to 63 lowercase letters, digits, dots and hyphens,
// alphanumeric at both ends, no ".." and not an IPv4 address.
func ValidateBucketName(bucket string) error {
	switch {
	case bucket == "":
		return invalidBucket(bucket, "bucket name cannot be empty")
	case len(bucket) < 3 || len(bucket) > 63:
		return invalidBucket(bucket, "bucket name must be between 3 and 63 characters long")
	case strings.ContainsFunc(bucket, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '-')
	}):
		return invalidBucket(bucket, "bucket name can only contain lowercase letters, numbers, dots, and hyphens")
	case !bucketNamePattern.MatchString(bucket):
		return invalidBucket(bucket, "bucket name must start and end with a letter or number")
	case strings.Contains(bucket, ".."):
		return invalidBucket(bucket, "bucket name cannot contain adjacent periods")
	case net.ParseIP(bucket) != nil:
		return invalidBucket(bucket, "bucket name cannot be formatted as an IP address")
	}
	return nil
}

// ValidateObjectKey validates that an object key can name a file-like object.
// Keys must be non-empty, at most 1024 bytes, free of control characters and
// must not end in "/" (a directory marker).
func ValidateObjectKey(key string) error {
	var msg string
	switch {
	case key == "":
		msg = "object key cannot be empty"
	case len(key) > maxKeyLength:
		msg = fmt.Sprintf("object key cannot exceed %d bytes", maxKeyLength)
	case strings.ContainsFunc(key, unicode.IsControl):
		msg = "object key cannot contain control characters"
	case strings.HasSuffix(key, "/"):
		msg = "object key names a directory marker"
	default:
		return nil
	}
	return errors.NewValidationError("validateObjectKey", errors.ErrInvalidObjectKey).
		WithKey(key).
		WithMessage(msg)
}

// ValidateFileName validates an explicit file name that replaces the final
// element of a path. It must be a single path element.
func ValidateFileName(name string) error {
	var msg string
	switch {
	case name == "" || name == "." || name == "..":
		msg = "file name must be a single path element"
	case strings.ContainsAny(name, `/\`):
		msg = "file name cannot contain path separators"
	case strings.ContainsFunc(name, unicode.IsControl):
		msg = "file name cannot contain control characters"
	default:
		return nil
	}
	return errors.NewValidationError("validateFileName", errors.ErrInvalidInput).
		WithPath(name).
		WithMessage(msg)
}

// ValidateMetadata checks user metadata: printable ASCII keys of at most 128
// bytes outside the AWS reserved prefixes, and printable values of at most 2KB.
func ValidateMetadata(metadata map[string]string) error {
	for key, value := range metadata {
		if msg := metadataProblem(key, value); msg != "" {
			return errors.NewValidationError("validateMetadata", errors.ErrInvalidInput).
				WithMessage(msg)
		}
	}
	return nil
}

func metadataProblem(key, value string) string {
	switch {
	case key == "":
		return "metadata key cannot be empty"
	case len(key) > maxMetadataKeyLength:
		return fmt.Sprintf("metadata key cannot exceed %d characters", maxMetadataKeyLength)
	case strings.ContainsFunc(key, func(r rune) bool { return r < 32 || r > 126 }):
		return "metadata key can only contain printable ASCII characters"
	case len(value) > maxMetadataValueLength:
		return fmt.Sprintf("metadata value cannot exceed %d characters", maxMetadataValueLength)
	case strings.ContainsFunc(value, func(r rune) bool { return !unicode.IsPrint(r) && r != '\n' && r != '\t' }):
		return "metadata value can only contain printable characters"
	}

	lower := strings.ToLower(key)
	for _, prefix := range reservedMetadataPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "metadata key cannot start with reserved prefix: " + prefix
		}
	}
	return ""
}

// ValidateContentType checks that an explicit content type parses as a media
// type. An empty content type is allowed and means detection.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && !strings.Contains(mediaType, "/") {
		err = fmt.Errorf("missing subtype in %q", mediaType)
	}
	if err != nil {
		return errors.NewValidationError("validateContentType", errors.ErrInvalidInput).
			WithMessage("content type must be a valid MIME type: " + err.Error())
	}
	return nil
}
