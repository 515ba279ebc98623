// Package errors provides error types and handling for object transfer operations.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies where a transfer failure originated.
// Kinds are string-based so they read naturally in logs.
type Kind string

const (
	// KindInvalidInput marks input rejected before any I/O took place.
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindClient marks a failure reported by the object storage provider
	// (missing bucket or object, denied access, service error).
	KindClient Kind = "CLIENT_FAULT"

	// KindLocalIO marks a local filesystem failure (stat, open, create, mkdir, walk).
	KindLocalIO Kind = "LOCAL_IO_FAULT"
)

// Error represents a transfer error with context about the operation that failed.
type Error struct {
	// Op is the operation that failed (e.g., "upload_file", "download_folder")
	Op string

	// Bucket is the bucket name (if applicable)
	Bucket string

	// Key is the object key (if applicable)
	Key string

	// Path is the local filesystem path (if applicable)
	Path string

	// Kind classifies the failure
	Kind Kind

	// Err is the underlying error from the storage SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	var target string
	switch {
	case e.Bucket != "" && e.Key != "":
		target = fmt.Sprintf(" %s/%s", e.Bucket, e.Key)
	case e.Bucket != "":
		target = " bucket " + e.Bucket
	case e.Key != "":
		target = " object " + e.Key
	}
	if e.Path != "" {
		target += fmt.Sprintf(" (%s)", e.Path)
	}
	return fmt.Sprintf("s3transfer.%s%s: %v", e.Op, target, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithPath adds local path context to an existing error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithKind sets the failure classification.
func (e *Error) WithKind(kind Kind) *Error {
	e.Kind = kind
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
// The kind is inherited from the first *Error found in err's chain.
func NewError(op string, err error) *Error {
	e := &Error{
		Op:  op,
		Err: err,
	}
	var inner *Error
	if errors.As(err, &inner) {
		e.Kind = inner.Kind
	}
	return e
}

// NewClientError creates a provider failure for the given object.
func NewClientError(op, bucket, key string, err error) *Error {
	return &Error{Op: op, Bucket: bucket, Key: key, Kind: KindClient, Err: err}
}

// NewLocalIOError creates a local filesystem failure for the given path.
func NewLocalIOError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Kind: KindLocalIO, Err: err}
}

// NewValidationError creates an input validation failure.
func NewValidationError(op string, err error) *Error {
	return &Error{Op: op, Kind: KindInvalidInput, Err: err}
}

// Sentinel errors for common transfer failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("s3transfer: object not found")

	// ErrBucketNotFound indicates that the requested bucket does not exist
	ErrBucketNotFound = errors.New("s3transfer: bucket not found")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s3transfer: access denied")

	// ErrInvalidCredentials indicates that the credentials were rejected
	ErrInvalidCredentials = errors.New("s3transfer: invalid credentials")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("s3transfer: invalid input")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("s3transfer: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("s3transfer: invalid object key")

	// ErrNotADirectory indicates that a folder operation was given a file
	ErrNotADirectory = errors.New("s3transfer: not a directory")

	// ErrIsADirectory indicates that a file operation was given a directory
	ErrIsADirectory = errors.New("s3transfer: is a directory")

	// ErrPathEscapesRoot indicates that a computed local path leaves its destination directory
	ErrPathEscapesRoot = errors.New("s3transfer: path escapes destination directory")
)

// KindOf returns the kind of the first *Error in err's chain, or "" when none is set.
func KindOf(err error) Kind {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return ""
		}
		if e.Kind != "" {
			return e.Kind
		}
		err = e.Err
	}
	return ""
}

// IsClientFault reports whether err was raised by the storage provider.
func IsClientFault(err error) bool {
	return KindOf(err) == KindClient
}

// IsLocalIOFault reports whether err was raised by the local filesystem.
func IsLocalIOFault(err error) bool {
	return KindOf(err) == KindLocalIO
}

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsBucketNotFound checks if an error indicates that a bucket was not found.
func IsBucketNotFound(err error) bool {
	return errors.Is(err, ErrBucketNotFound)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}

// IsInvalidInput checks if an error indicates invalid input.
// Bucket and key validation failures count as invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidBucketName) ||
		errors.Is(err, ErrInvalidObjectKey) ||
		KindOf(err) == KindInvalidInput
}
