// Package s3types provides shared type definitions for the s3transfer module.
package s3types

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// StorageClass represents the storage class for uploaded objects.
type StorageClass string

// Predefined S3 storage classes
const (
	// StorageClassStandard is the default S3 storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassReducedRedundancy provides reduced redundancy storage
	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassOneZoneIA provides one zone infrequent access storage
	StorageClassOneZoneIA StorageClass = "ONEZONE_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacier provides Glacier archival storage
	StorageClassGlacier StorageClass = "GLACIER"

	// StorageClassDeepArchive provides Deep Archive storage
	StorageClassDeepArchive StorageClass = "DEEP_ARCHIVE"

	// StorageClassGlacierIR provides Glacier Instant Retrieval storage
	StorageClassGlacierIR StorageClass = "GLACIER_IR"
)

// Backend selects the object storage implementation a client talks to.
type Backend string

const (
	// BackendAWS uses the AWS SDK v2 S3 client.
	BackendAWS Backend = "aws"

	// BackendMinio uses the MinIO client against any S3-compatible endpoint.
	BackendMinio Backend = "minio"
)

// Object represents a stored object with its basic metadata.
type Object struct {
	// Key is the object key (path)
	Key string

	// Size is the object size in bytes
	Size int64

	// LastModified is when the object was last modified
	LastModified time.Time

	// ETag is the entity tag for the object
	ETag string

	// StorageClass is the storage class reported by the provider
	StorageClass string
}

// ProgressTracker defines the interface for tracking transfer progress.
// Implementations can provide real-time progress updates during uploads and downloads.
type ProgressTracker interface {
	// Update is called periodically with transfer progress
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// PutInput describes a single object upload handed to a Storage.
type PutInput struct {
	Bucket       string
	Key          string
	Body         io.Reader
	Size         int64
	ContentType  string
	Metadata     map[string]string
	StorageClass StorageClass
	Progress     ProgressTracker
}

// Storage is the set of object storage primitives the transfer helpers need.
// Implementations exist for the AWS SDK and for MinIO; tests inject mocks.
type Storage interface {
	// Put uploads a single object and returns its ETag.
	Put(ctx context.Context, in *PutInput) (string, error)

	// Get streams the object's content into w and returns the number of bytes written.
	Get(ctx context.Context, bucket, key string, w io.Writer, progress ProgressTracker) (int64, error)

	// List returns every object whose key starts with prefix.
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
}

// Transfer records one object moved between the local filesystem and a bucket.
type Transfer struct {
	// LocalPath is the local file that was read or written
	LocalPath string

	// Key is the object key that was written or read
	Key string

	// Size is the number of bytes transferred
	Size int64

	// ETag is the entity tag returned on upload (empty for downloads)
	ETag string

	// Duration is how long the transfer took
	Duration time.Duration
}

// Failure records a transfer that was attempted and failed.
type Failure struct {
	LocalPath string
	Key       string
	Err       error
}

// TransferResult is returned by every transfer entry point.
type TransferResult struct {
	// Op names the entry point ("upload_file", "upload_folder", ...)
	Op string

	// Bucket is the bucket that was written or read
	Bucket string

	// Transfers lists the transfers that completed, in order
	Transfers []Transfer

	// Failures lists failed transfers; it holds more than one entry only
	// when continue-on-error is enabled
	Failures []Failure

	// Duration is the total time spent in the call
	Duration time.Duration
}

// Bytes returns the total number of bytes moved by completed transfers.
func (r *TransferResult) Bytes() int64 {
	var total int64
	for _, t := range r.Transfers {
		total += t.Size
	}
	return total
}

// Configuration types for functional options

// ClientConfig holds configuration for the transfer client.
type ClientConfig struct {
	Backend          Backend
	Profile          string
	Region           string
	Endpoint         string
	AccessKeyID      string
	SecretAccessKey  string
	SessionToken     string
	MaxRetries       int
	Timeout          time.Duration
	ForcePathStyle   bool
	DisableSSL       bool
	CustomAWSConfig  *aws.Config
	CustomHTTPClient *http.Client
	Filesystem       billy.Filesystem // Local filesystem used for reads and writes
	Logger           *slog.Logger
	Registerer       prometheus.Registerer // Metrics are disabled when nil
	ContinueOnError  bool                  // Folder operations attempt every item
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	Prefix          string
	ObjectName      string
	WholePath       bool
	ContentType     string
	Metadata        map[string]string
	StorageClass    StorageClass
	ProgressTracker ProgressTracker
	IncludePatterns []string
	ExcludePatterns []string
	ContinueOnError *bool
}

// DownloadOptionConfig holds configuration for download operations via functional options.
type DownloadOptionConfig struct {
	LocalPath       string
	KeyPath         bool
	FileName        string
	ProgressTracker ProgressTracker
	ContinueOnError *bool
}

// Option is a functional option for configuring the transfer client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
	// DownloadOption is a functional option for configuring download operations.
	DownloadOption func(*DownloadOptionConfig)
)
