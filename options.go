package s3transfer

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-git/go-billy/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// WithBackend selects the storage implementation. Default is BackendAWS.
func WithBackend(backend s3types.Backend) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Backend = backend
	}
}

// WithProfile selects a named profile from the shared AWS configuration files.
func WithProfile(profile string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Profile = profile
	}
}

// WithRegion sets the region for storage operations.
// If not specified, uses the region from the credential chain or us-east-1.
func WithRegion(region string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Region = region
	}
}

// WithCredentials sets static credentials, bypassing the default credential chain.
func WithCredentials(accessKeyID, secretAccessKey, sessionToken string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.AccessKeyID = accessKeyID
		c.SecretAccessKey = secretAccessKey
		c.SessionToken = sessionToken
	}
}

// WithMaxRetries sets the maximum number of attempts the SDK makes per request.
// Default is 3.
func WithMaxRetries(maxRetries int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxRetries = maxRetries
	}
}

// WithTimeout bounds how long each request waits for the response headers.
// Object bodies are streamed without a deadline. Default is no timeout (0).
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// This is required for most S3-compatible services and LocalStack.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig provides a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithEndpoint sets a custom endpoint, as a URL or host[:port].
func WithEndpoint(endpoint string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithDisableSSL uses plain HTTP for endpoints given without a scheme.
func WithDisableSSL(disableSSL bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.DisableSSL = disableSSL
	}
}

// WithHTTPClient provides a custom HTTP client. For the MinIO backend only its
// transport is used.
func WithHTTPClient(client *http.Client) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.CustomHTTPClient = client
	}
}

// WithFilesystem sets the local filesystem used for reads and writes.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem billy.Filesystem) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the logger. Transfers are not logged when unset.
func WithLogger(logger *slog.Logger) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Logger = logger
	}
}

// WithMetrics registers transfer metrics with reg.
func WithMetrics(reg prometheus.Registerer) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Registerer = reg
	}
}

// WithContinueOnError makes folder operations attempt every item and report
// all failures together instead of stopping at the first one.
func WithContinueOnError(continueOnError bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ContinueOnError = continueOnError
	}
}

// WithPrefix places uploaded objects under prefix.
func WithPrefix(prefix string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.Prefix = prefix
	}
}

// WithObjectName replaces the file name component of the uploaded object's key.
func WithObjectName(name string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.ObjectName = name
	}
}

// WithWholePath keeps the local path in the object key instead of only the file
// name (single files) or the folder name (folders).
func WithWholePath(wholePath bool) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.WholePath = wholePath
	}
}

// WithContentType sets the content type instead of detecting it.
func WithContentType(contentType string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets user metadata for uploaded objects.
func WithMetadata(metadata map[string]string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithStorageClass sets the storage class for uploaded objects.
func WithStorageClass(storageClass s3types.StorageClass) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.StorageClass = storageClass
	}
}

// WithProgress sets a progress tracker for upload operations.
func WithProgress(tracker s3types.ProgressTracker) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithIncludePatterns limits folder uploads to files matching at least one pattern.
func WithIncludePatterns(patterns ...string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.IncludePatterns = append(c.IncludePatterns, patterns...)
	}
}

// WithExcludePatterns skips files matching any pattern during folder uploads.
func WithExcludePatterns(patterns ...string) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.ExcludePatterns = append(c.ExcludePatterns, patterns...)
	}
}

// WithUploadContinueOnError overrides the client's continue-on-error setting for one folder upload.
func WithUploadContinueOnError(continueOnError bool) s3types.UploadOption {
	return func(c *s3types.UploadOptionConfig) {
		c.ContinueOnError = &continueOnError
	}
}

// WithLocalPath sets the directory a downloaded file is written into.
// Default is the working directory.
func WithLocalPath(localPath string) s3types.DownloadOption {
	return func(c *s3types.DownloadOptionConfig) {
		c.LocalPath = localPath
	}
}

// WithKeyPath recreates the object key's directories below the local path.
func WithKeyPath(useKeyPath bool) s3types.DownloadOption {
	return func(c *s3types.DownloadOptionConfig) {
		c.KeyPath = useKeyPath
	}
}

// WithFileName replaces the file name of a downloaded file.
func WithFileName(name string) s3types.DownloadOption {
	return func(c *s3types.DownloadOptionConfig) {
		c.FileName = name
	}
}

// WithDownloadProgress sets a progress tracker for download operations.
func WithDownloadProgress(tracker s3types.ProgressTracker) s3types.DownloadOption {
	return func(c *s3types.DownloadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithDownloadContinueOnError overrides the client's continue-on-error setting for one folder download.
func WithDownloadContinueOnError(continueOnError bool) s3types.DownloadOption {
	return func(c *s3types.DownloadOptionConfig) {
		c.ContinueOnError = &continueOnError
	}
}
