package s3transfer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/storage"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

const defaultRegion = "us-east-1"

// Client moves files and folders between the local filesystem and a bucket.
// It is safe for concurrent use; each call runs its transfers sequentially.
type Client struct {
	// storage performs the object operations
	storage s3types.Storage

	// mu protects fs
	mu sync.RWMutex

	// fs is the local filesystem transfers read from and write to
	fs billy.Filesystem

	logger          *slog.Logger
	metrics         *metrics.Collector
	continueOnError bool
}

func defaultClientConfig() *s3types.ClientConfig {
	return &s3types.ClientConfig{
		Backend:    s3types.BackendAWS,
		MaxRetries: 3,
	}
}

// New creates a client for the configured backend.
//
// For the AWS backend the SDK configuration is loaded from the default
// credential chain, optionally narrowed to a named profile or overridden with
// static keys. For the MinIO backend an endpoint is required.
//
// Example:
//
//	client, err := s3transfer.New(ctx,
//	    s3transfer.WithProfile("staging"),
//	    s3transfer.WithRegion("eu-west-1"),
//	)
func New(ctx context.Context, opts ...s3types.Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var (
		store s3types.Storage
		err   error
	)
	switch cfg.Backend {
	case s3types.BackendAWS, "":
		store, err = newAWSStorage(ctx, cfg)
	case s3types.BackendMinio:
		store, err = newMinioStorage(cfg)
	default:
		err = errors.NewValidationError("clientInitialization", errors.ErrInvalidInput).
			WithMessage(fmt.Sprintf("unknown backend %q", cfg.Backend))
	}
	if err != nil {
		return nil, err
	}

	return newClient(store, cfg), nil
}

// NewWithClient creates a client over an existing S3 API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(client s3api.S3API, opts ...s3types.Option) *Client {
	return NewWithStorage(storage.NewAWS(client), opts...)
}

// NewWithStorage creates a client over any Storage implementation.
func NewWithStorage(store s3types.Storage, opts ...s3types.Option) *Client {
	cfg := defaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newClient(store, cfg)
}

func newClient(store s3types.Storage, cfg *s3types.ClientConfig) *Client {
	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = osfs.New("/")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		storage:         store,
		fs:              filesystem,
		logger:          logger,
		metrics:         metrics.NewCollector(cfg.Registerer),
		continueOnError: cfg.ContinueOnError,
	}
}

func newAWSStorage(ctx context.Context, cfg *s3types.ClientConfig) (*storage.AWS, error) {
	var awsCfg aws.Config
	if cfg.CustomAWSConfig != nil {
		awsCfg = cfg.CustomAWSConfig.Copy()
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.Profile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
		}
		if cfg.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
		}
		if cfg.AccessKeyID != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
			))
		}

		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.NewError("clientInitialization", err).WithKind(errors.KindClient)
		}
	}

	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	} else if awsCfg.Region == "" {
		awsCfg.Region = defaultRegion
	}
	if cfg.MaxRetries > 0 {
		awsCfg.RetryMaxAttempts = cfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := endpointURL(cfg.Endpoint, cfg.DisableSSL)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if httpClient := httpClientFor(cfg); httpClient != nil {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	return storage.NewAWS(s3.NewFromConfig(awsCfg, s3Opts...)), nil
}

func newMinioStorage(cfg *s3types.ClientConfig) (*storage.Minio, error) {
	host, secure := minioEndpoint(cfg.Endpoint, cfg.DisableSSL)

	transport, err := minioTransport(cfg, secure)
	if err != nil {
		return nil, errors.NewError("clientInitialization", err)
	}

	store, err := storage.NewMinio(storage.MinioConfig{
		Endpoint:        host,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
		Region:          cfg.Region,
		Secure:          secure,
		Transport:       transport,
	})
	if err != nil {
		return nil, errors.NewError("clientInitialization", err)
	}
	return store, nil
}

// httpClientFor returns the HTTP client the AWS backend should use, or nil for the SDK default.
// Timeout bounds the wait for response headers only, so long bodies are never cut off.
func httpClientFor(cfg *s3types.ClientConfig) s3.HTTPClient {
	if cfg.CustomHTTPClient != nil {
		return cfg.CustomHTTPClient
	}
	if cfg.Timeout > 0 {
		return awshttp.NewBuildableClient().WithTransportOptions(func(tr *http.Transport) {
			tr.ResponseHeaderTimeout = cfg.Timeout
		})
	}
	return nil
}

// minioTransport mirrors httpClientFor for the MinIO backend. A nil transport
// selects the MinIO default.
func minioTransport(cfg *s3types.ClientConfig, secure bool) (http.RoundTripper, error) {
	if cfg.CustomHTTPClient != nil {
		return cfg.CustomHTTPClient.Transport, nil
	}
	if cfg.Timeout <= 0 {
		return nil, nil
	}

	tr, err := minio.DefaultTransport(secure)
	if err != nil {
		return nil, fmt.Errorf("failed to build MinIO transport: %w", err)
	}
	tr.ResponseHeaderTimeout = cfg.Timeout
	return tr, nil
}

// endpointURL adds a scheme to endpoints given as host[:port].
func endpointURL(endpoint string, disableSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if disableSSL {
		return "http://" + endpoint
	}
	return "https://" + endpoint
}

// minioEndpoint splits an endpoint into the host[:port] form MinIO expects and
// whether TLS should be used. An explicit scheme wins over disableSSL.
func minioEndpoint(endpoint string, disableSSL bool) (string, bool) {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" && u.Scheme != "" {
		return u.Host, u.Scheme == "https"
	}
	return endpoint, !disableSSL
}

// SetFilesystem replaces the local filesystem used by subsequent transfers.
func (c *Client) SetFilesystem(filesystem billy.Filesystem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fs = filesystem
}

func (c *Client) filesystem() billy.Filesystem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fs
}

// Close releases any resources held by the client.
// Currently a no-op: neither backend client holds resources beyond idle
// HTTP connections, which the transport reclaims on its own.
func (c *Client) Close() error {
	return nil
}
