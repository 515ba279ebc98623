package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/config"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// clientFactory builds the transfer client from the resolved options.
type clientFactory func(ctx context.Context, opts ...s3types.Option) (*s3transfer.Client, error)

// runtime is the state shared between Before, the command actions and After.
type runtime struct {
	stdout   io.Writer
	stderr   io.Writer
	factory  clientFactory
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	client   *s3transfer.Client
}

func newApp(stdout, stderr io.Writer, factory clientFactory) *cli.App {
	rt := &runtime{stdout: stdout, stderr: stderr, factory: factory}

	return &cli.App{
		Name:      "s3transfer",
		Usage:     "Upload and download files and folders to and from S3-compatible storage",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to a config file"},
			&cli.StringFlag{Name: "backend", Usage: "Storage backend (aws or minio)"},
			&cli.StringFlag{Name: "profile", Usage: "Named AWS profile"},
			&cli.StringFlag{Name: "region", Usage: "Region"},
			&cli.StringFlag{Name: "endpoint", Usage: "Custom endpoint URL"},
			&cli.BoolFlag{Name: "force-path-style", Usage: "Use path-style addressing"},
			&cli.BoolFlag{Name: "continue-on-error", Usage: "Attempt every item of a folder transfer"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level (debug, info, warn, error)"},
			&cli.StringFlag{Name: "log-format", Usage: "Log format (text or json)"},
			&cli.StringFlag{Name: "metrics-textfile", Usage: "Write Prometheus metrics to this file on exit"},
		},
		Before: rt.before,
		After:  rt.after,
		Commands: []*cli.Command{
			{
				Name:      "upload-file",
				Usage:     "Upload a single file",
				ArgsUsage: "BUCKET PATH",
				Flags: append(uploadFlags(),
					&cli.StringFlag{Name: "name", Usage: "Object name replacing the file name"},
				),
				Action: rt.uploadFile,
			},
			{
				Name:      "upload-folder",
				Usage:     "Upload every file below a folder",
				ArgsUsage: "BUCKET FOLDER",
				Flags: append(uploadFlags(),
					&cli.StringSliceFlag{Name: "include", Usage: "Only upload files matching this pattern"},
					&cli.StringSliceFlag{Name: "exclude", Usage: "Skip files matching this pattern"},
				),
				Action: rt.uploadFolder,
			},
			{
				Name:      "download-file",
				Usage:     "Download a single object",
				ArgsUsage: "BUCKET KEY",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Directory to write into"},
					&cli.BoolFlag{Name: "key-path", Usage: "Recreate the key's directories"},
					&cli.StringFlag{Name: "name", Usage: "File name replacing the key's last segment"},
				},
				Action: rt.downloadFile,
			},
			{
				Name:      "download-folder",
				Usage:     "Download every object under a prefix",
				ArgsUsage: "BUCKET PREFIX DIR",
				Action:    rt.downloadFolder,
			},
		},
	}
}

func uploadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "prefix", Aliases: []string{"p"}, Usage: "Key prefix"},
		&cli.BoolFlag{Name: "whole-path", Usage: "Keep the local path in the key"},
		&cli.StringFlag{Name: "content-type", Usage: "Content type instead of detection"},
		&cli.StringFlag{Name: "storage-class", Usage: "Storage class"},
		&cli.StringSliceFlag{Name: "metadata", Usage: "User metadata as key=value"},
	}
}

// before loads the configuration, applies flag overrides and builds the client.
func (rt *runtime) before(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("profile") {
		cfg.Profile = c.String("profile")
	}
	if c.IsSet("region") {
		cfg.Region = c.String("region")
	}
	if c.IsSet("endpoint") {
		cfg.Endpoint = c.String("endpoint")
	}
	if c.IsSet("force-path-style") {
		cfg.ForcePathStyle = c.Bool("force-path-style")
	}
	if c.IsSet("continue-on-error") {
		cfg.ContinueOnError = c.Bool("continue-on-error")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("metrics-textfile") {
		cfg.MetricsTextfile = c.String("metrics-textfile")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(rt.stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	rt.cfg = cfg
	rt.logger = logger
	rt.registry = prometheus.NewRegistry()

	// No command given; the app only prints help.
	if c.Args().Len() == 0 {
		return nil
	}

	client, err := rt.factory(c.Context, clientOptions(cfg, logger, rt.registry)...)
	if err != nil {
		return err
	}
	rt.client = client
	return nil
}

func clientOptions(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) []s3types.Option {
	opts := []s3types.Option{
		s3transfer.WithBackend(s3types.Backend(cfg.Backend)),
		s3transfer.WithProfile(cfg.Profile),
		s3transfer.WithRegion(cfg.Region),
		s3transfer.WithEndpoint(cfg.Endpoint),
		s3transfer.WithForcePathStyle(cfg.ForcePathStyle),
		s3transfer.WithDisableSSL(cfg.DisableSSL),
		s3transfer.WithMaxRetries(cfg.MaxRetries),
		s3transfer.WithTimeout(cfg.Timeout),
		s3transfer.WithContinueOnError(cfg.ContinueOnError),
		s3transfer.WithLogger(logger),
		s3transfer.WithMetrics(reg),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, s3transfer.WithCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""))
	}
	return opts
}

func (rt *runtime) after(*cli.Context) error {
	if rt.client != nil {
		if err := rt.client.Close(); err != nil {
			return fmt.Errorf("failed to close client: %w", err)
		}
	}
	if rt.cfg == nil || rt.cfg.MetricsTextfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(rt.cfg.MetricsTextfile, rt.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func (rt *runtime) uploadFile(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	opts, err := uploadOptions(c)
	if err != nil {
		return err
	}
	if name := c.String("name"); name != "" {
		opts = append(opts, s3transfer.WithObjectName(name))
	}

	result, err := rt.client.UploadFile(c.Context, c.Args().Get(0), c.Args().Get(1), opts...)
	rt.summarize(result, "uploaded")
	return err
}

func (rt *runtime) uploadFolder(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	opts, err := uploadOptions(c)
	if err != nil {
		return err
	}
	if include := c.StringSlice("include"); len(include) > 0 {
		opts = append(opts, s3transfer.WithIncludePatterns(include...))
	}
	if exclude := c.StringSlice("exclude"); len(exclude) > 0 {
		opts = append(opts, s3transfer.WithExcludePatterns(exclude...))
	}

	result, err := rt.client.UploadFolder(c.Context, c.Args().Get(0), c.Args().Get(1), opts...)
	rt.summarize(result, "uploaded")
	return err
}

func (rt *runtime) downloadFile(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}

	var opts []s3types.DownloadOption
	if out := c.String("output"); out != "" {
		opts = append(opts, s3transfer.WithLocalPath(out))
	}
	if c.Bool("key-path") {
		opts = append(opts, s3transfer.WithKeyPath(true))
	}
	if name := c.String("name"); name != "" {
		opts = append(opts, s3transfer.WithFileName(name))
	}

	result, err := rt.client.DownloadFile(c.Context, c.Args().Get(0), c.Args().Get(1), opts...)
	rt.summarize(result, "downloaded")
	return err
}

func (rt *runtime) downloadFolder(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}

	result, err := rt.client.DownloadFolder(c.Context, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
	rt.summarize(result, "downloaded")
	return err
}

func uploadOptions(c *cli.Context) ([]s3types.UploadOption, error) {
	opts := []s3types.UploadOption{
		s3transfer.WithPrefix(c.String("prefix")),
		s3transfer.WithWholePath(c.Bool("whole-path")),
	}
	if ct := c.String("content-type"); ct != "" {
		opts = append(opts, s3transfer.WithContentType(ct))
	}
	if sc := c.String("storage-class"); sc != "" {
		opts = append(opts, s3transfer.WithStorageClass(s3types.StorageClass(strings.ToUpper(sc))))
	}
	if pairs := c.StringSlice("metadata"); len(pairs) > 0 {
		metadata, err := parseMetadata(pairs)
		if err != nil {
			return nil, err
		}
		opts = append(opts, s3transfer.WithMetadata(metadata))
	}
	return opts, nil
}

func parseMetadata(pairs []string) (map[string]string, error) {
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		metadata[k] = v
	}
	return metadata, nil
}

func requireArgs(c *cli.Context, n int) error {
	if c.Args().Len() != n {
		return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

// summarize prints a one-line report of the transfer and one line per failure.
func (rt *runtime) summarize(result *s3types.TransferResult, verb string) {
	if result == nil {
		return
	}

	files := "files"
	if len(result.Transfers) == 1 {
		files = "file"
	}
	fmt.Fprintf(rt.stdout, "%s %d %s (%s) in %s\n",
		verb,
		len(result.Transfers),
		files,
		humanize.Bytes(uint64(result.Bytes())),
		result.Duration.Round(time.Millisecond),
	)
	for _, f := range result.Failures {
		target := f.Key
		if target == "" {
			target = f.LocalPath
		}
		fmt.Fprintf(rt.stdout, "failed %s: %v\n", target, f.Err)
	}
}
