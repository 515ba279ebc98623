package s3transfer

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/pathmap"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// Operation names reported in TransferResult.Op, errors and metrics.
const (
	OpUploadFile     = "upload_file"
	OpUploadFolder   = "upload_folder"
	OpDownloadFile   = "download_file"
	OpDownloadFolder = "download_folder"
)

// DefaultContentType is used when the content type cannot be detected.
const DefaultContentType = "application/octet-stream"

// UploadFile uploads a single local file.
//
// The object key is the file name under the configured prefix. WithObjectName
// replaces the file name and WithWholePath keeps the local path as given
// (relative paths stay relative, absolute paths lose their leading separator).
//
// Errors:
//   - ErrInvalidInput, ErrInvalidBucketName, ErrInvalidObjectKey: rejected before any I/O
//   - ErrIsADirectory: localPath is a directory
//   - ErrAccessDenied, ErrBucketNotFound: reported by the provider
//
// Example:
//
//	result, err := client.UploadFile(ctx, "my-bucket", "/tmp/x/report.csv",
//	    s3transfer.WithPrefix("a/b"),
//	)
//	// uploads a/b/report.csv
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, localPath string,
	opts ...s3types.UploadOption,
) (*s3types.TransferResult, error) {
	start := time.Now()
	result := &s3types.TransferResult{Op: OpUploadFile, Bucket: bucket}
	cfg := applyUploadOptions(opts)

	if err := validateUpload(bucket, localPath, cfg); err != nil {
		return c.finish(ctx, result, start, errors.NewError(OpUploadFile, err).WithBucket(bucket).WithPath(localPath))
	}

	key := pathmap.UploadKey(localPath, cfg.ObjectName, cfg.WholePath, cfg.Prefix)
	if err := validation.ValidateObjectKey(key); err != nil {
		return c.finish(ctx, result, start, errors.NewError(OpUploadFile, err).WithBucket(bucket).WithKey(key))
	}

	absPath, err := filepath.Abs(localPath)
	if err != nil {
		return c.finish(ctx, result, start, errors.NewLocalIOError(OpUploadFile, localPath, err).WithBucket(bucket))
	}

	transfer, err := c.putFile(ctx, c.filesystem(), bucket, absPath, key, cfg)
	if err != nil {
		result.Failures = append(result.Failures, s3types.Failure{LocalPath: absPath, Key: key, Err: err})
		return c.finish(ctx, result, start, errors.NewError(OpUploadFile, err).WithBucket(bucket).WithKey(key))
	}

	result.Transfers = append(result.Transfers, transfer)
	return c.finish(ctx, result, start, nil)
}

// UploadFolder uploads every regular file below folder.
//
// Keys are the file paths relative to the folder's parent, so the folder's own
// name is the first segment under the prefix: uploading /tmp/root with prefix
// "backup" writes backup/root/sub/a.txt. WithWholePath uses the absolute path
// instead. WithIncludePatterns and WithExcludePatterns filter the files.
//
// By default the upload stops at the first failure; files already uploaded
// stay uploaded and are listed in the result. With continue-on-error every
// file is attempted and the returned error joins all failures.
// An empty folder uploads nothing and is not an error.
func (c *Client) UploadFolder(
	ctx context.Context,
	bucket, folder string,
	opts ...s3types.UploadOption,
) (*s3types.TransferResult, error) {
	start := time.Now()
	result := &s3types.TransferResult{Op: OpUploadFolder, Bucket: bucket}
	cfg := applyUploadOptions(opts)

	if err := validateUpload(bucket, folder, cfg); err != nil {
		return c.finish(ctx, result, start, errors.NewError(OpUploadFolder, err).WithBucket(bucket).WithPath(folder))
	}

	absFolder, err := filepath.Abs(folder)
	if err != nil {
		return c.finish(ctx, result, start, errors.NewLocalIOError(OpUploadFolder, folder, err).WithBucket(bucket))
	}

	fs := c.filesystem()
	files, err := scanner.New(fs).ScanLocal(ctx, absFolder, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return c.finish(ctx, result, start, errors.NewError(OpUploadFolder, err).WithBucket(bucket))
	}

	continueOnError := c.continueOnError
	if cfg.ContinueOnError != nil {
		continueOnError = *cfg.ContinueOnError
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return c.finish(ctx, result, start, c.aggregate(OpUploadFolder, bucket, result, err))
		}

		transfer, err := c.uploadFolderFile(ctx, fs, bucket, absFolder, file.Path, cfg)
		if err != nil {
			result.Failures = append(result.Failures, s3types.Failure{LocalPath: file.Path, Key: transfer.Key, Err: err})
			if !continueOnError {
				return c.finish(ctx, result, start, errors.NewError(OpUploadFolder, err).WithBucket(bucket))
			}
			continue
		}
		result.Transfers = append(result.Transfers, transfer)
	}

	if len(result.Failures) > 0 {
		return c.finish(ctx, result, start, c.aggregate(OpUploadFolder, bucket, result, nil))
	}

	c.logger.InfoContext(ctx, "uploaded folder",
		"folder", absFolder,
		"destination", folderDestination(bucket, absFolder, cfg),
		"files", len(result.Transfers),
		"size", result.Bytes(),
	)
	return c.finish(ctx, result, start, nil)
}

func (c *Client) uploadFolderFile(
	ctx context.Context,
	fs billy.Filesystem,
	bucket, folder, path string,
	cfg *s3types.UploadOptionConfig,
) (s3types.Transfer, error) {
	key, err := pathmap.FolderUploadKey(folder, path, cfg.WholePath, cfg.Prefix)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to compute object key", "path", path, "error", err)
		return s3types.Transfer{LocalPath: path}, errors.NewValidationError(OpUploadFolder, err).WithPath(path)
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		c.logger.ErrorContext(ctx, "invalid object key", "path", path, "key", key, "error", err)
		return s3types.Transfer{LocalPath: path, Key: key}, err
	}
	return c.putFile(ctx, fs, bucket, path, key, cfg)
}

// folderDestination names where a folder upload landed: bucket/prefix, plus the
// folder's path when whole paths are used.
func folderDestination(bucket, folder string, cfg *s3types.UploadOptionConfig) string {
	dest := pathmap.ParseKey(bucket).Join(pathmap.ParseKey(cfg.Prefix))
	if cfg.WholePath {
		dest = dest.Join(pathmap.ParseLocal(folder))
	}
	return dest.Key()
}

// putFile uploads one local file and logs the outcome.
func (c *Client) putFile(
	ctx context.Context,
	fs billy.Filesystem,
	bucket, path, key string,
	cfg *s3types.UploadOptionConfig,
) (transfer s3types.Transfer, err error) {
	transfer = s3types.Transfer{LocalPath: path, Key: key}
	start := time.Now()
	defer func() {
		transfer.Duration = time.Since(start)
		c.metrics.ObserveTransfer(metrics.DirectionUpload, transfer.Size, transfer.Duration, err)
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to upload file",
				"bucket", bucket, "key", key, "path", path, "error", err)
			return
		}
		c.logger.InfoContext(ctx, "uploaded file",
			"bucket", bucket, "key", key, "path", path, "size", transfer.Size)
	}()

	info, err := fs.Stat(path)
	if err != nil {
		return transfer, errors.NewLocalIOError("stat", path, err)
	}
	if info.IsDir() {
		return transfer, errors.NewValidationError("stat", errors.ErrIsADirectory).WithPath(path)
	}

	file, err := fs.Open(path)
	if err != nil {
		return transfer, errors.NewLocalIOError("open", path, err)
	}
	defer file.Close()

	contentType := cfg.ContentType
	if contentType == "" {
		contentType, err = detectContentType(file, path)
		if err != nil {
			return transfer, errors.NewLocalIOError("read", path, err)
		}
	}

	etag, err := c.storage.Put(ctx, &s3types.PutInput{
		Bucket:       bucket,
		Key:          key,
		Body:         file,
		Size:         info.Size(),
		ContentType:  contentType,
		Metadata:     cfg.Metadata,
		StorageClass: cfg.StorageClass,
		Progress:     cfg.ProgressTracker,
	})
	if err != nil {
		return transfer, err
	}

	transfer.Size = info.Size()
	transfer.ETag = etag
	return transfer, nil
}

// detectContentType sniffs the file content and rewinds it, falling back to
// the extension when the content is not recognised.
func detectContentType(file billy.File, path string) (string, error) {
	mt, err := mimetype.DetectReader(file)
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", seekErr
	}
	if err == nil && mt != nil && !mt.Is(DefaultContentType) {
		return mt.String(), nil
	}
	return contentTypeFromExtension(path), nil
}

func contentTypeFromExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}

// DownloadFile downloads a single object.
//
// The file is written into the working directory, or the directory set with
// WithLocalPath. Only the key's last segment is used as the file name unless
// WithKeyPath is set; WithFileName replaces the file name. Missing parent
// directories are created. A failed download leaves any existing file at the
// destination untouched.
func (c *Client) DownloadFile(
	ctx context.Context,
	bucket, key string,
	opts ...s3types.DownloadOption,
) (*s3types.TransferResult, error) {
	start := time.Now()
	result := &s3types.TransferResult{Op: OpDownloadFile, Bucket: bucket}
	cfg := applyDownloadOptions(opts)

	if err := validateDownloadFile(bucket, key, cfg); err != nil {
		return c.finish(ctx, result, start, errors.NewError(OpDownloadFile, err).WithBucket(bucket).WithKey(key))
	}

	var cwd string
	if cfg.LocalPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return c.finish(ctx, result, start, errors.NewLocalIOError(OpDownloadFile, ".", err).WithBucket(bucket))
		}
		cwd = wd
	}

	localPath := pathmap.DownloadLocalPath(key, cfg.LocalPath, cfg.KeyPath, cfg.FileName, cwd)
	absPath, err := filepath.Abs(localPath)
	if err != nil {
		return c.finish(ctx, result, start, errors.NewLocalIOError(OpDownloadFile, localPath, err).WithBucket(bucket))
	}

	transfer, err := c.getFile(ctx, c.filesystem(), bucket, key, absPath, cfg.ProgressTracker)
	if err != nil {
		result.Failures = append(result.Failures, s3types.Failure{LocalPath: absPath, Key: key, Err: err})
		return c.finish(ctx, result, start, errors.NewError(OpDownloadFile, err).WithBucket(bucket).WithKey(key))
	}

	result.Transfers = append(result.Transfers, transfer)
	return c.finish(ctx, result, start, nil)
}

// DownloadFolder downloads every object whose key starts with prefix into localDir.
//
// Each object is written to localDir joined with the key relative to the
// prefix. Keys ending in "/" are directory markers and are skipped. An empty
// listing is logged and is not an error.
//
// By default the download stops at the first failed object. With
// continue-on-error every object is attempted and the returned error joins
// all failures.
func (c *Client) DownloadFolder(
	ctx context.Context,
	bucket, prefix, localDir string,
	opts ...s3types.DownloadOption,
) (*s3types.TransferResult, error) {
	start := time.Now()
	result := &s3types.TransferResult{Op: OpDownloadFolder, Bucket: bucket}
	cfg := applyDownloadOptions(opts)

	if err := validateDownloadFolder(bucket, localDir); err != nil {
		return c.finish(ctx, result, start, errors.NewError(OpDownloadFolder, err).WithBucket(bucket).WithPath(localDir))
	}

	absDir, err := filepath.Abs(localDir)
	if err != nil {
		return c.finish(ctx, result, start, errors.NewLocalIOError(OpDownloadFolder, localDir, err).WithBucket(bucket))
	}

	objects, err := c.storage.List(ctx, bucket, prefix)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to list objects", "bucket", bucket, "prefix", prefix, "error", err)
		return c.finish(ctx, result, start, errors.NewError(OpDownloadFolder, err).WithBucket(bucket))
	}
	if len(objects) == 0 {
		c.logger.InfoContext(ctx, "no objects found", "bucket", bucket, "prefix", prefix)
		return c.finish(ctx, result, start, nil)
	}

	continueOnError := c.continueOnError
	if cfg.ContinueOnError != nil {
		continueOnError = *cfg.ContinueOnError
	}

	fs := c.filesystem()
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return c.finish(ctx, result, start, c.aggregate(OpDownloadFolder, bucket, result, err))
		}
		if strings.HasSuffix(obj.Key, "/") {
			c.logger.DebugContext(ctx, "skipping directory marker", "bucket", bucket, "key", obj.Key)
			continue
		}

		transfer, err := c.downloadFolderObject(ctx, fs, bucket, obj.Key, prefix, absDir, cfg.ProgressTracker)
		if err != nil {
			result.Failures = append(result.Failures, s3types.Failure{LocalPath: transfer.LocalPath, Key: obj.Key, Err: err})
			if !continueOnError {
				return c.finish(ctx, result, start, errors.NewError(OpDownloadFolder, err).WithBucket(bucket).WithKey(obj.Key))
			}
			continue
		}
		result.Transfers = append(result.Transfers, transfer)
	}

	if len(result.Failures) > 0 {
		return c.finish(ctx, result, start, c.aggregate(OpDownloadFolder, bucket, result, nil))
	}

	c.logger.InfoContext(ctx, "downloaded folder",
		"bucket", bucket,
		"prefix", prefix,
		"path", absDir,
		"files", len(result.Transfers),
		"size", result.Bytes(),
	)
	return c.finish(ctx, result, start, nil)
}

func (c *Client) downloadFolderObject(
	ctx context.Context,
	fs billy.Filesystem,
	bucket, key, prefix, localDir string,
	progress s3types.ProgressTracker,
) (s3types.Transfer, error) {
	localPath, err := pathmap.FolderDownloadLocalPath(key, prefix, localDir)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to compute local path", "bucket", bucket, "key", key, "error", err)
		return s3types.Transfer{Key: key}, errors.NewValidationError(OpDownloadFolder, err).WithKey(key)
	}
	return c.getFile(ctx, fs, bucket, key, localPath, progress)
}

// getFile downloads one object into path and logs the outcome.
func (c *Client) getFile(
	ctx context.Context,
	fs billy.Filesystem,
	bucket, key, path string,
	progress s3types.ProgressTracker,
) (transfer s3types.Transfer, err error) {
	transfer = s3types.Transfer{LocalPath: path, Key: key}
	start := time.Now()
	defer func() {
		transfer.Duration = time.Since(start)
		c.metrics.ObserveTransfer(metrics.DirectionDownload, transfer.Size, transfer.Duration, err)
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to download file",
				"bucket", bucket, "key", key, "path", path, "error", err)
			return
		}
		c.logger.InfoContext(ctx, "downloaded file",
			"bucket", bucket, "key", key, "path", path, "size", transfer.Size)
	}()

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return transfer, errors.NewLocalIOError("mkdir", dir, err)
	}

	// The object is written next to its destination and renamed into place,
	// so an existing file survives a failed download.
	tmp, tmpPath, err := createPartial(fs, path)
	if err != nil {
		return transfer, errors.NewLocalIOError("create", path, err)
	}

	n, err := c.storage.Get(ctx, bucket, key, tmp, progress)
	closeErr := tmp.Close()
	if err != nil {
		_ = fs.Remove(tmpPath)
		return transfer, err
	}
	if closeErr != nil {
		_ = fs.Remove(tmpPath)
		return transfer, errors.NewLocalIOError("close", tmpPath, closeErr)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		_ = fs.Remove(tmpPath)
		return transfer, errors.NewLocalIOError("rename", path, err)
	}

	transfer.Size = n
	return transfer, nil
}

// createPartial creates an exclusive hidden file beside path, using the
// regular 0666 creation mode.
func createPartial(fs billy.Filesystem, path string) (billy.File, string, error) {
	dir, base := filepath.Split(path)
	for attempt := 0; ; attempt++ {
		name := filepath.Join(dir, fmt.Sprintf(".%s.%d.part", base, time.Now().UnixNano()+int64(attempt)))
		f, err := fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
		if err == nil {
			return f, name, nil
		}
		if !stderrors.Is(err, os.ErrExist) || attempt >= 10 {
			return nil, "", err
		}
	}
}

// aggregate joins the recorded failures, plus cause when set, into one error.
func (c *Client) aggregate(op, bucket string, result *s3types.TransferResult, cause error) error {
	errs := make([]error, 0, len(result.Failures)+1)
	for _, f := range result.Failures {
		errs = append(errs, f.Err)
	}
	if cause != nil {
		errs = append(errs, cause)
	}
	return errors.NewError(op, stderrors.Join(errs...)).WithBucket(bucket)
}

// finish stamps the result, records the operation and returns the result with err.
func (c *Client) finish(
	ctx context.Context,
	result *s3types.TransferResult,
	start time.Time,
	err error,
) (*s3types.TransferResult, error) {
	result.Duration = time.Since(start)
	c.metrics.ObserveOperation(result.Op, err)
	if err != nil {
		c.logger.DebugContext(ctx, "transfer finished with errors",
			"op", result.Op, "transferred", len(result.Transfers), "failed", len(result.Failures), "error", err)
		return result, err
	}
	return result, nil
}

func applyUploadOptions(opts []s3types.UploadOption) *s3types.UploadOptionConfig {
	cfg := &s3types.UploadOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func applyDownloadOptions(opts []s3types.DownloadOption) *s3types.DownloadOptionConfig {
	cfg := &s3types.DownloadOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func validateUpload(bucket, localPath string, cfg *s3types.UploadOptionConfig) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return err
	}
	if localPath == "" {
		return errors.NewValidationError("validateUpload", errors.ErrInvalidInput).
			WithMessage("local path cannot be empty")
	}
	if cfg.ObjectName != "" {
		if err := validation.ValidateFileName(cfg.ObjectName); err != nil {
			return err
		}
	}
	if err := validation.ValidateMetadata(cfg.Metadata); err != nil {
		return err
	}
	if cfg.ContentType != "" {
		if err := validation.ValidateContentType(cfg.ContentType); err != nil {
			return err
		}
	}
	return nil
}

func validateDownloadFile(bucket, key string, cfg *s3types.DownloadOptionConfig) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return err
	}
	if cfg.FileName != "" {
		if err := validation.ValidateFileName(cfg.FileName); err != nil {
			return err
		}
	}
	return nil
}

func validateDownloadFolder(bucket, localDir string) error {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return err
	}
	if localDir == "" {
		return errors.NewValidationError("validateDownload", errors.ErrInvalidInput).
			WithMessage("local directory cannot be empty")
	}
	return nil
}
