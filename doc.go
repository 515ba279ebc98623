// Package s3transfer uploads and downloads files and folders to and from
// S3-compatible object storage.
//
// It computes object keys from local paths and local paths from object keys,
// then delegates the byte movement to a storage backend (AWS SDK v2 or MinIO).
// Every entry point returns a TransferResult describing what was moved and an
// error describing what was not.
//
// Key features:
//   - Single-file and whole-folder transfers in both directions
//   - Keys built from the file name, the folder name or the whole local path
//   - Fail-fast folder operations, or continue-on-error with aggregated failures
//   - Content type detection, metadata and storage class on upload
//   - Structured logging with log/slog and optional Prometheus metrics
//
// Example usage:
//
//	client, err := s3transfer.New(ctx, s3transfer.WithProfile("default"))
//	if err != nil {
//	    return err
//	}
//
//	// Upload ./reports as backup/reports/...
//	result, err := client.UploadFolder(ctx, "my-bucket", "./reports",
//	    s3transfer.WithPrefix("backup"),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("uploaded %d files\n", len(result.Transfers))
package s3transfer
