// Package internal contains private implementation details for the s3transfer module.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - pathmap: Pure mapping between local paths and object keys
//   - scanner: Local folder walking with include/exclude patterns
//   - operations: S3 API calls (upload, download, list) and error classification
//   - storage: s3types.Storage backends for the AWS SDK and MinIO
//   - pool: Reusable copy buffers
//   - validation: Input validation logic
//   - metrics: Prometheus transfer collectors
//   - config: File, environment and .env configuration for the CLI
//   - testutil: Mocks, in-memory storage and LocalStack helpers
package internal
