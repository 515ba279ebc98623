// Package operations contains the core S3 operation implementations.
// These functions handle the low-level AWS SDK interactions behind the
// AWS storage backend: upload, download and list.
//
// Each operation is isolated into its own subpackage for better organization
// and testability. This package holds the error classification they share.
package operations
