// Package storage provides the s3types.Storage implementations used by the
// transfer client: one backed by the AWS SDK v2 and one backed by MinIO.
package storage
