// Package list handles S3 object listing operations.
// Listings follow continuation tokens through the SDK paginator until every
// key under the prefix has been returned.
package list
