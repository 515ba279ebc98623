// Package upload handles S3 object upload operations.
//
// Objects are written with a single PutObject call; the body is streamed
// from the caller's reader with an explicit content length.
package upload
