// Package download handles S3 object download operations.
//
// Objects are streamed into an io.Writer, with optional progress tracking,
// so large objects never have to fit in memory.
package download
