// Package pool provides reusable copy buffers for streaming object bodies
// to and from the local filesystem.
package pool
