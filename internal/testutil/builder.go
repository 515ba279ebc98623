package testutil

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// StorageBuilder provides a fluent interface for building MemoryStorage instances.
type StorageBuilder struct {
	storage *MemoryStorage
}

// NewStorageBuilder creates a new StorageBuilder.
func NewStorageBuilder() *StorageBuilder {
	return &StorageBuilder{
		storage: NewMemoryStorage(),
	}
}

// WithObject seeds an object.
func (b *StorageBuilder) WithObject(bucket, key, content string) *StorageBuilder {
	b.storage.SetObject(bucket, key, []byte(content))
	return b
}

// WithPutError makes uploads of key fail.
func (b *StorageBuilder) WithPutError(key string, err error) *StorageBuilder {
	b.storage.FailPut(key, err)
	return b
}

// WithGetError makes downloads of key fail.
func (b *StorageBuilder) WithGetError(key string, err error) *StorageBuilder {
	b.storage.FailGet(key, err)
	return b
}

// WithListError makes listings fail.
func (b *StorageBuilder) WithListError(err error) *StorageBuilder {
	b.storage.FailList(err)
	return b
}

// Build returns the configured MemoryStorage.
func (b *StorageBuilder) Build() *MemoryStorage {
	return b.storage
}

// FilesystemBuilder builds an in-memory filesystem fixture.
type FilesystemBuilder struct {
	fs  billy.Filesystem
	err error
}

// NewFilesystemBuilder creates a builder over an empty memfs.
func NewFilesystemBuilder() *FilesystemBuilder {
	return &FilesystemBuilder{fs: memfs.New()}
}

// WithFile writes content to path, creating parent directories.
func (b *FilesystemBuilder) WithFile(path, content string) *FilesystemBuilder {
	if b.err == nil {
		b.err = util.WriteFile(b.fs, path, []byte(content), 0o644)
	}
	return b
}

// WithDir creates an empty directory.
func (b *FilesystemBuilder) WithDir(path string) *FilesystemBuilder {
	if b.err == nil {
		b.err = b.fs.MkdirAll(path, 0o755)
	}
	return b
}

// Build returns the filesystem and the first error hit while building it.
func (b *FilesystemBuilder) Build() (billy.Filesystem, error) {
	return b.fs, b.err
}
