package testutil

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// PutRecord captures one call to MemoryStorage.Put.
type PutRecord struct {
	Bucket       string
	Key          string
	Size         int64
	ContentType  string
	Metadata     map[string]string
	StorageClass s3types.StorageClass
}

// MemoryStorage is an in-memory s3types.Storage that records every call.
// Failures can be injected per key.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []PutRecord
	gets    []string
	lists   []string
	putErrs map[string]error
	getErrs map[string]error
	listErr error
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
		putErrs: make(map[string]error),
		getErrs: make(map[string]error),
	}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

// Put stores the body under bucket/key.
func (m *MemoryStorage) Put(_ context.Context, in *s3types.PutInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts = append(m.puts, PutRecord{
		Bucket:       in.Bucket,
		Key:          in.Key,
		Size:         in.Size,
		ContentType:  in.ContentType,
		Metadata:     in.Metadata,
		StorageClass: in.StorageClass,
	})

	if err := m.putErrs[in.Key]; err != nil {
		return "", errors.NewClientError("upload", in.Bucket, in.Key, err)
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return "", errors.NewClientError("upload", in.Bucket, in.Key, err)
	}
	m.objects[objectID(in.Bucket, in.Key)] = data

	if in.Progress != nil {
		in.Progress.Update(int64(len(data)), in.Size)
		in.Progress.Complete()
	}
	return CalculateETag(data), nil
}

// Get writes the stored object into w.
func (m *MemoryStorage) Get(
	_ context.Context,
	bucket, key string,
	w io.Writer,
	progress s3types.ProgressTracker,
) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets = append(m.gets, key)

	if err := m.getErrs[key]; err != nil {
		return 0, errors.NewClientError("download", bucket, key, err)
	}
	data, ok := m.objects[objectID(bucket, key)]
	if !ok {
		return 0, errors.NewClientError("download", bucket, key, errors.ErrObjectNotFound)
	}

	n, err := w.Write(data)
	if err != nil {
		return int64(n), errors.NewClientError("download", bucket, key, err)
	}
	if progress != nil {
		progress.Update(int64(n), int64(len(data)))
		progress.Complete()
	}
	return int64(n), nil
}

// List returns the stored objects of bucket whose keys start with prefix, sorted by key.
func (m *MemoryStorage) List(_ context.Context, bucket, prefix string) ([]s3types.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lists = append(m.lists, prefix)

	if m.listErr != nil {
		return nil, errors.NewClientError("list", bucket, prefix, m.listErr)
	}

	var out []s3types.Object
	for id, data := range m.objects {
		key, found := strings.CutPrefix(id, bucket+"/")
		if !found || !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, s3types.Object{Key: key, Size: int64(len(data)), ETag: CalculateETag(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// SetObject stores content under bucket/key without recording a put.
func (m *MemoryStorage) SetObject(bucket, key string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(bucket, key)] = content
}

// Object returns the content stored under bucket/key.
func (m *MemoryStorage) Object(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[objectID(bucket, key)]
	return data, ok
}

// FailPut makes every Put of key fail with err.
func (m *MemoryStorage) FailPut(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErrs[key] = err
}

// FailGet makes every Get of key fail with err.
func (m *MemoryStorage) FailGet(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErrs[key] = err
}

// FailList makes every List fail with err.
func (m *MemoryStorage) FailList(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// Puts returns the recorded Put calls in order.
func (m *MemoryStorage) Puts() []PutRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PutRecord(nil), m.puts...)
}

// PutKeys returns the keys of the recorded Put calls in order.
func (m *MemoryStorage) PutKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.puts))
	for _, p := range m.puts {
		keys = append(keys, p.Key)
	}
	return keys
}

// GetKeys returns the keys of the recorded Get calls in order.
func (m *MemoryStorage) GetKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.gets...)
}

// Lists returns the prefixes of the recorded List calls in order.
func (m *MemoryStorage) Lists() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lists...)
}

// Ensure MemoryStorage implements Storage
var _ s3types.Storage = (*MemoryStorage)(nil)
