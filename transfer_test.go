package s3transfer

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

const testBucket = "test-bucket"

// newTestClient returns a client over in-memory storage and an in-memory filesystem
// seeded with files, plus a buffer receiving its JSON logs.
func newTestClient(
	t *testing.T,
	files map[string]string,
	opts ...s3types.Option,
) (*Client, *testutil.MemoryStorage, billy.Filesystem, *bytes.Buffer) {
	t.Helper()

	builder := testutil.NewFilesystemBuilder()
	for path, content := range files {
		builder.WithFile(path, content)
	}
	fs, err := builder.Build()
	require.NoError(t, err)
	store := testutil.NewMemoryStorage()

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	opts = append([]s3types.Option{WithFilesystem(fs), WithLogger(logger)}, opts...)
	return NewWithStorage(store, opts...), store, fs, &logs
}

func TestUploadFile(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		opts    []s3types.UploadOption
		wantKey string
	}{
		{
			name:    "file name under prefix",
			path:    "/x/y/report.csv",
			opts:    []s3types.UploadOption{WithPrefix("data")},
			wantKey: "data/report.csv",
		},
		{
			name:    "no prefix",
			path:    "/x/y/report.csv",
			wantKey: "report.csv",
		},
		{
			name:    "explicit object name",
			path:    "/x/y/report.csv",
			opts:    []s3types.UploadOption{WithPrefix("data"), WithObjectName("final.csv")},
			wantKey: "data/final.csv",
		},
		{
			name:    "whole path",
			path:    "/x/y/report.csv",
			opts:    []s3types.UploadOption{WithPrefix("data"), WithWholePath(true)},
			wantKey: "data/x/y/report.csv",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, store, _, _ := newTestClient(t, map[string]string{"/x/y/report.csv": "a,b\n1,2\n"})

			result, err := client.UploadFile(context.Background(), testBucket, tt.path, tt.opts...)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, OpUploadFile, result.Op)
			assert.Equal(t, testBucket, result.Bucket)
			require.Len(t, result.Transfers, 1)
			assert.Equal(t, tt.wantKey, result.Transfers[0].Key)
			assert.Equal(t, "/x/y/report.csv", result.Transfers[0].LocalPath)
			assert.Equal(t, int64(8), result.Transfers[0].Size)
			assert.NotEmpty(t, result.Transfers[0].ETag)
			assert.Empty(t, result.Failures)
			assert.Equal(t, int64(8), result.Bytes())

			assert.Equal(t, []string{tt.wantKey}, store.PutKeys())
			data, ok := store.Object(testBucket, tt.wantKey)
			require.True(t, ok)
			assert.Equal(t, "a,b\n1,2\n", string(data))
		})
	}
}

func TestUploadFile_RelativeWholePath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	client, store, _, _ := newTestClient(t, map[string]string{
		filepath.Join(wd, "data", "x", "report.csv"): "r",
	})

	result, err := client.UploadFile(context.Background(), testBucket, "data/x/report.csv",
		WithPrefix("p"), WithWholePath(true))
	require.NoError(t, err)

	assert.Equal(t, []string{"p/data/x/report.csv"}, store.PutKeys())
	assert.Equal(t, filepath.Join(wd, "data", "x", "report.csv"), result.Transfers[0].LocalPath)
}

func TestUploadFile_PutInput(t *testing.T) {
	client, store, _, _ := newTestClient(t, map[string]string{
		"/in/doc.json": `{"a":1}`,
		"/in/raw.txt":  "plain text content",
	})
	tracker := &testutil.MockProgressTracker{}

	_, err := client.UploadFile(context.Background(), testBucket, "/in/doc.json",
		WithMetadata(map[string]string{"owner": "ops"}),
		WithStorageClass(s3types.StorageClassStandardIA),
		WithProgress(tracker),
	)
	require.NoError(t, err)

	_, err = client.UploadFile(context.Background(), testBucket, "/in/raw.txt",
		WithContentType("text/markdown"))
	require.NoError(t, err)

	puts := store.Puts()
	require.Len(t, puts, 2)

	assert.Equal(t, "application/json", puts[0].ContentType)
	assert.Equal(t, map[string]string{"owner": "ops"}, puts[0].Metadata)
	assert.Equal(t, s3types.StorageClassStandardIA, puts[0].StorageClass)
	assert.Equal(t, int64(7), puts[0].Size)
	assert.True(t, tracker.CompleteCalled)

	assert.Equal(t, "text/markdown", puts[1].ContentType)

	data, ok := store.Object(testBucket, "doc.json")
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(data), "content detection must not consume the body")
}

func TestUploadFile_Errors(t *testing.T) {
	t.Run("invalid bucket", func(t *testing.T) {
		client, store, _, _ := newTestClient(t, map[string]string{"/a.txt": "a"})
		result, err := client.UploadFile(context.Background(), "Bad_Bucket", "/a.txt")
		require.Error(t, err)
		require.NotNil(t, result)
		assert.True(t, errors.IsInvalidInput(err))
		assert.Empty(t, store.Puts())
	})

	t.Run("empty local path", func(t *testing.T) {
		client, _, _, _ := newTestClient(t, nil)
		_, err := client.UploadFile(context.Background(), testBucket, "")
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})

	t.Run("object name with separator", func(t *testing.T) {
		client, _, _, _ := newTestClient(t, map[string]string{"/a.txt": "a"})
		_, err := client.UploadFile(context.Background(), testBucket, "/a.txt", WithObjectName("x/y.txt"))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})

	t.Run("missing file", func(t *testing.T) {
		client, store, _, logs := newTestClient(t, nil)
		result, err := client.UploadFile(context.Background(), testBucket, "/missing.txt")
		require.Error(t, err)
		assert.True(t, errors.IsLocalIOFault(err))
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "missing.txt", result.Failures[0].Key)
		assert.Empty(t, store.Puts())
		assert.Contains(t, logs.String(), "failed to upload file")
	})

	t.Run("directory", func(t *testing.T) {
		client, _, _, _ := newTestClient(t, map[string]string{"/dir/a.txt": "a"})
		_, err := client.UploadFile(context.Background(), testBucket, "/dir")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrIsADirectory)
	})

	t.Run("storage failure", func(t *testing.T) {
		client, store, _, _ := newTestClient(t, map[string]string{"/a.txt": "a"})
		store.FailPut("a.txt", errors.ErrAccessDenied)

		result, err := client.UploadFile(context.Background(), testBucket, "/a.txt")
		require.Error(t, err)
		assert.True(t, errors.IsClientFault(err))
		assert.True(t, errors.IsAccessDenied(err))
		assert.Empty(t, result.Transfers)
		require.Len(t, result.Failures, 1)
	})
}

func TestUploadFolder(t *testing.T) {
	client, store, _, logs := newTestClient(t, map[string]string{
		"/fixture/root/sub/a.txt": "a",
		"/fixture/root/sub/b.txt": "bb",
	})

	result, err := client.UploadFolder(context.Background(), testBucket, "/fixture/root/sub", WithPrefix("backup"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"backup/sub/a.txt", "backup/sub/b.txt"}, store.PutKeys())
	assert.Len(t, result.Transfers, 2)
	assert.Equal(t, int64(3), result.Bytes())
	assert.Contains(t, logs.String(), "uploaded folder")
	assert.Contains(t, logs.String(), testBucket+"/backup")
}

func TestUploadFolder_KeyLayout(t *testing.T) {
	files := map[string]string{
		"/fixture/root/a.txt":        "a",
		"/fixture/root/sub/b.txt":    "b",
		"/fixture/root/sub/de/c.bin": "c",
	}

	tests := []struct {
		name string
		opts []s3types.UploadOption
		want []string
	}{
		{
			name: "folder name first",
			opts: []s3types.UploadOption{WithPrefix("backup")},
			want: []string{"backup/root/a.txt", "backup/root/sub/b.txt", "backup/root/sub/de/c.bin"},
		},
		{
			name: "no prefix",
			want: []string{"root/a.txt", "root/sub/b.txt", "root/sub/de/c.bin"},
		},
		{
			name: "whole path",
			opts: []s3types.UploadOption{WithPrefix("backup"), WithWholePath(true)},
			want: []string{
				"backup/fixture/root/a.txt",
				"backup/fixture/root/sub/b.txt",
				"backup/fixture/root/sub/de/c.bin",
			},
		},
		{
			name: "include pattern",
			opts: []s3types.UploadOption{WithIncludePatterns("*.txt")},
			want: []string{"root/a.txt", "root/sub/b.txt"},
		},
		{
			name: "exclude pattern",
			opts: []s3types.UploadOption{WithExcludePatterns("sub/")},
			want: []string{"root/a.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, store, _, _ := newTestClient(t, files)
			_, err := client.UploadFolder(context.Background(), testBucket, "/fixture/root/", tt.opts...)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, store.PutKeys())
			for _, key := range store.PutKeys() {
				assert.NotContains(t, key, `\`)
			}
		})
	}
}

func TestUploadFolder_Empty(t *testing.T) {
	client, store, fs, _ := newTestClient(t, nil)
	require.NoError(t, fs.MkdirAll("/empty", 0o755))

	result, err := client.UploadFolder(context.Background(), testBucket, "/empty", WithPrefix("p"))
	require.NoError(t, err)
	assert.Empty(t, result.Transfers)
	assert.Empty(t, result.Failures)
	assert.Empty(t, store.Puts())
}

func TestUploadFolder_Idempotent(t *testing.T) {
	client, store, _, _ := newTestClient(t, map[string]string{
		"/r/x/1.txt": "1",
		"/r/x/2.txt": "2",
		"/r/x/y/3":   "3",
	})

	_, err := client.UploadFolder(context.Background(), testBucket, "/r/x", WithPrefix("p"))
	require.NoError(t, err)
	first := store.PutKeys()

	_, err = client.UploadFolder(context.Background(), testBucket, "/r/x", WithPrefix("p"))
	require.NoError(t, err)
	all := store.PutKeys()

	require.Len(t, all, 2*len(first))
	assert.ElementsMatch(t, first, all[len(first):])
}

func TestUploadFolder_FailFast(t *testing.T) {
	client, store, _, logs := newTestClient(t, map[string]string{
		"/f/d/1.txt": "1",
		"/f/d/2.txt": "2",
		"/f/d/3.txt": "3",
	})
	store.FailPut("d/2.txt", errors.ErrAccessDenied)

	result, err := client.UploadFolder(context.Background(), testBucket, "/f/d")
	require.Error(t, err)
	assert.True(t, errors.IsAccessDenied(err))

	// Files are walked in lexical order, so 3.txt is never attempted.
	assert.Equal(t, []string{"d/1.txt", "d/2.txt"}, store.PutKeys())
	require.Len(t, result.Transfers, 1)
	assert.Equal(t, "d/1.txt", result.Transfers[0].Key)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "d/2.txt", result.Failures[0].Key)

	_, ok := store.Object(testBucket, "d/1.txt")
	assert.True(t, ok, "already uploaded files are not rolled back")
	assert.Contains(t, logs.String(), "failed to upload file")
}

func TestUploadFolder_ContinueOnError(t *testing.T) {
	files := map[string]string{
		"/f/d/1.txt": "1",
		"/f/d/2.txt": "2",
		"/f/d/3.txt": "3",
	}

	check := func(t *testing.T, store *testutil.MemoryStorage, result *s3types.TransferResult, err error) {
		t.Helper()
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrAccessDenied)
		assert.ErrorIs(t, err, errors.ErrObjectNotFound)
		assert.Equal(t, []string{"d/1.txt", "d/2.txt", "d/3.txt"}, store.PutKeys())
		assert.Len(t, result.Transfers, 1)
		assert.Len(t, result.Failures, 2)
	}

	t.Run("client option", func(t *testing.T) {
		client, store, _, _ := newTestClient(t, files, WithContinueOnError(true))
		store.FailPut("d/1.txt", errors.ErrAccessDenied)
		store.FailPut("d/3.txt", errors.ErrObjectNotFound)

		result, err := client.UploadFolder(context.Background(), testBucket, "/f/d")
		check(t, store, result, err)
	})

	t.Run("per call option", func(t *testing.T) {
		client, store, _, _ := newTestClient(t, files)
		store.FailPut("d/1.txt", errors.ErrAccessDenied)
		store.FailPut("d/3.txt", errors.ErrObjectNotFound)

		result, err := client.UploadFolder(context.Background(), testBucket, "/f/d", WithUploadContinueOnError(true))
		check(t, store, result, err)
	})
}

func TestUploadFolder_Errors(t *testing.T) {
	t.Run("missing folder", func(t *testing.T) {
		client, _, _, _ := newTestClient(t, nil)
		_, err := client.UploadFolder(context.Background(), testBucket, "/nope")
		require.Error(t, err)
		assert.True(t, errors.IsLocalIOFault(err))
	})

	t.Run("not a directory", func(t *testing.T) {
		client, _, _, _ := newTestClient(t, map[string]string{"/file.txt": "x"})
		_, err := client.UploadFolder(context.Background(), testBucket, "/file.txt")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNotADirectory)
	})

	t.Run("cancelled context", func(t *testing.T) {
		client, store, _, _ := newTestClient(t, map[string]string{"/d/a.txt": "a"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.UploadFolder(ctx, testBucket, "/d")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, store.Puts())
	})
}

func TestDownloadFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name     string
		key      string
		opts     []s3types.DownloadOption
		wantPath string
	}{
		{
			name:     "file name into working directory",
			key:      "folder/file.txt",
			wantPath: filepath.Join(wd, "file.txt"),
		},
		{
			name:     "key path into working directory",
			key:      "folder/file.txt",
			opts:     []s3types.DownloadOption{WithKeyPath(true)},
			wantPath: filepath.Join(wd, "folder", "file.txt"),
		},
		{
			name:     "into local path",
			key:      "folder/file.txt",
			opts:     []s3types.DownloadOption{WithLocalPath("/dl")},
			wantPath: "/dl/file.txt",
		},
		{
			name:     "key path into local path",
			key:      "folder/file.txt",
			opts:     []s3types.DownloadOption{WithLocalPath("/dl"), WithKeyPath(true)},
			wantPath: "/dl/folder/file.txt",
		},
		{
			name:     "renamed",
			key:      "folder/file.txt",
			opts:     []s3types.DownloadOption{WithLocalPath("/dl"), WithFileName("other.txt")},
			wantPath: "/dl/other.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, store, fs, logs := newTestClient(t, nil)
			store.SetObject(testBucket, tt.key, []byte("content"))

			result, err := client.DownloadFile(context.Background(), testBucket, tt.key, tt.opts...)
			require.NoError(t, err)

			require.Len(t, result.Transfers, 1)
			assert.Equal(t, tt.wantPath, result.Transfers[0].LocalPath)
			assert.Equal(t, int64(7), result.Transfers[0].Size)
			assert.Equal(t, "content", testutil.ReadFile(t, fs, tt.wantPath))
			assert.Contains(t, logs.String(), "downloaded file")
		})
	}
}

func TestDownloadFile_Progress(t *testing.T) {
	client, store, _, _ := newTestClient(t, nil)
	store.SetObject(testBucket, "k.bin", []byte("12345"))
	tracker := &testutil.MockProgressTracker{}

	_, err := client.DownloadFile(context.Background(), testBucket, "k.bin",
		WithLocalPath("/dl"), WithDownloadProgress(tracker))
	require.NoError(t, err)
	assert.True(t, tracker.CompleteCalled)
	assert.Equal(t, int64(5), tracker.BytesTransferred)
}

func TestDownloadFile_ExistingDirectories(t *testing.T) {
	client, store, fs, _ := newTestClient(t, nil)
	require.NoError(t, fs.MkdirAll("/dl/a/b", 0o755))
	store.SetObject(testBucket, "a/b/c.txt", []byte("c"))

	_, err := client.DownloadFile(context.Background(), testBucket, "a/b/c.txt",
		WithLocalPath("/dl"), WithKeyPath(true))
	require.NoError(t, err)
	assert.Equal(t, "c", testutil.ReadFile(t, fs, "/dl/a/b/c.txt"))
}

func TestDownloadFile_Errors(t *testing.T) {
	t.Run("missing object", func(t *testing.T) {
		client, _, fs, logs := newTestClient(t, nil)

		result, err := client.DownloadFile(context.Background(), testBucket, "nope.txt", WithLocalPath("/dl"))
		require.Error(t, err)
		assert.True(t, errors.IsObjectNotFound(err))
		assert.True(t, errors.IsClientFault(err))
		require.Len(t, result.Failures, 1)
		assert.Empty(t, result.Transfers)

		_, statErr := fs.Stat("/dl/nope.txt")
		assert.True(t, os.IsNotExist(statErr), "failed download must not leave a file behind")
		assert.Contains(t, logs.String(), "failed to download file")
	})

	t.Run("invalid key", func(t *testing.T) {
		client, store, _, _ := newTestClient(t, nil)
		_, err := client.DownloadFile(context.Background(), testBucket, "")
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
		assert.Empty(t, store.GetKeys())
	})

	t.Run("file name with separator", func(t *testing.T) {
		client, _, _, _ := newTestClient(t, nil)
		_, err := client.DownloadFile(context.Background(), testBucket, "a.txt", WithFileName("../a.txt"))
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
	})
}

func TestDownloadFolder(t *testing.T) {
	client, store, fs, _ := newTestClient(t, nil)
	store.SetObject(testBucket, "reports/2024/jan.csv", []byte("jan"))
	store.SetObject(testBucket, "reports/2024/feb.csv", []byte("feb"))
	store.SetObject(testBucket, "reports/summary.txt", []byte("sum"))
	store.SetObject(testBucket, "reports/2024/", nil)
	store.SetObject(testBucket, "other/x.txt", []byte("x"))

	result, err := client.DownloadFolder(context.Background(), testBucket, "reports", "/dl")
	require.NoError(t, err)

	assert.Equal(t, []string{"reports"}, store.Lists())
	assert.ElementsMatch(t, []string{"reports/2024/feb.csv", "reports/2024/jan.csv", "reports/summary.txt"},
		store.GetKeys(), "directory markers are skipped")
	assert.Len(t, result.Transfers, 3)
	assert.Equal(t, int64(9), result.Bytes())

	assert.Equal(t, []string{"/dl/2024/feb.csv", "/dl/2024/jan.csv", "/dl/summary.txt"}, testutil.ListFiles(t, fs, "/dl"))
	assert.Equal(t, "jan", testutil.ReadFile(t, fs, "/dl/2024/jan.csv"))
}

func TestDownloadFolder_Empty(t *testing.T) {
	client, store, _, logs := newTestClient(t, nil)
	store.SetObject(testBucket, "elsewhere/a.txt", []byte("a"))

	result, err := client.DownloadFolder(context.Background(), testBucket, "reports/", "/dl")
	require.NoError(t, err)
	assert.Empty(t, result.Transfers)
	assert.Empty(t, store.GetKeys())
	assert.Contains(t, logs.String(), "no objects found")
	assert.Contains(t, logs.String(), `"level":"INFO"`)
}

func TestDownloadFolder_TraversalStaysInside(t *testing.T) {
	client, store, fs, _ := newTestClient(t, nil)
	store.SetObject(testBucket, "p/../../escape.txt", []byte("e"))

	_, err := client.DownloadFolder(context.Background(), testBucket, "p", "/dl")
	require.NoError(t, err)
	assert.Equal(t, []string{"/dl/escape.txt"}, testutil.ListFiles(t, fs, "/dl"))
	_, statErr := fs.Stat("/escape.txt")
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloadFolder_FailurePolicy(t *testing.T) {
	seed := func(store *testutil.MemoryStorage) {
		store.SetObject(testBucket, "p/1.txt", []byte("1"))
		store.SetObject(testBucket, "p/2.txt", []byte("2"))
		store.SetObject(testBucket, "p/3.txt", []byte("3"))
		store.FailGet("p/2.txt", errors.ErrAccessDenied)
	}

	t.Run("fail fast by default", func(t *testing.T) {
		client, store, fs, _ := newTestClient(t, nil)
		seed(store)

		result, err := client.DownloadFolder(context.Background(), testBucket, "p", "/dl")
		require.Error(t, err)
		assert.True(t, errors.IsAccessDenied(err))
		assert.Equal(t, []string{"p/1.txt", "p/2.txt"}, store.GetKeys())
		assert.Len(t, result.Transfers, 1)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "p/2.txt", result.Failures[0].Key)
		assert.Equal(t, []string{"/dl/1.txt"}, testutil.ListFiles(t, fs, "/dl"))
	})

	t.Run("continue on error", func(t *testing.T) {
		client, store, fs, _ := newTestClient(t, nil)
		seed(store)

		result, err := client.DownloadFolder(context.Background(), testBucket, "p", "/dl",
			WithDownloadContinueOnError(true))
		require.Error(t, err)
		assert.True(t, errors.IsAccessDenied(err))
		assert.Equal(t, []string{"p/1.txt", "p/2.txt", "p/3.txt"}, store.GetKeys())
		assert.Len(t, result.Transfers, 2)
		assert.Len(t, result.Failures, 1)
		assert.Equal(t, []string{"/dl/1.txt", "/dl/3.txt"}, testutil.ListFiles(t, fs, "/dl"))
	})

	t.Run("per call override of client default", func(t *testing.T) {
		client, store, _, _ := newTestClient(t, nil, WithContinueOnError(true))
		seed(store)

		_, err := client.DownloadFolder(context.Background(), testBucket, "p", "/dl",
			WithDownloadContinueOnError(false))
		require.Error(t, err)
		assert.Equal(t, []string{"p/1.txt", "p/2.txt"}, store.GetKeys())
	})
}

func TestDownloadFolder_Errors(t *testing.T) {
	t.Run("list failure", func(t *testing.T) {
		client, store, _, _ := newTestClient(t, nil)
		store.FailList(errors.ErrBucketNotFound)

		result, err := client.DownloadFolder(context.Background(), testBucket, "p", "/dl")
		require.Error(t, err)
		assert.True(t, errors.IsBucketNotFound(err))
		assert.Empty(t, result.Transfers)
	})

	t.Run("empty local directory", func(t *testing.T) {
		client, store, _, _ := newTestClient(t, nil)
		_, err := client.DownloadFolder(context.Background(), testBucket, "p", "")
		require.Error(t, err)
		assert.True(t, errors.IsInvalidInput(err))
		assert.Empty(t, store.Lists())
	})

	t.Run("destination is a file", func(t *testing.T) {
		client, store, fs, _ := newTestClient(t, nil)
		require.NoError(t, util.WriteFile(fs, "/dl", []byte("file"), 0o644))
		store.SetObject(testBucket, "p/a.txt", []byte("a"))

		_, err := client.DownloadFolder(context.Background(), testBucket, "p", "/dl")
		require.Error(t, err)
		assert.True(t, errors.IsLocalIOFault(err))
	})
}

func TestTransferMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	client, store, _, _ := newTestClient(t, map[string]string{"/m/a.txt": "abc"}, WithMetrics(reg))
	store.SetObject(testBucket, "k", []byte("12"))

	_, err := client.UploadFile(context.Background(), testBucket, "/m/a.txt")
	require.NoError(t, err)
	_, err = client.DownloadFile(context.Background(), testBucket, "k", WithLocalPath("/out"))
	require.NoError(t, err)
	_, err = client.DownloadFile(context.Background(), testBucket, "missing", WithLocalPath("/out"))
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "s3transfer_bytes_total")
	assert.Contains(t, names, "s3transfer_objects_total")
	assert.Contains(t, names, "s3transfer_operations_total")
	count, err := promtestutil.GatherAndCount(reg, "s3transfer_objects_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestFailureErrorsAreJoined(t *testing.T) {
	client, store, _, _ := newTestClient(t, map[string]string{"/j/x/a": "a", "/j/x/b": "b"},
		WithContinueOnError(true))
	store.FailPut("x/a", stderrors.New("first"))
	store.FailPut("x/b", stderrors.New("second"))

	_, err := client.UploadFolder(context.Background(), testBucket, "/j/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
	assert.True(t, errors.IsClientFault(err))
}

func TestDownloadFile_FailureKeepsExistingFile(t *testing.T) {
	tests := []struct {
		name  string
		store *testutil.MemoryStorage
	}{
		{
			name:  "missing object",
			store: testutil.NewStorageBuilder().Build(),
		},
		{
			name: "access denied",
			store: testutil.NewStorageBuilder().
				WithObject(testBucket, "data/report.csv", "fresh").
				WithGetError("data/report.csv", errors.ErrAccessDenied).
				Build(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := testutil.NewFilesystemBuilder().WithFile("/out/report.csv", "precious").Build()
			require.NoError(t, err)
			client := NewWithStorage(tt.store, WithFilesystem(fs))

			_, err = client.DownloadFile(context.Background(), testBucket, "data/report.csv", WithLocalPath("/out"))
			require.Error(t, err)

			assert.Equal(t, "precious", testutil.ReadFile(t, fs, "/out/report.csv"))
			assert.Equal(t, []string{"/out/report.csv"}, testutil.ListFiles(t, fs, "/out"),
				"no partial file is left behind")
		})
	}
}

func TestDownloadFile_ReplacesExistingFile(t *testing.T) {
	store := testutil.NewStorageBuilder().WithObject(testBucket, "data/report.csv", "fresh").Build()
	fs, err := testutil.NewFilesystemBuilder().WithFile("/out/report.csv", "stale content").Build()
	require.NoError(t, err)
	client := NewWithStorage(store, WithFilesystem(fs))

	result, err := client.DownloadFile(context.Background(), testBucket, "data/report.csv", WithLocalPath("/out"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Bytes())
	assert.Equal(t, "fresh", testutil.ReadFile(t, fs, "/out/report.csv"))
	assert.Equal(t, []string{"/out/report.csv"}, testutil.ListFiles(t, fs, "/out"))
}

func TestDownloadFolder_FailureKeepsExistingFiles(t *testing.T) {
	store := testutil.NewStorageBuilder().
		WithObject(testBucket, "p/a.txt", "new a").
		WithObject(testBucket, "p/b.txt", "new b").
		WithGetError("p/a.txt", errors.ErrAccessDenied).
		Build()
	fs, err := testutil.NewFilesystemBuilder().
		WithFile("/out/a.txt", "precious").
		Build()
	require.NoError(t, err)
	client := NewWithStorage(store, WithFilesystem(fs))

	result, err := client.DownloadFolder(context.Background(), testBucket, "p", "/out",
		WithDownloadContinueOnError(true))
	require.Error(t, err)
	assert.Len(t, result.Failures, 1)

	assert.Equal(t, "precious", testutil.ReadFile(t, fs, "/out/a.txt"))
	assert.Equal(t, "new b", testutil.ReadFile(t, fs, "/out/b.txt"))
	assert.Equal(t, []string{"/out/a.txt", "/out/b.txt"}, testutil.ListFiles(t, fs, "/out"))
}

func TestDownloadFile_OSFilesystemMode(t *testing.T) {
	dir := t.TempDir()
	store := testutil.NewStorageBuilder().WithObject(testBucket, "k.txt", "k").Build()
	client := NewWithStorage(store, WithFilesystem(osfs.New("/")))

	_, err := client.DownloadFile(context.Background(), testBucket, "k.txt", WithLocalPath(dir))
	require.NoError(t, err)

	ref, err := os.Create(filepath.Join(dir, "reference"))
	require.NoError(t, err)
	require.NoError(t, ref.Close())

	got, err := os.Stat(filepath.Join(dir, "k.txt"))
	require.NoError(t, err)
	want, err := os.Stat(filepath.Join(dir, "reference"))
	require.NoError(t, err)
	assert.Equal(t, want.Mode().Perm(), got.Mode().Perm())
}
