// Package testutil provides test helper functions.
package testutil

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

// GenerateRandomData generates random bytes of the specified size.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// GenerateTestBucketName generates a valid test bucket name.
// Bucket names must be DNS-compliant and globally unique.
func GenerateTestBucketName(prefix string) string {
	timestamp := time.Now().Unix()
	random := rand.Int31n(10000)
	name := fmt.Sprintf("%s-%d-%d", prefix, timestamp, random)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// CalculateETag calculates the ETag for the given data.
// For simple uploads this is the quoted hex MD5 hash.
func CalculateETag(data []byte) string {
	h := md5.Sum(data)
	return fmt.Sprintf(`"%x"`, h)
}

// CreateTestObject creates a test S3 object structure.
// This is useful for mocking ListObjectsV2 responses.
func CreateTestObject(key string, size int64, lastModified time.Time) types.Object {
	return types.Object{
		Key:          aws.String(key),
		Size:         aws.Int64(size),
		LastModified: aws.Time(lastModified),
		ETag:         aws.String(fmt.Sprintf(`"%x"`, md5.Sum([]byte(key)))),
		StorageClass: types.ObjectStorageClassStandard,
	}
}

// CreateListObjectsV2Output creates a ListObjectsV2Output page.
// A non-empty nextToken marks the page as truncated.
func CreateListObjectsV2Output(objects []types.Object, prefix, nextToken string) *s3.ListObjectsV2Output {
	output := &s3.ListObjectsV2Output{
		Contents:    objects,
		Prefix:      aws.String(prefix),
		IsTruncated: aws.Bool(nextToken != ""),
		KeyCount:    aws.Int32(int32(len(objects))),
	}
	if nextToken != "" {
		output.NextContinuationToken = aws.String(nextToken)
	}
	return output
}

// CreatePutObjectOutput creates a PutObjectOutput carrying etag.
func CreatePutObjectOutput(etag string) *s3.PutObjectOutput {
	return &s3.PutObjectOutput{
		ETag: aws.String(etag),
	}
}

// CreateGetObjectOutput creates a GetObjectOutput streaming data.
func CreateGetObjectOutput(data []byte, contentType string) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ETag:          aws.String(CalculateETag(data)),
	}
}

// WriteFiles writes each path/content pair into fs, creating parent directories.
func WriteFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, util.WriteFile(fs, path, []byte(content), 0o644), "write %s", path)
	}
}

// ReadFile returns the content of path in fs, failing the test if it cannot be read.
func ReadFile(t *testing.T, fs billy.Filesystem, path string) string {
	t.Helper()
	data, err := util.ReadFile(fs, path)
	require.NoError(t, err, "read %s", path)
	return string(data)
}

// ListFiles returns every regular file below root in fs, sorted.
func ListFiles(t *testing.T, fs billy.Filesystem, root string) []string {
	t.Helper()
	var files []string
	err := util.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}
