// Package pathmap maps local filesystem paths to object keys and back.
//
// All functions are pure: they never touch the filesystem or the network.
// Paths are handled as Segments internally. Keys are always rendered with
// forward slashes and local paths with the host separator.
package pathmap

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
)

// Segments is a path split into its components.
// A Segments value never contains empty, "." or ".." elements.
type Segments []string

// ParseKey splits an object key into segments. Both forward and backward
// slashes separate segments. A ".." segment removes the segment before it
// and is discarded when there is none, so the result can never climb
// above its root.
func ParseKey(key string) Segments {
	var out Segments
	for _, part := range strings.FieldsFunc(key, isSeparator) {
		switch part {
		case ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}
	return out
}

// ParseLocal splits a local path into segments, dropping the volume name
// and any leading separators.
func ParseLocal(path string) Segments {
	path = path[len(filepath.VolumeName(path)):]
	return ParseKey(filepath.ToSlash(path))
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// Key renders the segments as an object key.
func (s Segments) Key() string {
	return strings.Join(s, "/")
}

// Local renders the segments as a local path under root.
// An empty root yields a path relative to the working directory.
func (s Segments) Local(root string) string {
	return filepath.Join(append([]string{root}, s...)...)
}

// Last returns the final segment, or "" for an empty path.
func (s Segments) Last() string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

// Join returns a new Segments holding s followed by other.
func (s Segments) Join(other Segments) Segments {
	out := make(Segments, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

// TrimPrefix removes the leading segments s shares with prefix.
func (s Segments) TrimPrefix(prefix Segments) Segments {
	n := 0
	for n < len(s) && n < len(prefix) && s[n] == prefix[n] {
		n++
	}
	return s[n:]
}

// BaseDirectory cleans path and walks up levelsUp parent directories.
// Walking past the top stops at the filesystem root for absolute paths and
// at "." for relative ones. Negative levels are treated as zero.
func BaseDirectory(path string, levelsUp int) string {
	p := filepath.Clean(path)
	for i := 0; i < levelsUp; i++ {
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}
	return p
}

// ReplaceFileName returns path with its final element replaced by newName.
func ReplaceFileName(path, newName string) string {
	return filepath.Join(filepath.Dir(path), newName)
}

// JoinKey joins a key prefix and a name into a normalized key.
func JoinKey(prefix string, name Segments) string {
	return ParseKey(prefix).Join(name).Key()
}

// UploadKey computes the object key for a single file upload.
//
// With wholePath unset only the file name is kept; otherwise the path as
// given becomes the key. A non-empty explicitName replaces the file name in
// either case. The result is placed under prefix.
func UploadKey(localFile, explicitName string, wholePath bool, prefix string) string {
	name := localFile
	if explicitName != "" {
		name = ReplaceFileName(localFile, explicitName)
	}
	if !wholePath {
		name = filepath.Base(name)
	}
	return JoinKey(prefix, ParseLocal(name))
}

// FolderUploadKey computes the object key for file found while walking folder.
//
// Without wholePath the key is the file's path relative to the folder's
// parent, so the folder's own name is the first segment. With wholePath
// the file path itself is used, minus its leading separator. Callers pass
// absolute paths for both arguments.
func FolderUploadKey(folder, file string, wholePath bool, prefix string) (string, error) {
	if wholePath {
		return JoinKey(prefix, ParseLocal(file)), nil
	}

	rel, err := filepath.Rel(BaseDirectory(folder, 1), file)
	if err != nil {
		return "", fmt.Errorf("relative path of %q: %w", file, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is not under %q: %w", file, folder, errors.ErrPathEscapesRoot)
	}
	return JoinKey(prefix, ParseLocal(rel)), nil
}

// DownloadLocalPath computes where a single downloaded object is written.
//
// The destination directory is localPath, or cwd when localPath is empty.
// With useKeyPath the whole key is recreated below it, otherwise only the
// key's last segment is used. A non-empty fileName replaces the file name.
func DownloadLocalPath(key, localPath string, useKeyPath bool, fileName, cwd string) string {
	dir := localPath
	if dir == "" {
		dir = cwd
	}

	segs := ParseKey(key)
	if !useKeyPath && len(segs) > 0 {
		segs = segs[len(segs)-1:]
	}

	p := segs.Local(dir)
	if fileName != "" {
		p = ReplaceFileName(p, fileName)
	}
	return p
}

// FolderDownloadLocalPath computes where an object listed under prefix is
// written below localDir. The segments the key shares with prefix are
// removed; a key equal to the prefix keeps its last segment. The result
// always stays inside localDir.
func FolderDownloadLocalPath(key, prefix, localDir string) (string, error) {
	segs := ParseKey(key)
	if len(segs) == 0 {
		return "", fmt.Errorf("key %q has no path segments: %w", key, errors.ErrInvalidObjectKey)
	}

	rel := segs.TrimPrefix(ParseKey(prefix))
	if len(rel) == 0 {
		rel = segs[len(segs)-1:]
	}
	return rel.Local(localDir), nil
}
