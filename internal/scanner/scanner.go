package scanner

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
)

// File is a regular file discovered under a scan root.
type File struct {
	// Path is the file's path on the scanned filesystem
	Path string

	// RelPath is Path relative to the scan root, using the host separator
	RelPath string

	// Size is the file size in bytes
	Size int64
}

// Scanner walks a billy filesystem.
type Scanner struct {
	filesystem     billy.Filesystem
	patternMatcher *PatternMatcher
}

// New creates a scanner over the provided filesystem.
func New(filesystem billy.Filesystem) *Scanner {
	return &Scanner{
		filesystem:     filesystem,
		patternMatcher: NewPatternMatcher(),
	}
}

// ScanLocal returns every regular file below root that passes the include and
// exclude patterns, sorted by path. Symlinks to files are included under the
// link's path; other special files are skipped.
func (s *Scanner) ScanLocal(ctx context.Context, root string, include, exclude []string) ([]File, error) {
	if errs := s.patternMatcher.ValidatePatterns(append(append([]string{}, include...), exclude...)); len(errs) > 0 {
		return nil, errors.NewValidationError("scan", stderrors.Join(errs...)).WithPath(root)
	}

	info, err := s.filesystem.Stat(root)
	if err != nil {
		return nil, errors.NewLocalIOError("scan", root, err)
	}
	if !info.IsDir() {
		return nil, errors.NewValidationError("scan", errors.ErrNotADirectory).WithPath(root)
	}

	var files []File
	err = util.Walk(s.filesystem, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if info.Mode()&os.ModeSymlink != 0 {
			// File links are followed; links to directories and dangling links are not.
			target, statErr := s.filesystem.Stat(path)
			if statErr != nil {
				return nil
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}
		if !s.patternMatcher.ShouldInclude(rel, include, exclude) {
			return nil
		}

		files = append(files, File{Path: path, RelPath: rel, Size: info.Size()})
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.NewLocalIOError("scan", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
