package scanner

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PatternMatcher handles pattern matching for file filtering.
type PatternMatcher struct{}

// NewPatternMatcher creates a new pattern matcher.
func NewPatternMatcher() *PatternMatcher {
	return &PatternMatcher{}
}

// ShouldInclude reports whether relPath survives the include and exclude
// patterns. Excludes win over includes; an empty include list admits everything.
func (pm *PatternMatcher) ShouldInclude(relPath string, include, exclude []string) bool {
	relPath = strings.ReplaceAll(filepath.ToSlash(relPath), `\`, "/")

	for _, pattern := range exclude {
		if pm.matches(relPath, pattern) {
			return false
		}
	}

	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if pm.matches(relPath, pattern) {
			return true
		}
	}
	return false
}

func (pm *PatternMatcher) matches(path, pattern string) bool {
	// "dir/" matches everything below dir
	if strings.HasSuffix(pattern, "/") {
		dir := strings.TrimSuffix(pattern, "/")
		return path == dir || strings.HasPrefix(path, dir+"/")
	}

	if strings.Contains(pattern, "**") {
		return pm.matchesRecursive(path, pattern)
	}

	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}

	// Slash-free patterns also match the base name, so "*.txt" finds nested files.
	if !strings.Contains(pattern, "/") {
		ok, err := filepath.Match(pattern, pathBase(path))
		return err == nil && ok
	}
	return false
}

// matchesRecursive supports a single "**" wildcard: "prefix**suffix".
func (pm *PatternMatcher) matchesRecursive(path, pattern string) bool {
	parts := strings.Split(pattern, "**")
	if len(parts) != 2 {
		return false
	}

	prefix, suffix := parts[0], parts[1]
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if suffix == "" {
		return true
	}

	rest := strings.TrimPrefix(path, prefix)
	if strings.ContainsAny(suffix, "*?[") {
		suffix = strings.TrimPrefix(suffix, "/")
		ok, err := filepath.Match(suffix, pathBase(rest))
		return err == nil && ok
	}
	return strings.HasSuffix(rest, suffix)
}

// ValidatePatterns checks every pattern's syntax and returns one error per bad pattern.
func (pm *PatternMatcher) ValidatePatterns(patterns []string) []error {
	var errs []error
	for i, pattern := range patterns {
		if strings.Count(pattern, "**") > 1 {
			errs = append(errs, &PatternError{
				Pattern: pattern,
				Index:   i,
				Err:     fmt.Errorf("only one ** wildcard is supported"),
			})
			continue
		}
		check := strings.ReplaceAll(pattern, "**", "*")
		if _, err := filepath.Match(check, "dummy"); err != nil {
			errs = append(errs, &PatternError{Pattern: pattern, Index: i, Err: err})
		}
	}
	return errs
}

// PatternError represents an error with a pattern.
type PatternError struct {
	Pattern string
	Index   int
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern at index %d '%s': %v", e.Index, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

func pathBase(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}
