// Package scanner walks a local folder and returns the regular files that an
// upload should consider, applying include and exclude patterns.
package scanner
