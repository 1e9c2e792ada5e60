// Package fsutil holds the small filesystem helpers the built-in plugins
// share: strict directory listing, freshness checks and directory creation.
package fsutil

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
)

// FreshnessSlack is how much older than its destination a source must be
// for the destination to count as up to date.
const FreshnessSlack = 10 * time.Second

// Common entry name patterns.
const (
	ImageExtensions = `(bmp|pnm|jpg|jpeg)`
	NumberedEntry   = `^[0-9]+[.].*$`
	NumberedImage   = `^[0-9]+[.]` + ImageExtensions + `$`
	PageRangeDir    = `^[0-9]+-[0-9]+$`
)

// FilterRegexp lists dir and returns the sorted entry names matching pattern.
// Every entry must match allowed (pattern when empty); any other entry is an
// error naming the offenders.
func FilterRegexp(dir, pattern, allowed string) ([]string, error) {
	match, err := regexp.Compile(pattern)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "invalid entry pattern").Build()
	}
	allow := match
	if allowed != "" {
		if allow, err = regexp.Compile(allowed); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "invalid entry pattern").Build()
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, fmt.Sprintf("cannot list directory '%s'", dir)).
			WithContext("path", dir).
			Build()
	}

	var extra, out []string
	for _, e := range entries {
		name := e.Name()
		if !allow.MatchString(name) {
			extra = append(extra, name)
			continue
		}
		if match.MatchString(name) {
			out = append(out, name)
		}
	}
	if len(extra) > 0 {
		return nil, ferrors.FileSystemError(fmt.Sprintf("extra elements in the '%s' directory: %s", dir, strings.Join(extra, ", "))).
			WithContext("path", dir).
			Build()
	}
	slices.Sort(out)
	return out, nil
}

// NeedsUpdate reports whether dst must be rebuilt from src: true when either
// file cannot be inspected or src is not at least FreshnessSlack older than dst.
func NeedsUpdate(src, dst string) bool {
	s, err := os.Stat(src)
	if err != nil {
		return true
	}
	d, err := os.Stat(dst)
	if err != nil {
		return true
	}
	return s.ModTime().Add(FreshnessSlack).After(d.ModTime())
}

// MkdirAll creates path and its parents. An existing directory is not an error.
func MkdirAll(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(path, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, fmt.Sprintf("cannot create directory '%s'", path)).
			WithContext("path", path).
			Build()
	}
	return nil
}

// RemoveIfExists deletes path, ignoring a missing file.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, fmt.Sprintf("cannot remove '%s'", path)).
			WithContext("path", path).
			Build()
	}
	return nil
}

// Replace moves src over dst.
func Replace(src, dst string) error {
	if err := RemoveIfExists(dst); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, fmt.Sprintf("cannot move '%s' to '%s'", src, dst)).
			WithContext("path", dst).
			Build()
	}
	return nil
}

// PageNumber parses the leading decimal digits of a numbered entry name such as "0012.pnm".
func PageNumber(name string) (int, error) {
	end := strings.IndexByte(name, '.')
	if end < 0 {
		end = len(name)
	}
	n, err := strconv.Atoi(name[:end])
	if err != nil || n < 0 {
		return 0, ferrors.FileSystemError(fmt.Sprintf("'%s' is not a numbered entry", name)).Build()
	}
	return n, nil
}
