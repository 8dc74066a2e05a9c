// Package selector enumerates the local files that qualify for upload.
package selector

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

// Selector walks a filesystem and keeps files matching glob patterns.
type Selector struct {
	fs   billy.Filesystem
	skip func(rel string) bool
}

// New returns a Selector over fs. Paths are relative to the root of fs.
func New(fs billy.Filesystem) *Selector {
	return &Selector{fs: fs}
}

// Skip drops every file for which fn returns true, regardless of patterns.
func (s *Selector) Skip(fn func(rel string) bool) *Selector {
	s.skip = fn
	return s
}

// PatternError reports an invalid glob pattern.
type PatternError struct {
	Pattern string
	Index   int
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern at index %d '%s'", e.Index, e.Pattern)
}

// Unwrap lets the error match errors.ErrInvalidInput.
func (e *PatternError) Unwrap() error {
	return errors.ErrInvalidInput
}

// ValidatePatterns checks that every pattern is a valid glob.
func ValidatePatterns(patterns []string) error {
	for i, p := range patterns {
		if !doublestar.ValidatePattern(normalize(p)) {
			return &PatternError{Pattern: p, Index: i}
		}
	}
	return nil
}

// Select returns the files matching any include pattern and no exclude
// pattern, in lexical walk order. Directories named .git are not entered.
// A missing or unreadable root is an error, never an empty selection.
func (s *Selector) Select(ctx context.Context, include, exclude []string) ([]s3types.LocalFile, error) {
	if err := ValidatePatterns(include); err != nil {
		return nil, err
	}
	if err := ValidatePatterns(exclude); err != nil {
		return nil, err
	}

	root, err := s.fs.Lstat(".")
	if err != nil {
		return nil, fmt.Errorf("%w: local root %q is not readable: %v", errors.ErrInvalidInput, s.fs.Root(), err)
	}
	if !root.IsDir() {
		return nil, fmt.Errorf("%w: local root %q is not a directory", errors.ErrInvalidInput, s.fs.Root())
	}

	var files []s3types.LocalFile
	err = util.Walk(s.fs, ".", func(name string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel := strings.TrimPrefix(filepath.ToSlash(name), "./")
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		if s.skip != nil && s.skip(rel) {
			return nil
		}
		if matchAny(exclude, rel) || !matchAny(include, rel) {
			return nil
		}

		files = append(files, &file{fs: s.fs, path: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk files: %w", err)
	}

	return files, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		// Patterns were validated, so Match cannot fail.
		if ok, _ := doublestar.Match(normalize(p), name); ok {
			return true
		}
	}
	return false
}

func normalize(pattern string) string {
	return strings.TrimPrefix(filepath.ToSlash(pattern), "./")
}

// file is a LocalFile read lazily from a billy filesystem.
type file struct {
	fs   billy.Filesystem
	path string
}

func (f *file) Path() string { return f.path }

func (f *file) Name() string { return path.Base(f.path) }

func (f *file) Content() ([]byte, error) {
	return util.ReadFile(f.fs, f.path)
}
