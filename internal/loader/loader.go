// Package loader reads input text files for indexing.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel file reads.
const DefaultConcurrency = 8

// Extensions lists the file suffixes that are loaded.
var Extensions = []string{".txt", ".md"}

// ErrNoFiles is returned when no pattern matched a loadable file.
var ErrNoFiles = errors.New("no .txt or .md files found")

// File is a loaded input file.
type File struct {
	Path    string
	Content string
}

// Expand resolves glob patterns and directories to the sorted, de-duplicated
// list of loadable files. A pattern that matches nothing is kept as a literal
// path.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if !loadable(p) {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if matches == nil {
			matches = []string{pattern}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err == nil && info.IsDir() {
				err := filepath.WalkDir(m, func(path string, d os.DirEntry, err error) error {
					if err != nil {
						return err
					}
					if !d.IsDir() {
						add(path)
					}
					return nil
				})
				if err != nil {
					return nil, err
				}
				continue
			}
			add(m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Load expands patterns and reads the files concurrently. Files are returned
// in path order.
func Load(ctx context.Context, patterns []string, concurrency int) ([]File, error) {
	paths, err := Expand(patterns)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	files := make([]File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("read %s: %w", p, err)
			}
			files[i] = File{Path: p, Content: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func loadable(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
