package project

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/typedstrings/internal/unit"
)

// FileIndex enumerates asset paths by walking Assets/, Packages/ and the package cache.
// Packages resolved into Library/PackageCache/<name>@<version>/ are reported under
// Packages/<name>/, the path Unity shows for them.
type FileIndex struct {
	Project Project
}

// NewFileIndex returns a filesystem index for p.
func NewFileIndex(p Project) *FileIndex {
	return &FileIndex{Project: p}
}

// AssetPaths returns the sorted slash-separated project-relative paths of all files.
func (x *FileIndex) AssetPaths(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})

	for _, folder := range []string{AssetsFolder, PackagesFolder} {
		if err := x.walk(ctx, folder, func(rel string) string { return rel }, seen); err != nil {
			return nil, err
		}
	}

	cache := x.Project.Path(packageCache)
	entries, err := os.ReadDir(cache)
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() || ignored(entry.Name()) {
			continue
		}
		name, _, _ := strings.Cut(entry.Name(), "@")
		prefix := path.Join(packageCache, entry.Name())
		target := path.Join(PackagesFolder, name)
		mapping := func(rel string) string { return target + strings.TrimPrefix(rel, prefix) }
		if err := x.walk(ctx, prefix, mapping, seen); err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (x *FileIndex) walk(ctx context.Context, folder string, mapping func(string) string, seen map[string]struct{}) error {
	root := x.Project.Path(folder)
	err := filepath.WalkDir(root, func(abs string, d fs.DirEntry, err error) error {
		if err != nil {
			if abs == root && stderrors.Is(err, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if abs != root && ignored(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, ok := x.Project.Rel(abs)
		if !ok {
			return nil
		}
		seen[mapping(rel)] = struct{}{}
		return nil
	})
	if stderrors.Is(err, fs.SkipDir) {
		return nil
	}
	return err
}

// CachedIndex memoizes another index until Invalidate is called. Several folder units share
// one walk per generation run this way.
type CachedIndex struct {
	source unit.PathSource

	mu    sync.Mutex
	paths []string
	valid bool
}

// NewCachedIndex wraps source.
func NewCachedIndex(source unit.PathSource) *CachedIndex {
	return &CachedIndex{source: source}
}

// AssetPaths returns the cached paths, loading them on first use.
func (c *CachedIndex) AssetPaths(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid {
		return c.paths, nil
	}
	paths, err := c.source.AssetPaths(ctx)
	if err != nil {
		return nil, err
	}
	c.paths, c.valid = paths, true
	return paths, nil
}

// Invalidate drops the cached paths.
func (c *CachedIndex) Invalidate() {
	c.mu.Lock()
	c.paths, c.valid = nil, false
	c.mu.Unlock()
}
