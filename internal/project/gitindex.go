package project

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// GitIndex enumerates asset paths from the git index of the repository containing the project.
// It works on fresh checkouts where Unity never ran, but only sees tracked files.
type GitIndex struct {
	Project Project
}

// NewGitIndex returns a git index for p.
func NewGitIndex(p Project) *GitIndex {
	return &GitIndex{Project: p}
}

// AssetPaths returns the sorted project-relative paths of tracked files under Assets/ and
// Packages/.
func (x *GitIndex) AssetPaths(ctx context.Context) ([]string, error) {
	root, err := resolve(x.Project.Root)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", root, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	top, err := resolve(worktree.Filesystem.Root())
	if err != nil {
		return nil, err
	}

	prefix, err := filepath.Rel(top, root)
	if err != nil {
		return nil, fmt.Errorf("locate project in repository: %w", err)
	}
	prefix = filepath.ToSlash(prefix)
	if prefix == "." {
		prefix = ""
	} else {
		prefix += "/"
	}

	idx, err := repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("read git index: %w", err)
	}

	var paths []string
	for _, entry := range idx.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(entry.Name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(entry.Name, prefix)
		if !strings.HasPrefix(rel, AssetsFolder+"/") && !strings.HasPrefix(rel, PackagesFolder+"/") {
			continue
		}
		if !importable(rel) {
			continue
		}
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return paths, nil
}

func resolve(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}
