// Package project reads the parts of a Unity project that units are generated from: the asset
// path index and the settings assets under ProjectSettings/.
package project

import (
	"path"
	"path/filepath"
	"strings"
)

// Top-level folders of a Unity project.
const (
	AssetsFolder   = "Assets"
	PackagesFolder = "Packages"
	SettingsFolder = "ProjectSettings"
	packageCache   = "Library/PackageCache"
)

// Project is a Unity project on disk.
type Project struct {
	Root string
}

// New returns the project rooted at root.
func New(root string) Project {
	return Project{Root: root}
}

// Path joins a slash-separated project-relative path onto the root.
func (p Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// SettingsPath returns the path of a ProjectSettings asset.
func (p Project) SettingsPath(name string) string {
	return p.Path(path.Join(SettingsFolder, name))
}

// Rel converts an absolute path below the root into a slash-separated project path.
func (p Project) Rel(abs string) (string, bool) {
	rel, err := filepath.Rel(p.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// ignored reports whether a path segment is skipped by Unity's asset import: hidden entries,
// "~"-suffixed folders and .meta sidecars.
func ignored(segment string) bool {
	return strings.HasPrefix(segment, ".") ||
		strings.HasSuffix(segment, "~") ||
		strings.HasSuffix(segment, ".meta")
}

// importable reports whether every segment of a slash path is visible to Unity.
func importable(slashPath string) bool {
	for _, segment := range strings.Split(slashPath, "/") {
		if segment == "" || ignored(segment) {
			return false
		}
	}
	return true
}
