package unit

import (
	"context"
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/typedstrings/internal/entryset"
)

// PathSource enumerates every known project-relative asset path ("Assets/Resources/hero.png").
type PathSource interface {
	AssetPaths(ctx context.Context) ([]string, error)
}

// PathSourceFunc adapts a function to PathSource.
type PathSourceFunc func(ctx context.Context) ([]string, error)

// AssetPaths implements PathSource.
func (f PathSourceFunc) AssetPaths(ctx context.Context) ([]string, error) { return f(ctx) }

// FolderSpec describes a unit exposing the content of a conventionally named folder.
type FolderSpec struct {
	Label    string
	Type     string
	Priority int
	// SpecialFolderName is the folder whose content is listed; everything up to and including
	// "/<SpecialFolderName>/" is stripped from each path.
	SpecialFolderName string
	// HideExtension removes the file extension from generated values.
	HideExtension bool
	// IsValidEntry selects the asset paths belonging to this unit.
	IsValidEntry func(path string) bool
	Description  string
}

// SpecialFolder builds a folder-scanning unit over the given path source.
func SpecialFolder(spec FolderSpec, source PathSource) Unit {
	return Unit{
		Label:       spec.Label,
		Type:        spec.Type,
		Priority:    spec.Priority,
		Description: spec.Description,
		Populate:    ScanFolder(spec, source),
	}
}

// ScanFolder returns the populate function behind SpecialFolder.
func ScanFolder(spec FolderSpec, source PathSource) PopulateFunc {
	separator := "/" + spec.SpecialFolderName + "/"
	accept := spec.IsValidEntry
	if accept == nil {
		accept = func(p string) bool { return strings.Contains(p, separator) }
	}

	return func(ctx context.Context, set *entryset.Set) error {
		paths, err := source.AssetPaths(ctx)
		if err != nil {
			return fmt.Errorf("enumerate assets for %s: %w", spec.SpecialFolderName, err)
		}

		if !spec.HideExtension {
			set.SplitExtensions()
		}

		for _, assetPath := range paths {
			if !accept(assetPath) {
				continue
			}
			cut := strings.Index(assetPath, separator)
			if cut < 0 {
				continue
			}
			relative := assetPath[cut+len(separator):]
			if relative == "" {
				continue
			}

			name := stem(relative)
			value := relative
			if spec.HideExtension {
				value = strings.TrimSuffix(relative, path.Ext(relative))
			}
			set.Add(name, value)
		}
		return nil
	}
}

// ContentFilter is the default entry policy for folders rooted at a fixed location such as
// "Assets/StreamingAssets/".
type ContentFilter struct {
	// RequiredPrefix every accepted path must start with, including the trailing slash.
	RequiredPrefix string
	ScanAllFolders bool
	// FoldersToScan are prefixes relative to RequiredPrefix. Blank entries are ignored.
	FoldersToScan []string
}

// RootedFilter returns the policy for "Assets/<specialFolder>/".
func RootedFilter(specialFolder string, scanAll bool, folders []string) ContentFilter {
	return ContentFilter{
		RequiredPrefix: "Assets/" + specialFolder + "/",
		ScanAllFolders: scanAll,
		FoldersToScan:  folders,
	}
}

// Accept reports whether path belongs to the scanned content.
func (f ContentFilter) Accept(p string) bool {
	if !strings.HasPrefix(p, f.RequiredPrefix) {
		return false
	}
	if f.ScanAllFolders {
		return true
	}
	return hasAllowedPrefix(p, f.RequiredPrefix, f.FoldersToScan)
}

// AnywhereFilter accepts a special folder at any depth ("Assets/UI/Resources/x.png") and applies
// the allow-list to the full path. This is the Resources policy.
type AnywhereFilter struct {
	SpecialFolderName string
	ScanAllFolders    bool
	FoldersToScan     []string
}

// Accept reports whether path belongs to the scanned content.
func (f AnywhereFilter) Accept(p string) bool {
	if !strings.Contains(p, "/"+f.SpecialFolderName+"/") {
		return false
	}
	if f.ScanAllFolders {
		return true
	}
	return hasAllowedPrefix(p, "", f.FoldersToScan)
}

func hasAllowedPrefix(p, base string, folders []string) bool {
	for _, folder := range folders {
		if strings.TrimSpace(folder) == "" {
			continue
		}
		if strings.HasPrefix(p, base+folder) {
			return true
		}
	}
	return false
}

// stem returns the file name without directory and extension.
func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
