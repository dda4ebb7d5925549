package generator

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/logfields"
)

// metaExtension is the sidecar Unity keeps next to every asset and folder.
const metaExtension = ".meta"

// Location reports whether the file of a unit exists in a destination folder.
type Location struct {
	Label  string
	Path   string
	Exists bool
}

// Locate reports the expected file of every unit under destination.
func (c *Coordinator) Locate(destination string) []Location {
	units := c.registry.Units()
	out := make([]Location, 0, len(units))
	for _, u := range units {
		path := filepath.Join(destination, u.FileName())
		_, err := os.Stat(path)
		out = append(out, Location{Label: u.Label, Path: path, Exists: err == nil})
	}
	return out
}

// RelocateResult lists what Relocate did.
type RelocateResult struct {
	Moved   []string
	Removed []string
}

// Relocate moves every generated unit file (and its .meta sidecar) from one folder to another,
// then removes source directories left empty, walking upwards. Missing files are skipped and a
// directory that still has content is never removed. Failures of individual files are joined
// into the returned error after all files were attempted.
func (c *Coordinator) Relocate(ctx context.Context, from, to string) (RelocateResult, error) {
	var result RelocateResult
	if filepath.Clean(from) == filepath.Clean(to) {
		return result, nil
	}

	if !c.acquire() {
		return result, ErrNotReady
	}
	defer c.release()

	var errs []error
	for _, u := range c.registry.Units() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		for _, name := range []string{u.FileName(), u.FileName() + metaExtension} {
			src := filepath.Join(from, name)
			dst := filepath.Join(to, name)
			moved, err := moveFile(src, dst)
			if err != nil {
				slog.Error("Failed to relocate file", logfields.From(src), logfields.To(dst), logfields.Error(err))
				errs = append(errs, err)
				continue
			}
			if moved {
				result.Moved = append(result.Moved, dst)
				slog.Debug("Relocated file", logfields.From(src), logfields.To(dst))
			}
		}
	}

	result.Removed = c.removeEmptyDirs(from)
	c.recorder.AddRelocatedFiles(len(result.Moved))
	slog.Info("Relocated generated files",
		logfields.From(from), logfields.To(to),
		slog.Int("moved", len(result.Moved)),
		slog.Int("removed_dirs", len(result.Removed)))

	return result, stderrors.Join(errs...)
}

// moveFile renames src to dst, falling back to copy and delete across devices. A missing src is
// not an error.
func moveFile(src, dst string) (bool, error) {
	if _, err := os.Stat(src); stderrors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create relocation target").
			WithContext("path", filepath.Dir(dst)).
			Build()
	}
	if err := os.Rename(src, dst); err == nil {
		return true, nil
	}

	if err := copyFile(src, dst); err != nil {
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "move "+filepath.Base(src)).
			WithContext("from", src).
			WithContext("to", dst).
			Build()
	}
	if err := os.Remove(src); err != nil {
		return true, ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove "+filepath.Base(src)).
			WithContext("path", src).
			Build()
	}
	return true, nil
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src is a generated file under the configured output folder.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G304 -- dst is under the configured output folder.
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// removeEmptyDirs deletes dir and its ancestors while they are empty, together with the folder
// .meta file Unity keeps beside each of them. It stops at the coordinator boundary.
func (c *Coordinator) removeEmptyDirs(dir string) []string {
	var removed []string
	boundary := ""
	if c.boundary != "" {
		boundary = filepath.Clean(c.boundary)
	}

	for current := filepath.Clean(dir); ; current = filepath.Dir(current) {
		if current == boundary || !within(current, boundary) {
			return removed
		}
		entries, err := os.ReadDir(current)
		if err != nil || len(entries) > 0 {
			return removed
		}
		if err := os.Remove(current); err != nil {
			slog.Warn("Failed to remove empty directory", logfields.Path(current), logfields.Error(err))
			return removed
		}
		removed = append(removed, current)
		if err := os.Remove(current + metaExtension); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to remove folder meta file", logfields.Path(current+metaExtension), logfields.Error(err))
		}

		parent := filepath.Dir(current)
		if parent == current {
			return removed
		}
	}
}

// within reports whether path lies strictly below boundary. An empty boundary allows everything
// except the filesystem root and the working directory.
func within(path, boundary string) bool {
	if boundary == "" {
		return path != "." && path != string(filepath.Separator) && filepath.Dir(path) != path
	}
	rel, err := filepath.Rel(boundary, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
