// Package report renders a generation summary as Markdown, or as HTML through goldmark.
package report

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/generator"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\r", " ", "\n", " ")

// Markdown renders s as a Markdown document with one table row per unit.
func Markdown(s generator.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Generation report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", s.RunID)
	fmt.Fprintf(&b, "- Started: %s\n", s.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Duration: %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "- Outcome: **%s**\n", s.Outcome())
	fmt.Fprintf(&b, "- Units: %d written, %d failed", s.Written(), s.Failed())
	if skipped := s.Total - len(s.Results); skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", skipped)
	}
	b.WriteString("\n\n")

	if len(s.Results) == 0 {
		b.WriteString("No unit was processed.\n")
		return b.String()
	}

	b.WriteString("| Unit | File | Entries | Duration | Result |\n")
	b.WriteString("| --- | --- | ---: | ---: | --- |\n")
	for _, r := range s.Results {
		result := "ok"
		if r.Err != nil {
			result = "failed: " + r.Err.Error()
		}
		fmt.Fprintf(&b, "| %s | `%s` | %d | %s | %s |\n",
			cellEscaper.Replace(r.Label),
			filepath.ToSlash(r.Path),
			r.Entries,
			r.Duration.Round(time.Microsecond),
			cellEscaper.Replace(result))
	}
	return b.String()
}

// HTML renders s as a standalone HTML page.
func HTML(s generator.Summary) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(s)), &body); err != nil {
		return "", ferrors.RenderError("render html report").WithCause(err).Build()
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>Generation report %s</title>\n", html.EscapeString(s.RunID))
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// Write stores the report at path. Paths ending in .html or .htm get HTML, anything else
// Markdown.
func Write(path string, s generator.Summary) error {
	content := Markdown(s)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		var err error
		if content, err = HTML(s); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.FileSystemError("create report directory").
				WithCause(err).
				WithContext("path", dir).
				Build()
		}
	}
	// #nosec G306 -- reports are meant to be shared.
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return ferrors.FileSystemError("write report").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
