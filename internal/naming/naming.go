// Package naming turns arbitrary text into identifiers, folder paths and namespaces that are
// safe to emit into generated sources. All functions are total: invalid input degrades to the
// supplied fallback instead of failing.
package naming

import (
	"strings"
)

// DefaultIdentifier is returned by ToIdentifier when nothing usable remains.
const DefaultIdentifier = "_"

// invalidFolderChars mirrors the characters rejected in a single path segment on the strictest
// supported platform, plus '.' so folder settings never contain extensions or "..".
const invalidFolderChars = "\"<>|:*?.\x00\x01\x02\x03\x04\x05\x06\x07\x08\t\n\x0b\x0c\r" +
	"\x0e\x0f\x10\x11\x12\x13\x14\x15\x16\x17\x18\x19\x1a\x1b\x1c\x1d\x1e\x1f"

var separatorReplacer = strings.NewReplacer("-", "_", "\\", "_", "/", "_")

// ToIdentifier returns a member name matching [A-Za-z_][A-Za-z0-9_]*.
// Dashes and path separators become underscores, every other invalid character is dropped and
// a leading digit is prefixed with '_'. An empty result yields fallback.
func ToIdentifier(raw string, fallback ...string) string {
	def := DefaultIdentifier
	if len(fallback) > 0 {
		def = fallback[0]
	}

	var b strings.Builder
	b.Grow(len(raw) + 1)
	for _, r := range separatorReplacer.Replace(raw) {
		if isIdentRune(r) {
			b.WriteRune(r)
		}
	}

	name := b.String()
	if name == "" {
		return def
	}
	if isDigit(rune(name[0])) {
		return "_" + name
	}
	return name
}

// ToFolderPath returns a slash separated relative folder path without leading or trailing
// separators. Returns fallback when nothing is left.
func ToFolderPath(raw string, fallback ...string) string {
	def := ""
	if len(fallback) > 0 {
		def = fallback[0]
	}

	path := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidFolderChars, r) {
			return -1
		}
		return r
	}, raw)

	path = strings.Trim(path, "/\\")
	if path == "" {
		return def
	}
	return strings.ReplaceAll(path, "\\", "/")
}

// ToNamespace keeps [A-Za-z0-9_.] and strips leading digits.
func ToNamespace(raw string, fallback ...string) string {
	def := ""
	if len(fallback) > 0 {
		def = fallback[0]
	}

	var b strings.Builder
	for _, r := range raw {
		if isIdentRune(r) || r == '.' {
			b.WriteRune(r)
		}
	}

	name := strings.TrimLeftFunc(b.String(), isDigit)
	if name == "" {
		return def
	}
	return name
}

// MatchSearch reports whether any whitespace separated word of search occurs in target,
// ignoring case. An empty search matches everything.
func MatchSearch(search, target string) bool {
	words := strings.Fields(search)
	if len(words) == 0 {
		return true
	}
	lowered := strings.ToLower(target)
	for _, w := range words {
		if strings.Contains(lowered, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

func isIdentRune(r rune) bool {
	return r == '_' || isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
