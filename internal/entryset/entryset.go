// Package entryset accumulates the (identifier, value[, id]) pairs of one generation run and
// resolves identifier collisions.
//
// Names are sanitized on insert. When a sanitized name repeats with different content, both the
// first holder of that name and the newcomer are flagged; Entries later renames every flagged
// entry after its value, so two files named "Level" in different folders end up as
// "Scenes_Level" and "Scenes_Other_Level". An exact repeat of a value under the same name is a
// re-discovery of the same entry and is dropped.
package entryset

import (
	"path"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/typedstrings/internal/naming"
)

// Entry is one generated enum member.
type Entry struct {
	Identifier string
	Value      string
	ID         int
	HasID      bool
}

// Set is an insertion ordered collection of provisional entries. The zero value is not usable,
// call New.
type Set struct {
	names  []string
	values []string
	ids    []int
	hasID  []bool

	firstIndex map[string]int
	seenValues map[string]struct{}
	flagged    map[int]struct{}

	splitExtensions bool
}

// New returns an empty set.
func New() *Set {
	return &Set{
		firstIndex: make(map[string]int),
		seenValues: make(map[string]struct{}),
		flagged:    make(map[int]struct{}),
	}
}

// SplitExtensions makes renamed entries keep their extension as a separate "_ext" token
// ("Icons/hero.png" becomes Icons_hero_png instead of Icons_heropng). Folder units that keep
// extensions in their values enable this.
func (s *Set) SplitExtensions() {
	s.splitExtensions = true
}

// Add appends a pair without a numeric id.
func (s *Set) Add(name, value string) {
	s.add(name, value, 0, false)
}

// AddWithID appends a pair carrying an externally assigned id. The id is never rewritten.
func (s *Set) AddWithID(name, value string, id int) {
	s.add(name, value, id, true)
}

// Len returns the number of accepted entries.
func (s *Set) Len() int {
	return len(s.names)
}

func (s *Set) add(name, value string, id int, hasID bool) {
	name = naming.ToIdentifier(name)
	index := len(s.names)

	if first, exists := s.firstIndex[name]; exists {
		if _, dup := s.seenValues[value]; dup {
			return
		}
		s.flagged[first] = struct{}{}
		s.flagged[index] = struct{}{}
	} else {
		s.firstIndex[name] = index
	}

	s.names = append(s.names, name)
	s.values = append(s.values, value)
	s.ids = append(s.ids, id)
	s.hasID = append(s.hasID, hasID)
	s.seenValues[value] = struct{}{}
}

// Entries runs the fixup pass and returns the final entries in insertion order. The set itself
// is not modified, so calling Entries twice yields the same result.
func (s *Set) Entries() []Entry {
	entries := make([]Entry, len(s.names))
	for i := range s.names {
		identifier := s.names[i]
		if _, ok := s.flagged[i]; ok {
			identifier = s.renamed(s.values[i])
		}
		entries[i] = Entry{
			Identifier: identifier,
			Value:      s.values[i],
			ID:         s.ids[i],
			HasID:      s.hasID[i],
		}
	}

	ensureUnique(entries)
	return entries
}

func (s *Set) renamed(value string) string {
	if s.splitExtensions {
		if ext := path.Ext(value); ext != "" && ext != value {
			value = strings.TrimSuffix(value, ext) + "_" + ext
		}
	}
	return naming.ToIdentifier(value)
}

// ensureUnique suffixes identifiers that still collide after renaming (values that sanitize to
// the same text, or a rename landing on an untouched name). The first holder keeps its name.
func ensureUnique(entries []Entry) {
	taken := make(map[string]struct{}, len(entries))
	for i := range entries {
		id := entries[i].Identifier
		if _, exists := taken[id]; exists {
			for n := 2; ; n++ {
				candidate := id + "_" + strconv.Itoa(n)
				if _, used := taken[candidate]; !used && !pendingLater(entries[i+1:], candidate) {
					id = candidate
					break
				}
			}
			entries[i].Identifier = id
		}
		taken[id] = struct{}{}
	}
}

func pendingLater(rest []Entry, candidate string) bool {
	for i := range rest {
		if rest[i].Identifier == candidate {
			return true
		}
	}
	return false
}
