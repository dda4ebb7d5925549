// Package unit defines generation units: one data source turned into one generated file.
//
// A unit is plain data plus a populate function. Reusable behavior (folder scanning, flat
// lists, build scenes) is provided by the populate factories in this package instead of a type
// hierarchy.
package unit

import (
	"context"
	"errors"
	"fmt"

	"git.home.luguber.info/inful/typedstrings/internal/entryset"
	"git.home.luguber.info/inful/typedstrings/internal/naming"
)

// SourceExtension is the extension of every generated file.
const SourceExtension = ".cs"

// Default priorities. Lower runs (and lists) first.
const (
	PriorityList         = 10
	PriorityFolder       = 100
	PriorityEditorFolder = 200
)

// PopulateFunc fills a fresh entry set from the unit's data source. A returned error aborts
// this unit only.
type PopulateFunc func(ctx context.Context, set *entryset.Set) error

// Unit is a single generation job.
type Unit struct {
	// Label is the display name, also the secondary sort key.
	Label string
	// Type is injected into the template; "Scene" produces SceneType.
	Type string
	// Priority is the primary sort key.
	Priority    int
	Description string
	Populate    PopulateFunc
}

var (
	ErrMissingLabel    = errors.New("unit label is required")
	ErrMissingType     = errors.New("unit type is required")
	ErrMissingPopulate = errors.New("unit populate function is required")
	ErrInvalidType     = errors.New("unit type is not a valid identifier")
)

// FileName is the generated file name, also used to find a previously generated file.
func (u Unit) FileName() string {
	return TypeName(u.Type) + SourceExtension
}

// TypeName is the generated enum type name for a unit type.
func TypeName(typ string) string {
	return typ + "Type"
}

// Validate checks that the unit can be registered.
func (u Unit) Validate() error {
	if u.Label == "" {
		return ErrMissingLabel
	}
	if u.Type == "" {
		return fmt.Errorf("%w (label %q)", ErrMissingType, u.Label)
	}
	if naming.ToIdentifier(u.Type, "") != u.Type {
		return fmt.Errorf("%w: %q", ErrInvalidType, u.Type)
	}
	if u.Populate == nil {
		return fmt.Errorf("%w (label %q)", ErrMissingPopulate, u.Label)
	}
	return nil
}

// String returns a human-readable representation of the unit.
func (u Unit) String() string {
	return fmt.Sprintf("%s (%s, priority %d)", u.Label, u.FileName(), u.Priority)
}
