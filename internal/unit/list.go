package unit

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/typedstrings/internal/entryset"
)

// ListSource supplies a flat list of names (tags, input axes, ...).
type ListSource func(ctx context.Context) ([]string, error)

// IndexedName is a name with an id assigned by the project (layer index, sorting layer order).
type IndexedName struct {
	Name string
	ID   int
}

// IndexedListSource supplies names with external ids.
type IndexedListSource func(ctx context.Context) ([]IndexedName, error)

// SceneRef is one entry of the build scene list.
type SceneRef struct {
	Path    string
	Enabled bool
}

// SceneSource supplies the ordered build scene list.
type SceneSource func(ctx context.Context) ([]SceneRef, error)

const (
	sceneRoot      = "Assets/"
	sceneExtension = ".unity"
)

// List builds a unit whose members are the listed names, each mapping to itself.
func List(label, typ string, priority int, source ListSource) Unit {
	return Unit{
		Label:    label,
		Type:     typ,
		Priority: priority,
		Populate: func(ctx context.Context, set *entryset.Set) error {
			names, err := source(ctx)
			if err != nil {
				return fmt.Errorf("load %s: %w", strings.ToLower(label), err)
			}
			for _, name := range names {
				set.Add(name, name)
			}
			return nil
		},
	}
}

// IndexedList builds a unit whose members carry the source ids.
func IndexedList(label, typ string, priority int, source IndexedListSource) Unit {
	return Unit{
		Label:    label,
		Type:     typ,
		Priority: priority,
		Populate: func(ctx context.Context, set *entryset.Set) error {
			items, err := source(ctx)
			if err != nil {
				return fmt.Errorf("load %s: %w", strings.ToLower(label), err)
			}
			for _, item := range items {
				set.AddWithID(item.Name, item.Name, item.ID)
			}
			return nil
		},
	}
}

// Scenes builds the build-scene unit. Members are numbered by their position among the kept
// scenes so the ids match the runtime build indices.
func Scenes(label, typ string, priority int, source SceneSource, ignoreDisabled bool) Unit {
	return Unit{
		Label:    label,
		Type:     typ,
		Priority: priority,
		Populate: func(ctx context.Context, set *entryset.Set) error {
			scenes, err := source(ctx)
			if err != nil {
				return fmt.Errorf("load build scenes: %w", err)
			}
			names, values := SceneEntries(scenes, ignoreDisabled)
			for i := range names {
				set.AddWithID(names[i], values[i], i)
			}
			return nil
		},
	}
}

// SceneEntries filters the scene list and returns parallel name and value slices. A scene name
// shared by several scenes is replaced by the scene's full value path for every holder, so ids
// stay positional and never go through the generic rename.
func SceneEntries(scenes []SceneRef, ignoreDisabled bool) (names, values []string) {
	firstIndex := make(map[string]int)
	duplicates := make(map[int]struct{})

	for _, scene := range scenes {
		if ignoreDisabled && !scene.Enabled {
			continue
		}
		if strings.TrimSpace(scene.Path) == "" {
			continue
		}

		value := strings.TrimSuffix(strings.TrimPrefix(scene.Path, sceneRoot), sceneExtension)
		if value == "" {
			continue
		}
		name := stem(scene.Path)

		if first, exists := firstIndex[name]; exists {
			duplicates[first] = struct{}{}
			duplicates[len(names)] = struct{}{}
		} else {
			firstIndex[name] = len(names)
		}

		names = append(names, name)
		values = append(values, value)
	}

	for i := range duplicates {
		names[i] = values[i]
	}
	return names, values
}
