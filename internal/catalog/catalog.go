// Package catalog assembles the unit registry of a project: the built-in units backed by the
// project settings and asset index, plus the list units declared in the configuration.
package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/typedstrings/internal/config"
	"git.home.luguber.info/inful/typedstrings/internal/entryset"
	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/naming"
	"git.home.luguber.info/inful/typedstrings/internal/unit"
)

// Built-in unit labels.
const (
	LabelTags                   = "Tags"
	LabelLayers                 = "Layers"
	LabelSortingLayers          = "Sorting Layers"
	LabelInputs                 = "Inputs"
	LabelScenes                 = "Scenes"
	LabelResources              = "Resources"
	LabelStreamingAssets        = "Streaming Assets"
	LabelGizmos                 = "Gizmos"
	LabelEditorDefaultResources = "Editor Default Resources"
	LabelPackages               = "Packages"
)

// PriorityPackages keeps the packages unit ahead of everything else.
const PriorityPackages = math.MinInt

const packagesPrefix = "Packages/"

// SettingsSource reads the project settings assets.
type SettingsSource interface {
	Tags(ctx context.Context) ([]string, error)
	Layers(ctx context.Context) ([]unit.IndexedName, error)
	SortingLayers(ctx context.Context) ([]unit.IndexedName, error)
	Scenes(ctx context.Context) ([]unit.SceneRef, error)
	InputAxes(ctx context.Context) ([]string, error)
}

// Sources are the data the built-in units read from.
type Sources struct {
	Settings SettingsSource
	Assets   unit.PathSource
}

// Build registers every enabled built-in unit and every custom unit of cfg.
func Build(cfg *config.Config, src Sources) (*unit.Registry, error) {
	custom, err := Custom(cfg.Custom)
	if err != nil {
		return nil, err
	}

	reg := unit.NewRegistry()
	for _, u := range append(Builtins(cfg, src), custom...) {
		if cfg.UnitDisabled(u.Label, u.Type) {
			continue
		}
		if err := reg.Register(u); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "register unit").
				WithContext("unit", u.Label).
				Build()
		}
	}
	return reg, nil
}

// Builtins returns the default units configured by cfg.
func Builtins(cfg *config.Config, src Sources) []unit.Unit {
	units := cfg.Units
	return []unit.Unit{
		unit.List(LabelTags, "Tag", unit.PriorityList, src.Settings.Tags),
		unit.IndexedList(LabelLayers, "Layer", unit.PriorityList, src.Settings.Layers),
		unit.IndexedList(LabelSortingLayers, "SortingLayer", unit.PriorityList, src.Settings.SortingLayers),
		Inputs(src.Settings.InputAxes),
		unit.Scenes(LabelScenes, "Scene", unit.PriorityList, src.Settings.Scenes, units.Scenes.IgnoreDisabledScenes),
		unit.SpecialFolder(unit.FolderSpec{
			Label:             LabelResources,
			Type:              "Resource",
			Priority:          unit.PriorityFolder,
			SpecialFolderName: "Resources",
			HideExtension:     true,
			IsValidEntry: unit.AnywhereFilter{
				SpecialFolderName: "Resources",
				ScanAllFolders:    units.Resources.ScanAllFolders,
				FoldersToScan:     units.Resources.FoldersToScan,
			}.Accept,
			Description: "Any Resources folder inside the project, including packages.",
		}, src.Assets),
		rooted(LabelStreamingAssets, "StreamingAsset", "StreamingAssets", unit.PriorityFolder, false, units.StreamingAssets, src.Assets),
		rooted(LabelGizmos, "Gizmo", "Gizmos", unit.PriorityEditorFolder, false, units.Gizmos, src.Assets),
		rooted(LabelEditorDefaultResources, "EditorDefaultResource", "Editor Default Resources", unit.PriorityEditorFolder, true, units.EditorDefaultResources, src.Assets),
		Packages(src.Assets, units.Packages.PretendThereIsNoPackage),
	}
}

func rooted(label, typ, folder string, priority int, hideExt bool, fc config.FolderUnitConfig, assets unit.PathSource) unit.Unit {
	return unit.SpecialFolder(unit.FolderSpec{
		Label:             label,
		Type:              typ,
		Priority:          priority,
		SpecialFolderName: folder,
		HideExtension:     hideExt,
		IsValidEntry:      unit.RootedFilter(folder, fc.ScanAllFolders, fc.FoldersToScan).Accept,
		Description:       "The Assets/" + folder + " folder.",
	}, assets)
}

// Inputs builds the input axis unit. Axes sharing a member name (a positive and a negative axis
// usually do) are listed once, keeping the first.
func Inputs(source unit.ListSource) unit.Unit {
	return unit.Unit{
		Label:    LabelInputs,
		Type:     "Input",
		Priority: unit.PriorityList,
		Populate: func(ctx context.Context, set *entryset.Set) error {
			axes, err := source(ctx)
			if err != nil {
				return fmt.Errorf("load input axes: %w", err)
			}
			seen := make(map[string]struct{}, len(axes))
			for _, axis := range axes {
				name := naming.ToIdentifier(axis)
				if _, dup := seen[name]; dup {
					continue
				}
				seen[name] = struct{}{}
				set.Add(name, axis)
			}
			return nil
		},
	}
}

// Packages builds the unit listing every package in the project ("com.unity.ugui"). With
// pretend set the unit generates an empty enum.
func Packages(assets unit.PathSource, pretend bool) unit.Unit {
	return unit.Unit{
		Label:       LabelPackages,
		Type:        "Package",
		Priority:    PriorityPackages,
		Description: "Installed and embedded packages.",
		Populate: func(ctx context.Context, set *entryset.Set) error {
			if pretend {
				return nil
			}
			paths, err := assets.AssetPaths(ctx)
			if err != nil {
				return fmt.Errorf("enumerate packages: %w", err)
			}
			seen := make(map[string]struct{})
			for _, p := range paths {
				rest, ok := strings.CutPrefix(p, packagesPrefix)
				if !ok {
					continue
				}
				pkg, _, ok := strings.Cut(rest, "/")
				if !ok || pkg == "" {
					continue
				}
				if _, dup := seen[pkg]; dup {
					continue
				}
				seen[pkg] = struct{}{}
				set.Add(strings.ReplaceAll(pkg, ".", "_"), pkg)
			}
			return nil
		},
	}
}

// TypeFromLabel derives a unit type from a free-form label: "sound banks" becomes "SoundBanks".
func TypeFromLabel(label string) string {
	// Casers are stateful.
	return naming.ToIdentifier(cases.Title(language.English).String(label), "")
}

// Custom turns the configured custom units into fixed-value list units. A missing type is
// derived from the label and a zero priority means unit.PriorityList.
func Custom(defs []config.CustomUnit) ([]unit.Unit, error) {
	out := make([]unit.Unit, 0, len(defs))
	for _, def := range defs {
		typ := def.Type
		if typ == "" {
			typ = TypeFromLabel(def.Label)
		}
		if typ == "" {
			return nil, ferrors.ValidationError("custom unit needs a type").
				WithContext("label", def.Label).
				Build()
		}
		priority := def.Priority
		if priority == 0 {
			priority = unit.PriorityList
		}

		out = append(out, unit.Unit{
			Label:       def.Label,
			Type:        typ,
			Priority:    priority,
			Description: "Declared in the configuration file.",
			Populate:    fixedValues(append([]string(nil), def.Values...)),
		})
	}
	return out, nil
}

func fixedValues(values []string) unit.PopulateFunc {
	return func(_ context.Context, set *entryset.Set) error {
		for _, v := range values {
			set.Add(v, v)
		}
		return nil
	}
}
