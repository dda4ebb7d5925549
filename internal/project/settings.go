package project

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/unit"
)

// Settings assets read from ProjectSettings/.
const (
	TagManagerAsset          = "TagManager.asset"
	EditorBuildSettingsAsset = "EditorBuildSettings.asset"
	InputManagerAsset        = "InputManager.asset"
)

// BuiltinTags are defined by Unity itself and never listed in TagManager.asset.
var BuiltinTags = []string{"Untagged", "Respawn", "Finish", "EditorOnly", "MainCamera", "Player", "GameController"}

// Settings reads project settings assets.
type Settings struct {
	Project Project
}

// NewSettings returns a settings reader for p.
func NewSettings(p Project) *Settings {
	return &Settings{Project: p}
}

type tagManager struct {
	TagManager struct {
		Tags          []string `yaml:"tags"`
		// Empty layer slots are null items; pointers keep them so indices stay aligned.
		Layers        []*string `yaml:"layers"`
		SortingLayers []struct {
			Name     string `yaml:"name"`
			UniqueID int64  `yaml:"uniqueID"`
		} `yaml:"m_SortingLayers"`
	} `yaml:"TagManager"`
}

type editorBuildSettings struct {
	EditorBuildSettings struct {
		Scenes []struct {
			Enabled int    `yaml:"enabled"`
			Path    string `yaml:"path"`
		} `yaml:"m_Scenes"`
	} `yaml:"EditorBuildSettings"`
}

type inputManager struct {
	InputManager struct {
		Axes []struct {
			Name string `yaml:"m_Name"`
		} `yaml:"m_Axes"`
	} `yaml:"InputManager"`
}

// Tags returns the built-in tags followed by the project tags.
func (s *Settings) Tags(ctx context.Context) ([]string, error) {
	var doc tagManager
	if err := s.load(ctx, TagManagerAsset, &doc); err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(BuiltinTags)+len(doc.TagManager.Tags))
	tags = append(tags, BuiltinTags...)
	for _, tag := range doc.TagManager.Tags {
		if strings.TrimSpace(tag) != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// Layers returns the named layers with their layer index.
func (s *Settings) Layers(ctx context.Context) ([]unit.IndexedName, error) {
	var doc tagManager
	if err := s.load(ctx, TagManagerAsset, &doc); err != nil {
		return nil, err
	}
	var layers []unit.IndexedName
	for i, name := range doc.TagManager.Layers {
		if name == nil || strings.TrimSpace(*name) == "" {
			continue
		}
		layers = append(layers, unit.IndexedName{Name: *name, ID: i})
	}
	return layers, nil
}

// SortingLayers returns the sorting layers with their position in the sorting order.
func (s *Settings) SortingLayers(ctx context.Context) ([]unit.IndexedName, error) {
	var doc tagManager
	if err := s.load(ctx, TagManagerAsset, &doc); err != nil {
		return nil, err
	}
	layers := make([]unit.IndexedName, 0, len(doc.TagManager.SortingLayers))
	for i, layer := range doc.TagManager.SortingLayers {
		layers = append(layers, unit.IndexedName{Name: layer.Name, ID: i})
	}
	return layers, nil
}

// Scenes returns the build scene list in build order.
func (s *Settings) Scenes(ctx context.Context) ([]unit.SceneRef, error) {
	var doc editorBuildSettings
	if err := s.load(ctx, EditorBuildSettingsAsset, &doc); err != nil {
		return nil, err
	}
	scenes := make([]unit.SceneRef, 0, len(doc.EditorBuildSettings.Scenes))
	for _, scene := range doc.EditorBuildSettings.Scenes {
		scenes = append(scenes, unit.SceneRef{Path: scene.Path, Enabled: scene.Enabled != 0})
	}
	return scenes, nil
}

// InputAxes returns the axis names of the legacy input manager in declaration order.
func (s *Settings) InputAxes(ctx context.Context) ([]string, error) {
	var doc inputManager
	if err := s.load(ctx, InputManagerAsset, &doc); err != nil {
		return nil, err
	}
	axes := make([]string, 0, len(doc.InputManager.Axes))
	for _, axis := range doc.InputManager.Axes {
		axes = append(axes, axis.Name)
	}
	return axes, nil
}

func (s *Settings) load(ctx context.Context, asset string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Project.SettingsPath(asset)
	// #nosec G304 -- path is a fixed asset name below the configured project root.
	data, err := os.ReadFile(path)
	if err != nil {
		return ferrors.SourceError("read "+asset).
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	if err := DecodeUnityYAML(data, out); err != nil {
		return ferrors.SourceError("parse "+asset).
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}

// DecodeUnityYAML decodes the first document of a Unity serialized asset. Unity writes YAML 1.1
// with "%TAG !u!" directives and class-tagged document markers ("--- !u!78 &1") that a plain
// YAML decoder rejects; both are normalized first.
func DecodeUnityYAML(data []byte, out any) error {
	var clean bytes.Buffer
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "%"):
			continue
		case strings.HasPrefix(line, "--- "):
			line = "---"
		}
		clean.WriteString(line)
		clean.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan asset: %w", err)
	}

	if err := yaml.NewDecoder(&clean).Decode(out); err != nil {
		return fmt.Errorf("decode asset: %w", err)
	}
	return nil
}
