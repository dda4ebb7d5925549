package unit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/typedstrings/internal/entryset"
)

func noop(context.Context, *entryset.Set) error { return nil }

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		unit    Unit
		wantErr error
	}{
		{"valid", Unit{Label: "Tags", Type: "Tag", Populate: noop}, nil},
		{"missing label", Unit{Type: "Tag", Populate: noop}, ErrMissingLabel},
		{"missing type", Unit{Label: "Tags", Populate: noop}, ErrMissingType},
		{"invalid type", Unit{Label: "Tags", Type: "My Tag", Populate: noop}, ErrInvalidType},
		{"digit type", Unit{Label: "Tags", Type: "2D", Populate: noop}, ErrInvalidType},
		{"missing populate", Unit{Label: "Tags", Type: "Tag"}, ErrMissingPopulate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.unit.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileName(t *testing.T) {
	u := Unit{Label: "Scenes", Type: "Scene"}
	assert.Equal(t, "SceneType.cs", u.FileName())
	assert.Equal(t, "SceneType", TypeName("Scene"))
	assert.Contains(t, u.String(), "SceneType.cs")
}

func TestRegistryOrdersByPriorityThenLabel(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(
		Unit{Label: "Streaming Assets", Type: "StreamingAsset", Priority: PriorityFolder, Populate: noop},
		Unit{Label: "Tags", Type: "Tag", Priority: PriorityList, Populate: noop},
		Unit{Label: "Gizmos", Type: "Gizmo", Priority: PriorityEditorFolder, Populate: noop},
		Unit{Label: "Layers", Type: "Layer", Priority: PriorityList, Populate: noop},
		Unit{Label: "Packages", Type: "Package", Priority: -1000, Populate: noop},
		Unit{Label: "Resources", Type: "Resource", Priority: PriorityFolder, Populate: noop},
	)

	var labels []string
	for _, u := range r.Units() {
		labels = append(labels, u.Label)
	}
	assert.Equal(t, []string{"Packages", "Layers", "Tags", "Resources", "Streaming Assets", "Gizmos"}, labels)
	assert.Equal(t, 6, r.Count())
}

func TestRegistryRejectsDuplicateType(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Unit{Label: "Tags", Type: "Tag", Populate: noop}))

	err := r.Register(Unit{Label: "More Tags", Type: "Tag", Populate: noop})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
	assert.Panics(t, func() { r.MustRegister(Unit{Label: "Bad"}) })
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Unit{Label: "Sorting Layers", Type: "SortingLayer", Populate: noop})

	for _, key := range []string{"SortingLayer", "sorting layers", "sortinglayertype.cs"} {
		u, ok := r.Lookup(key)
		require.True(t, ok, key)
		assert.Equal(t, "SortingLayer", u.Type)
	}

	_, ok := r.Lookup("Tags")
	assert.False(t, ok)
}

func assetPaths(paths ...string) PathSource {
	return PathSourceFunc(func(context.Context) ([]string, error) { return paths, nil })
}

func populate(t *testing.T, u Unit) []entryset.Entry {
	t.Helper()
	set := entryset.New()
	require.NoError(t, u.Populate(context.Background(), set))
	return set.Entries()
}

func TestSpecialFolderKeepsExtension(t *testing.T) {
	filter := RootedFilter("StreamingAssets", true, nil)
	u := SpecialFolder(FolderSpec{
		Label:             "Streaming Assets",
		Type:              "StreamingAsset",
		SpecialFolderName: "StreamingAssets",
		IsValidEntry:      filter.Accept,
	}, assetPaths(
		"Assets/StreamingAssets/config.json",
		"Assets/StreamingAssets/Video/intro.mp4",
		"Assets/StreamingAssets/Audio/intro.mp4",
		"Assets/Other/StreamingAssets/ignored.txt",
		"Assets/Scripts/Player.cs",
	))

	entries := populate(t, u)
	require.Len(t, entries, 3)
	assert.Equal(t, "config", entries[0].Identifier)
	assert.Equal(t, "config.json", entries[0].Value)
	assert.Equal(t, "Video_intro_mp4", entries[1].Identifier)
	assert.Equal(t, "Video/intro.mp4", entries[1].Value)
	assert.Equal(t, "Audio_intro_mp4", entries[2].Identifier)
}

func TestSpecialFolderHidesExtension(t *testing.T) {
	filter := AnywhereFilter{SpecialFolderName: "Resources", FoldersToScan: []string{"Assets"}}
	u := SpecialFolder(FolderSpec{
		Label:             "Resources",
		Type:              "Resource",
		SpecialFolderName: "Resources",
		HideExtension:     true,
		IsValidEntry:      filter.Accept,
	}, assetPaths(
		"Assets/Resources/Prefabs/Enemy.prefab",
		"Assets/UI/Resources/Icons/hero.png",
		"Packages/com.foo/Resources/skip.asset",
	))

	entries := populate(t, u)
	require.Len(t, entries, 2)
	assert.Equal(t, "Enemy", entries[0].Identifier)
	assert.Equal(t, "Prefabs/Enemy", entries[0].Value)
	assert.Equal(t, "hero", entries[1].Identifier)
	assert.Equal(t, "Icons/hero", entries[1].Value)
}

func TestSpecialFolderSourceError(t *testing.T) {
	boom := errors.New("disk gone")
	u := SpecialFolder(FolderSpec{Label: "Gizmos", Type: "Gizmo", SpecialFolderName: "Gizmos"},
		PathSourceFunc(func(context.Context) ([]string, error) { return nil, boom }))

	err := u.Populate(context.Background(), entryset.New())
	assert.ErrorIs(t, err, boom)
}

func TestContentFilter(t *testing.T) {
	f := RootedFilter("StreamingAssets", false, []string{"Video", " ", ""})

	assert.True(t, f.Accept("Assets/StreamingAssets/Video/a.mp4"))
	assert.False(t, f.Accept("Assets/StreamingAssets/Audio/a.ogg"))
	assert.False(t, f.Accept("Assets/Video/a.mp4"))

	empty := RootedFilter("StreamingAssets", false, []string{""})
	assert.False(t, empty.Accept("Assets/StreamingAssets/a.txt"))
}

func TestAnywhereFilter(t *testing.T) {
	f := AnywhereFilter{SpecialFolderName: "Resources", FoldersToScan: []string{"Assets/Game"}}

	assert.True(t, f.Accept("Assets/Game/Resources/a.png"))
	assert.False(t, f.Accept("Assets/Plugins/Resources/a.png"))
	assert.False(t, f.Accept("Assets/Game/a.png"))

	f.ScanAllFolders = true
	assert.True(t, f.Accept("Assets/Plugins/Resources/a.png"))
}

func TestListUnit(t *testing.T) {
	u := List("Tags", "Tag", PriorityList, func(context.Context) ([]string, error) {
		return []string{"Untagged", "Main Camera", "Untagged"}, nil
	})

	entries := populate(t, u)
	require.Len(t, entries, 2)
	assert.Equal(t, "MainCamera", entries[1].Identifier)
	assert.Equal(t, "Main Camera", entries[1].Value)
}

func TestIndexedListUnit(t *testing.T) {
	u := IndexedList("Layers", "Layer", PriorityList, func(context.Context) ([]IndexedName, error) {
		return []IndexedName{{Name: "Default", ID: 0}, {Name: "Water", ID: 4}}, nil
	})

	entries := populate(t, u)
	require.Len(t, entries, 2)
	assert.True(t, entries[1].HasID)
	assert.Equal(t, 4, entries[1].ID)
}

func TestSceneEntries(t *testing.T) {
	names, values := SceneEntries([]SceneRef{
		{Path: "Assets/Scenes/Menu.unity", Enabled: true},
		{Path: "Assets/Scenes/Disabled.unity", Enabled: false},
		{Path: "Assets/Scenes/Level.unity", Enabled: true},
		{Path: "", Enabled: true},
		{Path: "Assets/Scenes/Other/Level.unity", Enabled: true},
	}, true)

	assert.Equal(t, []string{"Menu", "Scenes/Level", "Scenes/Other/Level"}, names)
	assert.Equal(t, []string{"Scenes/Menu", "Scenes/Level", "Scenes/Other/Level"}, values)

	// A scene listed twice keeps both positions; the unit later drops the exact repeat.
	names, values = SceneEntries([]SceneRef{
		{Path: "Assets/Menu.unity", Enabled: true},
		{Path: "Assets/Menu.unity", Enabled: true},
	}, true)
	assert.Equal(t, []string{"Menu", "Menu"}, names)
	assert.Equal(t, []string{"Menu", "Menu"}, values)
}

func TestScenesUnitDropsRepeatedSceneAndKeepsBuildIndices(t *testing.T) {
	u := Scenes("Scenes", "Scene", PriorityList, func(context.Context) ([]SceneRef, error) {
		return []SceneRef{
			{Path: "Assets/Scenes/Menu.unity", Enabled: true},
			{Path: "Assets/Scenes/Menu.unity", Enabled: true},
			{Path: "Assets/Scenes/Level.unity", Enabled: true},
		}, nil
	}, true)

	entries := populate(t, u)
	require.Len(t, entries, 2)
	assert.Equal(t, "Scenes_Menu", entries[0].Identifier)
	assert.Equal(t, 0, entries[0].ID)
	assert.Equal(t, "Level", entries[1].Identifier)
	assert.Equal(t, 2, entries[1].ID)
}

func TestSceneEntriesKeepsDisabled(t *testing.T) {
	names, _ := SceneEntries([]SceneRef{
		{Path: "Assets/A.unity", Enabled: false},
		{Path: "Assets/B.unity", Enabled: true},
	}, false)

	assert.Equal(t, []string{"A", "B"}, names)
}

func TestScenesUnitAssignsBuildIndices(t *testing.T) {
	u := Scenes("Scenes", "Scene", PriorityList, func(context.Context) ([]SceneRef, error) {
		return []SceneRef{
			{Path: "Assets/Scenes/Boot.unity", Enabled: false},
			{Path: "Assets/Scenes/Menu.unity", Enabled: true},
			{Path: "Assets/Scenes/Level.unity", Enabled: true},
			{Path: "Assets/Scenes/Other/Level.unity", Enabled: true},
		}, nil
	}, true)

	entries := populate(t, u)
	require.Len(t, entries, 3)
	assert.Equal(t, "Menu", entries[0].Identifier)
	assert.Equal(t, 0, entries[0].ID)
	assert.Equal(t, "Scenes_Level", entries[1].Identifier)
	assert.Equal(t, 1, entries[1].ID)
	assert.Equal(t, "Scenes_Other_Level", entries[2].Identifier)
	assert.Equal(t, 2, entries[2].ID)
	assert.Equal(t, "Scenes/Other/Level", entries[2].Value)
}
