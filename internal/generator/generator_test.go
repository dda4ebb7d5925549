package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/typedstrings/internal/entryset"
	ferrors "git.home.luguber.info/inful/typedstrings/internal/foundation/errors"
	"git.home.luguber.info/inful/typedstrings/internal/history"
	"git.home.luguber.info/inful/typedstrings/internal/notify"
	"git.home.luguber.info/inful/typedstrings/internal/render"
	"git.home.luguber.info/inful/typedstrings/internal/unit"
)

func listUnit(label, typ string, priority int, names ...string) unit.Unit {
	return unit.List(label, typ, priority, func(context.Context) ([]string, error) { return names, nil })
}

func failingUnit(label, typ string, priority int, err error) unit.Unit {
	return unit.Unit{Label: label, Type: typ, Priority: priority,
		Populate: func(context.Context, *entryset.Set) error { return err }}
}

func newRegistry(t *testing.T, units ...unit.Unit) *unit.Registry {
	t.Helper()
	r := unit.NewRegistry()
	for _, u := range units {
		require.NoError(t, r.Register(u))
	}
	return r
}

func options(dir string) Options {
	return Options{Destination: dir, Namespace: "Game", LineEnding: render.Unix}
}

type memoryJournal struct {
	units []history.UnitRecord
	runs  []history.RunRecord
}

func (m *memoryJournal) RecordUnit(_ context.Context, r history.UnitRecord) error {
	m.units = append(m.units, r)
	return nil
}

func (m *memoryJournal) RecordRun(_ context.Context, r history.RunRecord) error {
	m.runs = append(m.runs, r)
	return nil
}

type recordingPublisher struct {
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e notify.Event) error {
	p.events = append(p.events, e)
	return errors.New("broker down")
}

func (p *recordingPublisher) Close() error { return nil }

func TestGenerateAllWritesOneFilePerUnit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Generated")
	reg := newRegistry(t,
		listUnit("Tags", "Tag", unit.PriorityList, "Player", "Main Camera"),
		listUnit("Layers", "Layer", unit.PriorityList, "Default", "Water"),
	)
	journal := &memoryJournal{}
	var progress []Progress
	c := New(reg, WithJournal(journal), WithProgress(func(p Progress) { progress = append(progress, p) }))

	summary, err := c.GenerateAll(t.Context(), options(dir))
	require.NoError(t, err)

	assert.False(t, summary.Canceled)
	assert.Equal(t, 2, summary.Written())
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "Layers", summary.Results[0].Label)

	content, err := os.ReadFile(filepath.Join(dir, "TagType.cs"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "namespace Game")
	assert.Contains(t, string(content), `case TagType.MainCamera: return "Main Camera";`)
	assert.FileExists(t, filepath.Join(dir, "LayerType.cs"))

	require.Len(t, progress, 2)
	assert.Equal(t, Progress{Index: 1, Total: 2, Unit: "Tags"}, progress[1])
	assert.InDelta(t, 0.5, progress[1].Fraction(), 0.0001)

	require.Len(t, journal.units, 2)
	require.Len(t, journal.runs, 1)
	assert.Equal(t, "success", journal.runs[0].Outcome)
	assert.Equal(t, summary.RunID, journal.units[0].RunID)
}

func TestGenerateAllStopsWhenCanceledBeforeSecondUnit(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := newRegistry(t,
		listUnit("A", "A", 1, "one"),
		listUnit("B", "B", 2, "two"),
		listUnit("C", "C", 3, "three"),
	)
	c := New(reg, WithProgress(func(p Progress) {
		if p.Index == 0 {
			cancel()
		}
	}))

	summary, err := c.GenerateAll(ctx, options(dir))
	require.NoError(t, err)

	assert.True(t, summary.Canceled)
	assert.Len(t, summary.Results, 1)
	assert.FileExists(t, filepath.Join(dir, "AType.cs"))
	assert.NoFileExists(t, filepath.Join(dir, "BType.cs"))
	assert.NoFileExists(t, filepath.Join(dir, "CType.cs"))
}

func TestGenerateAllContinuesAfterSourceFailure(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("InputManager.asset missing")
	reg := newRegistry(t,
		failingUnit("Inputs", "Input", 1, boom),
		listUnit("Tags", "Tag", 2, "Player"),
	)
	publisher := &recordingPublisher{}
	c := New(reg, WithPublisher(publisher))

	summary, err := c.GenerateAll(t.Context(), options(dir))
	require.Error(t, err)

	assert.ErrorIs(t, err, boom)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategorySource))
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, "partial", string(summary.Outcome()))
	assert.NoFileExists(t, filepath.Join(dir, "InputType.cs"))
	assert.FileExists(t, filepath.Join(dir, "TagType.cs"))

	require.Len(t, publisher.events, 2)
	assert.Equal(t, "failed", publisher.events[0].Result)
	assert.Contains(t, publisher.events[0].Error, "InputManager.asset missing")
}

func TestGenerateAllWriteFailureIsFilesystemError(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	c := New(newRegistry(t, listUnit("Tags", "Tag", 1, "Player")))
	_, err := c.GenerateAll(t.Context(), options(filepath.Join(blocker, "Generated")))

	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestGenerateOne(t *testing.T) {
	dir := t.TempDir()
	c := New(newRegistry(t,
		listUnit("Tags", "Tag", 1, "Player"),
		listUnit("Layers", "Layer", 1, "Default"),
	))

	result, err := c.GenerateOne(t.Context(), "layers", options(dir))
	require.NoError(t, err)
	assert.Equal(t, "Layer", result.Type)
	assert.Equal(t, 1, result.Entries)
	assert.FileExists(t, filepath.Join(dir, "LayerType.cs"))
	assert.NoFileExists(t, filepath.Join(dir, "TagType.cs"))

	_, err = c.GenerateOne(t.Context(), "Nope", options(dir))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestReadinessRefusesRun(t *testing.T) {
	ready := false
	c := New(newRegistry(t, listUnit("Tags", "Tag", 1, "Player")), WithReadiness(func() bool { return ready }))

	_, err := c.GenerateAll(t.Context(), options(t.TempDir()))
	assert.ErrorIs(t, err, ErrNotReady)

	ready = true
	_, err = c.GenerateAll(t.Context(), options(t.TempDir()))
	assert.NoError(t, err)
}

func TestOverlappingRunIsRefused(t *testing.T) {
	var c *Coordinator
	var nested error
	reentrant := unit.Unit{Label: "Outer", Type: "Outer", Populate: func(ctx context.Context, _ *entryset.Set) error {
		_, nested = c.GenerateAll(ctx, options(t.TempDir()))
		return nil
	}}
	c = New(newRegistry(t, reentrant))

	_, err := c.GenerateAll(t.Context(), options(t.TempDir()))
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrNotReady)
}

func TestRenderDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	u := listUnit("Tags", "Tag", 1, "Player")
	c := New(newRegistry(t, u))

	file, err := c.Render(t.Context(), u, Options{Destination: dir, LineEnding: render.Windows})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "TagType.cs"), file.Path)
	assert.True(t, strings.HasSuffix(file.Content, "}\r\n"))
	assert.NoFileExists(t, file.Path)
}

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	c := New(newRegistry(t,
		listUnit("Tags", "Tag", 1, "Player"),
		listUnit("Layers", "Layer", 2, "Default"),
	))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TagType.cs"), []byte("x"), 0o600))

	locations := c.Locate(dir)
	require.Len(t, locations, 2)
	assert.Equal(t, "Tags", locations[0].Label)
	assert.True(t, locations[0].Exists)
	assert.False(t, locations[1].Exists)
}

func TestRelocateMovesFilesAndMetaAndCleansEmptyDirs(t *testing.T) {
	root := t.TempDir()
	assets := filepath.Join(root, "Assets")
	from := filepath.Join(assets, "Old", "Generated")
	to := filepath.Join(assets, "Scripts", "Generated")

	c := New(newRegistry(t,
		listUnit("Tags", "Tag", 1, "Player"),
		listUnit("Layers", "Layer", 2, "Default"),
	), WithBoundary(assets))

	_, err := c.GenerateAll(t.Context(), options(from))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(from, "TagType.cs.meta"), []byte("guid: 1"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "Old", "Generated.meta"), []byte("guid: 2"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "Old.meta"), []byte("guid: 3"), 0o600))

	result, err := c.Relocate(t.Context(), from, to)
	require.NoError(t, err)

	assert.Len(t, result.Moved, 3)
	assert.FileExists(t, filepath.Join(to, "TagType.cs"))
	assert.FileExists(t, filepath.Join(to, "TagType.cs.meta"))
	assert.FileExists(t, filepath.Join(to, "LayerType.cs"))

	assert.NoDirExists(t, from)
	assert.NoFileExists(t, filepath.Join(assets, "Old", "Generated.meta"))
	assert.NoDirExists(t, filepath.Join(assets, "Old"))
	assert.NoFileExists(t, filepath.Join(assets, "Old.meta"))
	assert.DirExists(t, assets)
}

func TestRelocateKeepsDirectoriesWithOtherFiles(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "Assets", "Shared")
	to := filepath.Join(root, "Assets", "Generated")
	require.NoError(t, os.MkdirAll(from, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(from, "TagType.cs"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(from, "Handwritten.cs"), []byte("y"), 0o600))

	c := New(newRegistry(t,
		listUnit("Tags", "Tag", 1, "Player"),
		listUnit("Layers", "Layer", 2, "Default"),
	), WithBoundary(root))

	result, err := c.Relocate(t.Context(), from, to)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(to, "TagType.cs")}, result.Moved)
	assert.Empty(t, result.Removed)
	assert.FileExists(t, filepath.Join(from, "Handwritten.cs"))
}

func TestRelocateContinuesPastBlockedFile(t *testing.T) {
	root := t.TempDir()
	from := filepath.Join(root, "Assets", "Old")
	to := filepath.Join(root, "Assets", "New")
	reg := newRegistry(t,
		listUnit("Tags", "Tag", 1, "Player"),
		listUnit("Layers", "Layer", 2, "Default"),
	)
	c := New(reg, WithBoundary(root))

	_, err := c.GenerateAll(t.Context(), options(from))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(to, "TagType.cs"), 0o750))

	result, err := c.Relocate(t.Context(), from, to)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
	assert.Equal(t, []string{filepath.Join(to, "LayerType.cs")}, result.Moved)
	assert.FileExists(t, filepath.Join(from, "TagType.cs"))
	assert.DirExists(t, from)

	summary, err := c.GenerateAll(t.Context(), options(to))
	require.Error(t, err)
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, 1, summary.Written())
	assert.FileExists(t, filepath.Join(to, "LayerType.cs"))
}

func TestRelocateSameFolderIsNoop(t *testing.T) {
	dir := t.TempDir()
	c := New(newRegistry(t, listUnit("Tags", "Tag", 1, "Player")))

	result, err := c.Relocate(t.Context(), dir, dir+string(filepath.Separator))
	require.NoError(t, err)
	assert.Empty(t, result.Moved)
	assert.DirExists(t, dir)
}

func TestWithin(t *testing.T) {
	base := filepath.Join("project", "Assets")
	assert.True(t, within(filepath.Join(base, "Generated"), base))
	assert.False(t, within(base, base))
	assert.False(t, within("project", base))
	assert.False(t, within(filepath.Join("project", "Assets2"), base))
}
