package naming

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func TestToIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"empty", "", "_"},
		{"only dots", "...", "_"},
		{"leading digit", "123abc", "_123abc"},
		{"separators", "foo-bar/baz", "foo_bar_baz"},
		{"backslash", `Sub\Level`, "Sub_Level"},
		{"spaces dropped", "Ignore Raycast", "IgnoreRaycast"},
		{"extension dot dropped", "Sprites/hero.png", "Sprites_heropng"},
		{"non ascii dropped", "Café", "Caf"},
		{"already valid", "MainCamera", "MainCamera"},
		{"digit after separator", "1-2", "_1_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToIdentifier(tt.raw)
			assert.Equal(t, tt.expected, got)
			assert.Regexp(t, identifierPattern, got)
		})
	}
}

func TestToIdentifierFallback(t *testing.T) {
	assert.Equal(t, "Unnamed", ToIdentifier("???", "Unnamed"))
	assert.Equal(t, "ok", ToIdentifier("ok", "Unnamed"))
}

func TestToIdentifierAlwaysValid(t *testing.T) {
	inputs := []string{"", " ", "-", "0", "9lives", "a b c", "üñí", "__init__", "x/y\\z-w", "#$%", "..."}
	for _, in := range inputs {
		assert.Regexp(t, identifierPattern, ToIdentifier(in), "input %q", in)
	}
}

func TestToFolderPath(t *testing.T) {
	tests := []struct {
		raw      string
		fallback string
		expected string
	}{
		{"Generated", "", "Generated"},
		{"/Scripts/Generated/", "", "Scripts/Generated"},
		{`\Scripts\Generated\`, "", "Scripts/Generated"},
		{"My.Folder", "", "MyFolder"},
		{"a?b*c", "", "abc"},
		{"...", "Generated", "Generated"},
		{"///", "Generated", "Generated"},
		{"", "x", "x"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ToFolderPath(tt.raw, tt.fallback), "input %q", tt.raw)
	}
}

func TestToNamespace(t *testing.T) {
	assert.Equal(t, "Game.Generated", ToNamespace("Game.Generated"))
	assert.Equal(t, "Game", ToNamespace("12Game"))
	assert.Equal(t, "MyGame", ToNamespace("My Game!"))
	assert.Equal(t, "", ToNamespace("123"))
	assert.Equal(t, "Fallback", ToNamespace("---", "Fallback"))
}

func TestMatchSearch(t *testing.T) {
	assert.True(t, MatchSearch("", "Scenes"))
	assert.True(t, MatchSearch("   ", "Scenes"))
	assert.True(t, MatchSearch("scene", "Scenes"))
	assert.True(t, MatchSearch("foo LAYER", "Sorting Layers"))
	assert.False(t, MatchSearch("gizmo", "Resources"))
}
