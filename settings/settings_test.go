package settings

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shimwrapper-dashboard/catalog"
)

func TestDefaultsAreNormalized(t *testing.T) {
	d := Defaults()
	if diff := cmp.Diff(d, Normalize(d)); diff != "" {
		t.Fatalf("Normalize(Defaults()) changed the value (-want +got):\n%s", diff)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	s := Settings{
		Presets: []Preset{
			{ID: "a", Name: " A ", Providers: []string{"git", "git", "svn"}},
			{ID: "a", Name: "dup"},
			{ID: BaselinePresetID, Name: "Renamed"},
		},
		ActivePresetID: "missing",
		CheckToggles:   map[string]bool{"frontend": false, "lint": true, "ghost": true},
		CheckSettings:  map[string]map[string]any{"aiReview": {"mode": "bogus", "extra": 1.0}, "ghost": {"x": 1}},
		CheckOrder:     []string{"lint", "ghost", "lint", "semgrep"},
	}
	once := Normalize(s)
	twice := Normalize(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("Normalize not idempotent (-once +twice):\n%s", diff)
	}

	assert.Equal(t, BaselinePresetID, once.ActivePresetID)
	require.Len(t, once.Presets, 2)
	assert.Equal(t, "A", once.Presets[0].Name)
	assert.Equal(t, []string{"git"}, once.Presets[0].Providers)
	assert.Equal(t, BaselinePresetName, once.Presets[1].Name)
	assert.Equal(t, []string{"lint", "semgrep"}, once.CheckOrder)
	assert.Equal(t, "full", once.CheckSettings["aiReview"]["mode"])
	assert.Equal(t, 1.0, once.CheckSettings["aiReview"]["extra"])
	assert.NotContains(t, once.CheckSettings, "ghost")
	assert.Equal(t, DefaultReviewOutputPath, once.ReviewOutputPath)
}

func TestNormalizePrependsMissingBaseline(t *testing.T) {
	s := Normalize(Settings{Presets: []Preset{{ID: "mine", Name: "Mine"}}, ActivePresetID: "mine"})
	require.Len(t, s.Presets, 2)
	assert.Equal(t, BaselinePresetID, s.Presets[0].ID)
	assert.Equal(t, "mine", s.ActivePresetID)
}

func TestLegacyTogglesExpand(t *testing.T) {
	var stored map[string]bool
	require.NoError(t, json.Unmarshal([]byte(`{"frontend":true,"backend":false}`), &stored))

	got := MigrateToggles(stored)
	assert.NotContains(t, got, LegacyFrontendKey)
	assert.NotContains(t, got, LegacyBackendKey)
	for _, id := range catalog.Bundle(catalog.BundleFrontend) {
		assert.True(t, got[id], id)
	}
	for _, id := range catalog.Bundle(catalog.BundleBackend) {
		assert.False(t, got[id], id)
	}
	// untouched checks keep catalog defaults
	assert.False(t, got["snyk"])
	assert.True(t, got["semgrep"])
}

func TestSpecificToggleBeatsLegacy(t *testing.T) {
	got := MigrateToggles(map[string]bool{"frontend": false, "lint": true})
	assert.True(t, got["lint"])
	assert.False(t, got["prettier"])
}

func TestCoerce(t *testing.T) {
	c, _ := catalog.Lookup("lint")
	fix, _ := c.Schema("fix")
	maxW, _ := c.Schema("maxWarnings")

	v, ok := Coerce(fix, "true")
	assert.True(t, ok)
	assert.Equal(t, true, v)

	v, ok = Coerce(maxW, 12.0)
	assert.True(t, ok)
	assert.Equal(t, 12, v)

	_, ok = Coerce(maxW, 1.5)
	assert.False(t, ok)

	ai, _ := catalog.Lookup("aiReview")
	mode, _ := ai.Schema("mode")
	_, ok = Coerce(mode, "everything")
	assert.False(t, ok)
}

func TestEnabledFallsBackToCatalog(t *testing.T) {
	s := Settings{CheckToggles: map[string]bool{}}
	assert.True(t, s.Enabled("lint"))
	assert.False(t, s.Enabled("snyk"))
	assert.False(t, s.Enabled("retired"))
}

func TestCloneIsDeep(t *testing.T) {
	s := Defaults()
	c := s.Clone()
	c.CheckOrder[0] = "changed"
	c.CheckToggles["lint"] = false
	c.Presets[0].Supabase.Enforce[0] = "changed"
	c.CheckSettings["aiReview"]["mode"] = "mix"

	assert.NotEqual(t, "changed", s.CheckOrder[0])
	assert.True(t, s.CheckToggles["lint"])
	assert.NotEqual(t, "changed", s.Presets[0].Supabase.Enforce[0])
	assert.Equal(t, "full", s.CheckSettings["aiReview"]["mode"])
}
