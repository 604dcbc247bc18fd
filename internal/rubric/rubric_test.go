package rubric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRubric(t *testing.T) {
	r := Default()

	assert.Equal(t, "1.0", r.Version)
	assert.Len(t, r.Attributes, 12)
	assert.Equal(t, 75.0, r.Thresholds.Authentic)
	assert.Equal(t, 40.0, r.Thresholds.Suspect)

	var total float64
	for _, dim := range Dimensions() {
		w, ok := r.DimensionWeights[dim]
		require.True(t, ok, "missing weight for %s", dim)
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestStoreMissingFileFallsBack(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "does-not-exist.json"))
	r := s.Rubric()

	require.NotNil(t, r)
	assert.Equal(t, "1.0", r.Version)
	assert.Len(t, r.Attributes, 12)
}

func TestStoreMalformedFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rubric.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := NewStore(path)
	r := s.Rubric()

	require.NotNil(t, r)
	assert.Equal(t, "1.0", r.Version)
}

func TestStoreLoadsAndNormalizes(t *testing.T) {
	rubricJSON := `{
		"version": "2.1",
		"dimension_weights": {
			"provenance": 2,
			"resonance": 2,
			"coherence": 2,
			"transparency": 2,
			"verification": 2
		},
		"thresholds": {"authentic": 80, "suspect": 50},
		"attributes": [
			{"id": "citation_support", "label": "Citations", "dimension": "verification", "enabled": true},
			{"id": "tone_appropriateness", "label": "Tone", "dimension": "resonance", "enabled": false}
		],
		"defaults": {"normalize_weights": true}
	}`
	path := filepath.Join(t.TempDir(), "rubric.json")
	require.NoError(t, os.WriteFile(path, []byte(rubricJSON), 0644))

	s := NewStore(path)
	r := s.Rubric()

	assert.Equal(t, "2.1", r.Version)
	assert.Equal(t, 80.0, r.Thresholds.Authentic)
	assert.Equal(t, 50.0, r.Thresholds.Suspect)

	// Equal raw weights normalize to 0.2 each.
	for _, dim := range Dimensions() {
		assert.InDelta(t, 0.2, r.DimensionWeights[dim], 1e-9)
	}

	// Unspecified defaults fill from the built-in rubric.
	assert.Equal(t, 10, r.Defaults.MaxLLMItems)
	assert.Equal(t, "gpt-3.5-turbo", r.Defaults.LLMModel)

	enabled := r.EnabledAttributes()
	assert.Contains(t, enabled, "citation_support")
	assert.NotContains(t, enabled, "tone_appropriateness")
}

func TestStorePartialThresholdsFillIndependently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rubric.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "2.2", "thresholds": {"authentic": 90}}`), 0644))

	s := NewStore(path)
	r := s.Rubric()

	assert.Equal(t, 90.0, r.Thresholds.Authentic)
	assert.Equal(t, 40.0, r.Thresholds.Suspect)
}

func TestStoreReloadPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rubric.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "3.0"}`), 0644))

	s := NewStore(path)
	assert.Equal(t, "3.0", s.Rubric().Version)

	require.NoError(t, os.WriteFile(path, []byte(`{"version": "3.1"}`), 0644))
	assert.Equal(t, "3.1", s.Reload().Version)
}

func TestNormalizeWeights(t *testing.T) {
	weights := map[string]float64{"a": 1, "b": 3}
	out := NormalizeWeights(weights)
	assert.InDelta(t, 0.25, out["a"], 1e-9)
	assert.InDelta(t, 0.75, out["b"], 1e-9)

	// Zero total returned unchanged.
	zero := map[string]float64{"a": 0}
	assert.Equal(t, zero, NormalizeWeights(zero))
}
