package attributes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truststack/scorer/internal/content"
	"github.com/truststack/scorer/internal/rubric"
)

func staticDetector(id string, value, confidence float64) Detector {
	return DetectorFunc{
		ID: id,
		Fn: func(context.Context, content.Item) (*Result, error) {
			return &Result{Value: value, Confidence: confidence}, nil
		},
	}
}

func failingDetector(id string) Detector {
	return DetectorFunc{
		ID: id,
		Fn: func(context.Context, content.Item) (*Result, error) {
			return nil, errors.New("backend unavailable")
		},
	}
}

func decliningDetector(id string) Detector {
	return DetectorFunc{
		ID: id,
		Fn: func(context.Context, content.Item) (*Result, error) {
			return nil, nil
		},
	}
}

func TestDetectSkipsDisabledAttributes(t *testing.T) {
	r := rubric.Default()
	agg := NewAggregator(
		staticDetector("citation_support", 8, 1.0),
		staticDetector("not_in_catalog", 10, 1.0),
	)

	results := agg.Detect(context.Background(), content.Item{}, r)

	require.Len(t, results, 1)
	assert.Equal(t, "citation_support", results[0].AttributeID)
	assert.Equal(t, rubric.DimVerification, results[0].Dimension)
}

func TestDetectHighestConfidenceWins(t *testing.T) {
	r := rubric.Default()
	agg := NewAggregator(
		staticDetector("citation_support", 9, 0.9),
		staticDetector("citation_support", 2, 0.5),
	)

	results := agg.Detect(context.Background(), content.Item{}, r)

	require.Len(t, results, 1)
	assert.Equal(t, 9.0, results[0].Value)
}

func TestDetectConfidenceTieKeepsLaterRegistration(t *testing.T) {
	r := rubric.Default()
	agg := NewAggregator(
		staticDetector("citation_support", 9, 0.7),
		staticDetector("citation_support", 2, 0.7),
	)

	results := agg.Detect(context.Background(), content.Item{}, r)

	require.Len(t, results, 1)
	assert.Equal(t, 2.0, results[0].Value)
}

func TestDetectErrorAndDeclineAreAbsent(t *testing.T) {
	r := rubric.Default()
	agg := NewAggregator(
		failingDetector("citation_support"),
		decliningDetector("tone_appropriateness"),
		staticDetector("ai_disclosure_present", 7, 0.8),
	)

	results := agg.Detect(context.Background(), content.Item{}, r)

	require.Len(t, results, 1)
	assert.Equal(t, "ai_disclosure_present", results[0].AttributeID)
}

func equalWeightRubric() *rubric.Rubric {
	r := rubric.Default()
	r.DimensionWeights = map[string]float64{
		rubric.DimProvenance:   0.2,
		rubric.DimResonance:    0.2,
		rubric.DimCoherence:    0.2,
		rubric.DimTransparency: 0.2,
		rubric.DimVerification: 0.2,
	}
	return r
}

func TestAggregateEmptyResultsIsMidpoint(t *testing.T) {
	agg := NewAggregator()
	r := equalWeightRubric()

	out, err := agg.Aggregate(nil, r)
	require.NoError(t, err)

	// Every dimension sits at the neutral 5.0, which rescales to 50.
	for _, dim := range rubric.Dimensions() {
		assert.InDelta(t, 50.0, out.DimensionScores[dim], 1e-9)
	}
	assert.InDelta(t, 50.0, out.CompositeScore, 1e-9)
	assert.Equal(t, "suspect", out.Label)
}

func TestAggregateConfidenceWeightedMean(t *testing.T) {
	agg := NewAggregator()
	r := equalWeightRubric()

	results := []Result{
		{AttributeID: "citation_support", Dimension: rubric.DimVerification, Value: 10, Confidence: 1.0},
		{AttributeID: "sponsored_label_consistency", Dimension: rubric.DimVerification, Value: 4, Confidence: 0.5},
	}

	out, err := agg.Aggregate(results, r)
	require.NoError(t, err)

	// (10*1.0 + 4*0.5) / 1.5 = 8.0, rescaled to 80.
	assert.InDelta(t, 80.0, out.DimensionScores[rubric.DimVerification], 1e-9)

	// Uncovered dimensions stay at the midpoint.
	assert.InDelta(t, 50.0, out.DimensionScores[rubric.DimProvenance], 1e-9)
}

func TestAggregateSingleStrongSignalReachesThreshold(t *testing.T) {
	agg := NewAggregator()

	// Provenance and resonance split the weight; the other dimensions
	// carry none.
	r := rubric.Default()
	r.DimensionWeights = map[string]float64{
		rubric.DimProvenance:   0.5,
		rubric.DimResonance:    0.5,
		rubric.DimCoherence:    0,
		rubric.DimTransparency: 0,
		rubric.DimVerification: 0,
	}

	results := []Result{
		{AttributeID: "source_domain_trust", Dimension: rubric.DimProvenance, Value: 10, Confidence: 1.0},
	}

	out, err := agg.Aggregate(results, r)
	require.NoError(t, err)

	// A perfect provenance signal plus an untouched resonance midpoint
	// averages exactly onto the authentic boundary.
	assert.InDelta(t, 100.0, out.DimensionScores[rubric.DimProvenance], 1e-9)
	assert.InDelta(t, 50.0, out.DimensionScores[rubric.DimResonance], 1e-9)
	assert.InDelta(t, 75.0, out.CompositeScore, 1e-9)
	assert.Equal(t, "authentic", out.Label)
}

func TestAggregateBonusAndPenalty(t *testing.T) {
	agg := NewAggregator()
	r := equalWeightRubric()

	strong := []Result{
		{AttributeID: "citation_support", Dimension: rubric.DimVerification, Value: 9, Confidence: 1.0},
	}
	out, err := agg.Aggregate(strong, r)
	require.NoError(t, err)
	assert.Equal(t, 10.0, out.Bonus)
	assert.Equal(t, 0.0, out.Penalty)

	weak := []Result{
		{AttributeID: "citation_support", Dimension: rubric.DimVerification, Value: 2, Confidence: 1.0},
	}
	out, err = agg.Aggregate(weak, r)
	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Bonus)
	assert.Equal(t, -10.0, out.Penalty)
}

func TestAggregateCompositeClamped(t *testing.T) {
	agg := NewAggregator()
	r := equalWeightRubric()
	r.Defaults.MaxTotalPenalty = -100

	results := []Result{
		{AttributeID: "citation_support", Dimension: rubric.DimVerification, Value: 1, Confidence: 1.0},
		{AttributeID: "sponsored_label_consistency", Dimension: rubric.DimVerification, Value: 1, Confidence: 1.0},
		{AttributeID: "author_identity_verified", Dimension: rubric.DimProvenance, Value: 1, Confidence: 1.0},
		{AttributeID: "title_body_consistency", Dimension: rubric.DimCoherence, Value: 1, Confidence: 1.0},
	}

	out, err := agg.Aggregate(results, r)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, out.CompositeScore, 0.0)
	assert.Equal(t, "inauthentic", out.Label)
}

func TestAggregateRejectsBadWeights(t *testing.T) {
	agg := NewAggregator()

	r := rubric.Default()
	r.DimensionWeights = map[string]float64{rubric.DimProvenance: 0}
	_, err := agg.Aggregate(nil, r)
	assert.Error(t, err)

	r = rubric.Default()
	r.DimensionWeights = map[string]float64{rubric.DimProvenance: -1, rubric.DimResonance: 2}
	_, err = agg.Aggregate(nil, r)
	assert.Error(t, err)
}

func TestLabelThresholds(t *testing.T) {
	th := rubric.Thresholds{Authentic: 75, Suspect: 40}

	assert.Equal(t, "authentic", Label(75, th))
	assert.Equal(t, "authentic", Label(100, th))
	assert.Equal(t, "suspect", Label(74.999, th))
	assert.Equal(t, "suspect", Label(40, th))
	assert.Equal(t, "inauthentic", Label(39.999, th))
	assert.Equal(t, "inauthentic", Label(0, th))
}

func TestWithExtraDoesNotMutateBase(t *testing.T) {
	r := rubric.Default()
	base := NewAggregator(staticDetector("citation_support", 5, 1.0))
	extended := base.WithExtra(staticDetector("tone_appropriateness", 5, 1.0))

	assert.Len(t, base.Detect(context.Background(), content.Item{}, r), 1)
	assert.Len(t, extended.Detect(context.Background(), content.Item{}, r), 2)
}
