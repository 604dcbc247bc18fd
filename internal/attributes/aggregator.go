package attributes

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/truststack/scorer/internal/content"
	"github.com/truststack/scorer/internal/metrics"
	"github.com/truststack/scorer/internal/rubric"
	"github.com/truststack/scorer/pkg/logger"
)

const neutralValue = 5.0

// Aggregation is the per-item output of the aggregator: rescaled 0-100
// dimension scores, the weighted composite, and the threshold label.
type Aggregation struct {
	DimensionScores map[string]float64 `json:"dimension_scores"`
	CompositeScore  float64            `json:"composite_score"`
	Label           string             `json:"label"`
	Bonus           float64            `json:"bonus"`
	Penalty         float64            `json:"penalty"`
}

// Aggregator fans content out to registered detectors and folds their
// results into dimension and composite scores under the active rubric.
type Aggregator struct {
	detectors []Detector
}

func NewAggregator(detectors ...Detector) *Aggregator {
	return &Aggregator{detectors: detectors}
}

// WithExtra returns an aggregator running the receiver's detectors plus
// the given ones, registered last. Used for run-scoped detectors that
// need per-request parameters, such as brand voice.
func (a *Aggregator) WithExtra(ds ...Detector) *Aggregator {
	combined := make([]Detector, 0, len(a.detectors)+len(ds))
	combined = append(combined, a.detectors...)
	combined = append(combined, ds...)
	return &Aggregator{detectors: combined}
}

// Register appends a detector. Registration order matters: when two
// detectors report the same attribute with equal confidence, the most
// recently registered one wins.
func (a *Aggregator) Register(d Detector) {
	a.detectors = append(a.detectors, d)
}

// Detect runs every registered detector whose attribute is enabled in the
// rubric catalog. One result is retained per attribute id: highest
// confidence first, ties resolved in favor of the most recently
// registered detector. Detector errors contribute an absent signal.
func (a *Aggregator) Detect(ctx context.Context, item content.Item, r *rubric.Rubric) []Result {
	enabled := r.EnabledAttributes()

	best := make(map[string]Result)
	var order []string

	for _, d := range a.detectors {
		spec, ok := enabled[d.AttributeID()]
		if !ok {
			continue
		}

		result, err := d.Detect(ctx, item)
		if err != nil {
			logger.Warn("Attribute detector failed, treating signal as absent",
				zap.String("attribute_id", d.AttributeID()),
				zap.String("content_id", item.ContentID),
				zap.Error(err),
			)
			metrics.DetectorFailures.WithLabelValues(d.AttributeID()).Inc()
			continue
		}
		if result == nil {
			continue
		}

		result.AttributeID = d.AttributeID()
		result.Dimension = spec.Dimension

		prev, seen := best[result.AttributeID]
		if !seen {
			order = append(order, result.AttributeID)
		}
		// >= keeps the later registration on confidence ties.
		if !seen || result.Confidence >= prev.Confidence {
			best[result.AttributeID] = *result
		}
	}

	results := make([]Result, 0, len(order))
	for _, id := range order {
		results = append(results, best[id])
	}
	return results
}

// Aggregate folds attribute results into dimension scores and a composite
// score. Dimensions with no results contribute the neutral midpoint so
// sparse coverage does not shift weight onto the covered dimensions.
func (a *Aggregator) Aggregate(results []Result, r *rubric.Rubric) (Aggregation, error) {
	weights := rubric.NormalizeWeights(r.DimensionWeights)
	if err := checkWeights(weights); err != nil {
		return Aggregation{}, err
	}

	type sums struct {
		weighted   float64
		confidence float64
	}
	byDimension := make(map[string]sums)
	for _, res := range results {
		s := byDimension[res.Dimension]
		s.weighted += res.Value * res.Confidence
		s.confidence += res.Confidence
		byDimension[res.Dimension] = s
	}

	dimensionScores := make(map[string]float64, 5)
	composite := 0.0
	for _, dim := range rubric.Dimensions() {
		mean := neutralValue
		if s, ok := byDimension[dim]; ok && s.confidence > 0 {
			mean = s.weighted / s.confidence
		}
		score100 := rescale(mean)
		dimensionScores[dim] = score100
		composite += score100 * weights[dim]
	}

	bonus, penalty := a.adjustments(results, r)
	composite = clamp(composite+bonus+penalty, 0, 100)

	return Aggregation{
		DimensionScores: dimensionScores,
		CompositeScore:  composite,
		Label:           Label(composite, r.Thresholds),
		Bonus:           bonus,
		Penalty:         penalty,
	}, nil
}

// adjustments sums per-attribute bonus/penalty points. A strong result
// (value >= 8) earns the attribute's bonus, a weak one (value <= 3) its
// penalty; totals are clamped to the rubric caps.
func (a *Aggregator) adjustments(results []Result, r *rubric.Rubric) (bonus, penalty float64) {
	catalog := r.EnabledAttributes()
	for _, res := range results {
		spec, ok := catalog[res.AttributeID]
		if !ok {
			continue
		}
		if res.Value >= 8 && spec.Bonus > 0 {
			bonus += spec.Bonus
		}
		if res.Value <= 3 && spec.Penalty < 0 {
			penalty += spec.Penalty
		}
	}
	if bonus > r.Defaults.MaxTotalBonus {
		bonus = r.Defaults.MaxTotalBonus
	}
	if penalty < r.Defaults.MaxTotalPenalty {
		penalty = r.Defaults.MaxTotalPenalty
	}
	return bonus, penalty
}

// Label assigns the classification for a composite score. Both boundaries
// compare with >=; threshold values come from configuration only.
func Label(composite float64, t rubric.Thresholds) string {
	switch {
	case composite >= t.Authentic:
		return "authentic"
	case composite >= t.Suspect:
		return "suspect"
	default:
		return "inauthentic"
	}
}

func checkWeights(weights map[string]float64) error {
	var total float64
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("negative dimension weight: %f", w)
		}
		total += w
	}
	if math.Abs(total-1.0) > 1e-6 {
		return fmt.Errorf("dimension weights sum to %f, want 1.0", total)
	}
	return nil
}

// rescale maps the 10-point attribute scale onto 0-100. The neutral 5.0
// midpoint lands exactly on 50.
func rescale(value float64) float64 {
	return clamp(value*10.0, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
