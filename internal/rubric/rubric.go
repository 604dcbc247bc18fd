package rubric

import (
	"encoding/json"
	"math"
	"os"

	"go.uber.org/zap"

	"github.com/truststack/scorer/pkg/logger"
)

// The five trust dimensions every attribute rolls up into.
const (
	DimProvenance   = "provenance"
	DimResonance    = "resonance"
	DimCoherence    = "coherence"
	DimTransparency = "transparency"
	DimVerification = "verification"
)

func Dimensions() []string {
	return []string{DimProvenance, DimResonance, DimCoherence, DimTransparency, DimVerification}
}

type Attribute struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	Dimension string  `json:"dimension"`
	Enabled   bool    `json:"enabled"`
	Bonus     float64 `json:"bonus,omitempty"`
	Penalty   float64 `json:"penalty,omitempty"`
}

type Thresholds struct {
	Authentic float64 `json:"authentic"`
	Suspect   float64 `json:"suspect"`
}

type Defaults struct {
	MaxTotalBonus    float64 `json:"max_total_bonus"`
	MaxTotalPenalty  float64 `json:"max_total_penalty"`
	NormalizeWeights bool    `json:"normalize_weights"`
	MaxLLMItems      int     `json:"max_llm_items"`
	LLMModel         string  `json:"llm_model"`
	TriageMethod     string  `json:"triage_method"`
}

type Rubric struct {
	Version          string             `json:"version"`
	DimensionWeights map[string]float64 `json:"dimension_weights"`
	Thresholds       Thresholds         `json:"thresholds"`
	Attributes       []Attribute        `json:"attributes"`
	Defaults         Defaults           `json:"defaults"`
}

// EnabledAttributes returns the catalog entries detectors should run for,
// keyed by attribute id.
func (r *Rubric) EnabledAttributes() map[string]Attribute {
	out := make(map[string]Attribute)
	for _, attr := range r.Attributes {
		if attr.Enabled {
			out[attr.ID] = attr
		}
	}
	return out
}

// Default returns the built-in rubric used when no file is configured or
// the configured file cannot be loaded.
func Default() *Rubric {
	return &Rubric{
		Version: "1.0",
		DimensionWeights: map[string]float64{
			DimProvenance:   0.14705882352941177,
			DimResonance:    0.17647058823529413,
			DimCoherence:    0.2647058823529412,
			DimTransparency: 0.16176470588235295,
			DimVerification: 0.25,
		},
		Thresholds: Thresholds{Authentic: 75, Suspect: 40},
		Attributes: defaultAttributes(),
		Defaults: Defaults{
			MaxTotalBonus:    50,
			MaxTotalPenalty:  -50,
			NormalizeWeights: true,
			MaxLLMItems:      10,
			LLMModel:         "gpt-3.5-turbo",
			TriageMethod:     "top_uncertain",
		},
	}
}

func defaultAttributes() []Attribute {
	return []Attribute{
		{ID: "ai_labeling_clarity", Label: "AI vs human labeling clarity", Dimension: DimProvenance, Enabled: true, Bonus: 5, Penalty: -5},
		{ID: "author_identity_verified", Label: "Author/brand identity verified", Dimension: DimProvenance, Enabled: true, Bonus: 5, Penalty: -10},
		{ID: "source_domain_trust", Label: "Source domain trust baseline", Dimension: DimProvenance, Enabled: true},
		{ID: "readability_grade_fit", Label: "Readability grade level fit", Dimension: DimResonance, Enabled: true},
		{ID: "tone_appropriateness", Label: "Tone/sentiment appropriateness", Dimension: DimResonance, Enabled: true},
		{ID: "embedding_topic_similarity", Label: "Topic similarity to brand exemplars", Dimension: DimResonance, Enabled: true},
		{ID: "brand_voice_consistency", Label: "Brand voice consistency", Dimension: DimCoherence, Enabled: true},
		{ID: "title_body_consistency", Label: "Title/body consistency", Dimension: DimCoherence, Enabled: true, Penalty: -5},
		{ID: "ai_disclosure_present", Label: "AI generated/assisted disclosure", Dimension: DimTransparency, Enabled: true, Bonus: 5},
		{ID: "privacy_policy_linked", Label: "Privacy policy link availability", Dimension: DimTransparency, Enabled: true},
		{ID: "citation_support", Label: "Data source citations for claims", Dimension: DimVerification, Enabled: true, Bonus: 10, Penalty: -10},
		{ID: "sponsored_label_consistency", Label: "Ad/sponsored label consistency", Dimension: DimVerification, Enabled: true, Penalty: -10},
	}
}

// Store loads and holds the active rubric. Load never fails: a missing or
// malformed file falls back to the built-in default.
type Store struct {
	path   string
	rubric *Rubric
}

func NewStore(path string) *Store {
	s := &Store{path: path}
	s.rubric = s.load()
	return s
}

func (s *Store) Rubric() *Rubric {
	return s.rubric
}

// Reload re-reads the configured file, falling back to the default on any
// failure, and makes the result the active rubric.
func (s *Store) Reload() *Rubric {
	s.rubric = s.load()
	return s.rubric
}

func (s *Store) load() *Rubric {
	if s.path == "" {
		return normalize(Default())
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		logger.Warn("Rubric file not readable, using default rubric",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return normalize(Default())
	}

	var r Rubric
	if err := json.Unmarshal(data, &r); err != nil {
		logger.Warn("Rubric file not parseable, using default rubric",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return normalize(Default())
	}

	fillDefaults(&r)
	logger.Info("Rubric loaded",
		zap.String("path", s.path),
		zap.String("version", r.Version),
		zap.Int("attributes", len(r.Attributes)),
	)
	return normalize(&r)
}

func fillDefaults(r *Rubric) {
	def := Default()
	if r.Version == "" {
		r.Version = def.Version
	}
	if len(r.DimensionWeights) == 0 {
		r.DimensionWeights = def.DimensionWeights
	}
	if r.Thresholds.Authentic == 0 {
		r.Thresholds.Authentic = def.Thresholds.Authentic
	}
	if r.Thresholds.Suspect == 0 {
		r.Thresholds.Suspect = def.Thresholds.Suspect
	}
	if r.Defaults.MaxTotalBonus == 0 {
		r.Defaults.MaxTotalBonus = def.Defaults.MaxTotalBonus
	}
	if r.Defaults.MaxTotalPenalty == 0 {
		r.Defaults.MaxTotalPenalty = def.Defaults.MaxTotalPenalty
	}
	if r.Defaults.MaxLLMItems == 0 {
		r.Defaults.MaxLLMItems = def.Defaults.MaxLLMItems
	}
	if r.Defaults.LLMModel == "" {
		r.Defaults.LLMModel = def.Defaults.LLMModel
	}
	if r.Defaults.TriageMethod == "" {
		r.Defaults.TriageMethod = def.Defaults.TriageMethod
	}
}

func normalize(r *Rubric) *Rubric {
	if r.Defaults.NormalizeWeights || weightSumOff(r.DimensionWeights) {
		r.DimensionWeights = NormalizeWeights(r.DimensionWeights)
	}
	return r
}

func weightSumOff(weights map[string]float64) bool {
	var total float64
	for _, w := range weights {
		total += w
	}
	return math.Abs(total-1.0) > 1e-6
}

// NormalizeWeights rescales weights to sum to 1.0. A zero total is
// returned unchanged; the aggregator treats that as a contract violation.
func NormalizeWeights(weights map[string]float64) map[string]float64 {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return weights
	}
	out := make(map[string]float64, len(weights))
	for k, w := range weights {
		out[k] = w / total
	}
	return out
}
