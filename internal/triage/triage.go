package triage

import (
	"strings"

	"go.uber.org/zap"

	"github.com/truststack/scorer/internal/content"
	"github.com/truststack/scorer/pkg/logger"
)

const (
	baseScore     = 0.5
	keywordBoost  = 0.20
	shortPenalty  = 0.10
	linkBoost     = 0.05
	shortTokenMin = 30

	DefaultPromoteThreshold = 0.6
)

// Scorer is the cheap pre-filter deciding which items proceed to
// expensive analysis. Keyword-only triage is a deliberate precision/cost
// trade-off: topically relevant content without an explicit brand mention
// will be demoted.
type Scorer struct {
	promoteThreshold float64
}

func NewScorer(promoteThreshold float64) *Scorer {
	if promoteThreshold <= 0 {
		promoteThreshold = DefaultPromoteThreshold
	}
	return &Scorer{promoteThreshold: promoteThreshold}
}

// Score estimates authenticity likelihood in [0,1]. Each matching brand
// keyword compounds the boost.
func (s *Scorer) Score(item content.Item, brandKeywords []string) float64 {
	text := strings.ToLower(item.Text())

	score := baseScore

	for _, kw := range brandKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			score += keywordBoost
		}
	}

	if len(strings.Fields(text)) < shortTokenMin {
		score -= shortPenalty
	}

	if strings.Contains(text, "http://") || strings.Contains(text, "https://") {
		score += linkBoost
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	logger.Debug("Triage score computed",
		zap.String("content_id", item.ContentID),
		zap.Float64("score", score),
	)
	return score
}

// Scored pairs an item with the triage score that decided its fate, so
// downstream reporting reuses the exact score the promotion was based on.
type Scored struct {
	Item  content.Item
	Score float64
}

// Filter partitions items into promoted (score >= threshold) and demoted.
// A non-positive threshold falls back to the configured default.
func (s *Scorer) Filter(items []content.Item, brandKeywords []string, threshold float64) (promoted, demoted []Scored) {
	if threshold <= 0 {
		threshold = s.promoteThreshold
	}

	for _, item := range items {
		scored := Scored{Item: item, Score: s.Score(item, brandKeywords)}
		if scored.Score >= threshold {
			promoted = append(promoted, scored)
		} else {
			demoted = append(demoted, scored)
		}
	}

	logger.Info("Triage filter completed",
		zap.Int("promoted", len(promoted)),
		zap.Int("demoted", len(demoted)),
		zap.Float64("threshold", threshold),
	)
	return promoted, demoted
}
