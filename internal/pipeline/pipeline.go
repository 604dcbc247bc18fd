package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/truststack/scorer/internal/attributes"
	"github.com/truststack/scorer/internal/classify"
	"github.com/truststack/scorer/internal/content"
	"github.com/truststack/scorer/internal/gate"
	"github.com/truststack/scorer/internal/metrics"
	"github.com/truststack/scorer/internal/rubric"
	"github.com/truststack/scorer/internal/storage/models"
	"github.com/truststack/scorer/internal/storage/sqlite"
	"github.com/truststack/scorer/internal/triage"
	"github.com/truststack/scorer/pkg/logger"
)

// Request carries one scoring run: the brand under evaluation, its
// triage keywords, and the normalized content batch.
type Request struct {
	Brand            string
	BrandKeywords    []string
	PromoteThreshold float64
	Items            []content.Item
}

// ItemReport is the per-item outcome inside a run report.
type ItemReport struct {
	ContentID       string             `json:"content_id"`
	Source          string             `json:"source"`
	TriageScore     float64            `json:"triage_score"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	CompositeScore  float64            `json:"composite_score"`
	Label           string             `json:"label"`
	Confidence      float64            `json:"confidence"`
	Notes           string             `json:"notes,omitempty"`
}

// SkipReport records one item rejected before scoring.
type SkipReport struct {
	ContentID string `json:"content_id"`
	Reason    string `json:"reason"`
	URL       string `json:"url,omitempty"`
}

// DimensionStats summarizes one dimension across a run's scored items.
type DimensionStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Report summarizes a completed run.
type Report struct {
	RunID         string                    `json:"run_id"`
	Brand         string                    `json:"brand"`
	RubricVersion string                    `json:"rubric_version"`
	ItemsReceived int                       `json:"items_received"`
	ItemsSkipped  int                       `json:"items_skipped"`
	ItemsDemoted  int                       `json:"items_demoted"`
	ItemsScored   int                       `json:"items_scored"`
	CoreAR        float64                   `json:"core_authenticity_ratio"`
	ExtendedAR    float64                   `json:"extended_authenticity_ratio"`
	Dimensions    map[string]DimensionStats `json:"dimension_breakdown,omitempty"`
	Scored        []ItemReport              `json:"scored"`
	Skipped       []SkipReport              `json:"skipped"`
	DurationMS    int64                     `json:"duration_ms"`
}

// Pipeline runs the full scoring sequence: gate, triage, attribute
// detection and aggregation, classification, ratio computation, and
// persistence.
type Pipeline struct {
	gate       *gate.Gate
	triage     *triage.Scorer
	aggregator *attributes.Aggregator
	classifier *classify.Classifier
	rubrics    *rubric.Store
	db         *sqlite.Client
}

func New(g *gate.Gate, t *triage.Scorer, agg *attributes.Aggregator, cls *classify.Classifier, rubrics *rubric.Store, db *sqlite.Client) *Pipeline {
	return &Pipeline{
		gate:       g,
		triage:     t,
		aggregator: agg,
		classifier: cls,
		rubrics:    rubrics,
		db:         db,
	}
}

// Run executes one scoring run end to end. Individual item failures
// never abort the run; each item terminates as skipped, demoted, or
// scored.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	r := p.rubrics.Rubric()

	logger.Info("Scoring run started",
		zap.String("run_id", runID),
		zap.String("brand", req.Brand),
		zap.String("rubric_version", r.Version),
		zap.Int("items", len(req.Items)),
	)

	report := &Report{
		RunID:         runID,
		Brand:         req.Brand,
		RubricVersion: r.Version,
		ItemsReceived: len(req.Items),
	}

	run := &models.Run{
		RunID:         runID,
		Brand:         req.Brand,
		RubricVersion: r.Version,
		Status:        "running",
		StartTime:     start,
		ItemsReceived: len(req.Items),
	}
	if p.db != nil {
		if err := p.db.InsertRun(run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	// Gate: drop unscoreable content before any paid work.
	var gated []content.Item
	for _, item := range req.Items {
		reason := p.gate.Evaluate(item.Title, item.Body, item.URL)
		if reason == "" {
			gated = append(gated, item)
			continue
		}
		metrics.ItemsGated.WithLabelValues(string(reason)).Inc()
		report.Skipped = append(report.Skipped, SkipReport{
			ContentID: item.ContentID,
			Reason:    string(reason),
			URL:       item.URL,
		})
		if p.db != nil {
			skip := &models.Skip{
				ContentID: item.ContentID,
				RunID:     runID,
				Reason:    string(reason),
				URL:       item.URL,
				CreatedAt: time.Now(),
			}
			if err := p.db.InsertSkip(skip); err != nil {
				logger.Warn("Failed to persist skip record",
					zap.String("content_id", item.ContentID),
					zap.Error(err),
				)
			}
		}
	}
	report.ItemsSkipped = len(report.Skipped)

	// Triage: keyword scoring decides which items deserve full analysis.
	promoted, demoted := p.triage.Filter(gated, req.BrandKeywords, req.PromoteThreshold)
	metrics.ItemsTriaged.WithLabelValues("promoted").Add(float64(len(promoted)))
	metrics.ItemsTriaged.WithLabelValues("demoted").Add(float64(len(demoted)))
	report.ItemsDemoted = len(demoted)

	// Full analysis for every promoted item. Brand voice is run-scoped,
	// so it joins the shared detector set here.
	aggregator := p.aggregator.WithExtra(attributes.BrandVoiceDetector{Keywords: req.BrandKeywords})
	type scoredItem struct {
		item        content.Item
		triageScore float64
		agg         attributes.Aggregation
	}
	var analyzed []scoredItem
	for _, t := range promoted {
		results := aggregator.Detect(ctx, t.Item, r)
		agg, err := aggregator.Aggregate(results, r)
		if err != nil {
			logger.Error("Aggregation failed, item dropped from run",
				zap.String("content_id", t.Item.ContentID),
				zap.Error(err),
			)
			continue
		}
		analyzed = append(analyzed, scoredItem{
			item:        t.Item,
			triageScore: t.Score,
			agg:         agg,
		})
	}

	// Final labels through the cached classifier.
	classifyItems := make([]classify.Item, 0, len(analyzed))
	for _, s := range analyzed {
		classifyItems = append(classifyItems, classify.Item{
			ContentID:  s.item.ContentID,
			Meta:       s.item.Meta,
			FinalScore: s.agg.CompositeScore,
		})
	}
	classifications := p.classifier.Classify(ctx, classifyItems, r.Version)

	labelCounts := map[string]int{}
	for _, s := range analyzed {
		cls := classifications[s.item.ContentID]
		labelCounts[cls.Label]++
		metrics.ItemsScored.WithLabelValues(cls.Label).Inc()
		metrics.CompositeScore.Observe(s.agg.CompositeScore)

		report.Scored = append(report.Scored, ItemReport{
			ContentID:       s.item.ContentID,
			Source:          string(s.item.Source),
			TriageScore:     s.triageScore,
			DimensionScores: s.agg.DimensionScores,
			CompositeScore:  s.agg.CompositeScore,
			Label:           cls.Label,
			Confidence:      cls.Confidence,
			Notes:           cls.Notes,
		})

		if p.db != nil {
			score := &models.Score{
				ContentID:       s.item.ContentID,
				RunID:           runID,
				Brand:           req.Brand,
				Source:          string(s.item.Source),
				DimensionScores: s.agg.DimensionScores,
				CompositeScore:  s.agg.CompositeScore,
				Label:           cls.Label,
				Confidence:      cls.Confidence,
				Notes:           cls.Notes,
				TriageScore:     s.triageScore,
				CreatedAt:       time.Now(),
			}
			if err := p.db.InsertScore(score); err != nil {
				logger.Warn("Failed to persist score record",
					zap.String("content_id", s.item.ContentID),
					zap.Error(err),
				)
			}
		}
	}
	report.ItemsScored = len(report.Scored)
	report.Dimensions = dimensionBreakdown(report.Scored)

	report.CoreAR, report.ExtendedAR = AuthenticityRatios(labelCounts, report.ItemsScored)
	metrics.AuthenticityRatio.WithLabelValues(req.Brand, "core").Set(report.CoreAR)
	metrics.AuthenticityRatio.WithLabelValues(req.Brand, "extended").Set(report.ExtendedAR)

	elapsed := time.Since(start)
	report.DurationMS = elapsed.Milliseconds()
	metrics.RunDuration.Observe(elapsed.Seconds())

	if p.db != nil {
		end := time.Now()
		run.Status = "completed"
		run.EndTime = &end
		run.ItemsSkipped = report.ItemsSkipped
		run.ItemsDemoted = report.ItemsDemoted
		run.ItemsScored = report.ItemsScored
		run.CoreAR = report.CoreAR
		run.ExtendedAR = report.ExtendedAR
		if err := p.db.InsertRun(run); err != nil {
			logger.Warn("Failed to finalize run record",
				zap.String("run_id", runID),
				zap.Error(err),
			)
		}
	}

	logger.Info("Scoring run completed",
		zap.String("run_id", runID),
		zap.Int("scored", report.ItemsScored),
		zap.Int("skipped", report.ItemsSkipped),
		zap.Int("demoted", report.ItemsDemoted),
		zap.Float64("core_ar", report.CoreAR),
		zap.Float64("extended_ar", report.ExtendedAR),
		zap.Duration("duration", elapsed),
	)

	return report, nil
}

// dimensionBreakdown computes avg/min/max per dimension over the run's
// scored items. Empty runs produce no breakdown.
func dimensionBreakdown(scored []ItemReport) map[string]DimensionStats {
	if len(scored) == 0 {
		return nil
	}

	stats := make(map[string]DimensionStats)
	counts := make(map[string]int)
	for _, item := range scored {
		for dim, score := range item.DimensionScores {
			s, seen := stats[dim]
			if !seen {
				s = DimensionStats{Min: score, Max: score}
			}
			s.Avg += score
			if score < s.Min {
				s.Min = score
			}
			if score > s.Max {
				s.Max = score
			}
			stats[dim] = s
			counts[dim]++
		}
	}
	for dim, s := range stats {
		s.Avg /= float64(counts[dim])
		stats[dim] = s
	}
	return stats
}

// AuthenticityRatios computes the core and extended authenticity ratios
// over scored items. Core counts authentic only; extended gives suspect
// items half credit. Both return 0 for an empty run.
func AuthenticityRatios(labelCounts map[string]int, total int) (core, extended float64) {
	if total == 0 {
		return 0, 0
	}
	authentic := float64(labelCounts["authentic"])
	suspect := float64(labelCounts["suspect"])
	core = authentic / float64(total) * 100
	extended = (authentic + 0.5*suspect) / float64(total) * 100
	return core, extended
}
