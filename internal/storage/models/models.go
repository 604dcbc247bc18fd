package models

import "time"

// Run tracks one execution of the scoring pipeline.
type Run struct {
	RunID         string     `json:"run_id"`
	Brand         string     `json:"brand"`
	RubricVersion string     `json:"rubric_version"`
	Status        string     `json:"status"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	ItemsReceived int        `json:"items_received"`
	ItemsSkipped  int        `json:"items_skipped"`
	ItemsDemoted  int        `json:"items_demoted"`
	ItemsScored   int        `json:"items_scored"`
	CoreAR        float64    `json:"authenticity_ratio_pct"`
	ExtendedAR    float64    `json:"extended_ar_pct"`
}

// Score is the persisted scoring outcome for one promoted item.
type Score struct {
	ContentID       string             `json:"content_id"`
	RunID           string             `json:"run_id"`
	Brand           string             `json:"brand"`
	Source          string             `json:"source"`
	DimensionScores map[string]float64 `json:"dimension_scores"`
	CompositeScore  float64            `json:"composite_score"`
	Label           string             `json:"label"`
	Confidence      float64            `json:"confidence"`
	Notes           string             `json:"notes,omitempty"`
	TriageScore     float64            `json:"triage_score"`
	CreatedAt       time.Time          `json:"created_at"`
}

// Skip records an item the content gate rejected.
type Skip struct {
	ContentID string    `json:"content_id"`
	RunID     string    `json:"run_id"`
	Reason    string    `json:"reason"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
