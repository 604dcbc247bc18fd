package attributes

import (
	"context"

	"github.com/truststack/scorer/internal/content"
)

// Result is one attribute-level signal for one content item. Value is on
// the rubric's 1-10 scale, Confidence in [0,1]. Results are ephemeral;
// they live only for the duration of scoring one item.
type Result struct {
	AttributeID string  `json:"attribute_id"`
	Dimension   string  `json:"dimension"`
	Value       float64 `json:"value"`
	Confidence  float64 `json:"confidence"`
	Evidence    string  `json:"evidence"`
}

// Detector produces zero or one Result for a content item. Returning
// (nil, nil) means no signal, which is not an error: a detector declines
// when its backend is unavailable or the content gives it nothing to
// measure. A returned error is treated as an absent signal by the
// aggregator and logged, never propagated.
type Detector interface {
	AttributeID() string
	Detect(ctx context.Context, item content.Item) (*Result, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc struct {
	ID string
	Fn func(ctx context.Context, item content.Item) (*Result, error)
}

func (d DetectorFunc) AttributeID() string { return d.ID }

func (d DetectorFunc) Detect(ctx context.Context, item content.Item) (*Result, error) {
	return d.Fn(ctx, item)
}
