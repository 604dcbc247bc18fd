package classify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/truststack/scorer/internal/llm"
	"github.com/truststack/scorer/internal/metrics"
	"github.com/truststack/scorer/pkg/logger"
)

// Caller issues one external classification request. Satisfied by the LLM
// client; replaced by fakes in tests.
type Caller interface {
	Model() string
	Classify(ctx context.Context, req llm.ClassifyRequest) (*llm.Classification, error)
}

// Item is one promoted content item awaiting a final label.
type Item struct {
	ContentID  string
	Meta       map[string]string
	FinalScore float64
}

// Classifier fronts the external classification call with a durable
// content-addressed cache. A hit never reaches the model; a miss issues
// exactly one request, and on any failure the result degrades to a
// deterministic score-based label so every promoted item terminates with
// a classification.
type Classifier struct {
	caller      Caller
	store       Store
	minInterval time.Duration
	maxLLMItems int

	mu          sync.Mutex
	lastRequest time.Time
}

func NewClassifier(caller Caller, store Store, minInterval time.Duration, maxLLMItems int) *Classifier {
	return &Classifier{
		caller:      caller,
		store:       store,
		minInterval: minInterval,
		maxLLMItems: maxLLMItems,
	}
}

// Classify labels every item, consulting the cache first. At most
// maxLLMItems external calls are issued per invocation; items beyond the
// budget fall back to the score-based label without an external call.
func (c *Classifier) Classify(ctx context.Context, items []Item, rubricVersion string) map[string]llm.Classification {
	results := make(map[string]llm.Classification, len(items))
	llmCalls := 0

	for _, item := range items {
		key := CacheKey(item.ContentID, rubricVersion, c.caller.Model(), item.Meta, item.FinalScore)

		var cached llm.Classification
		hit, err := c.store.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn("Cache read failed, treating as miss",
				zap.String("content_id", item.ContentID),
				zap.Error(err),
			)
		}
		if hit {
			metrics.CacheHits.WithLabelValues("classification").Inc()
			results[item.ContentID] = cached
			continue
		}
		metrics.CacheMisses.WithLabelValues("classification").Inc()

		if c.maxLLMItems > 0 && llmCalls >= c.maxLLMItems {
			logger.Debug("LLM item budget exhausted, using score fallback",
				zap.String("content_id", item.ContentID),
				zap.Int("budget", c.maxLLMItems),
			)
			results[item.ContentID] = FallbackLabel(item.FinalScore)
			continue
		}

		c.waitMinInterval()
		llmCalls++

		classification, err := c.caller.Classify(ctx, llm.ClassifyRequest{
			ContentID:  item.ContentID,
			Meta:       item.Meta,
			FinalScore: item.FinalScore,
		})
		if err != nil {
			// Sensitive meta stays out of the log; the id and score are
			// enough for the operator to retrace the item.
			logger.Warn("Classification call failed, using score fallback",
				zap.String("content_id", item.ContentID),
				zap.Float64("final_score", item.FinalScore),
				zap.Error(err),
			)
			metrics.LLMFallbacks.Inc()
			results[item.ContentID] = FallbackLabel(item.FinalScore)
			continue
		}
		metrics.LLMCalls.Inc()

		// Written before returning so a rerun with the same key inputs
		// never repeats the external call.
		if err := c.store.Put(ctx, key, classification); err != nil {
			logger.Warn("Cache write failed",
				zap.String("content_id", item.ContentID),
				zap.Error(err),
			)
		}

		results[item.ContentID] = *classification
	}

	return results
}

// waitMinInterval enforces the per-client politeness delay between
// external requests.
func (c *Classifier) waitMinInterval() {
	if c.minInterval <= 0 {
		return
	}

	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	var wait time.Duration
	if elapsed < c.minInterval {
		wait = c.minInterval - elapsed
	}
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

// FallbackLabel is the deterministic score-based label used when the
// external call cannot produce one.
func FallbackLabel(finalScore float64) llm.Classification {
	switch {
	case finalScore >= 75:
		return llm.Classification{Label: "authentic", Confidence: 0.9}
	case finalScore >= 40:
		return llm.Classification{Label: "suspect", Confidence: 0.6}
	default:
		return llm.Classification{Label: "inauthentic", Confidence: 0.8}
	}
}
