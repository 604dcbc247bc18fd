package attributes

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/truststack/scorer/internal/content"
)

// DomainTrustLookup resolves a domain to a baseline trust score in [0,1].
// The second return reports whether the domain is known at all.
type DomainTrustLookup interface {
	DomainTrust(ctx context.Context, domain string) (float64, bool, error)
}

// DomainTrustDetector maps the content's source domain onto the provenance
// scale using a reputation backend. No URL or unknown domain means no
// signal.
type DomainTrustDetector struct {
	Lookup DomainTrustLookup
}

func (DomainTrustDetector) AttributeID() string { return "source_domain_trust" }

func (d DomainTrustDetector) Detect(ctx context.Context, item content.Item) (*Result, error) {
	if d.Lookup == nil || item.URL == "" {
		return nil, nil
	}

	parsed, err := url.Parse(item.URL)
	if err != nil || parsed.Hostname() == "" {
		return nil, nil
	}
	domain := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	trust, known, err := d.Lookup.DomainTrust(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to look up domain trust for %s: %w", domain, err)
	}
	if !known {
		return nil, nil
	}

	return &Result{
		Value:      1 + trust*9,
		Confidence: 0.9,
		Evidence:   fmt.Sprintf("domain %s trust baseline %.2f", domain, trust),
	}, nil
}

// Embedder produces an embedding vector for a text.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ExemplarSearcher returns the best similarity in [0,1] between a vector
// and the stored brand exemplars, and whether any exemplar matched.
type ExemplarSearcher interface {
	BestMatch(ctx context.Context, vector []float32) (float64, bool, error)
}

// EmbeddingSimilarityDetector scores topical resonance by comparing the
// content's embedding against the brand exemplar collection. It declines
// when either backend is not wired in.
type EmbeddingSimilarityDetector struct {
	Embedder Embedder
	Searcher ExemplarSearcher
}

func (EmbeddingSimilarityDetector) AttributeID() string { return "embedding_topic_similarity" }

func (d EmbeddingSimilarityDetector) Detect(ctx context.Context, item content.Item) (*Result, error) {
	if d.Embedder == nil || d.Searcher == nil {
		return nil, nil
	}

	text := item.Text()
	if len(text) > 2000 {
		text = text[:2000]
	}

	vector, err := d.Embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}

	similarity, found, err := d.Searcher.BestMatch(ctx, vector)
	if err != nil {
		return nil, fmt.Errorf("failed to search exemplars: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &Result{
		Value:      1 + similarity*9,
		Confidence: 0.8,
		Evidence:   fmt.Sprintf("best exemplar similarity %.2f", similarity),
	}, nil
}
