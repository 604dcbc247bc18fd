package attributes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/truststack/scorer/internal/content"
)

var (
	aiLabels    = []string{"ai-generated", "ai generated", "artificial intelligence", "generated by ai"}
	humanLabels = []string{"human-created", "human created", "written by", "authored by"}

	aiDisclosures = []string{
		"ai generated", "ai-generated", "ai assisted", "ai-assisted",
		"generated with ai", "created with the help of ai", "written by ai",
	}

	sponsoredMarkers = []string{"#ad", "#sponsored", "paid partnership", "sponsored content", "advertisement", "promoted"}

	claimWords = []string{"study", "research", "survey", "report", "according to", "statistics", "data shows"}

	urlPattern = regexp.MustCompile(`https?://[^\s"'<>)]+`)
)

// AILabelingDetector scores whether the content declares its origin (AI or
// human) in text or metadata. Clear labeling either way scores high.
type AILabelingDetector struct{}

func (AILabelingDetector) AttributeID() string { return "ai_labeling_clarity" }

func (AILabelingDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	text := strings.ToLower(item.Text())

	labeled := containsAny(text, aiLabels) || containsAny(text, humanLabels)
	if !labeled {
		for _, key := range []string{"ai_generated", "human_created", "author_type"} {
			if _, ok := item.Meta[key]; ok {
				labeled = true
				break
			}
		}
	}

	if labeled {
		return &Result{Value: 10, Confidence: 1.0, Evidence: "clear origin labeling found in content or metadata"}, nil
	}
	return &Result{Value: 1, Confidence: 1.0, Evidence: "no origin labeling found"}, nil
}

// AuthorIdentityDetector checks for a verified or at least visible author
// attribution.
type AuthorIdentityDetector struct{}

func (AuthorIdentityDetector) AttributeID() string { return "author_identity_verified" }

func (AuthorIdentityDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	author := strings.TrimSpace(item.Author)
	authorLower := strings.ToLower(author)

	if item.Meta["author_verified"] == "true" || item.Meta["verified"] == "true" || strings.Contains(authorLower, "verified") {
		return &Result{Value: 10, Confidence: 1.0, Evidence: fmt.Sprintf("verified author: %s", author)}, nil
	}

	if author != "" && authorLower != "unknown" && authorLower != "anonymous" {
		return &Result{Value: 8, Confidence: 0.9, Evidence: fmt.Sprintf("visible byline present: %s", author)}, nil
	}

	return &Result{Value: 2, Confidence: 1.0, Evidence: "no byline or attribution found"}, nil
}

// BrandVoiceDetector measures how consistently the brand's vocabulary
// appears through the body, a rough stand-in for voice consistency.
type BrandVoiceDetector struct {
	Keywords []string
}

func (BrandVoiceDetector) AttributeID() string { return "brand_voice_consistency" }

func (d BrandVoiceDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	if len(d.Keywords) == 0 {
		return nil, nil
	}

	text := strings.ToLower(item.Text())
	matched := 0
	for _, kw := range d.Keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			matched++
		}
	}

	coverage := float64(matched) / float64(len(d.Keywords))
	value := 1 + coverage*9
	return &Result{
		Value:      value,
		Confidence: 0.6,
		Evidence:   fmt.Sprintf("%d of %d brand terms present", matched, len(d.Keywords)),
	}, nil
}

// TitleBodyConsistencyDetector flags titles whose substantive words never
// reappear in the body, a common clickbait signature.
type TitleBodyConsistencyDetector struct{}

func (TitleBodyConsistencyDetector) AttributeID() string { return "title_body_consistency" }

func (TitleBodyConsistencyDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	titleWords := substantiveWords(item.Title)
	if len(titleWords) == 0 {
		return nil, nil
	}

	body := strings.ToLower(item.Body)
	matched := 0
	for _, w := range titleWords {
		if strings.Contains(body, w) {
			matched++
		}
	}

	overlap := float64(matched) / float64(len(titleWords))
	value := 1 + overlap*9
	return &Result{
		Value:      value,
		Confidence: 0.7,
		Evidence:   fmt.Sprintf("%d of %d title terms echoed in body", matched, len(titleWords)),
	}, nil
}

// AIDisclosureDetector looks for an explicit AI-generation disclosure.
// Absence is a weak signal, not proof of concealment, hence the lower
// confidence on the negative branch.
type AIDisclosureDetector struct{}

func (AIDisclosureDetector) AttributeID() string { return "ai_disclosure_present" }

func (AIDisclosureDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	text := strings.ToLower(item.Text())

	if containsAny(text, aiDisclosures) {
		return &Result{Value: 10, Confidence: 1.0, Evidence: "explicit AI disclosure present"}, nil
	}
	return &Result{Value: 3, Confidence: 0.5, Evidence: "no AI disclosure found"}, nil
}

// PrivacyPolicyDetector checks for a reachable privacy policy reference.
type PrivacyPolicyDetector struct{}

func (PrivacyPolicyDetector) AttributeID() string { return "privacy_policy_linked" }

func (PrivacyPolicyDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	text := strings.ToLower(item.Body)

	if strings.Contains(text, "privacy policy") || strings.Contains(text, "privacy-policy") {
		return &Result{Value: 9, Confidence: 0.8, Evidence: "privacy policy reference found"}, nil
	}
	if item.Source != content.SourceWeb {
		// Platform posts are not expected to carry policy links.
		return nil, nil
	}
	return &Result{Value: 2, Confidence: 0.6, Evidence: "no privacy policy reference on web content"}, nil
}

// CitationSupportDetector scores whether factual claims are accompanied by
// linked sources.
type CitationSupportDetector struct{}

func (CitationSupportDetector) AttributeID() string { return "citation_support" }

func (CitationSupportDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	text := strings.ToLower(item.Body)

	claims := 0
	for _, w := range claimWords {
		claims += strings.Count(text, w)
	}
	links := len(urlPattern.FindAllString(item.Body, -1))

	if claims == 0 {
		// Nothing asserted, nothing to cite.
		return nil, nil
	}

	switch {
	case links >= claims:
		return &Result{Value: 10, Confidence: 0.8, Evidence: fmt.Sprintf("%d claims, %d linked sources", claims, links)}, nil
	case links > 0:
		return &Result{Value: 6, Confidence: 0.8, Evidence: fmt.Sprintf("%d claims, %d linked sources", claims, links)}, nil
	default:
		return &Result{Value: 2, Confidence: 0.9, Evidence: fmt.Sprintf("%d claims with no linked sources", claims)}, nil
	}
}

// SponsoredLabelDetector checks promotional language against disclosure
// labels: promotional copy without an ad label scores low.
type SponsoredLabelDetector struct{}

func (SponsoredLabelDetector) AttributeID() string { return "sponsored_label_consistency" }

func (SponsoredLabelDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	text := strings.ToLower(item.Text())

	labeled := containsAny(text, sponsoredMarkers) || item.Meta["sponsored"] == "true"
	promotional := strings.Contains(text, "buy now") ||
		strings.Contains(text, "discount code") ||
		strings.Contains(text, "use my link") ||
		strings.Contains(text, "limited time offer")

	switch {
	case labeled:
		return &Result{Value: 9, Confidence: 0.9, Evidence: "sponsored label present"}, nil
	case promotional:
		return &Result{Value: 2, Confidence: 0.8, Evidence: "promotional language without a sponsored label"}, nil
	default:
		return &Result{Value: 7, Confidence: 0.5, Evidence: "no promotional language detected"}, nil
	}
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

var wordPattern = regexp.MustCompile(`[a-z]{4,}`)

func substantiveWords(s string) []string {
	return wordPattern.FindAllString(strings.ToLower(s), -1)
}
