package attributes

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	prose "github.com/jdkato/prose/v2"

	"github.com/truststack/scorer/internal/content"
)

// ReadabilityDetector estimates the text's grade level with the automated
// readability index over prose's sentence segmentation and scores how well
// it fits a general-audience band (grades 6-12).
type ReadabilityDetector struct{}

func (ReadabilityDetector) AttributeID() string { return "readability_grade_fit" }

func (ReadabilityDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	body := strings.TrimSpace(item.Body)
	if len(strings.Fields(body)) < 20 {
		return nil, nil
	}

	doc, err := prose.NewDocument(body,
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to segment text: %w", err)
	}

	sentences := len(doc.Sentences())
	if sentences == 0 {
		return nil, nil
	}

	words := strings.Fields(body)
	letters := 0
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				letters++
			}
		}
	}

	// Automated readability index.
	grade := 4.71*float64(letters)/float64(len(words)) +
		0.5*float64(len(words))/float64(sentences) - 21.43

	value := gradeFit(grade)
	return &Result{
		Value:      value,
		Confidence: 0.8,
		Evidence:   fmt.Sprintf("estimated grade level %.1f over %d sentences", grade, sentences),
	}, nil
}

// gradeFit maps a grade estimate onto the 1-10 scale, peaking inside the
// 6-12 band and declining toward very simple or very dense text.
func gradeFit(grade float64) float64 {
	switch {
	case grade >= 6 && grade <= 12:
		return 10
	case grade >= 4 && grade < 6:
		return 7
	case grade > 12 && grade <= 16:
		return 6
	case grade > 16:
		return 3
	default:
		return 4
	}
}

// ToneDetector scores tone appropriateness from shouting and exclamation
// density. Measured, lowercase prose scores high; all-caps hype scores low.
type ToneDetector struct{}

func (ToneDetector) AttributeID() string { return "tone_appropriateness" }

func (ToneDetector) Detect(_ context.Context, item content.Item) (*Result, error) {
	doc, err := prose.NewDocument(item.Text(),
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize text: %w", err)
	}

	tokens := doc.Tokens()
	if len(tokens) < 10 {
		return nil, nil
	}

	shouted := 0
	exclaims := 0
	for _, tok := range tokens {
		if tok.Text == "!" {
			exclaims++
			continue
		}
		if len(tok.Text) >= 3 && tok.Text == strings.ToUpper(tok.Text) && hasLetter(tok.Text) {
			shouted++
		}
	}

	shoutRatio := float64(shouted) / float64(len(tokens))
	exclaimRatio := float64(exclaims) / float64(len(tokens))

	value := 9.0
	value -= shoutRatio * 40
	value -= exclaimRatio * 30
	if value < 1 {
		value = 1
	}

	return &Result{
		Value:      value,
		Confidence: 0.7,
		Evidence:   fmt.Sprintf("%d shouted tokens, %d exclamations in %d tokens", shouted, exclaims, len(tokens)),
	}, nil
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
