package triage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/truststack/scorer/internal/content"
)

func longBody(words string) string {
	return strings.Repeat(words+" ", 40)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		item     content.Item
		keywords []string
		want     float64
	}{
		{
			name:     "neutral long content",
			item:     content.Item{Body: longBody("general commentary about things")},
			keywords: []string{"acme"},
			want:     0.5,
		},
		{
			name:     "one keyword promotes over threshold with link",
			item:     content.Item{Body: longBody("thoughts on acme products") + " see https://acme.com"},
			keywords: []string{"acme"},
			want:     0.75,
		},
		{
			name:     "keyword match is case insensitive",
			item:     content.Item{Body: longBody("I bought the ACME kettle")},
			keywords: []string{"acme"},
			want:     0.7,
		},
		{
			name:     "keywords compound",
			item:     content.Item{Body: longBody("acme roadrunner deluxe kit")},
			keywords: []string{"acme", "roadrunner"},
			want:     0.9,
		},
		{
			name:     "short content penalized",
			item:     content.Item{Body: "brief note"},
			keywords: []string{"acme"},
			want:     0.4,
		},
		{
			name:     "short but keyword and link",
			item:     content.Item{Body: "acme rocks https://acme.com"},
			keywords: []string{"acme"},
			want:     0.65,
		},
		{
			name:     "clamped at one",
			item:     content.Item{Body: longBody("acme roadrunner anvil tnt")},
			keywords: []string{"acme", "roadrunner", "anvil", "tnt"},
			want:     1.0,
		},
		{
			name:     "title counts toward matching",
			item:     content.Item{Title: "My acme story", Body: longBody("a long tale of shopping")},
			keywords: []string{"acme"},
			want:     0.7,
		},
		{
			name:     "empty keyword ignored",
			item:     content.Item{Body: longBody("plain content here")},
			keywords: []string{""},
			want:     0.5,
		},
	}

	s := NewScorer(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.item, tt.keywords), 1e-9)
		})
	}
}

func TestFilter(t *testing.T) {
	s := NewScorer(0)

	promote := content.Item{ContentID: "p1", Body: longBody("all about acme gear")}
	demote := content.Item{ContentID: "d1", Body: longBody("unrelated musings")}

	promoted, demoted := s.Filter([]content.Item{promote, demote}, []string{"acme"}, 0)

	assert.Len(t, promoted, 1)
	assert.Equal(t, "p1", promoted[0].Item.ContentID)
	assert.Len(t, demoted, 1)
	assert.Equal(t, "d1", demoted[0].Item.ContentID)
}

func TestFilterReportsDecidingScore(t *testing.T) {
	s := NewScorer(0)

	items := []content.Item{
		{ContentID: "p1", Body: longBody("all about acme gear")},
		{ContentID: "d1", Body: longBody("unrelated musings")},
	}
	keywords := []string{"acme"}

	promoted, demoted := s.Filter(items, keywords, 0)

	assert.Len(t, promoted, 1)
	assert.Len(t, demoted, 1)
	assert.InDelta(t, s.Score(items[0], keywords), promoted[0].Score, 1e-9)
	assert.InDelta(t, s.Score(items[1], keywords), demoted[0].Score, 1e-9)
	assert.GreaterOrEqual(t, promoted[0].Score, DefaultPromoteThreshold)
	assert.Less(t, demoted[0].Score, DefaultPromoteThreshold)
}

func TestFilterBoundaryScorePromotes(t *testing.T) {
	s := NewScorer(0.7)

	// Exactly at threshold: score 0.7 with one keyword and long body.
	item := content.Item{ContentID: "edge", Body: longBody("review of acme toaster")}

	promoted, demoted := s.Filter([]content.Item{item}, []string{"acme"}, 0)
	assert.Len(t, promoted, 1)
	assert.Empty(t, demoted)
}

func TestScoreMonotoneInKeywords(t *testing.T) {
	s := NewScorer(0)
	item := content.Item{Body: longBody("acme and roadrunner together again")}

	one := s.Score(item, []string{"acme"})
	two := s.Score(item, []string{"acme", "roadrunner"})
	assert.Greater(t, two, one)
}
