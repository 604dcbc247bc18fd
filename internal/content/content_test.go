package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMeta(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want map[string]string
	}{
		{
			name: "nil",
			in:   nil,
			want: map[string]string{},
		},
		{
			name: "string map passes through",
			in:   map[string]string{"author": "jo"},
			want: map[string]string{"author": "jo"},
		},
		{
			name: "any map stringifies values",
			in:   map[string]any{"author": "jo", "upvotes": float64(12), "verified": true},
			want: map[string]string{"author": "jo", "upvotes": "12", "verified": "true"},
		},
		{
			name: "json string decodes",
			in:   `{"platform": "reddit", "score": 3}`,
			want: map[string]string{"platform": "reddit", "score": "3"},
		},
		{
			name: "invalid json becomes empty",
			in:   "not json at all",
			want: map[string]string{},
		},
		{
			name: "empty string becomes empty",
			in:   "   ",
			want: map[string]string{},
		},
		{
			name: "unsupported type becomes empty",
			in:   42,
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMeta(tt.in))
		})
	}
}

func TestItemText(t *testing.T) {
	item := Item{Title: "A title", Body: "The body"}
	assert.Equal(t, "The body A title", item.Text())
}
