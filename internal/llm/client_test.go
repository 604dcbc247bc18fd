package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Classification
		wantErr bool
	}{
		{
			name: "plain json",
			raw:  `{"label": "authentic", "confidence": 0.9, "notes": "strong provenance"}`,
			want: Classification{Label: "authentic", Confidence: 0.9, Notes: "strong provenance"},
		},
		{
			name: "fenced json",
			raw:  "```json\n{\"label\": \"suspect\", \"confidence\": 0.6}\n```",
			want: Classification{Label: "suspect", Confidence: 0.6},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"label\": \"inauthentic\", \"confidence\": 0.8}\n```",
			want: Classification{Label: "inauthentic", Confidence: 0.8},
		},
		{
			name:    "not json",
			raw:     "the content appears authentic",
			wantErr: true,
		},
		{
			name:    "invalid label",
			raw:     `{"label": "maybe", "confidence": 0.5}`,
			wantErr: true,
		},
		{
			name:    "confidence out of range",
			raw:     `{"label": "authentic", "confidence": 1.5}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClassification(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}
