package content

import (
	"encoding/json"
	"strings"
	"time"
)

type Source string

const (
	SourceWeb     Source = "web"
	SourceReddit  Source = "reddit"
	SourceAmazon  Source = "amazon"
	SourceYouTube Source = "youtube"
)

// Item is an immutable content record produced at the ingestion boundary.
// The scoring stages consume it by value and never mutate it.
type Item struct {
	ContentID  string            `json:"content_id"`
	Source     Source            `json:"source"`
	PlatformID string            `json:"platform_id"`
	Author     string            `json:"author"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	URL        string            `json:"url"`
	EventTS    time.Time         `json:"event_ts"`
	Rating     *float64          `json:"rating,omitempty"`
	Upvotes    *int64            `json:"upvotes,omitempty"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Text returns body and title joined, the form the triage and detector
// stages operate on.
func (it Item) Text() string {
	return it.Body + " " + it.Title
}

// NormalizeMeta accepts the two meta shapes seen at ingestion, a flat map
// or a pre-serialized JSON object, and returns the canonical map form.
// Anything unparseable normalizes to an empty map so downstream stages
// never see a nil or string-typed meta.
func NormalizeMeta(raw any) map[string]string {
	switch v := raw.(type) {
	case nil:
		return map[string]string{}
	case map[string]string:
		if v == nil {
			return map[string]string{}
		}
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, val := range v {
			switch s := val.(type) {
			case string:
				out[k] = s
			default:
				b, err := json.Marshal(val)
				if err == nil {
					out[k] = string(b)
				}
			}
		}
		return out
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return map[string]string{}
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return map[string]string{}
		}
		return NormalizeMeta(decoded)
	default:
		return map[string]string{}
	}
}
