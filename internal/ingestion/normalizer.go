package ingestion

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/truststack/scorer/internal/content"
	"github.com/truststack/scorer/pkg/logger"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// RawItem is the wire shape accepted at the ingestion boundary. Meta may
// be a flat object or a pre-serialized JSON string; HTML may stand in for
// a plain-text body.
type RawItem struct {
	ContentID  string    `json:"content_id"`
	Source     string    `json:"source"`
	PlatformID string    `json:"platform_id"`
	Author     string    `json:"author"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	HTML       string    `json:"html,omitempty"`
	URL        string    `json:"url"`
	EventTS    time.Time `json:"event_ts"`
	Rating     *float64  `json:"rating,omitempty"`
	Upvotes    *int64    `json:"upvotes,omitempty"`
	Meta       any       `json:"meta,omitempty"`
}

// Normalizer converts raw ingestion payloads into the canonical Item
// shape: one meta representation, text bodies, stable content ids. All
// duck-typing ends here; the scoring stages never see a raw item.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

func (n *Normalizer) Normalize(raw RawItem) content.Item {
	body := raw.Body
	title := raw.Title

	if raw.HTML != "" {
		if extracted := extractText(raw.HTML); extracted != "" {
			body = extracted
		}
		if title == "" {
			title = extractTitle(raw.HTML)
		}
	}

	contentID := raw.ContentID
	if contentID == "" {
		contentID = uuid.NewString()
	}

	source := content.Source(raw.Source)
	if source == "" {
		source = content.SourceWeb
	}

	eventTS := raw.EventTS
	if eventTS.IsZero() {
		eventTS = time.Now().UTC()
	}

	item := content.Item{
		ContentID:  contentID,
		Source:     source,
		PlatformID: raw.PlatformID,
		Author:     strings.TrimSpace(raw.Author),
		Title:      strings.TrimSpace(title),
		Body:       strings.TrimSpace(body),
		URL:        raw.URL,
		EventTS:    eventTS,
		Rating:     raw.Rating,
		Upvotes:    raw.Upvotes,
		Meta:       content.NormalizeMeta(raw.Meta),
	}

	logger.Debug("Item normalized",
		zap.String("content_id", item.ContentID),
		zap.String("source", string(item.Source)),
		zap.Int("body_length", len(item.Body)),
	)
	return item
}

func (n *Normalizer) NormalizeBatch(raw []RawItem) []content.Item {
	items := make([]content.Item, 0, len(raw))
	for _, r := range raw {
		items = append(items, n.Normalize(r))
	}
	return items
}

func extractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	if text == "" {
		text = doc.Text()
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	title := doc.Find("title").First().Text()
	if title == "" {
		title = doc.Find("h1").First().Text()
	}
	return strings.TrimSpace(title)
}
