package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/truststack/scorer/internal/content"
)

func TestNormalizePlainItem(t *testing.T) {
	n := NewNormalizer()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	item := n.Normalize(RawItem{
		ContentID: "c1",
		Source:    "reddit",
		Author:    "  jo  ",
		Title:     " A review ",
		Body:      " Long enough body text. ",
		URL:       "https://reddit.com/r/x/1",
		EventTS:   ts,
		Meta:      map[string]any{"flair": "review"},
	})

	assert.Equal(t, "c1", item.ContentID)
	assert.Equal(t, content.SourceReddit, item.Source)
	assert.Equal(t, "jo", item.Author)
	assert.Equal(t, "A review", item.Title)
	assert.Equal(t, "Long enough body text.", item.Body)
	assert.Equal(t, ts, item.EventTS)
	assert.Equal(t, map[string]string{"flair": "review"}, item.Meta)
}

func TestNormalizeFillsMissingFields(t *testing.T) {
	n := NewNormalizer()

	item := n.Normalize(RawItem{Body: "text"})

	assert.NotEmpty(t, item.ContentID)
	assert.Equal(t, content.SourceWeb, item.Source)
	assert.False(t, item.EventTS.IsZero())
	assert.NotNil(t, item.Meta)
}

func TestNormalizeExtractsFromHTML(t *testing.T) {
	n := NewNormalizer()

	html := `<html><head><title>Page Title</title><style>.x{color:red}</style></head>
	<body><nav>skip this</nav><p>First paragraph.</p>
	<p>Second   paragraph.</p><script>alert(1)</script><footer>legal</footer></body></html>`

	item := n.Normalize(RawItem{HTML: html})

	assert.Equal(t, "Page Title", item.Title)
	assert.Equal(t, "First paragraph. Second paragraph.", item.Body)
}

func TestNormalizeHTMLDoesNotOverrideExplicitFields(t *testing.T) {
	n := NewNormalizer()

	item := n.Normalize(RawItem{
		Title: "Explicit title",
		HTML:  "<html><head><title>HTML title</title></head><body><p>From markup.</p></body></html>",
	})

	assert.Equal(t, "Explicit title", item.Title)
	assert.Equal(t, "From markup.", item.Body)
}

func TestNormalizeBatch(t *testing.T) {
	n := NewNormalizer()

	items := n.NormalizeBatch([]RawItem{
		{ContentID: "a", Body: "one"},
		{ContentID: "b", Body: "two"},
	})

	assert.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ContentID)
	assert.Equal(t, "b", items[1].ContentID)
}
