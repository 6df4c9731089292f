// Package sources aggregates open-source news content from heterogeneous
// providers into a single deduplicated, recency-ordered article list.
package sources

import (
	"strings"
	"time"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/urlutil"
)

// Article is the common shape every provider adapter maps into. Articles are
// ephemeral: built per request, never persisted.
type Article struct {
	ID             string `json:"id"`
	Source         string `json:"source"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	PublishedAt    string `json:"published_at"`
	Description    string `json:"description,omitempty"`
	ContentExcerpt string `json:"content_excerpt,omitempty"`
	Lang           string `json:"lang,omitempty"`
}

// Query carries the common provider parameters. Start and End are
// YYYY-MM-DD day strings; providers widen them to their own formats.
type Query struct {
	Start        string
	End          string
	Q            string
	MaxPerSource int
	Language     string
}

// Topic returns the search term, defaulting to the conflict topic.
func (q Query) Topic() string {
	if strings.TrimSpace(q.Q) == "" {
		return "Ukraine"
	}
	return q.Q
}

// Lang returns the query language, defaulting to English.
func (q Query) Lang() string {
	if q.Language == "" {
		return "en"
	}
	return q.Language
}

// PerSource caps the requested page size against a provider ceiling.
func (q Query) PerSource(ceiling int) int {
	n := q.MaxPerSource
	if n <= 0 {
		n = 100
	}
	if n > ceiling {
		n = ceiling
	}
	return n
}

// ProviderResult records one provider attempt. Errors never abort the
// aggregate; they are carried here and the article list degrades to empty.
type ProviderResult struct {
	Name     string
	Articles []Article
	Elapsed  time.Duration
	Err      error
}

// SourceStat is the observability view over ProviderResult returned to
// callers: raw pre-filter counts and timings.
type SourceStat struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
	MS     int64  `json:"ms"`
	Error  string `json:"error,omitempty"`
}

// compactStamp renders a YYYY-MM-DD day string as the compact
// YYYYMMDDHHmmss timestamp GDELT expects, pinned to the given time of day.
func compactStamp(day, hms string) string {
	return strings.ReplaceAll(day, "-", "") + hms
}

// excerpt collapses whitespace and caps s at max runes.
func excerpt(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}

// whenLayouts are the timestamp shapes seen across provider responses.
var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"20060102T150405Z", // GDELT seendate
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// parseWhen leniently parses a published_at string. Unparseable timestamps
// return the zero time, which sorts as earliest: the total order the
// aggregator relies on.
func parseWhen(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// normalize canonicalizes the article URL and derives its identity. Called
// by every adapter before an article leaves the package boundary.
func normalize(a Article) Article {
	a.URL = urlutil.Canonicalize(a.URL)
	a.ID = urlutil.Identity(a.URL)
	return a
}
