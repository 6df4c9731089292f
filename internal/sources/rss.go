package sources

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/fetch"
)

// Feed names one curated RSS source.
type Feed struct {
	Name string
	URL  string
}

// DefaultFeeds is the curated outlet list for the conflict topic.
var DefaultFeeds = []Feed{
	{Name: "Kyiv Independent", URL: "https://kyivindependent.com/rss"},
	{Name: "The Guardian - Ukraine", URL: "https://www.theguardian.com/world/ukraine/rss"},
	{Name: "BBC Europe", URL: "https://feeds.bbci.co.uk/news/world/europe/rss.xml"},
	{Name: "DW - Top Stories", URL: "https://www.dw.com/en/top-stories/rss"},
	{Name: "ISW - Updates", URL: "https://www.understandingwar.org/backgrounder/feed"},
}

// RSS pulls a fixed list of named feeds, filters entries to the query window
// and term, and re-sorts across all feeds combined. Per-feed failures
// degrade to an empty list for that feed only.
type RSS struct {
	Feeds   []Feed
	Fetcher *fetch.Client
	Timeout time.Duration

	logger *log.Logger
}

func NewRSS(fetcher *fetch.Client) *RSS {
	return &RSS{
		Feeds:   DefaultFeeds,
		Fetcher: fetcher,
		Timeout: 15 * time.Second,
		logger:  log.New(log.Writer(), "[RSS] ", log.LstdFlags),
	}
}

func (r *RSS) Name() string { return NameRSS }

func (r *RSS) Fetch(ctx context.Context, q Query) ([]Article, error) {
	// Boundary-inclusive window: items stamped exactly at start 00:00:00 or
	// end 23:59:59 are retained.
	after, aerr := time.Parse("2006-01-02", q.Start)
	before, berr := time.Parse("2006-01-02", q.End)
	if aerr != nil || berr != nil {
		return nil, nil
	}
	after = after.Add(-time.Second)
	before = before.Add(24 * time.Hour)

	term := strings.ToLower(q.Topic())

	var all []Article
	for _, f := range r.Feeds {
		items, err := r.fetchOne(ctx, f)
		if err != nil {
			r.logger.Printf("feed %s failed: %v", f.Name, err)
			continue
		}
		for _, it := range items {
			when := itemTime(it)
			if when.IsZero() || !when.After(after) || !when.Before(before) {
				continue
			}
			text := strings.ToLower(it.Title + " " + it.Description)
			if term != "" && !strings.Contains(text, term) {
				continue
			}
			all = append(all, normalize(Article{
				Source:         f.Name,
				Title:          it.Title,
				URL:            it.Link,
				PublishedAt:    it.Published,
				Description:    it.Description,
				ContentExcerpt: excerpt(it.Description, 500),
				Lang:           "en",
			}))
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return parseWhen(all[i].PublishedAt).After(parseWhen(all[j].PublishedAt))
	})
	if limit := q.PerSource(200); len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *RSS) fetchOne(ctx context.Context, f Feed) ([]*gofeed.Item, error) {
	res, err := r.Fetcher.Get(ctx, f.URL, fetch.Options{
		Timeout:      r.Timeout,
		MaxRedirects: 3,
	})
	if err != nil {
		return nil, err
	}
	feed, err := gofeed.NewParser().ParseString(string(res.Body))
	if err != nil {
		return nil, err
	}
	return feed.Items, nil
}

func itemTime(it *gofeed.Item) time.Time {
	if it.PublishedParsed != nil {
		return *it.PublishedParsed
	}
	if it.UpdatedParsed != nil {
		return *it.UpdatedParsed
	}
	return parseWhen(it.Published)
}
