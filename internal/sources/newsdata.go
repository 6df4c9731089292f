package sources

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/fetch"
)

const newsdataEndpoint = "https://newsdata.io/api/1/news"

// Newsdata queries the newsdata.io search API. Skipped when no key is set.
// The API has no page-size parameter; results are truncated client-side.
type Newsdata struct {
	APIKey   string
	Endpoint string
	HTTP     *fetch.JSONClient
}

type newsdataResponse struct {
	Results []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		PubDate     string `json:"pubDate"`
		Description string `json:"description"`
		Language    string `json:"language"`
	} `json:"results"`
}

func (n *Newsdata) Name() string { return NameNewsdata }

func (n *Newsdata) Fetch(ctx context.Context, q Query) ([]Article, error) {
	if n.APIKey == "" {
		return nil, nil
	}
	endpoint := n.Endpoint
	if endpoint == "" {
		endpoint = newsdataEndpoint
	}
	params := url.Values{}
	params.Set("apikey", n.APIKey)
	params.Set("q", q.Topic())
	params.Set("from_date", q.Start)
	params.Set("to_date", q.End)
	params.Set("language", q.Lang())
	params.Set("page", "1")

	var resp newsdataResponse
	if err := n.HTTP.GetJSON(ctx, endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("newsdata: %w", err)
	}

	limit := q.PerSource(100)
	results := resp.Results
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]Article, 0, len(results))
	for _, it := range results {
		lang := it.Language
		if lang == "" {
			lang = q.Lang()
		}
		out = append(out, normalize(Article{
			Source:         NameNewsdata,
			Title:          it.Title,
			URL:            it.Link,
			PublishedAt:    it.PubDate,
			Description:    it.Description,
			ContentExcerpt: excerpt(it.Description, 500),
			Lang:           lang,
		}))
	}
	return out, nil
}
