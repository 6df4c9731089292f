package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/fetch"
)

const gnewsEndpoint = "https://gnews.io/api/v4/search"

// GNews queries the GNews search API. Skipped when no key is set.
type GNews struct {
	APIKey   string
	Endpoint string
	HTTP     *fetch.JSONClient
}

type gnewsResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Description string `json:"description"`
	} `json:"articles"`
}

func (g *GNews) Name() string { return NameGNews }

func (g *GNews) Fetch(ctx context.Context, q Query) ([]Article, error) {
	if g.APIKey == "" {
		return nil, nil
	}
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = gnewsEndpoint
	}
	lang := q.Lang()
	if len(lang) > 2 {
		lang = lang[:2]
	}
	params := url.Values{}
	params.Set("q", q.Topic())
	params.Set("from", q.Start)
	params.Set("to", q.End)
	params.Set("lang", lang)
	params.Set("token", g.APIKey)
	params.Set("max", strconv.Itoa(q.PerSource(100)))
	params.Set("sortby", "publishedAt")

	var resp gnewsResponse
	if err := g.HTTP.GetJSON(ctx, endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("gnews: %w", err)
	}

	out := make([]Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		out = append(out, normalize(Article{
			Source:         NameGNews,
			Title:          a.Title,
			URL:            a.URL,
			PublishedAt:    a.PublishedAt,
			Description:    a.Description,
			ContentExcerpt: excerpt(a.Description, 500),
			Lang:           lang,
		}))
	}
	return out, nil
}
