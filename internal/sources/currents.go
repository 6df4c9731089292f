package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/fetch"
)

const currentsEndpoint = "https://api.currentsapi.services/v1/search"

// Currents queries the Currents news search API. Skipped when no key is set.
type Currents struct {
	APIKey   string
	Endpoint string
	HTTP     *fetch.JSONClient
}

type currentsResponse struct {
	News []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Published   string `json:"published"`
		Description string `json:"description"`
		Language    string `json:"language"`
	} `json:"news"`
}

func (c *Currents) Name() string { return NameCurrents }

func (c *Currents) Fetch(ctx context.Context, q Query) ([]Article, error) {
	if c.APIKey == "" {
		return nil, nil
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = currentsEndpoint
	}
	params := url.Values{}
	params.Set("keywords", q.Topic())
	params.Set("start_date", q.Start)
	params.Set("end_date", q.End)
	params.Set("language", q.Lang())
	params.Set("page_size", strconv.Itoa(q.PerSource(200)))
	params.Set("apiKey", c.APIKey)

	var resp currentsResponse
	if err := c.HTTP.GetJSON(ctx, endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("currents: %w", err)
	}

	out := make([]Article, 0, len(resp.News))
	for _, n := range resp.News {
		lang := n.Language
		if lang == "" {
			lang = q.Lang()
		}
		out = append(out, normalize(Article{
			Source:         NameCurrents,
			Title:          n.Title,
			URL:            n.URL,
			PublishedAt:    n.Published,
			Description:    n.Description,
			ContentExcerpt: excerpt(n.Description, 500),
			Lang:           lang,
		}))
	}
	return out, nil
}
