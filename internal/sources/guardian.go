package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/fetch"
)

const guardianEndpoint = "https://content.guardianapis.com/search"

// Guardian queries the Guardian Content API. Skipped when no key is set.
type Guardian struct {
	APIKey   string
	Endpoint string
	HTTP     *fetch.JSONClient
}

type guardianResponse struct {
	Response struct {
		Results []struct {
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			Fields             struct {
				TrailText string `json:"trailText"`
				BodyText  string `json:"bodyText"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

func (g *Guardian) Name() string { return NameGuardian }

func (g *Guardian) Fetch(ctx context.Context, q Query) ([]Article, error) {
	if g.APIKey == "" {
		return nil, nil
	}
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = guardianEndpoint
	}
	params := url.Values{}
	params.Set("q", q.Topic())
	params.Set("from-date", q.Start)
	params.Set("to-date", q.End)
	params.Set("api-key", g.APIKey)
	params.Set("page-size", strconv.Itoa(q.PerSource(200)))
	params.Set("show-fields", "trailText,bodyText")
	params.Set("order-by", "newest")

	var resp guardianResponse
	if err := g.HTTP.GetJSON(ctx, endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("guardian: %w", err)
	}

	out := make([]Article, 0, len(resp.Response.Results))
	for _, it := range resp.Response.Results {
		out = append(out, normalize(Article{
			Source:         NameGuardian,
			Title:          it.WebTitle,
			URL:            it.WebURL,
			PublishedAt:    it.WebPublicationDate,
			Description:    it.Fields.TrailText,
			ContentExcerpt: excerpt(it.Fields.BodyText, 500),
			Lang:           "en",
		}))
	}
	return out, nil
}
