package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/fetch"
)

const gdeltEndpoint = "https://api.gdeltproject.org/api/v2/doc/doc"

// GDELT queries the GDELT DOC 2.0 federated index. No credential required.
type GDELT struct {
	Endpoint string
	HTTP     *fetch.JSONClient
}

type gdeltResponse struct {
	Articles []struct {
		URL           string `json:"url"`
		Title         string `json:"title"`
		SeenDate      string `json:"seendate"`
		SourceCountry string `json:"sourcecountry"`
		Language      string `json:"language"`
	} `json:"articles"`
}

func (g *GDELT) Name() string { return NameGDELT }

func (g *GDELT) Fetch(ctx context.Context, q Query) ([]Article, error) {
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = gdeltEndpoint
	}
	params := url.Values{}
	params.Set("query", q.Topic())
	params.Set("startdatetime", compactStamp(q.Start, "000000"))
	params.Set("enddatetime", compactStamp(q.End, "235959"))
	params.Set("format", "json")
	params.Set("maxrecords", strconv.Itoa(q.PerSource(250)))

	var resp gdeltResponse
	if err := g.HTTP.GetJSON(ctx, endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("gdelt: %w", err)
	}

	out := make([]Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		desc := ""
		if a.SourceCountry != "" {
			desc = "Country: " + a.SourceCountry
		}
		out = append(out, normalize(Article{
			Source:         NameGDELT,
			Title:          a.Title,
			URL:            a.URL,
			PublishedAt:    a.SeenDate,
			Description:    desc,
			ContentExcerpt: a.Title,
			Lang:           a.Language,
		}))
	}
	return out, nil
}
