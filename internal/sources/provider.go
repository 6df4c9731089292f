package sources

import (
	"context"

	"github.com/ShabalalaWATP/UkraineOSINT/config"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/fetch"
)

// Provider turns a logical query into normalized articles. A provider whose
// credential is not configured returns an empty list and no error: silent,
// expected degradation.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]Article, error)
}

// Known provider names, in registry order. Registry order is also the
// deterministic tie-break for duplicate articles: the earlier provider wins.
const (
	NameGDELT    = "gdelt"
	NameGuardian = "guardian"
	NameCurrents = "currents"
	NameNewsdata = "newsdata"
	NameGNews    = "gnews"
	NameRSS      = "rss"
)

// Registry builds the full adapter set from configuration.
func Registry(cfg config.SourcesConfig, guarded *fetch.Client) []Provider {
	jc := fetch.NewJSONClient(cfg.Timeout, 1, 0)
	return []Provider{
		&GDELT{HTTP: jc},
		&Guardian{APIKey: cfg.GuardianAPIKey, HTTP: jc},
		&Currents{APIKey: cfg.CurrentsAPIKey, HTTP: jc},
		&Newsdata{APIKey: cfg.NewsdataAPIKey, HTTP: jc},
		&GNews{APIKey: cfg.GNewsAPIKey, HTTP: jc},
		NewRSS(guarded),
	}
}

// KnownNames returns the provider name enumeration in registry order.
func KnownNames() []string {
	return []string{NameGDELT, NameGuardian, NameCurrents, NameNewsdata, NameGNews, NameRSS}
}

// IsKnown reports whether name is a member of the provider enumeration.
func IsKnown(name string) bool {
	for _, n := range KnownNames() {
		if n == name {
			return true
		}
	}
	return false
}
