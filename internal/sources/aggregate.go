package sources

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/telemetry"
)

// Aggregator fans a query out to selected providers concurrently, isolates
// per-provider failures, and merges results into one deduplicated list.
type Aggregator struct {
	providers []Provider
	allow     []string
	block     []string
	metrics   *telemetry.Metrics
	logger    *log.Logger
}

func NewAggregator(providers []Provider, allow, block []string, metrics *telemetry.Metrics) *Aggregator {
	return &Aggregator{
		providers: providers,
		allow:     lowerAll(allow),
		block:     lowerAll(block),
		metrics:   metrics,
		logger:    log.New(log.Writer(), "[AGG] ", log.LstdFlags),
	}
}

// Aggregate runs every selected provider concurrently and merges. One
// provider's outage never suppresses another's results: each failure is
// recorded in its stat slot with an empty list. Merge order follows the
// fixed registry order, so the duplicate winner is deterministic across
// runs regardless of completion order.
func (ag *Aggregator) Aggregate(ctx context.Context, q Query, names []string) ([]Article, []SourceStat) {
	selected := ag.selectProviders(names)

	results := make([]ProviderResult, len(selected))
	var wg sync.WaitGroup
	for i, p := range selected {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			res := ProviderResult{Name: p.Name()}
			started := time.Now()
			defer func() {
				if r := recover(); r != nil {
					res.Articles = nil
					res.Err = fmt.Errorf("provider panic: %v", r)
				}
				res.Elapsed = time.Since(started)
				results[i] = res
			}()
			res.Articles, res.Err = p.Fetch(ctx, q)
		}(i, p)
	}
	wg.Wait()

	var merged []Article
	stats := make([]SourceStat, 0, len(results))
	for _, r := range results {
		stat := SourceStat{Source: r.Name, Count: len(r.Articles), MS: r.Elapsed.Milliseconds()}
		if r.Err != nil {
			stat.Error = r.Err.Error()
			ag.logger.Printf("provider %s failed after %s: %v", r.Name, r.Elapsed, r.Err)
		}
		stats = append(stats, stat)
		ag.metrics.ObserveProvider(r.Name, r.Elapsed.Seconds(), r.Err != nil)
		merged = append(merged, r.Articles...)
	}

	merged = ag.filterDomains(merged)

	// Dedupe by canonical-URL identity, first occurrence wins.
	seen := make(map[string]bool, len(merged))
	deduped := merged[:0]
	for _, a := range merged {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		deduped = append(deduped, a)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		return parseWhen(deduped[i].PublishedAt).After(parseWhen(deduped[j].PublishedAt))
	})
	return deduped, stats
}

// selectProviders keeps registry order regardless of the order names were
// supplied in.
func (ag *Aggregator) selectProviders(names []string) []Provider {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Provider
	for _, p := range ag.providers {
		if want[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// filterDomains applies the allow/block lists by host suffix match. When
// either list is active, articles whose URL fails to parse are dropped.
func (ag *Aggregator) filterDomains(in []Article) []Article {
	if len(ag.allow) == 0 && len(ag.block) == 0 {
		return in
	}
	out := in[:0]
	for _, a := range in {
		u, err := url.Parse(a.URL)
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if len(ag.allow) > 0 && !matchesAny(host, ag.allow) {
			continue
		}
		if len(ag.block) > 0 && matchesAny(host, ag.block) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func matchesAny(host string, domains []string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
