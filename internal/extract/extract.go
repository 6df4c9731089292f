// Package extract retrieves a page through the guarded fetcher and isolates
// the main article body from navigation and boilerplate.
package extract

import (
	"bytes"
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/ShabalalaWATP/UkraineOSINT/config"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/fetch"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/telemetry"
)

// Extraction is the readability result for one URL. A page with no
// recognizable article yields the zero value; that is a valid outcome, not
// an error.
type Extraction struct {
	Title       string `json:"title"`
	Byline      string `json:"byline"`
	TextContent string `json:"textContent"`
	Content     string `json:"content"`
	Length      int    `json:"length"`
}

// BatchEntry is one slot of a batch extraction: either data or an error.
type BatchEntry struct {
	Data  *Extraction `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Extractor runs strict-mode guarded fetches with browser-like headers.
// Some origins block default Go user agents outright.
type Extractor struct {
	fetcher *fetch.Client
	cfg     config.ExtractConfig
	metrics *telemetry.Metrics
	logger  *log.Logger
}

func New(fetcher *fetch.Client, cfg config.ExtractConfig, metrics *telemetry.Metrics) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 3
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 2_000_000
	}
	return &Extractor{
		fetcher: fetcher,
		cfg:     cfg,
		metrics: metrics,
		logger:  log.New(log.Writer(), "[EXTRACT] ", log.LstdFlags),
	}
}

// Extract fetches rawURL and runs readability over the response. Fetch and
// safety failures are errors; readability finding no article is not.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Extraction, error) {
	headers := map[string]string{
		"User-Agent":      e.cfg.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en,en-GB;q=0.9",
	}
	res, err := e.fetcher.Get(ctx, rawURL, fetch.Options{
		Timeout:      e.cfg.Timeout,
		MaxRedirects: e.cfg.MaxRedirects,
		MaxBodyBytes: e.cfg.MaxBodyBytes,
		Headers:      headers,
		StrictPorts:  true,
	})
	if err != nil {
		e.metrics.ObserveExtract(true)
		return nil, err
	}

	final, perr := url.Parse(res.FinalURL)
	if perr != nil {
		final = &url.URL{}
	}
	article, err := readability.FromReader(bytes.NewReader(res.Body), final)
	if err != nil {
		// No parseable article is a valid, empty outcome.
		e.metrics.ObserveExtract(false)
		return &Extraction{}, nil
	}

	text := strings.TrimSpace(article.TextContent)
	e.metrics.ObserveExtract(false)
	return &Extraction{
		Title:       strings.TrimSpace(article.Title),
		Byline:      strings.TrimSpace(article.Byline),
		TextContent: text,
		Content:     strings.TrimSpace(article.Content),
		Length:      len([]rune(text)),
	}, nil
}

// ExtractBatch processes URLs sequentially to avoid hammering target
// origins, isolating each URL's failure into its own entry.
func (e *Extractor) ExtractBatch(ctx context.Context, urls []string) map[string]BatchEntry {
	out := make(map[string]BatchEntry, len(urls))
	for _, u := range urls {
		data, err := e.Extract(ctx, u)
		if err != nil {
			e.logger.Printf("extract %s: %v", u, err)
			out[u] = BatchEntry{Error: err.Error()}
			continue
		}
		out[u] = BatchEntry{Data: data}
	}
	return out
}
