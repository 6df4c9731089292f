package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ShabalalaWATP/UkraineOSINT/config"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/analysis"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/sources"
)

type stubProvider struct {
	name     string
	articles []sources.Article
	err      error
}

func (p *stubProvider) Name() string { return p.name }
func (p *stubProvider) Fetch(_ context.Context, _ sources.Query) ([]sources.Article, error) {
	return p.articles, p.err
}

type stubGenerator struct {
	out string
	err error
}

func (g *stubGenerator) Generate(_ context.Context, _ string, _ []string) (string, error) {
	return g.out, g.err
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Address: "127.0.0.1:0"},
		Sources: config.SourcesConfig{
			Timeout: 5 * time.Second,
		},
		LLM: config.LLMConfig{
			DefaultModel:     "gemini-1.5-flash",
			MaxCharsPerChunk: 12000,
		},
		Extract: config.ExtractConfig{
			Timeout:      5 * time.Second,
			MaxRedirects: 3,
			MaxBodyBytes: 2_000_000,
			UserAgent:    "test-agent",
		},
	}
}

// testServer builds a Server with one stub provider and a stub LLM.
func testServer(t *testing.T, gen analysis.Generator) *Server {
	t.Helper()
	s := New(testConfig(), gen, nil, prometheus.NewRegistry())
	s.agg = sources.NewAggregator([]sources.Provider{
		&stubProvider{name: sources.NameRSS, articles: []sources.Article{{
			ID:          "abc",
			Source:      sources.NameRSS,
			Title:       "Strikes reported overnight",
			URL:         "https://news.example.com/a",
			PublishedAt: "2026-08-01T10:00:00Z",
		}}},
	}, nil, nil, nil)
	return s
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	var out map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s %s response (%d): %v\n%s", method, path, rec.Code, err, rec.Body.String())
	}
	return rec, out
}

func TestHealthEndpoints(t *testing.T) {
	s := testServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec, out := doJSON(t, s, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("api health: %d", rec.Code)
	}
	if string(out["ok"]) != "true" {
		t.Fatalf("api health ok field: %s", out["ok"])
	}
	if _, found := out["version"]; !found {
		t.Fatalf("api health missing version")
	}
}

func TestArticlesHappyPath(t *testing.T) {
	s := testServer(t, nil)
	rec, out := doJSON(t, s, http.MethodGet, "/api/articles?start=2026-08-01&end=2026-08-02&sources=rss", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("articles: %d %s", rec.Code, rec.Body.String())
	}
	if string(out["count"]) != "1" {
		t.Fatalf("count = %s", out["count"])
	}
	var arts []sources.Article
	if err := json.Unmarshal(out["articles"], &arts); err != nil {
		t.Fatalf("decode articles: %v", err)
	}
	if len(arts) != 1 || arts[0].Title != "Strikes reported overnight" {
		t.Fatalf("unexpected articles: %+v", arts)
	}
}

func TestArticlesValidation(t *testing.T) {
	s := testServer(t, nil)
	cases := []string{
		"/api/articles?start=01-08-2026",
		"/api/articles?start=2026-08-02&end=2026-08-01",
		"/api/articles?maxPerSource=0",
		"/api/articles?maxPerSource=201",
		"/api/articles?maxPerSource=abc",
		"/api/articles?sources=rss,telegram",
	}
	for _, path := range cases {
		rec, out := doJSON(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, rec.Code)
		}
		if string(out["ok"]) != "false" {
			t.Fatalf("%s: expected ok=false envelope, got %s", path, rec.Body.String())
		}
	}
}

func TestArticlesDefaultsAllSources(t *testing.T) {
	s := testServer(t, nil)
	rec, out := doJSON(t, s, http.MethodGet, "/api/articles", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("articles with defaults: %d %s", rec.Code, rec.Body.String())
	}
	var stats []sources.SourceStat
	if err := json.Unmarshal(out["stats"], &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	// Only the stub provider is registered, so exactly one stat row.
	if len(stats) != 1 {
		t.Fatalf("expected 1 stat row, got %d", len(stats))
	}
}

func analyzeBody(urls ...string) string {
	arts := make([]string, len(urls))
	for i, u := range urls {
		arts[i] = fmt.Sprintf(`{"title":"t","url":%q,"source":"rss"}`, u)
	}
	return fmt.Sprintf(`{"start":"2026-08-01","end":"2026-08-02","q":"Ukraine","articles":[%s]}`,
		strings.Join(arts, ","))
}

func TestAnalyzeHappyPath(t *testing.T) {
	s := testServer(t, &stubGenerator{out: "# Executive Summary\n..."})
	rec, out := doJSON(t, s, http.MethodPost, "/api/analyze", analyzeBody("https://news.example.com/a"))
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: %d %s", rec.Code, rec.Body.String())
	}
	var res analysis.Result
	if err := json.Unmarshal(out["analysis"], &res); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if res.Model != "gemini-1.5-flash" {
		t.Fatalf("expected configured default model, got %s", res.Model)
	}
	if res.Report == "" || res.ID == "" {
		t.Fatalf("incomplete result: %+v", res)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	s := testServer(t, &stubGenerator{out: "report"})
	cases := []string{
		`{"articles":[]}`,
		analyzeBody("not-a-url"),
		analyzeBody("/relative/path"),
		`{"articles":[{"url":"https://ok.example.com/a"}],"maxDocs":4}`,
		`{"articles":[{"url":"https://ok.example.com/a"}],"maxDocs":121}`,
	}
	for _, body := range cases {
		rec, _ := doJSON(t, s, http.MethodPost, "/api/analyze", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d %s", body, rec.Code, rec.Body.String())
		}
	}
}

func TestAnalyzeWithoutKeyIsConfigError(t *testing.T) {
	s := testServer(t, nil)
	rec, out := doJSON(t, s, http.MethodPost, "/api/analyze", analyzeBody("https://news.example.com/a"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 config error, got %d", rec.Code)
	}
	var msg string
	_ = json.Unmarshal(out["error"], &msg)
	if !strings.Contains(msg, "gemini_api_key") {
		t.Fatalf("expected configuration message, got %q", msg)
	}
}

func TestAnalyzeUpstreamFailure(t *testing.T) {
	s := testServer(t, &stubGenerator{err: fmt.Errorf("quota exhausted")})
	rec, _ := doJSON(t, s, http.MethodPost, "/api/analyze", analyzeBody("https://news.example.com/a"))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when every model fails, got %d", rec.Code)
	}
}

func TestExtractValidation(t *testing.T) {
	s := testServer(t, nil)
	for _, body := range []string{`{}`, `{"url":"ftp://example.com/x"}`, `{"url":"relative"}`} {
		rec, _ := doJSON(t, s, http.MethodPost, "/api/extract", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestExtractBatchValidation(t *testing.T) {
	s := testServer(t, nil)

	rec, _ := doJSON(t, s, http.MethodPost, "/api/extract-batch", `{"urls":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty batch: expected 400, got %d", rec.Code)
	}

	urls := make([]string, 51)
	for i := range urls {
		urls[i] = fmt.Sprintf(`"https://example.com/%d"`, i)
	}
	rec, _ = doJSON(t, s, http.MethodPost, "/api/extract-batch",
		`{"urls":[`+strings.Join(urls, ",")+`]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized batch: expected 400, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := testServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}
