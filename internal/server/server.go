// Package server wires the HTTP API: article aggregation, full-text
// extraction and LLM analysis, plus health and metrics endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShabalalaWATP/UkraineOSINT/config"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/analysis"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/cache"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/extract"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/fetch"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/sources"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/telemetry"
)

// Version is reported by /api/health. Overridable at build time via -ldflags.
var Version = "dev"

// Server owns the echo instance and the request-path dependencies.
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	agg       *sources.Aggregator
	extractor *extract.Extractor
	analyzer  *analysis.Analyzer
	cache     *cache.ArticleCache
	logger    *log.Logger
}

// New builds the echo app and all handlers. gen may be nil when no Gemini key
// is configured; analyze requests then fail with a config error.
func New(cfg *config.Config, gen analysis.Generator, articleCache *cache.ArticleCache, reg *prometheus.Registry) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"ok": false, "error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := telemetry.NewMetrics(reg)

	guarded := fetch.NewClient()
	providers := sources.Registry(cfg.Sources, guarded)
	agg := sources.NewAggregator(providers, cfg.Sources.AllowDomains, cfg.Sources.BlockDomains, metrics)
	extractor := extract.New(guarded, cfg.Extract, metrics)

	var analyzer *analysis.Analyzer
	if gen != nil {
		analyzer = analysis.NewAnalyzer(gen, cfg.LLM.FallbackModels, cfg.LLM.MaxCharsPerChunk, metrics, nil)
	}

	s := &Server{
		echo:      e,
		cfg:       cfg,
		agg:       agg,
		extractor: extractor,
		analyzer:  analyzer,
		cache:     articleCache,
		logger:    baseLogger,
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "version": Version})
	})
	api.GET("/articles", s.handleArticles)
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/extract", s.handleExtract)
	api.POST("/extract-batch", s.handleExtractBatch)

	return s
}

// Echo exposes the underlying instance for tests and embedding.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) Start() error {
	s.logger.Printf("listening on %s", s.cfg.Server.Address)
	return s.echo.Start(s.cfg.Server.Address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
