package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/analysis"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/sources"
)

type analyzeRequest struct {
	Start        string            `json:"start"`
	End          string            `json:"end"`
	Q            string            `json:"q"`
	Focus        string            `json:"focus"`
	PromptPreset string            `json:"promptPreset"`
	Articles     []sources.Article `json:"articles"`
	Model        string            `json:"model"`
	MaxDocs      int               `json:"maxDocs"`
}

type analyzeResponse struct {
	OK       bool             `json:"ok"`
	Analysis *analysis.Result `json:"analysis"`
}

func validArticleURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if len(req.Articles) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "articles must not be empty")
	}
	for i, a := range req.Articles {
		if !validArticleURL(a.URL) {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("articles[%d].url must be an absolute http(s) URL", i))
		}
	}
	maxDocs := req.MaxDocs
	if maxDocs == 0 {
		maxDocs = analysis.DefaultMaxDocs
	}
	if maxDocs < 5 || maxDocs > 120 {
		return echo.NewHTTPError(http.StatusBadRequest, "maxDocs must be in [5,120]")
	}
	if s.analyzer == nil {
		return echo.NewHTTPError(http.StatusInternalServerError,
			"llm.gemini_api_key is not configured")
	}

	model := req.Model
	if model == "" {
		model = s.cfg.LLM.DefaultModel
	}
	res, err := s.analyzer.Analyze(c.Request().Context(), analysis.Request{
		Articles:     req.Articles,
		Start:        req.Start,
		End:          req.End,
		Q:            req.Q,
		Focus:        req.Focus,
		Model:        model,
		PromptPreset: req.PromptPreset,
		MaxDocs:      maxDocs,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, analyzeResponse{OK: true, Analysis: res})
}
