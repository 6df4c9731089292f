package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/extract"
)

type extractRequest struct {
	URL string `json:"url"`
}

type extractBatchRequest struct {
	URLs []string `json:"urls"`
}

const maxBatchURLs = 50

func (s *Server) handleExtract(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if !validArticleURL(req.URL) {
		return echo.NewHTTPError(http.StatusBadRequest, "url must be an absolute http(s) URL")
	}
	data, err := s.extractor.Extract(c.Request().Context(), req.URL)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "data": data})
}

func (s *Server) handleExtractBatch(c echo.Context) error {
	var req extractBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if len(req.URLs) == 0 || len(req.URLs) > maxBatchURLs {
		return echo.NewHTTPError(http.StatusBadRequest, "urls must contain between 1 and 50 entries")
	}
	for _, u := range req.URLs {
		if !validArticleURL(u) {
			return echo.NewHTTPError(http.StatusBadRequest, "every url must be an absolute http(s) URL")
		}
	}
	results := s.extractor.ExtractBatch(c.Request().Context(), req.URLs)
	if results == nil {
		results = map[string]extract.BatchEntry{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "results": results})
}
