package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ShabalalaWATP/UkraineOSINT/internal/cache"
	"github.com/ShabalalaWATP/UkraineOSINT/internal/sources"
)

type articlesResponse struct {
	OK       bool                 `json:"ok"`
	Count    int                  `json:"count"`
	Articles []sources.Article    `json:"articles"`
	Stats    []sources.SourceStat `json:"stats"`
}

const dateLayout = "2006-01-02"

// parseDay validates a YYYY-MM-DD query parameter, falling back when absent.
func parseDay(raw string, fallback time.Time) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback.Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return raw, nil
}

func parseSources(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return sources.KnownNames(), nil
	}
	var names []string
	for _, n := range strings.Split(raw, ",") {
		n = strings.TrimSpace(strings.ToLower(n))
		if n == "" {
			continue
		}
		if !sources.IsKnown(n) {
			return nil, fmt.Errorf("unknown source %q", n)
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return sources.KnownNames(), nil
	}
	return names, nil
}

func (s *Server) handleArticles(c echo.Context) error {
	now := time.Now().UTC()
	start, err := parseDay(c.QueryParam("start"), now.AddDate(0, 0, -7))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	end, err := parseDay(c.QueryParam("end"), now)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if start > end {
		return echo.NewHTTPError(http.StatusBadRequest, "start must not be after end")
	}

	maxPerSource := 50
	if raw := c.QueryParam("maxPerSource"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			return echo.NewHTTPError(http.StatusBadRequest, "maxPerSource must be an integer in [1,200]")
		}
		maxPerSource = n
	}

	names, err := parseSources(c.QueryParam("sources"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	q := sources.Query{
		Start:        start,
		End:          end,
		Q:            c.QueryParam("q"),
		MaxPerSource: maxPerSource,
		Language:     c.QueryParam("language"),
	}

	ctx := c.Request().Context()
	key := cache.Key(q, names)
	articles, stats, hit := s.cache.Get(ctx, key)
	if !hit {
		articles, stats = s.agg.Aggregate(ctx, q, names)
		s.cache.Put(ctx, key, articles, stats)
	}
	if articles == nil {
		articles = []sources.Article{}
	}
	return c.JSON(http.StatusOK, articlesResponse{
		OK:       true,
		Count:    len(articles),
		Articles: articles,
		Stats:    stats,
	})
}
