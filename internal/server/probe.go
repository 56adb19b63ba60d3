package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/models"
)

// ProbeHandler reports per-source reachability. It issues one plain GET per
// source against its base URL, without the fetcher's retry loop, so the
// numbers reflect a single round trip.
type ProbeHandler struct {
	Sources   config.SourcesConfig
	UserAgent string
	Client    *http.Client
}

func (h *ProbeHandler) Register(g *echo.Group) {
	g.GET("/probe", h.probe)
}

type probeResult struct {
	Source    string `json:"source"`
	OK        bool   `json:"ok"`
	Status    int    `json:"status,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

func (h *ProbeHandler) probe(c echo.Context) error {
	ctx := c.Request().Context()
	results := make([]probeResult, 0, 2)
	for _, src := range []models.Source{models.SourceKYM, models.SourceMemepedia} {
		results = append(results, h.probeOne(ctx, src))
	}
	return c.JSON(http.StatusOK, results)
}

func (h *ProbeHandler) probeOne(ctx context.Context, src models.Source) probeResult {
	out := probeResult{Source: string(src)}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Sources.For(src).BaseURL, nil)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	out.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		out.Error = err.Error()
		return out
	}
	defer resp.Body.Close()

	out.Status = resp.StatusCode
	out.OK = resp.StatusCode >= 200 && resp.StatusCode < 400
	return out
}
