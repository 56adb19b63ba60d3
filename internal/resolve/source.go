// Package resolve composes the fetcher, page parser and matcher into the
// per-source search pipeline and the two-source fallback orchestrator.
package resolve

import (
	"context"
	"log"
	"strings"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/helpers"
	"github.com/mohammad-safakhou/memedex/internal/match"
	"github.com/mohammad-safakhou/memedex/internal/page"
	"github.com/mohammad-safakhou/memedex/internal/telemetry"
	"github.com/mohammad-safakhou/memedex/models"
)

// Fetcher retrieves a page's raw bytes or fails with a retriable-exhausted
// error value.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SourceResolver answers "search this source for query Q" and fetches a
// known candidate's detail page directly during the selection phase.
type SourceResolver interface {
	Source() models.Source
	Search(ctx context.Context, query string) models.Resolution
	Detail(ctx context.Context, href string) models.Resolution
}

// Resolver is the SourceResolver for one configured knowledge source. All
// source-specific differences live in its configuration and schema: base
// URL, search template, selectors, and whether listing hrefs are absolute.
type Resolver struct {
	source  models.Source
	cfg     config.SourceConfig
	schema  *page.Schema
	fetcher Fetcher

	discoveryThreshold float64
	listingCap         int
	summaryMax         int
	logger             *log.Logger
}

// NewResolver compiles the source's schema and wires the pipeline.
func NewResolver(source models.Source, cfg config.SourceConfig, matching config.MatchingConfig,
	summaryMax int, fetcher Fetcher, logger *log.Logger) (*Resolver, error) {

	schema, err := page.NewSchema(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		source:             source,
		cfg:                cfg,
		schema:             schema,
		fetcher:            fetcher,
		discoveryThreshold: matching.DiscoveryThreshold,
		listingCap:         matching.ListingCap,
		summaryMax:         summaryMax,
		logger:             logger,
	}, nil
}

func (r *Resolver) Source() models.Source { return r.source }

// Search runs the listing search: exact hit resolves straight to the detail
// page, otherwise candidates are ranked against the discovery threshold.
func (r *Resolver) Search(ctx context.Context, query string) models.Resolution {
	query = strings.TrimSpace(query)
	listingURL := helpers.ExpandQuery(r.cfg.SearchURL, query)

	body, err := r.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return r.done(models.Unavailable(err.Error()))
	}

	candidates, err := r.schema.ParseListing(body, r.listingCap)
	if err != nil {
		return r.done(models.Unavailable(err.Error()))
	}
	if len(candidates) == 0 {
		return r.done(models.NotFound())
	}

	if idx := match.FindExact(query, candidates); idx >= 0 {
		// The item is known to exist; a failed detail fetch is Unavailable,
		// never NotFound.
		return r.Detail(ctx, candidates[idx].Href)
	}

	ranked := match.RankSuggestions(query, candidates, r.discoveryThreshold)
	if len(ranked) == 0 {
		return r.done(models.NotFound())
	}
	return r.done(models.ResolvedSuggestions(ranked))
}

// Detail fetches and parses a candidate's page, bypassing the listing
// search. Href resolution follows the source's addressing mode.
func (r *Resolver) Detail(ctx context.Context, href string) models.Resolution {
	detailURL, err := r.ResolveHref(href)
	if err != nil {
		r.logger.Printf("WARN %s: rejecting candidate href %q: %v", r.source, href, err)
		return r.done(models.Unavailable(err.Error()))
	}

	body, err := r.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		return r.done(models.Unavailable(err.Error()))
	}

	fields, err := r.schema.ParseDetail(body, detailURL, r.summaryMax)
	if err != nil {
		return r.done(models.Unavailable(err.Error()))
	}
	return r.done(models.ResolvedDetail(models.Detail{
		Title:   fields.Title,
		Summary: fields.Summary,
		URL:     detailURL,
	}))
}

// ResolveHref makes a listing href absolute per the source's addressing.
func (r *Resolver) ResolveHref(href string) (string, error) {
	return helpers.ResolveHref(r.cfg.BaseURL, href, r.cfg.AbsoluteListings)
}

func (r *Resolver) done(res models.Resolution) models.Resolution {
	telemetry.Resolutions.WithLabelValues(string(r.source), res.Kind.String()).Inc()
	return res
}
