package resolve

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/memedex/internal/telemetry"
	"github.com/mohammad-safakhou/memedex/models"
)

// Orchestrator composes the two source resolvers with a single-hop fallback
// policy: the preferred source is always tried first, and only NotFound or
// Unavailable triggers exactly one query against the other source, whose
// result is returned verbatim. At most two source queries per Resolve call.
type Orchestrator struct {
	resolvers map[models.Source]SourceResolver
	logger    *log.Logger
}

// NewOrchestrator wires both resolvers.
func NewOrchestrator(logger *log.Logger, resolvers ...SourceResolver) (*Orchestrator, error) {
	if logger == nil {
		logger = log.Default()
	}
	bySource := make(map[models.Source]SourceResolver, len(resolvers))
	for _, r := range resolvers {
		bySource[r.Source()] = r
	}
	for _, src := range []models.Source{models.SourceKYM, models.SourceMemepedia} {
		if _, ok := bySource[src]; !ok {
			return nil, fmt.Errorf("missing resolver for source %q", src)
		}
	}
	return &Orchestrator{resolvers: bySource, logger: logger}, nil
}

// Resolve searches the preferred source and falls back once. It returns the
// result together with the source that produced it: a fallback hit's
// candidates belong to the other source, and later detail fetches must join
// hrefs against that source's base URL.
func (o *Orchestrator) Resolve(ctx context.Context, query string, preferred models.Source) (models.Resolution, models.Source) {
	started := time.Now()
	defer func() {
		telemetry.ResolutionDuration.Observe(time.Since(started).Seconds())
	}()

	if !preferred.Valid() {
		preferred = models.SourceKYM
	}

	result := o.resolvers[preferred].Search(ctx, query)
	if result.Terminal() {
		return result, preferred
	}

	other := preferred.Other()
	o.logger.Printf("query %q on %s: %s, falling back to %s", query, preferred, result.Kind, other)
	telemetry.Fallbacks.WithLabelValues(string(preferred), string(other)).Inc()

	return o.resolvers[other].Search(ctx, query), other
}

// Detail fetches a stored candidate's page through the resolver of the
// source that produced it.
func (o *Orchestrator) Detail(ctx context.Context, source models.Source, href string) models.Resolution {
	r, ok := o.resolvers[source]
	if !ok {
		return models.Unavailable(fmt.Sprintf("unknown source %q", source))
	}
	return r.Detail(ctx, href)
}
