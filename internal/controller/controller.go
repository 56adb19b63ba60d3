// Package controller turns successive per-user events into final answers or
// re-prompts. It owns the Idle → AwaitingQuery → AwaitingSelection state
// machine and guarantees exactly one delivered message per submitted query.
package controller

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/match"
	"github.com/mohammad-safakhou/memedex/internal/session"
	"github.com/mohammad-safakhou/memedex/models"
)

// Engine is the resolution capability the controller drives. Implemented by
// resolve.Orchestrator.
type Engine interface {
	Resolve(ctx context.Context, query string, preferred models.Source) (models.Resolution, models.Source)
	Detail(ctx context.Context, source models.Source, href string) models.Resolution
}

// Responder delivers a rendered message to a user. Implemented by the
// gateway's outbound sink.
type Responder interface {
	Respond(ctx context.Context, userID int64, text string) error
}

// EventKind tags an inbound user event after the transport has mapped its
// control texts.
type EventKind int

const (
	// EventReset clears the user's session unconditionally.
	EventReset EventKind = iota
	// EventChooseSource starts a session for the given source.
	EventChooseSource
	// EventQuery submits free text: a fresh query or a selection reply.
	EventQuery
)

// Event is one inbound (user, text) turn.
type Event struct {
	UserID int64
	Kind   EventKind
	Source models.Source // for EventChooseSource
	Text   string        // for EventQuery
}

// Controller wires the engine, the session store and the outbound sink.
type Controller struct {
	engine Engine
	store  session.Store
	out    Responder

	selectionThreshold float64
	suggestionCap      int
	defaultSource      models.Source
	resolveTimeout     time.Duration

	logger   *log.Logger
	dispatch *dispatcher
}

// New builds a Controller from configuration.
func New(engine Engine, store session.Store, out Responder, cfg *config.Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		engine:             engine,
		store:              store,
		out:                out,
		selectionThreshold: cfg.Matching.SelectionThreshold,
		suggestionCap:      cfg.Matching.SuggestionCap,
		defaultSource:      cfg.General.DefaultSource,
		resolveTimeout:     cfg.General.ResolveTimeout,
		logger:             logger,
		dispatch:           newDispatcher(),
	}
}

// HandleEvent enqueues the event on the user's FIFO lane and returns
// immediately. Events for one user are processed in receipt order; different
// users proceed concurrently. Processing deliberately runs on a fresh
// context: an upstream disconnect must not abort an in-flight resolution.
func (c *Controller) HandleEvent(ev Event) {
	c.dispatch.enqueue(ev.UserID, func() {
		c.process(context.Background(), ev)
	})
}

func (c *Controller) process(ctx context.Context, ev Event) {
	trace := uuid.NewString()[:8]

	switch ev.Kind {
	case EventReset:
		if err := c.store.Remove(ctx, ev.UserID); err != nil {
			c.logger.Printf("[%s] WARN reset: clearing session for user %d: %v", trace, ev.UserID, err)
		}
		c.respond(ctx, ev.UserID, renderWelcome())

	case EventChooseSource:
		src := ev.Source
		if !src.Valid() {
			src = c.defaultSource
		}
		sess := &session.Session{Source: src, UpdatedAt: time.Now()}
		if err := c.store.Set(ctx, ev.UserID, sess); err != nil {
			c.logger.Printf("[%s] ERROR choose source: storing session for user %d: %v", trace, ev.UserID, err)
			c.respond(ctx, ev.UserID, renderUnavailable())
			return
		}
		c.respond(ctx, ev.UserID, renderQueryPrompt(src))

	case EventQuery:
		c.handleQuery(ctx, trace, ev.UserID, ev.Text)
	}
}

func (c *Controller) handleQuery(ctx context.Context, trace string, userID int64, text string) {
	sess, err := c.store.Get(ctx, userID)
	if err != nil {
		c.logger.Printf("[%s] ERROR query: loading session for user %d: %v", trace, userID, err)
		c.respond(ctx, userID, renderUnavailable())
		return
	}

	if sess.AwaitingSelection() {
		c.handleSelection(ctx, trace, userID, text, sess)
		return
	}

	// Fresh query: a missing session means an implicit source choice.
	source := c.defaultSource
	if sess != nil && sess.Source.Valid() {
		source = sess.Source
	}

	resolveCtx, cancel := context.WithTimeout(ctx, c.resolveTimeout)
	defer cancel()

	c.logger.Printf("[%s] resolving %q for user %d via %s", trace, text, userID, source)
	result, from := c.engine.Resolve(resolveCtx, text, source)

	switch result.Kind {
	case models.KindDetail:
		c.clearSession(ctx, trace, userID)
		c.respond(ctx, userID, renderDetail(result.Detail))

	case models.KindSuggestions:
		stored := make([]models.Candidate, len(result.Suggestions))
		for i, sc := range result.Suggestions {
			stored[i] = sc.Candidate
		}
		next := &session.Session{Source: from, Suggestions: stored, UpdatedAt: time.Now()}
		if err := c.store.Set(ctx, userID, next); err != nil {
			c.logger.Printf("[%s] ERROR query: storing suggestions for user %d: %v", trace, userID, err)
			c.respond(ctx, userID, renderUnavailable())
			return
		}
		c.respond(ctx, userID, renderSuggestions(result.Suggestions, c.suggestionCap))

	case models.KindNotFound:
		c.clearSession(ctx, trace, userID)
		c.respond(ctx, userID, renderNotFound())

	case models.KindUnavailable:
		c.logger.Printf("[%s] WARN query %q for user %d unavailable: %s", trace, text, userID, result.Reason)
		c.clearSession(ctx, trace, userID)
		c.respond(ctx, userID, renderUnavailable())
	}
}

// handleSelection matches the reply against the stored candidates with the
// strict threshold. A failed attempt keeps the stored list untouched.
func (c *Controller) handleSelection(ctx context.Context, trace string, userID int64, text string, sess *session.Session) {
	idx, err := match.SelectReply(text, sess.Suggestions, c.selectionThreshold)
	if err != nil {
		if errors.Is(err, match.ErrAmbiguous) {
			c.logger.Printf("[%s] selection %q for user %d ambiguous", trace, text, userID)
		}
		c.respond(ctx, userID, renderSelectionReprompt())
		return
	}

	resolveCtx, cancel := context.WithTimeout(ctx, c.resolveTimeout)
	defer cancel()

	chosen := sess.Suggestions[idx]
	c.logger.Printf("[%s] user %d selected %q", trace, userID, chosen.Title)
	result := c.engine.Detail(resolveCtx, sess.Source, chosen.Href)

	// Terminal either way: the selection round is over.
	c.clearSession(ctx, trace, userID)
	if result.Kind == models.KindDetail {
		c.respond(ctx, userID, renderDetail(result.Detail))
		return
	}
	c.logger.Printf("[%s] WARN detail fetch for user %d failed: %s", trace, userID, result.Reason)
	c.respond(ctx, userID, renderUnavailable())
}

func (c *Controller) clearSession(ctx context.Context, trace string, userID int64) {
	if err := c.store.Remove(ctx, userID); err != nil {
		c.logger.Printf("[%s] WARN clearing session for user %d: %v", trace, userID, err)
	}
}

func (c *Controller) respond(ctx context.Context, userID int64, text string) {
	if err := c.out.Respond(ctx, userID, text); err != nil {
		c.logger.Printf("ERROR delivering message to user %d: %v", userID, err)
	}
}
