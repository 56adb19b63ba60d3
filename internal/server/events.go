package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/memedex/internal/controller"
	"github.com/mohammad-safakhou/memedex/models"
)

// EventsHandler accepts chat events from the upstream transport.
type EventsHandler struct {
	Controller *controller.Controller
}

func (h *EventsHandler) Register(g *echo.Group) {
	g.POST("/events", h.accept)
}

type eventRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// accept enqueues the event and returns immediately: resolution is slow and
// its outcome is delivered through the Responder, not this response.
func (h *EventsHandler) accept(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.UserID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	for _, ev := range parseEvents(req.UserID, text) {
		h.Controller.HandleEvent(ev)
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// parseEvents maps one message to controller events. A source command with a
// trailing name ("/meme_en doge") both picks the source and starts the search.
func parseEvents(userID int64, text string) []controller.Event {
	cmd, rest := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		cmd, rest = text[:i], strings.TrimSpace(text[i+1:])
	}

	switch cmd {
	case "/start":
		return []controller.Event{{UserID: userID, Kind: controller.EventReset}}
	case "/meme_en":
		return sourceEvents(userID, models.SourceKYM, rest)
	case "/meme_ru":
		return sourceEvents(userID, models.SourceMemepedia, rest)
	default:
		return []controller.Event{{UserID: userID, Kind: controller.EventQuery, Text: text}}
	}
}

func sourceEvents(userID int64, src models.Source, rest string) []controller.Event {
	evs := []controller.Event{{UserID: userID, Kind: controller.EventChooseSource, Source: src}}
	if rest != "" {
		evs = append(evs, controller.Event{UserID: userID, Kind: controller.EventQuery, Text: rest})
	}
	return evs
}
