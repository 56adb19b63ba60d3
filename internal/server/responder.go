package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/controller"
)

// NewResponder picks the outbound delivery channel. With a webhook URL
// configured every message is POSTed there; without one messages go to the
// log, which keeps local runs usable without a chat transport.
func NewResponder(cfg config.ServerConfig, logger *log.Logger) controller.Responder {
	if logger == nil {
		logger = log.New(log.Writer(), "[OUT] ", log.LstdFlags)
	}
	if cfg.WebhookURL == "" {
		return &LogResponder{logger: logger}
	}
	return &WebhookResponder{
		url:    cfg.WebhookURL,
		client: &http.Client{},
		logger: logger,
	}
}

type outboundMessage struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// WebhookResponder delivers messages by POSTing them to the transport bridge.
type WebhookResponder struct {
	url    string
	client *http.Client
	logger *log.Logger
}

func (r *WebhookResponder) Respond(ctx context.Context, userID int64, text string) error {
	body, err := json.Marshal(outboundMessage{UserID: userID, Text: text})
	if err != nil {
		return fmt.Errorf("encoding outbound message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering to webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// LogResponder writes outbound messages to the log.
type LogResponder struct {
	logger *log.Logger
}

func (r *LogResponder) Respond(_ context.Context, userID int64, text string) error {
	r.logger.Printf("-> user %d: %s", userID, text)
	return nil
}
