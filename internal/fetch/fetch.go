// Package fetch performs bounded HTTP page retrieval. Failures are carried as
// values up to the resolver boundary; nothing here panics past a component.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/telemetry"
)

// FailureKind classifies why a fetch was ultimately given up on.
type FailureKind string

const (
	FailureTimeout    FailureKind = "timeout"
	FailureHTTPStatus FailureKind = "http_status"
	FailureNetwork    FailureKind = "network"
)

// Failure is returned after every attempt has been exhausted. It implements
// error and records the last observed status and underlying cause.
type Failure struct {
	Kind       FailureKind
	URL        string
	Attempts   int
	LastStatus int
	Err        error
}

func (f *Failure) Error() string {
	if f.Kind == FailureHTTPStatus {
		return fmt.Sprintf("fetch %s: %s after %d attempts (last status %d)", f.URL, f.Kind, f.Attempts, f.LastStatus)
	}
	return fmt.Sprintf("fetch %s: %s after %d attempts", f.URL, f.Kind, f.Attempts)
}

func (f *Failure) Unwrap() error { return f.Err }

// Client fetches pages with a per-attempt timeout, a bounded number of
// retries and a fixed backoff between attempts. Worst-case latency is
// timeout*(maxRetries+1) + backoff*maxRetries.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	userAgent  string
	logger     *log.Logger

	// sleep is swappable so retry pacing is testable without real waiting.
	sleep func(time.Duration)
}

// New builds a Client from configuration. The logger receives one WARN line
// per failed attempt and one ERROR line on exhaustion.
func New(cfg config.FetchConfig, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		httpClient: &http.Client{},
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		userAgent:  cfg.UserAgent,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Fetch performs an HTTP GET against url, retrying up to the configured bound.
// Non-200 statuses, timeouts and connection errors are all retryable; the
// returned error on exhaustion is always a *Failure.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	attempts := c.maxRetries + 1
	var last *Failure
	made := 0

	for attempt := 1; attempt <= attempts; attempt++ {
		body, failure := c.attempt(ctx, url)
		made = attempt
		if failure == nil {
			telemetry.FetchAttempts.WithLabelValues("ok").Inc()
			return body, nil
		}
		telemetry.FetchAttempts.WithLabelValues(string(failure.Kind)).Inc()
		c.logger.Printf("WARN fetch %s attempt %d/%d failed: %v", url, attempt, attempts, failure.Err)
		last = failure

		if attempt < attempts {
			c.sleep(c.backoff)
		}
		// A cancelled parent context makes further attempts pointless.
		if ctx.Err() != nil {
			break
		}
	}

	last.Attempts = made
	c.logger.Printf("ERROR fetch %s giving up: %v", url, last)
	return nil, last
}

func (c *Client) attempt(ctx context.Context, url string) ([]byte, *Failure) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Failure{Kind: FailureNetwork, URL: url, Err: err}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Failure{Kind: classify(attemptCtx, err), URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Failure{
			Kind:       FailureHTTPStatus,
			URL:        url,
			LastStatus: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Failure{Kind: classify(attemptCtx, err), URL: url, Err: err}
	}
	return body, nil
}

func classify(ctx context.Context, err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureNetwork
}
