package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/controller"
	"github.com/mohammad-safakhou/memedex/internal/session/inmemory"
	"github.com/mohammad-safakhou/memedex/models"
)

func TestParseEvents(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		text string
		want []controller.Event
	}{
		{
			name: "start resets",
			text: "/start",
			want: []controller.Event{{UserID: 1, Kind: controller.EventReset}},
		},
		{
			name: "bare english command picks source",
			text: "/meme_en",
			want: []controller.Event{{UserID: 1, Kind: controller.EventChooseSource, Source: models.SourceKYM}},
		},
		{
			name: "russian command picks source",
			text: "/meme_ru",
			want: []controller.Event{{UserID: 1, Kind: controller.EventChooseSource, Source: models.SourceMemepedia}},
		},
		{
			name: "command with name also queries",
			text: "/meme_en doge",
			want: []controller.Event{
				{UserID: 1, Kind: controller.EventChooseSource, Source: models.SourceKYM},
				{UserID: 1, Kind: controller.EventQuery, Text: "doge"},
			},
		},
		{
			name: "plain text is a query",
			text: "gangnam style",
			want: []controller.Event{{UserID: 1, Kind: controller.EventQuery, Text: "gangnam style"}},
		},
		{
			name: "unknown command treated as query",
			text: "/help",
			want: []controller.Event{{UserID: 1, Kind: controller.EventQuery, Text: "/help"}},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := parseEvents(1, tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("parseEvents(%q) = %+v, want %+v", tc.text, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("event %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

// detailEngine answers every query with the same detail page.
type detailEngine struct{}

func (detailEngine) Resolve(_ context.Context, _ string, preferred models.Source) (models.Resolution, models.Source) {
	return models.ResolvedDetail(models.Detail{Title: "Doge", Summary: "Such wow.", URL: "u"}), preferred
}

func (detailEngine) Detail(context.Context, models.Source, string) models.Resolution {
	return models.Unavailable("unexpected detail call")
}

type memoryResponder struct {
	mu       sync.Mutex
	messages []string
}

func (r *memoryResponder) Respond(_ context.Context, _ int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
	return nil
}

func (r *memoryResponder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func newEventsHandler(t *testing.T) (*EventsHandler, *memoryResponder) {
	t.Helper()
	store := inmemory.NewStore(0)
	t.Cleanup(store.Close)
	out := &memoryResponder{}
	cfg := &config.Config{
		General: config.GeneralConfig{
			DefaultSource:    models.SourceKYM,
			ResolveTimeout:   5 * time.Second,
			SummaryMaxLength: 500,
		},
		Matching: config.MatchingConfig{
			DiscoveryThreshold: 0.2,
			SelectionThreshold: 0.7,
			SuggestionCap:      5,
			ListingCap:         10,
		},
	}
	ctrl := controller.New(detailEngine{}, store, out, cfg, nil)
	return &EventsHandler{Controller: ctrl}, out
}

func TestEventsAccepted(t *testing.T) {
	t.Parallel()
	h, out := newEventsHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/events",
		strings.NewReader(`{"user_id": 7, "text": "doge"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.accept(e.NewContext(req, rec)); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	// Delivery is asynchronous.
	deadline := time.Now().Add(2 * time.Second)
	for {
		msgs := out.snapshot()
		if len(msgs) == 1 {
			if !strings.Contains(msgs[0], "Doge") {
				t.Fatalf("delivered message = %q", msgs[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no message delivered, got %v", msgs)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEventsRejectsBadRequests(t *testing.T) {
	t.Parallel()
	h, _ := newEventsHandler(t)
	e := echo.New()

	cases := []struct {
		name string
		body string
	}{
		{"missing user", `{"text": "doge"}`},
		{"blank text", `{"user_id": 7, "text": "   "}`},
		{"malformed json", `{"user_id": `},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			err := h.accept(e.NewContext(req, rec))
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusBadRequest {
				t.Fatalf("accept(%q) err = %v, want 400", tc.body, err)
			}
		})
	}
}

func TestProbeReportsBothSources(t *testing.T) {
	t.Parallel()
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	h := &ProbeHandler{
		Sources: config.SourcesConfig{
			KYM:       config.SourceConfig{BaseURL: up.URL},
			Memepedia: config.SourceConfig{BaseURL: down.URL},
		},
		Client: &http.Client{Timeout: time.Second},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/probe", nil)
	rec := httptest.NewRecorder()
	if err := h.probe(e.NewContext(req, rec)); err != nil {
		t.Fatalf("probe: %v", err)
	}

	var results []probeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("decoding probe response: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v, want one per source", results)
	}
	if results[0].Source != "kym" || !results[0].OK || results[0].Status != http.StatusOK {
		t.Fatalf("kym result = %+v", results[0])
	}
	if results[1].Source != "memepedia" || results[1].OK || results[1].Status != http.StatusServiceUnavailable {
		t.Fatalf("memepedia result = %+v", results[1])
	}
}

func TestWebhookResponderDelivers(t *testing.T) {
	t.Parallel()
	var got outboundMessage
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("webhook body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	r := NewResponder(config.ServerConfig{WebhookURL: upstream.URL}, nil)
	if err := r.Respond(context.Background(), 42, "Doge\nSuch wow."); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if got.UserID != 42 || got.Text != "Doge\nSuch wow." {
		t.Fatalf("delivered = %+v", got)
	}
}

func TestWebhookResponderSurfacesUpstreamFailure(t *testing.T) {
	t.Parallel()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	r := NewResponder(config.ServerConfig{WebhookURL: upstream.URL}, nil)
	if err := r.Respond(context.Background(), 42, "hi"); err == nil {
		t.Fatal("expected error on non-2xx upstream")
	}
}

func TestResponderFallsBackToLog(t *testing.T) {
	t.Parallel()
	r := NewResponder(config.ServerConfig{}, nil)
	if _, ok := r.(*LogResponder); !ok {
		t.Fatalf("responder without webhook URL = %T, want *LogResponder", r)
	}
}
