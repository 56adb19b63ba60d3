package redis

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/session"
	"github.com/mohammad-safakhou/memedex/models"
)

func startRedis(t *testing.T, ctx context.Context) (testcontainers.Container, config.RedisConfig) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("skipping redis integration test, container not available: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("container port: %v", err)
	}
	return container, config.RedisConfig{
		Host:    host,
		Port:    port.Port(),
		Timeout: 5 * time.Second,
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	ctx := context.Background()
	container, cfg := startRedis(t, ctx)
	defer func() { _ = container.Terminate(ctx) }()

	client, err := Conn(ctx, cfg)
	if err != nil {
		t.Fatalf("Conn() error = %v", err)
	}
	defer client.Close()

	store := NewStore(client, time.Minute)

	got, err := store.Get(ctx, 100)
	if err != nil || got != nil {
		t.Fatalf("Get() on empty store = (%v, %v), want (nil, nil)", got, err)
	}

	sess := &session.Session{
		Source: models.SourceMemepedia,
		Suggestions: []models.Candidate{
			{Title: "Ждун", Href: "https://memepedia.ru/zhdun"},
		},
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Set(ctx, 100, sess); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err = store.Get(ctx, 100)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.Source != models.SourceMemepedia {
		t.Fatalf("Get() = %+v", got)
	}
	if len(got.Suggestions) != 1 || got.Suggestions[0].Title != "Ждун" {
		t.Fatalf("suggestions did not survive the round trip: %+v", got.Suggestions)
	}

	if err := store.Remove(ctx, 100); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	got, _ = store.Get(ctx, 100)
	if got != nil {
		t.Fatalf("Get() after Remove = %+v, want nil", got)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	ctx := context.Background()
	container, cfg := startRedis(t, ctx)
	defer func() { _ = container.Terminate(ctx) }()

	client, err := Conn(ctx, cfg)
	if err != nil {
		t.Fatalf("Conn() error = %v", err)
	}
	defer client.Close()

	store := NewStore(client, time.Second)
	if err := store.Set(ctx, 7, &session.Session{Source: models.SourceKYM}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		got, err := store.Get(ctx, 7)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got == nil {
			return // expired as expected
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatal("session did not expire within deadline")
}
