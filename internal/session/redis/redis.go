// Package redis backs the session store with Redis so sessions survive a
// gateway restart on a best-effort basis. Keys expire with the configured
// TTL; there is still no durability guarantee.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/memedex/config"
	"github.com/mohammad-safakhou/memedex/internal/session"
)

// Conn opens and pings a Redis client from configuration.
func Conn(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// Store keeps one JSON document per user under memedex:session:<id>.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore wraps an existing client. ttl <= 0 stores keys without expiry.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(userID int64) string {
	return fmt.Sprintf("memedex:session:%d", userID)
}

func (s *Store) Get(ctx context.Context, userID int64) (*session.Session, error) {
	raw, err := s.client.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %d: %w", userID, err)
	}
	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %d: %w", userID, err)
	}
	return &sess, nil
}

func (s *Store) Set(ctx context.Context, userID int64, sess *session.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %d: %w", userID, err)
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key(userID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("writing session %d: %w", userID, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("removing session %d: %w", userID, err)
	}
	return nil
}
