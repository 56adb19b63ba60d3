// Package inmemory is the default session store: a sharded map with per-shard
// locking so concurrent users do not contend on one mutex.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/mohammad-safakhou/memedex/internal/session"
)

const shardCount = 16

type shard struct {
	mu       sync.RWMutex
	sessions map[int64]session.Session
}

// Store holds sessions in memory. When a positive TTL is configured a
// janitor goroutine evicts sessions that have not been touched within it.
type Store struct {
	shards [shardCount]*shard

	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

// NewStore builds an in-memory store. ttl <= 0 disables eviction.
func NewStore(ttl time.Duration) *Store {
	store := &Store{ttl: ttl, stop: make(chan struct{})}
	for i := range store.shards {
		store.shards[i] = &shard{sessions: make(map[int64]session.Session)}
	}
	if ttl > 0 {
		go store.janitor()
	}
	return store
}

func (s *Store) shardFor(userID int64) *shard {
	return s.shards[uint64(userID)%shardCount]
}

// Get returns a copy of the user's session, or nil when absent. Copies keep
// stored suggestion lists immutable from the caller's point of view.
func (s *Store) Get(_ context.Context, userID int64) (*session.Session, error) {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	sess, ok := sh.sessions[userID]
	if !ok {
		return nil, nil
	}
	out := sess
	return &out, nil
}

// Set stores the session for the user, replacing any prior one wholesale.
func (s *Store) Set(_ context.Context, userID int64, sess *session.Session) error {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.sessions[userID] = *sess
	return nil
}

// Remove deletes the user's session; removing an absent session is a no-op.
func (s *Store) Remove(_ context.Context, userID int64) error {
	sh := s.shardFor(userID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.sessions, userID)
	return nil
}

// Close stops the janitor. Safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Store) janitor() {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.evictBefore(now.Add(-s.ttl))
		}
	}
}

func (s *Store) evictBefore(cutoff time.Time) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if sess.UpdatedAt.Before(cutoff) {
				delete(sh.sessions, id)
			}
		}
		sh.mu.Unlock()
	}
}
