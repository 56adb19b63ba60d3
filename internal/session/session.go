// Package session defines the per-user disambiguation state and the store
// capability it lives in. A session exists from the moment a source is
// chosen until a detail is delivered, the user abandons, or the process
// restarts; there is no durability guarantee.
package session

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/memedex/models"
)

// Session is one user's pending state. A nil Suggestions slice means the
// user has chosen a source but not yet received a candidate list. The slice,
// once set, is never mutated in place; a new search replaces the session
// wholesale.
type Session struct {
	Source      models.Source      `json:"source"`
	Suggestions []models.Candidate `json:"suggestions,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// AwaitingSelection reports whether the session holds a stored candidate
// list waiting for the user's reply.
func (s *Session) AwaitingSelection() bool {
	return s != nil && len(s.Suggestions) > 0
}

// Store is the capability interface over per-user session state. Creating a
// session for a user that already has one overwrites it (last-write-wins).
// Get returns (nil, nil) when the user has no session. Implementations must
// be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Set(ctx context.Context, userID int64, sess *Session) error
	Remove(ctx context.Context, userID int64) error
}
