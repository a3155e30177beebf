package repository

import (
	"context"
	"time"

	"session-gate/internal/session/domain"
)

// Repository defines persistence for sessions. All delete operations are
// idempotent: deleting something that does not exist is success.
type Repository interface {
	// Replace atomically deletes every session owned by s.AccountID and
	// inserts s, so at most one session per account is ever readable.
	Replace(ctx context.Context, s *domain.Session) error
	// GetByToken returns the live session for token joined with its owning
	// account, or nil when the token is unknown or the session has expired
	// by now. Expired rows are never returned, deleted or not.
	GetByToken(ctx context.Context, token string, now time.Time) (*domain.WithAccount, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByID(ctx context.Context, id string) error
	DeleteAllForAccount(ctx context.Context, accountID string) error
	// ListAll returns every stored session joined with its owning account,
	// newest login first. For the admin view.
	ListAll(ctx context.Context) ([]*domain.WithAccount, error)
	// DeleteExpired removes sessions whose expiry is at or before now and
	// returns how many were removed. Garbage collection only.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
