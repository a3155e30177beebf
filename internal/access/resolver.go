// Package access turns bearer tokens into authenticated accounts and gates
// role-restricted operations.
package access

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	accountdomain "session-gate/internal/account/domain"
	sessiondomain "session-gate/internal/session/domain"
)

// State is the resolution outcome kind.
type State int

const (
	// Unauthenticated: no token, unknown token, or expired session. The
	// caller must clear any client-held token and send the user to login.
	Unauthenticated State = iota
	// Authenticated: the token maps to a live session; Account is set.
	Authenticated
)

// Outcome is the result of resolving a token.
type Outcome struct {
	State   State
	Account *accountdomain.Account
}

// SessionGetter is the session lookup the resolver needs.
type SessionGetter interface {
	GetByToken(ctx context.Context, token string, now time.Time) (*sessiondomain.WithAccount, error)
}

// Resolver maps a bearer token to an Outcome. It refreshes nothing: expiry is
// strict, evaluated against the clock at resolution time.
type Resolver struct {
	sessions SessionGetter
	now      func() time.Time
	tracer   trace.Tracer
}

// NewResolver returns a Resolver backed by the given session store.
func NewResolver(sessions SessionGetter) *Resolver {
	return &Resolver{
		sessions: sessions,
		now:      time.Now,
		tracer:   otel.Tracer("session-gate/access"),
	}
}

// Resolve returns the outcome for token. The error is non-nil only for store
// failures; callers should fail safe and treat that as Unauthenticated.
func (r *Resolver) Resolve(ctx context.Context, token string) (Outcome, error) {
	ctx, span := r.tracer.Start(ctx, "access.Resolve")
	defer span.End()

	if token == "" {
		return Outcome{State: Unauthenticated}, nil
	}
	now := r.now().UTC()
	sa, err := r.sessions.GetByToken(ctx, token, now)
	if err != nil {
		return Outcome{State: Unauthenticated}, err
	}
	// The store already filters expired rows; re-check so a permissive
	// store implementation cannot widen the contract.
	if sa == nil || !sa.Live(now) {
		return Outcome{State: Unauthenticated}, nil
	}
	acct := sa.Account
	return Outcome{State: Authenticated, Account: &acct}, nil
}
