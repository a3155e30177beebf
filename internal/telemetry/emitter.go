// Package telemetry defines the auth event stream emitted alongside the
// durable audit trail. Events are observability data: best-effort, no secrets.
package telemetry

import (
	"context"
	"time"
)

// Event is one auth-flow observation. Token and password values never appear
// here; sessions are referenced by id.
type Event struct {
	Action    string // login, login_failed, register, logout, terminate_session, toggle_role
	AccountID string
	SessionID string
	Outcome   string // "ok" or a short error kind
	CreatedAt time.Time
}

// EventEmitter emits one event. Implementations must be safe for concurrent use.
type EventEmitter interface {
	Emit(ctx context.Context, e Event)
}

// Noop is an EventEmitter that discards events.
type Noop struct{}

func (Noop) Emit(context.Context, Event) {}
