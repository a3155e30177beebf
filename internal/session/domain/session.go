package domain

import (
	"time"

	accountdomain "session-gate/internal/account/domain"
)

// Session is a time-bounded proof of authentication identified by an opaque
// token. At most one live session exists per account; the store's Replace
// operation enforces that.
type Session struct {
	ID         string
	Token      string
	AccountID  string
	LoggedInAt time.Time
	ExpiresAt  time.Time
}

// Live reports whether the session is still valid at now. Liveness is checked
// at access time; no sweeper is required for correctness.
func (s *Session) Live(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// WithAccount is a session joined with its owning account, as returned by
// token lookup and the admin session list.
type WithAccount struct {
	Session
	Account accountdomain.Account
}
