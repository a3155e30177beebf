// Package service implements the admin panel operations: session listing,
// forced session termination, and role toggling.
package service

import (
	"context"
	"fmt"

	accountdomain "session-gate/internal/account/domain"
	accountrepo "session-gate/internal/account/repository"
	"session-gate/internal/audit"
	auditdomain "session-gate/internal/audit/domain"
	sessiondomain "session-gate/internal/session/domain"
)

// SessionRepo is the minimal session repository needed by the admin service.
type SessionRepo interface {
	ListAll(ctx context.Context) ([]*sessiondomain.WithAccount, error)
	DeleteByID(ctx context.Context, id string) error
}

// AccountRepo is the minimal account repository needed by the admin service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	SetRole(ctx context.Context, id string, role accountdomain.Role) error
}

// Service implements the admin operations. Callers must pass the role guard
// before invoking anything here.
type Service struct {
	sessions SessionRepo
	accounts AccountRepo
	audit    audit.Recorder
}

// NewService returns an admin Service. auditRec may be nil.
func NewService(sessions SessionRepo, accounts AccountRepo, auditRec audit.Recorder) *Service {
	if auditRec == nil {
		auditRec = audit.NewLogger(nil)
	}
	return &Service{sessions: sessions, accounts: accounts, audit: auditRec}
}

// ListSessions returns every stored session with its owning account's
// username and role, for the admin view.
func (s *Service) ListSessions(ctx context.Context) ([]*sessiondomain.WithAccount, error) {
	return s.sessions.ListAll(ctx)
}

// TerminateSession force-deletes the session with the given id. Idempotent:
// terminating a session that no longer exists is success.
func (s *Service) TerminateSession(ctx context.Context, actorID, sessionID string) error {
	if err := s.sessions.DeleteByID(ctx, sessionID); err != nil {
		return err
	}
	s.audit.Record(ctx, actorID, auditdomain.ActionTerminateSession, sessionID, "")
	return nil
}

// ToggleRole flips the account's role between user and admin and returns the
// new role. The flip is computed from the stored role, not from claimedRole:
// the caller's claim is untrusted display state and is only audited when it
// disagrees with the directory.
func (s *Service) ToggleRole(ctx context.Context, actorID, accountID string, claimedRole accountdomain.Role) (accountdomain.Role, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", accountrepo.ErrNotFound
	}

	detail := fmt.Sprintf("%s->%s", acct.Role, acct.Role.Toggled())
	if claimedRole != "" && claimedRole != acct.Role {
		detail += fmt.Sprintf(" (caller claimed %s)", claimedRole)
	}

	newRole := acct.Role.Toggled()
	if err := s.accounts.SetRole(ctx, accountID, newRole); err != nil {
		return "", err
	}
	s.audit.Record(ctx, actorID, auditdomain.ActionToggleRole, accountID, detail)
	return newRole, nil
}
