package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	accountdomain "session-gate/internal/account/domain"
	accountrepo "session-gate/internal/account/repository"
	"session-gate/internal/audit"
	auditdomain "session-gate/internal/audit/domain"
	credentialdomain "session-gate/internal/credential/domain"
	"session-gate/internal/security"
	sessiondomain "session-gate/internal/session/domain"
	"session-gate/internal/telemetry"
)

// Sentinel errors for the auth service; the boundary maps them to user-facing
// outcomes. Duplicate and validation failures surface as the account
// repository and domain sentinels.
var (
	ErrUnknownUsername = errors.New("unknown username")
	ErrBadPassword     = errors.New("incorrect password")
	// ErrIntegrity means a registration write was left partially applied.
	// Fatal: alert, do not retry silently.
	ErrIntegrity = errors.New("registration integrity failure")
)

// LoginResult is the outcome of a successful login, returned to the boundary
// for cookie issuance and the role-based redirect.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *accountdomain.Account
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByUsername(ctx context.Context, username string) (*accountdomain.Account, error)
	CreateWithCredential(ctx context.Context, a *accountdomain.Account, c *credentialdomain.Credential) error
}

// CredentialRepo is the minimal credential repository needed by the auth service.
type CredentialRepo interface {
	GetByAccount(ctx context.Context, accountID string) (*credentialdomain.Credential, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	Replace(ctx context.Context, s *sessiondomain.Session) error
	DeleteByToken(ctx context.Context, token string) error
}

// AuthService implements login, registration, and logout over the account,
// credential, and session stores.
type AuthService struct {
	accounts    AccountRepo
	credentials CredentialRepo
	sessions    SessionRepo
	hasher      *security.Hasher
	sessionTTL  time.Duration
	audit       audit.Recorder
	events      telemetry.EventEmitter
	tracer      trace.Tracer
}

// NewAuthService returns an AuthService with the given dependencies.
// auditRec and events may be nil; then those sinks are skipped.
func NewAuthService(
	accounts AccountRepo,
	credentials CredentialRepo,
	sessions SessionRepo,
	hasher *security.Hasher,
	sessionTTL time.Duration,
	auditRec audit.Recorder,
	events telemetry.EventEmitter,
) *AuthService {
	if auditRec == nil {
		auditRec = audit.NewLogger(nil)
	}
	if events == nil {
		events = telemetry.Noop{}
	}
	return &AuthService{
		accounts:    accounts,
		credentials: credentials,
		sessions:    sessions,
		hasher:      hasher,
		sessionTTL:  sessionTTL,
		audit:       auditRec,
		events:      events,
		tracer:      otel.Tracer("session-gate/auth"),
	}
}

// Login authenticates username/password and replaces any prior session for
// the account with a fresh one, so at most one session per account is live.
// Unknown usernames cost a dummy bcrypt compare so the two failure paths have
// the same timing profile.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Login")
	defer span.End()

	username = strings.TrimSpace(username)
	acct, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		_ = s.hasher.CompareDummy([]byte(password))
		s.emit(ctx, auditdomain.ActionLoginFailed, "", "", "unknown_username")
		return nil, ErrUnknownUsername
	}

	cred, err := s.credentials.GetByAccount(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		// No credential record: fail closed, same cost as a mismatch.
		_ = s.hasher.CompareDummy([]byte(password))
		s.emit(ctx, auditdomain.ActionLoginFailed, acct.ID, "", "bad_password")
		return nil, ErrBadPassword
	}
	if err := s.hasher.Compare(cred.PasswordHash, []byte(password)); err != nil {
		s.emit(ctx, auditdomain.ActionLoginFailed, acct.ID, "", "bad_password")
		return nil, ErrBadPassword
	}

	token, err := security.NewSessionToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &sessiondomain.Session{
		ID:         uuid.New().String(),
		Token:      token,
		AccountID:  acct.ID,
		LoggedInAt: now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}
	if err := s.sessions.Replace(ctx, sess); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("account.id", acct.ID))
	s.audit.Record(ctx, acct.ID, auditdomain.ActionLogin, acct.ID, "username="+acct.Username)
	s.events.Emit(ctx, telemetry.Event{
		Action: auditdomain.ActionLogin, AccountID: acct.ID, SessionID: sess.ID,
		Outcome: "ok", CreatedAt: now,
	})
	return &LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, Account: acct}, nil
}

// Register creates an account and its credential in one all-or-nothing write.
// Inputs are expected to arrive already trimmed; the service trims identity
// fields again but never the password. Returns the created account.
func (s *AuthService) Register(ctx context.Context, name, username, email, password string) (*accountdomain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "auth.Register")
	defer span.End()

	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", accountdomain.ErrInvalidAccount)
	}

	existing, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, accountrepo.ErrDuplicateUsername
	}

	now := time.Now().UTC()
	acct := &accountdomain.Account{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  username,
		Email:     email,
		Role:      accountdomain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	cred := &credentialdomain.Credential{
		ID:           uuid.New().String(),
		AccountID:    acct.ID,
		PasswordHash: hash,
		CreatedAt:    now,
	}

	if err := s.accounts.CreateWithCredential(ctx, acct, cred); err != nil {
		if errors.Is(err, accountrepo.ErrPartialWrite) {
			log.Printf("auth: register integrity failure for username %q: %v", username, err)
			return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("account.id", acct.ID))
	s.audit.Record(ctx, acct.ID, auditdomain.ActionRegister, acct.ID, "username="+acct.Username)
	s.events.Emit(ctx, telemetry.Event{
		Action: auditdomain.ActionRegister, AccountID: acct.ID, Outcome: "ok", CreatedAt: now,
	})
	return acct, nil
}

// Logout deletes the session for token. Idempotent and never errors to the
// caller: an unknown or already-removed token is success, and store failures
// are logged, not returned.
func (s *AuthService) Logout(ctx context.Context, token string) {
	ctx, span := s.tracer.Start(ctx, "auth.Logout")
	defer span.End()

	if token == "" {
		return
	}
	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		log.Printf("auth: logout delete failed: %v", err)
		return
	}
	s.emit(ctx, auditdomain.ActionLogout, "", "", "ok")
}

// emit records the event to both sinks without an actor/target account.
func (s *AuthService) emit(ctx context.Context, action, accountID, sessionID, outcome string) {
	s.audit.Record(ctx, accountID, action, accountID, "outcome="+outcome)
	s.events.Emit(ctx, telemetry.Event{
		Action: action, AccountID: accountID, SessionID: sessionID,
		Outcome: outcome, CreatedAt: time.Now().UTC(),
	})
}
