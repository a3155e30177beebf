package repository

import (
	"context"
	"errors"

	"session-gate/internal/account/domain"
	credentialdomain "session-gate/internal/credential/domain"
)

// Sentinel errors; the auth service and boundary map them to user-facing outcomes.
var (
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrNotFound          = errors.New("account not found")
	// ErrPartialWrite means a registration transaction could not be rolled
	// back cleanly and the store may hold an account without a credential.
	// Treated as fatal by the auth service.
	ErrPartialWrite = errors.New("partial registration write")
)

// Repository defines persistence for accounts.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	// CreateWithCredential persists the account and its credential
	// all-or-nothing; on failure neither record is retained.
	CreateWithCredential(ctx context.Context, a *domain.Account, c *credentialdomain.Credential) error
	SetRole(ctx context.Context, id string, role domain.Role) error
}
