package repository

import (
	"context"
	"errors"

	"session-gate/internal/credential/domain"
)

// ErrDuplicateCredential is returned when an account already has a credential.
var ErrDuplicateCredential = errors.New("credential already exists for account")

// Repository defines persistence for credentials.
type Repository interface {
	// GetByAccount returns the credential owned by accountID, or nil if none
	// exists. Verification fails closed on nil.
	GetByAccount(ctx context.Context, accountID string) (*domain.Credential, error)
	Create(ctx context.Context, c *domain.Credential) error
}
