package repository

import (
	"context"

	"session-gate/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListRecent(ctx context.Context, limit int32) ([]*domain.AuditLog, error)
}
