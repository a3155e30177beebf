package repository

import (
	"context"
	"database/sql"

	"session-gate/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	actor := sql.NullString{String: a.ActorID, Valid: a.ActorID != ""}
	target := sql.NullString{String: a.TargetID, Valid: a.TargetID != ""}
	detail := sql.NullString{String: a.Detail, Valid: a.Detail != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, actor_id, action, target_id, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, actor, a.Action, target, detail, a.CreatedAt)
	return err
}

// ListRecent returns up to limit audit logs, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, actor_id, action, target_id, detail, created_at
		 FROM audit_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		var actor, target, detail sql.NullString
		if err := rows.Scan(&a.ID, &actor, &a.Action, &target, &detail, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ActorID = actor.String
		a.TargetID = target.String
		a.Detail = detail.String
		out = append(out, &a)
	}
	return out, rows.Err()
}
