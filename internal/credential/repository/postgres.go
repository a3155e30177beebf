package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"session-gate/internal/credential/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credential repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByAccount returns the credential for accountID, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByAccount(ctx context.Context, accountID string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, account_id, password_hash, created_at FROM credentials WHERE account_id = $1",
		accountID)
	var c domain.Credential
	err := row.Scan(&c.ID, &c.AccountID, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Create persists the credential. The unique index on account_id enforces the
// 1:1 relationship; a violation is returned as ErrDuplicateCredential.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Credential) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (id, account_id, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)`,
		c.ID, c.AccountID, c.PasswordHash, c.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateCredential
	}
	return err
}
