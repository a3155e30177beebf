package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"session-gate/internal/account/domain"
	credentialdomain "session-gate/internal/credential/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = "id, name, username, email, role, created_at, updated_at"

// GetByID returns the account for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1", id)
	return scanAccount(row)
}

// GetByUsername returns the account for username, or nil if not found.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE username = $1", username)
	return scanAccount(row)
}

// Create persists the account. Unique violations on username or email are
// translated to ErrDuplicateUsername / ErrDuplicateEmail.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, username, email, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Name, a.Username, a.Email, string(a.Role), a.CreatedAt, a.UpdatedAt)
	return translateUniqueViolation(err)
}

// CreateWithCredential inserts the account and its credential in one
// transaction. On any failure the transaction is rolled back so no orphan
// account survives; if rollback itself fails, ErrPartialWrite is returned.
func (r *PostgresRepository) CreateWithCredential(ctx context.Context, a *domain.Account, c *credentialdomain.Credential) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (id, name, username, email, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Name, a.Username, a.Email, string(a.Role), a.CreatedAt, a.UpdatedAt)
	if err == nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO credentials (id, account_id, password_hash, created_at)
			 VALUES ($1, $2, $3, $4)`,
			c.ID, c.AccountID, c.PasswordHash, c.CreatedAt)
	}
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w: %v (rollback: %v)", ErrPartialWrite, err, rbErr)
		}
		return translateUniqueViolation(err)
	}
	return tx.Commit()
}

// SetRole updates the account's role. Idempotent; returns ErrNotFound when no
// account has the given id.
func (r *PostgresRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE accounts SET role = $2, updated_at = now() WHERE id = $1",
		id, string(role))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var a domain.Account
	var role string
	err := row.Scan(&a.ID, &a.Name, &a.Username, &a.Email, &role, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Role = domain.Role(role)
	return &a, nil
}

// translateUniqueViolation maps Postgres unique violations (23505) on the
// accounts indexes to the matching sentinel. Other errors pass through.
func translateUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return ErrDuplicateUsername
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrDuplicateEmail
		}
	}
	return err
}
