package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	accountdomain "session-gate/internal/account/domain"
	"session-gate/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const joinedColumns = `s.id, s.token, s.account_id, s.logged_in_at, s.expires_at,
	a.id, a.name, a.username, a.email, a.role, a.created_at, a.updated_at`

// replaceAttempts bounds retries when racing replaces abort each other.
const replaceAttempts = 3

// Replace deletes all sessions for s.AccountID and inserts s in a single
// serializable transaction. Concurrent logins for the same account serialize
// on the deleted rows' locks, so no window exists where two sessions for one
// account are both readable. A transaction aborted with a serialization
// failure is retried; whichever login commits last wins either way.
func (r *PostgresRepository) Replace(ctx context.Context, s *domain.Session) error {
	var err error
	for attempt := 0; attempt < replaceAttempts; attempt++ {
		err = r.replaceOnce(ctx, s)
		if err == nil || !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (r *PostgresRepository) replaceOnce(ctx context.Context, s *domain.Session) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sessions WHERE account_id = $1", s.AccountID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, token, account_id, logged_in_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.Token, s.AccountID, s.LoggedInAt, s.ExpiresAt); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByToken returns the live session for token with its owning account, or
// nil if the token is unknown or expired. Expiry is enforced in the query so
// an expired row behaves exactly like a missing one.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string, now time.Time) (*domain.WithAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+joinedColumns+`
		 FROM sessions s
		 JOIN accounts a ON a.id = s.account_id
		 WHERE s.token = $1 AND s.expires_at > $2`,
		token, now)
	sa, err := scanWithAccount(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sa, nil
}

// DeleteByToken removes the session with the given token. No error if nothing matched.
func (r *PostgresRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// DeleteByID removes the session with the given id. No error if nothing matched.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	return err
}

// DeleteAllForAccount removes every session owned by accountID. No error if nothing matched.
func (r *PostgresRepository) DeleteAllForAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE account_id = $1", accountID)
	return err
}

// ListAll returns all sessions joined with their owning accounts, newest login first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*domain.WithAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+joinedColumns+`
		 FROM sessions s
		 JOIN accounts a ON a.id = s.account_id
		 ORDER BY s.logged_in_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.WithAccount
	for rows.Next() {
		sa, err := scanWithAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= $1", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// isSerializationFailure reports whether err is Postgres SQLSTATE 40001, the
// retryable abort raised when serializable transactions conflict.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func scanWithAccount(scan func(...any) error) (*domain.WithAccount, error) {
	var sa domain.WithAccount
	var role string
	err := scan(
		&sa.ID, &sa.Token, &sa.AccountID, &sa.LoggedInAt, &sa.ExpiresAt,
		&sa.Account.ID, &sa.Account.Name, &sa.Account.Username, &sa.Account.Email,
		&role, &sa.Account.CreatedAt, &sa.Account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sa.Account.Role = accountdomain.Role(role)
	return &sa, nil
}
