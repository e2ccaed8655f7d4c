package revocations

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

// PostgresRepository keeps the blacklist in the token_blacklist table over
// dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, token string, blacklistedAt, expiresAt time.Time) (bool, error) {
	query := `
		INSERT INTO token_blacklist (token, blacklisted_at, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, token, blacklistedAt, expiresAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, token string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM token_blacklist WHERE token = $1)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM token_blacklist
		WHERE expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, now time.Time) (models.RevocationStats, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE expires_at < $1)
		FROM token_blacklist
	`
	var s models.RevocationStats
	if err := r.db.QueryRowContext(ctx, query, now).Scan(&s.Total, &s.Expired); err != nil {
		return models.RevocationStats{}, fmt.Errorf("db error: %w", err)
	}
	s.Active = s.Total - s.Expired
	return s, nil
}
