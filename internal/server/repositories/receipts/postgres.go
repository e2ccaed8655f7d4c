// Package receipts stores metadata of receipt images attached to transactions.
package receipts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

// PostgresRepository implements receipt storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rc *models.Receipt) (*models.Receipt, error) {
	query := `
		INSERT INTO receipts (transaction_id, user_id, file_name, mime_type, storage_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rc.TransactionID, rc.UserID, rc.FileName, rc.MimeType, rc.StorageKey).Scan(&rc.ID, &rc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rc, nil
}

// ListByTransaction returns receipts of the transaction owned by userID,
// oldest first.
func (r *PostgresRepository) ListByTransaction(ctx context.Context, userID, transactionID string) ([]*models.Receipt, error) {
	query := `
		SELECT id, transaction_id, user_id, file_name, mime_type, storage_key, created_at
		FROM receipts
		WHERE transaction_id = $1 AND user_id = $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, transactionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select receipts: %w", err)
	}
	defer rows.Close()

	var result []*models.Receipt
	for rows.Next() {
		var rc models.Receipt
		if err := rows.Scan(&rc.ID, &rc.TransactionID, &rc.UserID, &rc.FileName, &rc.MimeType, &rc.StorageKey, &rc.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Receipt, error) {
	query := `
		SELECT id, transaction_id, user_id, file_name, mime_type, storage_key, created_at
		FROM receipts
		WHERE id = $1 AND user_id = $2
	`
	var rc models.Receipt
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&rc.ID, &rc.TransactionID, &rc.UserID, &rc.FileName, &rc.MimeType, &rc.StorageKey, &rc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &rc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
