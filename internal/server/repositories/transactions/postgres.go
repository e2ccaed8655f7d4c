// Package transactions provides PostgreSQL-backed persistence for expense
// transactions and their line items.
package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

// PostgresRepository implements transaction storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the transaction header. Items are inserted separately with
// CreateItem, normally inside the same dbx.WithTx.
func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, name, amount, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, t.UserID, t.Name, t.Amount, t.Category).Scan(&t.ID, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) CreateItem(ctx context.Context, item *models.TransactionItem) (*models.TransactionItem, error) {
	query := `
		INSERT INTO transaction_items (transaction_id, name, amount, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, item.TransactionID, item.Name, item.Amount, item.Quantity).Scan(&item.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Transaction, error) {
	query := `
		SELECT id, user_id, name, amount, category, created_at FROM transactions
		WHERE id = $1 AND user_id = $2
	`
	t := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&t.ID, &t.UserID, &t.Name, &t.Amount, &t.Category, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's transactions, newest first, without items.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, name, amount, category, created_at FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select transactions: %w", err)
	}
	defer rows.Close()

	var result []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Amount, &t.Category, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListItemsByUser returns the items of all of the user's transactions.
func (r *PostgresRepository) ListItemsByUser(ctx context.Context, userID string) ([]*models.TransactionItem, error) {
	query := `
		SELECT i.id, i.transaction_id, i.name, i.amount, i.quantity
		FROM transaction_items i
		JOIN transactions t ON t.id = i.transaction_id
		WHERE t.user_id = $1
		ORDER BY i.transaction_id, i.id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select transaction items: %w", err)
	}
	defer rows.Close()

	var result []*models.TransactionItem
	for rows.Next() {
		var item models.TransactionItem
		if err := rows.Scan(&item.ID, &item.TransactionID, &item.Name, &item.Amount, &item.Quantity); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateItem(ctx context.Context, userID string, item *models.TransactionItem) (*models.TransactionItem, error) {
	query := `
		UPDATE transaction_items i
		SET name = $1, amount = $2, quantity = $3
		FROM transactions t
		WHERE i.id = $4 AND i.transaction_id = t.id AND t.user_id = $5
		RETURNING i.transaction_id
	`
	err := r.db.QueryRowContext(ctx, query, item.Name, item.Amount, item.Quantity, item.ID, userID).Scan(&item.TransactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, userID, itemID string) error {
	query := `
		DELETE FROM transaction_items i
		USING transactions t
		WHERE i.id = $1 AND i.transaction_id = t.id AND t.user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, itemID, userID)
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
