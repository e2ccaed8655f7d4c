package transactions

import (
	"context"

	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	CreateItem(ctx context.Context, item *models.TransactionItem) (*models.TransactionItem, error)
	// GetByID returns common.ErrorNotFound when the transaction does not
	// exist or belongs to another user.
	GetByID(ctx context.Context, userID, id string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error)
	ListItemsByUser(ctx context.Context, userID string) ([]*models.TransactionItem, error)
	// UpdateItem and DeleteItem only touch items of the user's own
	// transactions and return common.ErrorNotFound otherwise.
	UpdateItem(ctx context.Context, userID string, item *models.TransactionItem) (*models.TransactionItem, error)
	DeleteItem(ctx context.Context, userID, itemID string) error
}
