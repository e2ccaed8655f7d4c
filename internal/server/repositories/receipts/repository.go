package receipts

import (
	"context"

	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.Receipt) (*models.Receipt, error)
	ListByTransaction(ctx context.Context, userID, transactionID string) ([]*models.Receipt, error)
	// GetByID and Delete return common.ErrorNotFound for a receipt that
	// does not exist or belongs to another user.
	GetByID(ctx context.Context, userID, id string) (*models.Receipt, error)
	Delete(ctx context.Context, userID, id string) error
}
