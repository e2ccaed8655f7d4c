package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Column widths of the transactions and transaction_items tables.
const (
	maxTransactionName = 255
	maxCategoryLength  = 100
	maxItemName        = 255
)

// TransactionService records expenses for the authenticated user.
type TransactionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewTransactionService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *TransactionService {
	return &TransactionService{db: db, repomanager: m, logger: logger}
}

func validateItem(it *models.TransactionItem) error {
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("%w: item name is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(it.Name) > maxItemName {
		return fmt.Errorf("%w: item name must be at most %d characters", common.ErrValidation, maxItemName)
	}
	if it.Quantity < 1 {
		return fmt.Errorf("%w: item quantity must be positive", common.ErrValidation)
	}
	if it.Amount < 0 {
		return fmt.Errorf("%w: item amount must not be negative", common.ErrValidation)
	}
	return nil
}

func validateTransaction(t *models.Transaction) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: transaction name is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(t.Name) > maxTransactionName {
		return fmt.Errorf("%w: transaction name must be at most %d characters", common.ErrValidation, maxTransactionName)
	}
	if strings.TrimSpace(t.Category) == "" {
		return fmt.Errorf("%w: transaction category is required", common.ErrValidation)
	}
	if utf8.RuneCountInString(t.Category) > maxCategoryLength {
		return fmt.Errorf("%w: category must be at most %d characters", common.ErrValidation, maxCategoryLength)
	}
	if t.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", common.ErrValidation)
	}
	for i, it := range t.Items {
		if err := validateItem(it); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// isID reports whether id can name a stored row. Anything else cannot exist,
// so callers answer common.ErrorNotFound without a database round trip.
func isID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Create stores t and its items for userID in one database transaction.
func (s *TransactionService) Create(ctx context.Context, userID string, t *models.Transaction) (*models.Transaction, error) {
	if err := validateTransaction(t); err != nil {
		return nil, err
	}

	t.UserID = userID
	items := t.Items

	var created *models.Transaction
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Transactions(tx)

		var err error
		created, err = repo.Create(ctx, t)
		if err != nil {
			return err
		}

		created.Items = make([]*models.TransactionItem, 0, len(items))
		for _, it := range items {
			it.TransactionID = created.ID
			saved, err := repo.CreateItem(ctx, it)
			if err != nil {
				return err
			}
			created.Items = append(created.Items, saved)
		}
		return nil
	})
	if err != nil {
		return nil, common.StorageError(fmt.Errorf("error creating transaction: %w", err))
	}

	s.logger.Debug(ctx, "transaction created", "user_id", userID, "transaction_id", created.ID, "items", len(created.Items))
	return created, nil
}

// List returns the user's transactions, newest first, each with its items.
func (s *TransactionService) List(ctx context.Context, userID string) ([]*models.Transaction, error) {
	repo := s.repomanager.Transactions(s.db)

	list, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, common.StorageError(err)
	}

	items, err := repo.ListItemsByUser(ctx, userID)
	if err != nil {
		return nil, common.StorageError(err)
	}

	byTx := make(map[string][]*models.TransactionItem, len(list))
	for _, it := range items {
		byTx[it.TransactionID] = append(byTx[it.TransactionID], it)
	}
	for _, t := range list {
		t.Items = byTx[t.ID]
	}
	return list, nil
}

// UpdateItem replaces name, amount and quantity of one of the user's items.
func (s *TransactionService) UpdateItem(ctx context.Context, userID string, item *models.TransactionItem) (*models.TransactionItem, error) {
	if !isID(item.ID) {
		return nil, common.ErrorNotFound
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}

	updated, err := s.repomanager.Transactions(s.db).UpdateItem(ctx, userID, item)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageError(err)
	}

	s.logger.Debug(ctx, "transaction item updated", "user_id", userID, "item_id", item.ID)
	return updated, nil
}

func (s *TransactionService) DeleteItem(ctx context.Context, userID, itemID string) error {
	if !isID(itemID) {
		return common.ErrorNotFound
	}

	if err := s.repomanager.Transactions(s.db).DeleteItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.StorageError(err)
	}

	s.logger.Debug(ctx, "transaction item deleted", "user_id", userID, "item_id", itemID)
	return nil
}
