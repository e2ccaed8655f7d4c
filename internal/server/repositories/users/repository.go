// Package users provides persistence for user credentials.
package users

import (
	"context"

	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills in ID and timestamps. A duplicate
	// email yields common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// FindByEmail returns common.ErrorNotFound when no user has the email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
