package client

import (
	"context"

	"github.com/dmitrijs2005/spendkeeper/internal/api"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error

	SignUp(ctx context.Context, name, email string, password []byte, age *int) (*api.User, error)
	SignIn(ctx context.Context, email string, password []byte) (*api.User, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	Tokens() (access, refresh string)
	SetTokens(access, refresh string)
	OnTokensChanged(fn func(access, refresh string))

	CreateTransaction(ctx context.Context, t api.Transaction) (*api.Transaction, error)
	ListTransactions(ctx context.Context) ([]api.Transaction, error)
	AttachReceipt(ctx context.Context, transactionID, fileName, mimeType string) (*api.AttachReceiptResponse, error)
	ListReceipts(ctx context.Context, transactionID string) ([]api.Receipt, error)
}
