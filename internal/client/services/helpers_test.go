package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/spendkeeper/internal/api"
	"github.com/dmitrijs2005/spendkeeper/internal/client/client"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, client.RunMigrations(context.Background(), db))
	return db
}

func getMeta(t *testing.T, db *sql.DB, k string) string {
	t.Helper()
	var v []byte
	err := db.QueryRow(`SELECT value FROM metadata WHERE key=?`, k).Scan(&v)
	if err == sql.ErrNoRows {
		return ""
	}
	require.NoError(t, err)
	return string(v)
}

// fakeClient implements client.Client for unit tests.
type fakeClient struct {
	access, refresh string
	onChange        func(a, r string)

	user       *api.User
	err        error
	pingErr    error
	closed     bool
	attachResp *api.AttachReceiptResponse
	lastAttach [3]string
	created    []api.Transaction
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Close() error                   { f.closed = true; return nil }
func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) SignUp(ctx context.Context, name, email string, password []byte, age *int) (*api.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.SetTokens("A1", "R1")
	return f.user, nil
}

func (f *fakeClient) SignIn(ctx context.Context, email string, password []byte) (*api.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.SetTokens("A1", "R1")
	return f.user, nil
}

func (f *fakeClient) Logout(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.SetTokens("", "")
	return nil
}

func (f *fakeClient) Refresh(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.SetTokens("A2", "R2")
	return nil
}

func (f *fakeClient) Tokens() (string, string) { return f.access, f.refresh }

func (f *fakeClient) SetTokens(a, r string) {
	f.access, f.refresh = a, r
	if f.onChange != nil {
		f.onChange(a, r)
	}
}

func (f *fakeClient) OnTokensChanged(fn func(a, r string)) { f.onChange = fn }

func (f *fakeClient) CreateTransaction(ctx context.Context, t api.Transaction) (*api.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	t.ID = "t1"
	f.created = append(f.created, t)
	return &t, nil
}

func (f *fakeClient) ListTransactions(ctx context.Context) ([]api.Transaction, error) {
	return f.created, f.err
}

func (f *fakeClient) AttachReceipt(ctx context.Context, transactionID, fileName, mimeType string) (*api.AttachReceiptResponse, error) {
	f.lastAttach = [3]string{transactionID, fileName, mimeType}
	if f.err != nil {
		return nil, f.err
	}
	return f.attachResp, nil
}

func (f *fakeClient) ListReceipts(ctx context.Context, transactionID string) ([]api.Receipt, error) {
	return []api.Receipt{{ID: "r1"}}, f.err
}
