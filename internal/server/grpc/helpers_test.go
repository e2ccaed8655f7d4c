package grpc

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/auth"
	sc "github.com/dmitrijs2005/spendkeeper/internal/server/config"
	"github.com/dmitrijs2005/spendkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/receipts"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/spendkeeper/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	u.ID = fmt.Sprintf("%d", len(m.byEmail)+1)
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// memTransactions serves reads and item edits; Create goes through a
// database transaction and is covered in the services package.
type memTransactions struct {
	transactions.Repository
	list []*models.Transaction
}

func (m *memTransactions) findItem(userID, itemID string) (*models.Transaction, int) {
	for _, t := range m.list {
		if t.UserID != userID {
			continue
		}
		for i, it := range t.Items {
			if it.ID == itemID {
				return t, i
			}
		}
	}
	return nil, -1
}

func (m *memTransactions) UpdateItem(_ context.Context, userID string, item *models.TransactionItem) (*models.TransactionItem, error) {
	t, i := m.findItem(userID, item.ID)
	if t == nil {
		return nil, common.ErrorNotFound
	}
	item.TransactionID = t.ID
	t.Items[i] = item
	return item, nil
}

func (m *memTransactions) DeleteItem(_ context.Context, userID, itemID string) error {
	t, i := m.findItem(userID, itemID)
	if t == nil {
		return common.ErrorNotFound
	}
	t.Items = append(t.Items[:i], t.Items[i+1:]...)
	return nil
}

func (m *memTransactions) ListByUser(_ context.Context, userID string) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, t := range m.list {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTransactions) ListItemsByUser(context.Context, string) ([]*models.TransactionItem, error) {
	return nil, nil
}

func (m *memTransactions) GetByID(_ context.Context, userID, id string) (*models.Transaction, error) {
	for _, t := range m.list {
		if t.ID == id && t.UserID == userID {
			return t, nil
		}
	}
	return nil, common.ErrorNotFound
}

// memReceipts holds no rows; lookups report not found.
type memReceipts struct {
	receipts.Repository
}

func (memReceipts) GetByID(context.Context, string, string) (*models.Receipt, error) {
	return nil, common.ErrorNotFound
}

func (memReceipts) Delete(context.Context, string, string) error {
	return common.ErrorNotFound
}

type repoManager struct {
	repomanager.RepositoryManager
	u  users.Repository
	t  transactions.Repository
	rv revocations.Repository
}

func (m *repoManager) Users(dbx.DBTX) users.Repository               { return m.u }
func (m *repoManager) Transactions(dbx.DBTX) transactions.Repository { return m.t }
func (m *repoManager) Receipts(dbx.DBTX) receipts.Repository         { return memReceipts{} }
func (m *repoManager) Revocations(dbx.DBTX) revocations.Repository   { return m.rv }

type testStack struct {
	server *GRPCServer
	codec  *auth.TokenCodec
	auth   *services.AuthService
	txs    *memTransactions
}

func newTestServer(t *testing.T) *testStack {
	t.Helper()

	codec, err := auth.NewTokenCodec(auth.CodecConfig{
		Secret:     "test-secret",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, nil)
	require.NoError(t, err)

	log := nopLogger{}
	m := metrics.New()
	store := revocations.NewMemoryRepository()
	txs := &memTransactions{}
	rm := &repoManager{u: &memUsers{byEmail: map[string]*models.User{}}, t: txs, rv: store}

	as := services.NewAuthService(nil, rm, auth.NewHasher(bcrypt.MinCost), codec, log, m)
	rs := services.NewRevocationService(store, codec, nil, log, m)
	authn := services.NewAuthenticator(codec, rs, log, m)

	srv := NewGRPCServer("127.0.0.1:0", log, Services{
		Auth:          as,
		Sessions:      services.NewSessionManager(as, authn, rs, log, m),
		Authenticator: authn,
		Transactions:  services.NewTransactionService(nil, rm, log),
		Receipts:      services.NewReceiptService(nil, rm, &sc.Config{}, log),
	})

	return &testStack{server: srv, codec: codec, auth: as, txs: txs}
}

type logEntry struct {
	msg  string
	args []any
}

// recordingLogger keeps Info and Error entries for assertions.
type recordingLogger struct {
	nopLogger
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(msg string, args []any) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{msg: msg, args: args})
	l.mu.Unlock()
}

func (l *recordingLogger) Info(_ context.Context, msg string, args ...any)  { l.add(msg, args) }
func (l *recordingLogger) Error(_ context.Context, msg string, args ...any) { l.add(msg, args) }

// field returns the value logged under key in the last entry.
func (l *recordingLogger) field(key string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return nil, false
	}
	args := l.entries[len(l.entries)-1].args
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == key {
			return args[i+1], true
		}
	}
	return nil, false
}
