package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/dbx"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/spendkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/receipts"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/transactions"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// -------- logger / clock --------

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (l nopLogger) With(...any) logging.Logger          { return l }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// -------- repositories --------

type fakeUsersRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
	seq     int

	findErr   error
	createErr error
	// raceOnCreate makes Create report a duplicate as if another sign-up
	// committed first.
	raceOnCreate bool
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: make(map[string]*models.User)}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.raceOnCreate {
		return nil, common.ErrDuplicateEmail
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	f.seq++
	u.ID = fmt.Sprintf("user-%d", f.seq)
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUsersRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

// flakyRevocations wraps the in-memory store with injectable failures.
type flakyRevocations struct {
	*revocations.MemoryRepository

	insertErr error
	existsErr error
	// skipExpired mimics a TTL backend that does not store dead tokens.
	skipExpired bool
	deleteErr   error
	statsErr    error
}

func newFlakyRevocations() *flakyRevocations {
	return &flakyRevocations{MemoryRepository: revocations.NewMemoryRepository()}
}

func (f *flakyRevocations) Insert(ctx context.Context, token string, at, exp time.Time) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if f.skipExpired && !exp.After(at) {
		return false, nil
	}
	return f.MemoryRepository.Insert(ctx, token, at, exp)
}

func (f *flakyRevocations) Exists(ctx context.Context, token string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.MemoryRepository.Exists(ctx, token)
}

func (f *flakyRevocations) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.MemoryRepository.DeleteExpired(ctx, now)
}

func (f *flakyRevocations) Stats(ctx context.Context, now time.Time) (models.RevocationStats, error) {
	if f.statsErr != nil {
		return models.RevocationStats{}, f.statsErr
	}
	return f.MemoryRepository.Stats(ctx, now)
}

var errStoreDown = errors.New("connection refused")

type fakeRepoManager struct {
	repomanager.RepositoryManager
	u  users.Repository
	t  transactions.Repository
	r  receipts.Repository
	rv revocations.Repository
}

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository               { return m.u }
func (m *fakeRepoManager) Transactions(dbx.DBTX) transactions.Repository { return m.t }
func (m *fakeRepoManager) Receipts(dbx.DBTX) receipts.Repository         { return m.r }
func (m *fakeRepoManager) Revocations(dbx.DBTX) revocations.Repository   { return m.rv }

// -------- wired auth stack --------

type authStack struct {
	clock    *fakeClock
	codec    *auth.TokenCodec
	users    *fakeUsersRepo
	store    *flakyRevocations
	metrics  *metrics.Metrics
	auth     *AuthService
	revs     *RevocationService
	authn    *Authenticator
	sessions *SessionManager
}

func newAuthStack(t *testing.T) *authStack {
	t.Helper()

	clock := newFakeClock()
	codec, err := auth.NewTokenCodec(auth.CodecConfig{
		Secret:     "test-secret",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	}, clock)
	require.NoError(t, err)

	s := &authStack{
		clock:   clock,
		codec:   codec,
		users:   newFakeUsersRepo(),
		store:   newFlakyRevocations(),
		metrics: metrics.New(),
	}

	rm := &fakeRepoManager{u: s.users, rv: s.store}
	log := nopLogger{}

	s.auth = NewAuthService(nil, rm, auth.NewHasher(bcrypt.MinCost), codec, log, s.metrics)
	s.revs = NewRevocationService(s.store, codec, clock, log, s.metrics)
	s.authn = NewAuthenticator(codec, s.revs, log, s.metrics)
	s.sessions = NewSessionManager(s.auth, s.authn, s.revs, log, s.metrics)
	return s
}

func bearer(token string) string { return "Bearer " + token }

func intPtr(v int) *int { return &v }
