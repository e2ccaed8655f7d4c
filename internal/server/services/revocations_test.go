package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/server/auth"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevoke(t *testing.T) {
	s := newAuthStack(t)
	ctx := context.Background()

	tok, err := s.codec.IssueWithTTL("42", auth.KindAccess, time.Minute)
	require.NoError(t, err)

	ok, err := s.revs.Revoke(ctx, tok)
	require.NoError(t, err)
	assert.True(t, ok)

	revoked, err := s.revs.IsRevoked(ctx, tok)
	require.NoError(t, err)
	assert.True(t, revoked)

	// idempotent
	ok, err = s.revs.Revoke(ctx, tok)
	require.NoError(t, err)
	assert.True(t, ok)

	rec := s.store.MemoryRepository
	st, err := rec.Stats(ctx, s.clock.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Total)
	assert.Equal(t, int64(0), st.Expired, "exp equals now+1m, not before it")
}

func TestRevoke_ExpiredTokenOnTTLBackend(t *testing.T) {
	s := newAuthStack(t)
	s.store.skipExpired = true
	ctx := context.Background()

	tok, err := s.codec.IssueWithTTL("42", auth.KindAccess, time.Minute)
	require.NoError(t, err)
	s.clock.Advance(2 * time.Minute)

	ok, err := s.revs.Revoke(ctx, tok)
	require.NoError(t, err)
	assert.True(t, ok)

	expected := `
# HELP spendkeeper_revocation_revoked_total Revoke calls by outcome (stored, duplicate, expired, undecodable, error).
# TYPE spendkeeper_revocation_revoked_total counter
spendkeeper_revocation_revoked_total{outcome="expired"} 1
`
	require.NoError(t, testutil.GatherAndCompare(s.metrics.Registry(), strings.NewReader(expected),
		"spendkeeper_revocation_revoked_total"))
}

func TestRevoke_Undecodable(t *testing.T) {
	s := newAuthStack(t)
	ctx := context.Background()

	ok, err := s.revs.Revoke(ctx, "not-a-token")
	require.NoError(t, err)
	assert.False(t, ok)

	st, err := s.revs.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Total)
}

func TestRevoke_StoreError(t *testing.T) {
	s := newAuthStack(t)
	s.store.insertErr = errStoreDown

	tok, err := s.codec.Issue("42", auth.KindAccess)
	require.NoError(t, err)

	ok, err := s.revs.Revoke(context.Background(), tok)
	assert.False(t, ok)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsRevoked_StoreError(t *testing.T) {
	s := newAuthStack(t)
	s.store.existsErr = errStoreDown

	_, err := s.revs.IsRevoked(context.Background(), "x")
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestSweepExpired(t *testing.T) {
	s := newAuthStack(t)
	ctx := context.Background()

	short, err := s.codec.IssueWithTTL("1", auth.KindAccess, time.Minute)
	require.NoError(t, err)
	long, err := s.codec.IssueWithTTL("2", auth.KindRefresh, time.Hour)
	require.NoError(t, err)

	for _, tok := range []string{short, long} {
		_, err := s.revs.Revoke(ctx, tok)
		require.NoError(t, err)
	}

	s.clock.Advance(2 * time.Minute)

	st, err := s.revs.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Total)
	assert.Equal(t, int64(1), st.Expired)
	assert.Equal(t, int64(1), st.Active)

	n, err := s.revs.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.revs.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	revoked, err := s.revs.IsRevoked(ctx, long)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.revs.IsRevoked(ctx, short)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestSweep_Errors(t *testing.T) {
	s := newAuthStack(t)
	ctx := context.Background()

	s.store.deleteErr = errStoreDown
	_, _, err := s.revs.Sweep(ctx)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)

	s.store.deleteErr = nil
	s.store.statsErr = errStoreDown
	_, _, err = s.revs.Sweep(ctx)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestRunSweeper(t *testing.T) {
	s := newAuthStack(t)

	tok, err := s.codec.IssueWithTTL("1", auth.KindAccess, time.Second)
	require.NoError(t, err)
	_, err = s.revs.Revoke(context.Background(), tok)
	require.NoError(t, err)
	s.clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.revs.RunSweeper(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool {
		st, err := s.store.MemoryRepository.Stats(context.Background(), s.clock.Now())
		return err == nil && st.Total == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunSweeper_Disabled(t *testing.T) {
	s := newAuthStack(t)
	assert.NoError(t, s.revs.RunSweeper(context.Background(), 0))
}
