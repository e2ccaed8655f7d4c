package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/spendkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/revocations"
)

// Revocation outcomes recorded in metrics.
const (
	revokeStored      = "stored"
	revokeDuplicate   = "duplicate"
	revokeExpired     = "expired"
	revokeUndecodable = "undecodable"
	revokeFailed      = "error"
)

// RevocationService maintains the token blacklist. Records carry the token's
// own expiry and are removed by SweepExpired once that moment has passed.
type RevocationService struct {
	repo    revocations.Repository
	codec   *auth.TokenCodec
	clock   auth.Clock
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewRevocationService(repo revocations.Repository, codec *auth.TokenCodec, clock auth.Clock,
	logger logging.Logger, m *metrics.Metrics) *RevocationService {
	if clock == nil {
		clock = auth.SystemClock{}
	}
	return &RevocationService{repo: repo, codec: codec, clock: clock, logger: logger, metrics: m}
}

// Revoke blacklists token until its exp. A token that does not decode is not
// stored and Revoke reports false with a nil error. Revoking an already
// revoked token succeeds.
func (s *RevocationService) Revoke(ctx context.Context, token string) (bool, error) {
	claims, err := s.codec.DecodeIgnoringExpiry(token)
	if err != nil {
		s.metrics.Revocation(revokeUndecodable)
		return false, nil
	}

	now := s.clock.Now()
	exp := claims.ExpiresAt.Time
	inserted, err := s.repo.Insert(ctx, token, now, exp)
	if err != nil {
		s.metrics.Revocation(revokeFailed)
		s.metrics.StoreError("revoke")
		return false, common.StorageError(err)
	}

	switch {
	case inserted:
		s.metrics.Revocation(revokeStored)
	case !exp.After(now):
		// backends with TTL expiry (redis) skip tokens that are already dead
		s.metrics.Revocation(revokeExpired)
	default:
		s.metrics.Revocation(revokeDuplicate)
	}
	return true, nil
}

func (s *RevocationService) IsRevoked(ctx context.Context, token string) (bool, error) {
	found, err := s.repo.Exists(ctx, token)
	if err != nil {
		s.metrics.StoreError("is_revoked")
		return false, common.StorageError(err)
	}
	return found, nil
}

// SweepExpired deletes records whose expiry is before now. Running it twice
// in a row removes nothing the second time.
func (s *RevocationService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		s.metrics.StoreError("sweep")
		return 0, common.StorageError(err)
	}
	s.metrics.Swept(n)
	return n, nil
}

func (s *RevocationService) Stats(ctx context.Context) (models.RevocationStats, error) {
	st, err := s.repo.Stats(ctx, s.clock.Now())
	if err != nil {
		s.metrics.StoreError("stats")
		return models.RevocationStats{}, common.StorageError(err)
	}
	s.metrics.RevocationStats(st.Active, st.Expired)
	return st, nil
}

// Sweep runs one maintenance pass: SweepExpired followed by Stats.
func (s *RevocationService) Sweep(ctx context.Context) (int64, models.RevocationStats, error) {
	removed, err := s.SweepExpired(ctx)
	if err != nil {
		return 0, models.RevocationStats{}, err
	}
	st, err := s.Stats(ctx)
	if err != nil {
		return removed, models.RevocationStats{}, err
	}
	return removed, st, nil
}

// RunSweeper calls Sweep every interval until ctx is done. Failed passes are
// logged and retried on the next tick.
func (s *RevocationService) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "revocation sweeper started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			removed, st, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error(ctx, "revocation sweep failed", "error", err)
				continue
			}
			s.logger.Info(ctx, "revocation sweep done",
				"removed", removed, "total", st.Total, "active", st.Active, "expired", st.Expired)
		}
	}
}
