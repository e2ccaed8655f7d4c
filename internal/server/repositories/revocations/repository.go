// Package revocations stores revoked (blacklisted) tokens. Three backends are
// provided: PostgreSQL, Redis and an in-process map for development.
package revocations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
)

type Repository interface {
	// Insert records token as revoked. It reports false, without error, when
	// the token was already present.
	Insert(ctx context.Context, token string, blacklistedAt, expiresAt time.Time) (bool, error)
	// Exists reports whether token is in the blacklist.
	Exists(ctx context.Context, token string) (bool, error)
	// DeleteExpired removes records whose expiry is before now and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Stats(ctx context.Context, now time.Time) (models.RevocationStats, error)
}
