package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/spendkeeper/internal/server/metrics"
)

// ParseBearer splits an authorization value of the form "<scheme> <token>".
// The scheme must equal "bearer" ignoring case and be separated from the
// token by exactly one space.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", common.ErrMissingHeader
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", common.ErrBadScheme
	}
	if !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", common.ErrBadScheme
	}
	return parts[1], nil
}

// Authenticator is the gate in front of every protected operation.
type Authenticator struct {
	codec       *auth.TokenCodec
	revocations *RevocationService
	logger      logging.Logger
	metrics     *metrics.Metrics
}

func NewAuthenticator(codec *auth.TokenCodec, revocations *RevocationService, logger logging.Logger, m *metrics.Metrics) *Authenticator {
	return &Authenticator{codec: codec, revocations: revocations, logger: logger, metrics: m}
}

// Verify runs the full verification path: signature, expiry and revocation.
// All failures, a revocation-store outage included, are reported as
// common.ErrInvalidOrExpiredOrRevoked.
func (a *Authenticator) Verify(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := a.codec.Decode(token)
	if err != nil {
		return nil, common.ErrInvalidOrExpiredOrRevoked
	}

	revoked, err := a.revocations.IsRevoked(ctx, token)
	if err != nil {
		// fail closed
		a.logger.Error(ctx, "revocation lookup failed, rejecting token", "error", err)
		return nil, common.ErrInvalidOrExpiredOrRevoked
	}
	if revoked {
		return nil, common.ErrInvalidOrExpiredOrRevoked
	}
	return claims, nil
}

// Authenticate returns the subject of a valid, unrevoked bearer token. Both
// access and refresh tokens are accepted.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (string, error) {
	token, err := ParseBearer(header)
	if err != nil {
		a.metrics.AuthOp("authenticate", metrics.ResultError)
		return "", err
	}

	claims, err := a.Verify(ctx, token)
	if err != nil || claims.Subject == "" {
		a.metrics.AuthOp("authenticate", metrics.ResultError)
		return "", common.ErrInvalidOrExpiredOrRevoked
	}

	a.metrics.AuthOp("authenticate", metrics.ResultOK)
	return claims.Subject, nil
}
