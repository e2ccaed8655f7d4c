package services

import (
	"context"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/spendkeeper/internal/server/metrics"
)

// SessionManager handles logout and refresh-token rotation. A session is
// implicit: each token moves from valid to expired or revoked and never back.
type SessionManager struct {
	auth          *AuthService
	authenticator *Authenticator
	revocations   *RevocationService
	logger        logging.Logger
	metrics       *metrics.Metrics
}

func NewSessionManager(as *AuthService, a *Authenticator, r *RevocationService, logger logging.Logger, m *metrics.Metrics) *SessionManager {
	return &SessionManager{auth: as, authenticator: a, revocations: r, logger: logger, metrics: m}
}

// Logout revokes the bearer token carried in header. An expired but
// well-formed token is still revoked successfully; a token that cannot be
// decoded yields common.ErrInvalidToken.
func (s *SessionManager) Logout(ctx context.Context, header string) error {
	err := s.logout(ctx, header)
	if err != nil {
		s.metrics.AuthOp("logout", metrics.ResultError)
		return err
	}
	s.metrics.AuthOp("logout", metrics.ResultOK)
	return nil
}

func (s *SessionManager) logout(ctx context.Context, header string) error {
	token, err := ParseBearer(header)
	if err != nil {
		return err
	}

	ok, err := s.revocations.Revoke(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrInvalidToken
	}
	return nil
}

// Refresh exchanges a refresh token for a new pair and revokes the presented
// token. If that revocation fails the new pair is still returned and the old
// token stays usable until it expires.
func (s *SessionManager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	pair, err := s.refresh(ctx, refreshToken)
	if err != nil {
		s.metrics.AuthOp("refresh", metrics.ResultError)
		return nil, err
	}
	s.metrics.AuthOp("refresh", metrics.ResultOK)
	return pair, nil
}

func (s *SessionManager) refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.authenticator.Verify(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Kind() != auth.KindRefresh {
		return nil, common.ErrWrongTokenType
	}
	if claims.Subject == "" {
		return nil, common.ErrMalformedPayload
	}

	if _, err := s.revocations.Revoke(ctx, refreshToken); err != nil {
		s.metrics.StoreError("rotation")
		s.logger.Warn(ctx, "refresh token rotation failed, old token stays valid",
			"user_id", claims.Subject, "error", err)
	}

	return s.auth.IssuePair(claims.Subject)
}
