// Package services contains server-side business logic: sign-up and sign-in,
// the session lifecycle (logout and refresh rotation), request
// authentication, the revocation list and the expense records guarded by it.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
	"github.com/dmitrijs2005/spendkeeper/internal/server/auth"
	"github.com/dmitrijs2005/spendkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/dmitrijs2005/spendkeeper/internal/server/repositories/repomanager"
)

// TokenTypeBearer is reported alongside every issued pair.
const TokenTypeBearer = "bearer"

const (
	minNameLength  = 5
	maxNameLength  = 100
	maxEmailLength = 255
	minAge         = 1
	maxAge         = 150
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// AuthResult is returned by SignUp and SignIn.
type AuthResult struct {
	User *models.User
	TokenPair
}

type SignUpInput struct {
	Name     string
	Email    string
	Password string
	Age      *int
}

// AuthService registers users and signs them in. Every successful call
// issues an independent pair; earlier sessions stay valid.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *auth.Hasher
	codec       *auth.TokenCodec
	logger      logging.Logger
	metrics     *metrics.Metrics

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher *auth.Hasher, codec *auth.TokenCodec,
	logger logging.Logger, mt *metrics.Metrics) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		codec:       codec,
		logger:      logger,
		metrics:     mt,
	}
}

// IssuePair mints a fresh access and refresh token for subject.
func (s *AuthService) IssuePair(subject string) (*TokenPair, error) {
	access, err := s.codec.Issue(subject, auth.KindAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: issue access token: %v", common.ErrorInternal, err)
	}
	refresh, err := s.codec.Issue(subject, auth.KindRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: issue refresh token: %v", common.ErrorInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenTypeBearer}, nil
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	res, err := s.signUp(ctx, in)
	s.record("signup", err)
	return res, err
}

func (s *AuthService) signUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	if err := validateSignUp(in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, common.StorageError(err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	user, err := repo.Create(ctx, &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: digest,
		Age:          in.Age,
	})
	if err != nil {
		// a concurrent sign-up may win between the lookup and the insert
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		return nil, common.StorageError(err)
	}

	pair, err := s.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	res, err := s.signIn(ctx, email, password)
	s.record("signin", err)
	return res, err
}

func (s *AuthService) signIn(ctx context.Context, email, password string) (*AuthResult, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep the timing of unknown emails close to wrong passwords
			s.hasher.Verify(password, s.dummy())
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.StorageError(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: *pair}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyDigest = d
		}
	})
	return s.dummyDigest
}

func (s *AuthService) record(op string, err error) {
	if err != nil {
		s.metrics.AuthOp(op, metrics.ResultError)
		return
	}
	s.metrics.AuthOp(op, metrics.ResultOK)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignUp(in SignUpInput) error {
	if n := utf8.RuneCountInString(in.Name); n < minNameLength || n > maxNameLength {
		return fmt.Errorf("%w: name must be %d to %d characters", common.ErrValidation, minNameLength, maxNameLength)
	}

	if utf8.RuneCountInString(in.Email) > maxEmailLength {
		return fmt.Errorf("%w: email must be at most %d characters", common.ErrValidation, maxEmailLength)
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: invalid email", common.ErrValidation)
	}

	if utf8.RuneCountInString(in.Password) < auth.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, auth.MinPasswordLength)
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, auth.MaxPasswordBytes)
	}
	if !auth.IsPasswordValid(in.Password) {
		return fmt.Errorf("%w: password must contain an uppercase letter, a lowercase letter and a digit", common.ErrValidation)
	}

	if in.Age != nil && (*in.Age < minAge || *in.Age > maxAge) {
		return fmt.Errorf("%w: age must be between %d and %d", common.ErrValidation, minAge, maxAge)
	}
	return nil
}
