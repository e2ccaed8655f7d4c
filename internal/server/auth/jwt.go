// Package auth holds the credential primitives of the server: bcrypt password
// hashing, the JWT codec and the injectable clock both are driven by.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAlgorithm  = "HS256"
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

var (
	ErrEmptySecret          = errors.New("jwt secret must not be empty")
	ErrUnsupportedAlgorithm = errors.New("unsupported jwt algorithm")
)

// Kind tells access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the token payload. Subject carries the user id; Type is set to
// "refresh" on refresh tokens and omitted on access tokens. ID (jti) makes
// tokens minted within the same second distinct.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type,omitempty"`
}

func (c *Claims) Kind() Kind {
	if c.Type == common.RefreshTokenType {
		return KindRefresh
	}
	return KindAccess
}

// CodecConfig is read once at startup.
type CodecConfig struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenCodec issues and verifies HMAC-signed JWTs. It never consults the
// revocation list.
type TokenCodec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      Clock
}

// NewTokenCodec validates cfg. Only HMAC algorithms (HS256, HS384, HS512)
// are accepted; zero TTLs fall back to the defaults.
func NewTokenCodec(cfg CodecConfig, clock Clock) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, ErrEmptySecret
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}

	if clock == nil {
		clock = SystemClock{}
	}

	c := &TokenCodec{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      clock,
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTTL
	}
	return c, nil
}

// Issue mints a token of the given kind with the configured TTL.
func (c *TokenCodec) Issue(subject string, kind Kind) (string, error) {
	ttl := c.accessTTL
	if kind == KindRefresh {
		ttl = c.refreshTTL
	}
	return c.IssueWithTTL(subject, kind, ttl)
}

// IssueWithTTL mints a token expiring at now+ttl.
func (c *TokenCodec) IssueWithTTL(subject string, kind Kind, ttl time.Duration) (string, error) {
	now := c.clock.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	if kind == KindRefresh {
		claims.Type = common.RefreshTokenType
	}

	return jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
}

// Decode verifies signature and expiry. Errors are common.ErrInvalidSignature,
// common.ErrTokenExpired or common.ErrMalformedToken.
func (c *TokenCodec) Decode(token string) (*Claims, error) {
	return c.parse(token, jwt.WithExpirationRequired())
}

// DecodeIgnoringExpiry verifies only the signature. It is used to read the
// exp claim of a token that may already be expired; a token without exp is
// reported as malformed.
func (c *TokenCodec) DecodeIgnoringExpiry(token string) (*Claims, error) {
	claims, err := c.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, common.ErrMalformedToken
	}
	return claims, nil
}

// ParseSubject returns the subject of a valid token, or "" if the token does
// not decode. It does not check revocation.
func (c *TokenCodec) ParseSubject(token string) string {
	claims, err := c.Decode(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}

func (c *TokenCodec) parse(token string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts,
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
	)

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, mapJWTError(err)
	}
	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrInvalidSignature
	default:
		return common.ErrMalformedToken
	}
}
