package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Password bounds are enforced by input validation, not by the hasher.
// bcrypt refuses inputs longer than MaxPasswordBytes.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// Hasher produces and checks bcrypt digests. The salt is embedded in the
// digest, so no separate column is needed.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost; values outside
// bcrypt's range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is a
// mismatch, never an error.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// IsPasswordValid checks the password policy: at least one uppercase letter,
// one lowercase letter and one digit.
func IsPasswordValid(password string) bool {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
