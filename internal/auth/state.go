package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// StateCookieName is the name of the signed nonce cookie.
	StateCookieName = "stateParam"

	// StateTTL is the lifetime of a login attempt.
	StateTTL = 5 * time.Minute

	// stateBytes of entropy, hex encoded into the nonce.
	stateBytes = 24
)

// GenerateStateToken generates a random hex nonce for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return hex.EncodeToString(b), nil
}

// MatchState reports whether the nonce from the cookie equals the state echoed
// by the provider. An empty cookie nonce never matches.
func MatchState(cookieNonce, queryState string) bool {
	if cookieNonce == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(cookieNonce), []byte(queryState)) == 1
}

// StateClaims is the payload of the stateParam cookie.
type StateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// StateSigner signs and verifies the stateParam cookie value.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewStateSigner creates a signer using HS256 with the given secret.
func NewStateSigner(secret string) (*StateSigner, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &StateSigner{
		key: []byte(secret),
		ttl: StateTTL,
		now: time.Now,
	}, nil
}

// SetNow overrides the clock (for testing).
func (s *StateSigner) SetNow(fn func() time.Time) {
	s.now = fn
}

// TTL is the validity of a signed nonce.
func (s *StateSigner) TTL() time.Duration {
	return s.ttl
}

// Sign returns the signed cookie value carrying nonce.
func (s *StateSigner) Sign(nonce string) (string, error) {
	now := s.now()

	claims := StateClaims{
		Nonce: nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign state")
	}

	return signed, nil
}

// Verify checks signature and expiry of a cookie value and returns the nonce.
func (s *StateSigner) Verify(signed string) (string, error) {
	if signed == "" {
		return "", ErrMissingState
	}

	var claims StateClaims

	_, err := jwt.ParseWithClaims(signed, &claims,
		func(_ *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", errors.Wrap(ErrInvalidState, err.Error())
	}

	return claims.Nonce, nil
}
