package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CustomClaims are the claims embedded in an access token: the subject
// identity plus the flattened authority-name list resolved at issue time.
// Role changes therefore take effect on the next reissue, not before.
type CustomClaims struct {
	UserID      uint     `json:"user_id"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates short-lived stateless access tokens.
type TokenIssuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// IssuerOption configures a TokenIssuer.
type IssuerOption func(*TokenIssuer)

// WithClock overrides the time source, useful for tests.
func WithClock(fn func() time.Time) IssuerOption {
	return func(t *TokenIssuer) {
		if fn != nil {
			t.now = fn
		}
	}
}

// WithIssuerName overrides the "iss" claim.
func WithIssuerName(name string) IssuerOption {
	return func(t *TokenIssuer) {
		if name != "" {
			t.issuer = name
		}
	}
}

// NewTokenIssuer creates a TokenIssuer signing with the given key and TTL.
func NewTokenIssuer(key []byte, ttl time.Duration, opts ...IssuerOption) (*TokenIssuer, error) {
	if len(key) == 0 {
		return nil, errors.New("signing key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("access token ttl must be positive")
	}
	t := &TokenIssuer{
		key:    key,
		ttl:    ttl,
		issuer: "bizcore",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Generate creates a signed access token for the given subject carrying the
// supplied authority names. No state is persisted.
func (t *TokenIssuer) Generate(userID uint, username string, authorities []string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := &CustomClaims{
		UserID:      userID,
		Username:    username,
		Authorities: authorities,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    t.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAndValidate verifies signature and time claims and returns the claims.
// Expired tokens map onto ErrTokenExpired so callers can tell the client to
// refresh; every other failure is ErrAuthenticationFailed.
func (t *TokenIssuer) ParseAndValidate(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.key, nil
	}, jwt.WithTimeFunc(t.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenExpired
		}
		return nil, ErrAuthenticationFailed
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrAuthenticationFailed
	}
	if t.issuer != "" && claims.Issuer != t.issuer {
		return nil, ErrAuthenticationFailed
	}
	return claims, nil
}
