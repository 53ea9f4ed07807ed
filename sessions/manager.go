// Package sessions owns the refresh-token lifecycle: issue, verify, rotate,
// revoke and sweep. Access tokens are stateless and live in the auth package;
// everything here is backed by the token repository.
package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"go.uber.org/zap"

	"bizcore/auth"
	"bizcore/models"
	"bizcore/repositories"
)

const defaultRefreshTTL = 7 * 24 * time.Hour

// Manager drives the per-user session state machine. A user has either no
// session or exactly one live refresh token; the repository's transactional
// primitives enforce that, the manager sequences them.
type Manager struct {
	tokens     repositories.TokenRepository
	refreshTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithRefreshTTL sets the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source, useful for tests.
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// WithLogger sets the logger used for housekeeping messages.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session Manager on top of the token repository.
func NewManager(tokens repositories.TokenRepository, opts ...Option) *Manager {
	m := &Manager{
		tokens:     tokens,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue revokes every existing refresh token of the user and creates a new
// one, as a single atomic replacement. Used at login.
func (m *Manager) Issue(userID uint) (*models.RefreshToken, error) {
	opaque, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	rec := &models.RefreshToken{
		Token:      opaque,
		UserID:     userID,
		ExpiryDate: m.now().Add(m.refreshTTL),
	}
	if err := m.tokens.ReplaceForUser(userID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Verify checks a presented refresh token and returns its record. Revoked and
// expired tokens fail with their respective errors and are deleted as a side
// effect; the caller must re-authenticate.
func (m *Manager) Verify(token string) (*models.RefreshToken, error) {
	rec, err := m.tokens.FindByToken(token)
	if err != nil {
		return nil, err
	}
	if rec.Revoked {
		if err := m.tokens.DeleteByID(rec.ID); err != nil {
			m.logger.Warn("failed to delete revoked refresh token", zap.Uint("token_id", rec.ID), zap.Error(err))
		}
		return nil, auth.ErrTokenRevoked
	}
	if m.now().After(rec.ExpiryDate) {
		if err := m.tokens.DeleteByID(rec.ID); err != nil {
			m.logger.Warn("failed to delete expired refresh token", zap.Uint("token_id", rec.ID), zap.Error(err))
		}
		return nil, auth.ErrTokenExpired
	}
	return rec, nil
}

// Rotate spends the presented token and issues a replacement for its owner.
// The consume step commits before the new token is created, so a failed
// creation leaves the old token revoked and the user must log in again:
// fail-closed, never a resurrected old one. The replacement is installed with
// the same atomic replace a login uses, so a login landing between the two
// steps cannot leave two live tokens.
func (m *Manager) Rotate(token string) (*models.RefreshToken, error) {
	old, err := m.tokens.Consume(token, m.now())
	if err != nil {
		return nil, err
	}
	opaque, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	rec := &models.RefreshToken{
		Token:      opaque,
		UserID:     old.UserID,
		ExpiryDate: m.now().Add(m.refreshTTL),
	}
	if err := m.tokens.ReplaceForUser(old.UserID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// RevokeAll revokes every refresh token of the user. Used by logout;
// idempotent.
func (m *Manager) RevokeAll(userID uint) error {
	return m.tokens.RevokeAllForUser(userID)
}

// SweepExpired deletes tokens past expiry. Not security-critical, purely
// storage hygiene; safe to run concurrently with all other operations.
func (m *Manager) SweepExpired() {
	n, err := m.tokens.DeleteExpired(m.now())
	if err != nil {
		m.logger.Warn("refresh token sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		m.logger.Info("swept expired refresh tokens", zap.Int64("deleted", n))
	}
}

// newOpaqueToken returns a random, URL-safe opaque token string. The value
// is never decoded by the client.
func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.New("could not generate refresh token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
