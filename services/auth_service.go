package services

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bizcore/auth"
	"bizcore/authz"
	"bizcore/repositories"
	"bizcore/sessions"
)

// The AuthService interface exposes the operations consumed by the
// controller layer: login, refresh, logout and principal loading.
type AuthService interface {
	Authenticate(input *LoginInput) (*TokenPair, error)
	Refresh(oldToken string) (*TokenPair, error)
	Logout(userID uint) error
	PrincipalByID(userID uint) (authz.Principal, error)
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// Remember requests a long-lived session; only then is a refresh
	// token issued.
	Remember bool `json:"remember"`
}

// TokenPair carries a fresh access token and, when a long-lived session was
// requested or rotated, the refresh token that backs it.
type TokenPair struct {
	AccessToken      string     `json:"access_token"`
	AccessExpiresAt  time.Time  `json:"access_expires_at"`
	RefreshToken     string     `json:"refresh_token,omitempty"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
}

type authService struct {
	users    repositories.UserRepository
	sessions *sessions.Manager
	issuer   *auth.TokenIssuer
	logger   *zap.Logger

	maxFailures  int
	lockDuration time.Duration
	now          func() time.Time
}

var _ AuthService = (*authService)(nil)

// AuthServiceOption configures the auth service.
type AuthServiceOption func(*authService)

// WithLockoutPolicy sets the failed-login threshold and lock duration.
func WithLockoutPolicy(maxFailures int, lockDuration time.Duration) AuthServiceOption {
	return func(s *authService) {
		if maxFailures > 0 {
			s.maxFailures = maxFailures
		}
		if lockDuration > 0 {
			s.lockDuration = lockDuration
		}
	}
}

// WithAuthClock overrides the time source, useful for tests.
func WithAuthClock(fn func() time.Time) AuthServiceOption {
	return func(s *authService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(users repositories.UserRepository, mgr *sessions.Manager, issuer *auth.TokenIssuer, logger *zap.Logger, opts ...AuthServiceOption) AuthService {
	s := &authService{
		users:        users,
		sessions:     mgr,
		issuer:       issuer,
		logger:       logger,
		maxFailures:  5,
		lockDuration: 15 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate verifies credentials and issues tokens. Unknown usernames and
// wrong passwords both surface as ErrAuthenticationFailed; disabled and
// locked accounts get their own errors only after the password matched a real
// account lookup path, so the generic failure stays uninformative.
func (s *authService) Authenticate(input *LoginInput) (*TokenPair, error) {
	user, err := s.users.FindByUsername(input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrAuthenticationFailed
		}
		return nil, err
	}

	if user.LockedUntil != nil && s.now().Before(*user.LockedUntil) {
		return nil, auth.ErrAccountLocked
	}

	if err := auth.VerifyPassword(user.Password, input.Password); err != nil {
		user.FailedLogins++
		if user.FailedLogins >= s.maxFailures {
			lockedUntil := s.now().Add(s.lockDuration)
			user.LockedUntil = &lockedUntil
			user.FailedLogins = 0
			s.logger.Warn("account locked after repeated failures",
				zap.String("username", user.Username),
				zap.Time("locked_until", lockedUntil))
		}
		if saveErr := s.users.Update(user); saveErr != nil {
			s.logger.Error("failed to persist login failure counter", zap.Error(saveErr))
		}
		return nil, auth.ErrAuthenticationFailed
	}

	if !user.Enabled {
		return nil, auth.ErrAccountDisabled
	}

	if user.FailedLogins != 0 || user.LockedUntil != nil {
		user.FailedLogins = 0
		user.LockedUntil = nil
		if err := s.users.Update(user); err != nil {
			s.logger.Error("failed to reset login failure counter", zap.Error(err))
		}
	}

	principal := authz.NewPrincipal(user)
	pair, err := s.mintAccess(principal)
	if err != nil {
		return nil, err
	}

	if input.Remember {
		refresh, err := s.sessions.Issue(user.ID)
		if err != nil {
			return nil, err
		}
		pair.RefreshToken = refresh.Token
		pair.RefreshExpiresAt = &refresh.ExpiryDate
	}

	s.logger.Info("user authenticated",
		zap.String("username", user.Username),
		zap.Bool("remember", input.Remember))
	return pair, nil
}

// Refresh rotates the presented refresh token and issues a new access token
// bound to the rotation. Any token error forces the client back to a full
// login.
func (s *authService) Refresh(oldToken string) (*TokenPair, error) {
	rotated, err := s.sessions.Rotate(oldToken)
	if err != nil {
		return nil, err
	}

	principal, err := s.PrincipalByID(rotated.UserID)
	if err != nil {
		return nil, err
	}
	if !principal.Enabled {
		// Disabled since the session began: kill the session outright.
		if revokeErr := s.sessions.RevokeAll(rotated.UserID); revokeErr != nil {
			s.logger.Error("failed to revoke sessions of disabled account", zap.Error(revokeErr))
		}
		return nil, auth.ErrAccountDisabled
	}

	pair, err := s.mintAccess(principal)
	if err != nil {
		return nil, err
	}
	pair.RefreshToken = rotated.Token
	pair.RefreshExpiresAt = &rotated.ExpiryDate
	return pair, nil
}

// Logout revokes every refresh token of the user. Idempotent.
func (s *authService) Logout(userID uint) error {
	return s.sessions.RevokeAll(userID)
}

// PrincipalByID loads a user and resolves the union of its role permissions.
func (s *authService) PrincipalByID(userID uint) (authz.Principal, error) {
	user, err := s.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return authz.Principal{}, auth.ErrAuthenticationFailed
		}
		return authz.Principal{}, err
	}
	return authz.NewPrincipal(user), nil
}

func (s *authService) mintAccess(p authz.Principal) (*TokenPair, error) {
	access, expiresAt, err := s.issuer.Generate(p.UserID, p.Username, p.AuthorityNames())
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, AccessExpiresAt: expiresAt}, nil
}
