package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Dheelyte/studyflow/internal/core/domain"
	"github.com/Dheelyte/studyflow/internal/core/port"
	"github.com/Dheelyte/studyflow/internal/infra/logger"
	"github.com/Dheelyte/studyflow/internal/infra/security"
	"github.com/Dheelyte/studyflow/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	// Wrong password and unknown email both map here so responses stay
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is disabled.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrUnauthenticated indicates the presented token is missing, malformed,
	// expired, of the wrong type, or no longer maps to a user.
	ErrUnauthenticated = errors.New("authentication required")
)

// TokenPair bundles the access and refresh tokens issued on login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService coordinates login, token refresh, and token-based identity resolution.
type AuthService struct {
	users  port.UserRepository
	hasher port.PasswordHasher
	codec  *security.TokenCodec
	logger *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users port.UserRepository, hasher port.PasswordHasher, codec *security.TokenCodec, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		codec:  codec,
		logger: log,
	}
}

// AccessTTL exposes the configured access token lifetime for cookie Max-Age.
func (s *AuthService) AccessTTL() time.Duration { return s.codec.AccessTTL() }

// RefreshTTL exposes the configured refresh token lifetime for cookie Max-Age.
func (s *AuthService) RefreshTTL() time.Duration { return s.codec.RefreshTTL() }

// Login validates credentials and issues a fresh access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil, fmt.Errorf("email is required")
	}
	if password == "" {
		return nil, nil, fmt.Errorf("password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, ErrInactiveAccount
	}

	access, err := s.codec.CreateAccessToken(user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.codec.CreateRefreshToken(user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("issue refresh token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("email", logger.MaskEmail(user.Email)))

	sanitized := *user
	sanitized.PasswordHash = ""

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, &sanitized, nil
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself is not rotated; it stays valid until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	subject, err := s.codec.VerifyToken(refreshToken, security.TokenTypeRefresh)
	if err != nil {
		return "", ErrUnauthenticated
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUnauthenticated
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return "", ErrInactiveAccount
	}

	access, err := s.codec.CreateAccessToken(user.Email)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	return access, nil
}

// CurrentUser resolves the user identified by a valid access token.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*domain.User, error) {
	subject, err := s.codec.VerifyToken(accessToken, security.TokenTypeAccess)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	sanitized := *user
	sanitized.PasswordHash = ""

	return &sanitized, nil
}
