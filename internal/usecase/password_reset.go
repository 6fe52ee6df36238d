package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dheelyte/studyflow/internal/core/domain"
	"github.com/Dheelyte/studyflow/internal/core/port"
	"github.com/Dheelyte/studyflow/internal/infra/logger"
	"github.com/Dheelyte/studyflow/internal/infra/security"
	"github.com/Dheelyte/studyflow/internal/repository"
)

const (
	defaultResetCodeTTL = 15 * time.Minute

	passwordResetReason  = "password_reset"
	passwordChangeReason = "password_change"
)

var (
	// ErrUserNotFound indicates no account exists under the email. Handlers
	// must not leak this outcome on reset initiation.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidOrExpiredCode indicates the reset code is unknown, expired,
	// already consumed, or malformed. All four collapse into one error so the
	// caller learns nothing about which codes exist.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired reset code")
	// ErrSamePassword indicates the new password matches the current one.
	ErrSamePassword = errors.New("new password must differ from the current password")
	// ErrCurrentPasswordInvalid indicates the supplied current password is wrong.
	ErrCurrentPasswordInvalid = errors.New("current password is incorrect")
)

// ResetRequestResult describes an issued reset code.
type ResetRequestResult struct {
	UserID      string
	Code        string
	MaskedEmail string
	ExpiresAt   time.Time
}

// PasswordResetService coordinates reset code issuance, verification, and the
// two password update flows (reset by code, change by current password).
type PasswordResetService struct {
	users             port.UserRepository
	resetCodes        port.ResetCodeRepository
	uow               port.UnitOfWork
	hasher            port.PasswordHasher
	passwordValidator *security.PasswordValidator
	events            port.EventPublisher
	notifier          port.Notifier
	logger            *zap.Logger
	now               func() time.Time
	codeTTL           time.Duration
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(
	users port.UserRepository,
	resetCodes port.ResetCodeRepository,
	uow port.UnitOfWork,
	hasher port.PasswordHasher,
	validator *security.PasswordValidator,
	events port.EventPublisher,
	notifier port.Notifier,
	log *zap.Logger,
) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetService{
		users:             users,
		resetCodes:        resetCodes,
		uow:               uow,
		hasher:            hasher,
		passwordValidator: validator,
		events:            events,
		notifier:          notifier,
		logger:            log,
		now:               time.Now,
		codeTTL:           defaultResetCodeTTL,
	}
}

// WithClock overrides the service clock (primarily for tests).
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithCodeTTL overrides the reset code lifetime.
func (s *PasswordResetService) WithCodeTTL(ttl time.Duration) {
	if ttl > 0 {
		s.codeTTL = ttl
	}
}

// RequestReset issues a new reset code for the account, invalidating any
// previously issued unused codes in the same transaction. Callers must map
// ErrUserNotFound to the same outward response as success.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*ResetRequestResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	code, err := security.GenerateResetCode()
	if err != nil {
		return nil, fmt.Errorf("generate reset code: %w", err)
	}

	now := s.now().UTC()
	record := domain.ResetCode{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CodeHash:  security.HashCode(code),
		Used:      false,
		ExpiresAt: now.Add(s.codeTTL),
		CreatedAt: now,
	}

	err = s.uow.Do(ctx, func(ctx context.Context, stores port.Stores) error {
		if err := stores.ResetCodes.InvalidateUnusedForUser(ctx, user.ID); err != nil {
			return fmt.Errorf("invalidate previous codes: %w", err)
		}
		if err := stores.ResetCodes.Create(ctx, record); err != nil {
			return fmt.Errorf("store reset code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	masked := logger.MaskEmail(user.Email)

	if s.notifier != nil {
		body := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code, int(s.codeTTL.Minutes()))
		if err := s.notifier.Send(ctx, user.Email, "Password reset code", body); err != nil {
			s.logger.Warn("reset code delivery failed",
				zap.String("email", masked),
				zap.Error(err),
			)
		}
	}

	if s.events != nil {
		event := domain.PasswordResetRequestedEvent{
			EventID:           uuid.NewString(),
			UserID:            user.ID,
			RequestedAt:       now,
			MaskedDestination: masked,
			ExpiresAt:         record.ExpiresAt,
		}
		if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
			s.logger.Warn("publish reset requested event failed", zap.Error(err))
		}
	}

	s.logger.Info("password reset requested",
		zap.String("user_id", user.ID),
		zap.String("email", masked),
	)

	return &ResetRequestResult{
		UserID:      user.ID,
		Code:        code,
		MaskedEmail: masked,
		ExpiresAt:   record.ExpiresAt,
	}, nil
}

// VerifyCode checks whether the code is currently redeemable for the account
// without consuming it.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) error {
	code = strings.TrimSpace(code)
	if !validCodeFormat(code) {
		return ErrInvalidOrExpiredCode
	}

	record, err := s.resetCodes.FindValidByCodeAndEmail(ctx, security.HashCode(code), strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredCode
		}
		return fmt.Errorf("lookup reset code: %w", err)
	}

	if !record.IsValid(s.now().UTC()) {
		return ErrInvalidOrExpiredCode
	}

	return nil
}

// ResetPassword redeems a valid code and replaces the account password. The
// code consumption and the password update commit atomically: a failure in
// either leaves both untouched.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if !validCodeFormat(code) {
		return ErrInvalidOrExpiredCode
	}

	if err := s.passwordValidator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	var userID string
	err := s.uow.Do(ctx, func(ctx context.Context, stores port.Stores) error {
		record, err := stores.ResetCodes.FindValidByCodeAndEmail(ctx, security.HashCode(code), email)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidOrExpiredCode
			}
			return fmt.Errorf("lookup reset code: %w", err)
		}
		if !record.IsValid(s.now().UTC()) {
			return ErrInvalidOrExpiredCode
		}

		user, err := stores.Users.GetByID(ctx, record.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidOrExpiredCode
			}
			return fmt.Errorf("lookup user: %w", err)
		}

		same, err := s.hasher.Verify(newPassword, user.PasswordHash)
		if err != nil {
			return fmt.Errorf("compare password: %w", err)
		}
		if same {
			return ErrSamePassword
		}

		newHash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		changedAt := s.now().UTC()
		if err := stores.Users.UpdatePassword(ctx, user.ID, newHash, changedAt); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if err := stores.ResetCodes.MarkUsed(ctx, record.ID); err != nil {
			// A concurrent transaction may consume the code between lookup and
			// redemption. That caller loses the race and sees the same error as
			// an expired or unknown code.
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidOrExpiredCode
			}
			return fmt.Errorf("consume reset code: %w", err)
		}

		userID = user.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.publishPasswordChanged(ctx, userID, passwordResetReason)
	s.logger.Info("password reset completed", zap.String("user_id", userID))

	return nil
}

// ChangePassword updates the password for an authenticated user after
// verifying the current one.
func (s *PasswordResetService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		return ErrCurrentPasswordInvalid
	}

	if newPassword == currentPassword {
		return ErrSamePassword
	}
	if err := s.passwordValidator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, newHash, s.now().UTC()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.publishPasswordChanged(ctx, user.ID, passwordChangeReason)
	s.logger.Info("password changed", zap.String("user_id", user.ID))

	return nil
}

func (s *PasswordResetService) publishPasswordChanged(ctx context.Context, userID, reason string) {
	if s.events == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		ChangedAt: s.now().UTC(),
		Reason:    reason,
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed event failed", zap.Error(err))
	}
}

func validCodeFormat(code string) bool {
	if len(code) != security.ResetCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
