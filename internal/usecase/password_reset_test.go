package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	uuid "github.com/google/uuid"

	"github.com/Dheelyte/studyflow/internal/core/domain"
	"github.com/Dheelyte/studyflow/internal/core/port"
	"github.com/Dheelyte/studyflow/internal/infra/security"
	"github.com/Dheelyte/studyflow/internal/repository"
)

type resetFixture struct {
	svc      *PasswordResetService
	users    *userRepoMock
	codes    *resetCodeRepoMock
	events   *publisherMock
	notifier *notifierMock
	now      time.Time
}

func newResetFixture(t *testing.T, seed ...domain.User) *resetFixture {
	t.Helper()

	now := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	users := newUserRepoMock(seed...)
	codes := newResetCodeRepoMock(users, clock)
	events := &publisherMock{}
	notifier := &notifierMock{}

	uow := &uowMock{stores: port.Stores{Users: users, ResetCodes: codes}}

	svc := NewPasswordResetService(users, codes, uow, fakeHasher{}, nil, events, notifier, nil)
	svc.WithClock(clock)

	return &resetFixture{svc: svc, users: users, codes: codes, events: events, notifier: notifier, now: now}
}

func resetUser() domain.User {
	return domain.User{
		ID:           "user-1",
		Email:        "jane@example.com",
		PasswordHash: "hashed:Current1Password",
		IsActive:     true,
	}
}

func TestRequestResetIssuesSixDigitCode(t *testing.T) {
	f := newResetFixture(t, resetUser())

	result, err := f.svc.RequestReset(context.Background(), "jane@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if len(result.Code) != security.ResetCodeLength {
		t.Fatalf("expected %d-digit code, got %q", security.ResetCodeLength, result.Code)
	}
	for _, r := range result.Code {
		if r < '0' || r > '9' {
			t.Fatalf("code contains non-digit: %q", result.Code)
		}
	}
	if !result.ExpiresAt.Equal(f.now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry: %v", result.ExpiresAt)
	}

	// Only the hash is persisted.
	for _, c := range f.codes.codes {
		if c.CodeHash == result.Code {
			t.Fatal("reset code stored in plaintext")
		}
		if c.CodeHash != security.HashCode(result.Code) {
			t.Fatalf("stored hash does not match issued code")
		}
	}

	if len(f.notifier.recipients) != 1 || f.notifier.recipients[0] != "jane@example.com" {
		t.Fatalf("notifier recipients unexpected: %v", f.notifier.recipients)
	}
	if !strings.Contains(f.notifier.bodies[0], result.Code) {
		t.Fatal("notification body does not carry the code")
	}

	if len(f.events.resetRequests) != 1 {
		t.Fatalf("expected 1 reset requested event, got %d", len(f.events.resetRequests))
	}
}

func TestRequestResetUnknownEmail(t *testing.T) {
	f := newResetFixture(t)

	if _, err := f.svc.RequestReset(context.Background(), "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(f.notifier.recipients) != 0 {
		t.Fatal("no notification may be sent for unknown emails")
	}
}

func TestRequestResetInvalidatesPreviousCode(t *testing.T) {
	f := newResetFixture(t, resetUser())
	ctx := context.Background()

	first, err := f.svc.RequestReset(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("first RequestReset returned error: %v", err)
	}
	second, err := f.svc.RequestReset(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("second RequestReset returned error: %v", err)
	}

	if count := f.codes.validCountForUser("user-1"); count != 1 {
		t.Fatalf("expected exactly one valid code, got %d", count)
	}

	if err := f.svc.VerifyCode(ctx, "jane@example.com", first.Code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("first code should be invalidated, got %v", err)
	}
	if err := f.svc.VerifyCode(ctx, "jane@example.com", second.Code); err != nil {
		t.Fatalf("second code should verify, got %v", err)
	}
}

func TestVerifyCodeRejectsMalformedAndExpired(t *testing.T) {
	f := newResetFixture(t, resetUser())
	ctx := context.Background()

	for _, code := range []string{"", "12345", "1234567", "12345a"} {
		if err := f.svc.VerifyCode(ctx, "jane@example.com", code); !errors.Is(err, ErrInvalidOrExpiredCode) {
			t.Fatalf("code %q: expected ErrInvalidOrExpiredCode, got %v", code, err)
		}
	}

	// Expired code: valid format, past expiry.
	expired := domain.ResetCode{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		CodeHash:  security.HashCode("123456"),
		ExpiresAt: f.now.Add(-time.Minute),
		CreatedAt: f.now.Add(-20 * time.Minute),
	}
	if err := f.codes.Create(ctx, expired); err != nil {
		t.Fatalf("seed expired code: %v", err)
	}
	if err := f.svc.VerifyCode(ctx, "jane@example.com", "123456"); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expired code: expected ErrInvalidOrExpiredCode, got %v", err)
	}
}

func TestVerifyCodeAcceptsLeadingZeros(t *testing.T) {
	f := newResetFixture(t, resetUser())
	ctx := context.Background()

	record := domain.ResetCode{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		CodeHash:  security.HashCode("000042"),
		ExpiresAt: f.now.Add(10 * time.Minute),
		CreatedAt: f.now,
	}
	if err := f.codes.Create(ctx, record); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	if err := f.svc.VerifyCode(ctx, "jane@example.com", "000042"); err != nil {
		t.Fatalf("leading-zero code should verify, got %v", err)
	}
	if err := f.svc.VerifyCode(ctx, "jane@example.com", "42"); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("unpadded code must not verify, got %v", err)
	}
}

func TestResetPasswordUpdatesAndConsumesCode(t *testing.T) {
	f := newResetFixture(t, resetUser())
	ctx := context.Background()

	result, err := f.svc.RequestReset(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if err := f.svc.ResetPassword(ctx, "jane@example.com", result.Code, "Brand1NewPassword"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	if f.users.updatedHash != "hashed:Brand1NewPassword" {
		t.Fatalf("password not updated: %s", f.users.updatedHash)
	}

	// Single use: the same code must not be redeemable again.
	if err := f.svc.ResetPassword(ctx, "jane@example.com", result.Code, "Other1Password"); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("consumed code should be rejected, got %v", err)
	}

	if len(f.events.passwordChanges) != 1 {
		t.Fatalf("expected 1 password changed event, got %d", len(f.events.passwordChanges))
	}
	if f.events.passwordChanges[0].Reason != passwordResetReason {
		t.Fatalf("unexpected event reason: %s", f.events.passwordChanges[0].Reason)
	}
}

func TestResetPasswordRejectsSamePassword(t *testing.T) {
	f := newResetFixture(t, resetUser())
	ctx := context.Background()

	result, err := f.svc.RequestReset(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if err := f.svc.ResetPassword(ctx, "jane@example.com", result.Code, "Current1Password"); !errors.Is(err, ErrSamePassword) {
		t.Fatalf("expected ErrSamePassword, got %v", err)
	}

	// The code survives a rejected attempt.
	if err := f.svc.VerifyCode(ctx, "jane@example.com", result.Code); err != nil {
		t.Fatalf("code should remain valid after rejection, got %v", err)
	}
}

func TestResetPasswordEnforcesPolicy(t *testing.T) {
	f := newResetFixture(t, resetUser())
	ctx := context.Background()

	result, err := f.svc.RequestReset(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if err := f.svc.ResetPassword(ctx, "jane@example.com", result.Code, "weak"); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
}

func TestResetPasswordWrongCode(t *testing.T) {
	f := newResetFixture(t, resetUser())
	ctx := context.Background()

	if _, err := f.svc.RequestReset(ctx, "jane@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if err := f.svc.ResetPassword(ctx, "jane@example.com", "999999", "Brand1NewPassword"); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode, got %v", err)
	}
}

func TestResetPasswordCodeConsumedByConcurrentRequest(t *testing.T) {
	f := newResetFixture(t, resetUser())
	ctx := context.Background()

	result, err := f.svc.RequestReset(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	// Another transaction redeems the code after lookup but before this one
	// consumes it. The loser must see the same error as an invalid code, not
	// an internal failure.
	f.codes.markUsedErr = repository.ErrNotFound

	if err := f.svc.ResetPassword(ctx, "jane@example.com", result.Code, "Brand1NewPassword"); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode, got %v", err)
	}
}

func TestChangePasswordSuccess(t *testing.T) {
	f := newResetFixture(t, resetUser())

	err := f.svc.ChangePassword(context.Background(), "user-1", "Current1Password", "Brand1NewPassword")
	if err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if f.users.updatedHash != "hashed:Brand1NewPassword" {
		t.Fatalf("password not updated: %s", f.users.updatedHash)
	}
	if len(f.events.passwordChanges) != 1 || f.events.passwordChanges[0].Reason != passwordChangeReason {
		t.Fatalf("unexpected password changed events: %+v", f.events.passwordChanges)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newResetFixture(t, resetUser())

	err := f.svc.ChangePassword(context.Background(), "user-1", "Wrong1Password", "Brand1NewPassword")
	if !errors.Is(err, ErrCurrentPasswordInvalid) {
		t.Fatalf("expected ErrCurrentPasswordInvalid, got %v", err)
	}
	if f.users.updatedHash != "" {
		t.Fatal("password must not change on failed verification")
	}
}

func TestChangePasswordSameAsCurrent(t *testing.T) {
	f := newResetFixture(t, resetUser())

	err := f.svc.ChangePassword(context.Background(), "user-1", "Current1Password", "Current1Password")
	if !errors.Is(err, ErrSamePassword) {
		t.Fatalf("expected ErrSamePassword, got %v", err)
	}
}
