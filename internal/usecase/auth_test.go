package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dheelyte/studyflow/internal/core/domain"
	"github.com/Dheelyte/studyflow/internal/infra/security"
)

func newAuthCodec(t *testing.T) *security.TokenCodec {
	t.Helper()

	codec, err := security.NewTokenCodec("unit-test-secret", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}
	return codec
}

func activeUser() domain.User {
	return domain.User{
		ID:           "user-1",
		Email:        "jane@example.com",
		PasswordHash: "hashed:Correct1Password",
		FirstName:    "Jane",
		LastName:     "Doe",
		IsActive:     true,
		IsVerified:   true,
	}
}

func TestLoginSuccessIssuesVerifiableTokens(t *testing.T) {
	users := newUserRepoMock(activeUser())
	codec := newAuthCodec(t)
	svc := NewAuthService(users, fakeHasher{}, codec, nil)

	pair, user, err := svc.Login(context.Background(), "jane@example.com", "Correct1Password")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if user.PasswordHash != "" {
		t.Fatal("returned user must not carry the password hash")
	}

	subject, err := codec.VerifyToken(pair.AccessToken, security.TokenTypeAccess)
	if err != nil {
		t.Fatalf("access token failed verification: %v", err)
	}
	if subject != "jane@example.com" {
		t.Fatalf("unexpected access subject: %s", subject)
	}

	subject, err = codec.VerifyToken(pair.RefreshToken, security.TokenTypeRefresh)
	if err != nil {
		t.Fatalf("refresh token failed verification: %v", err)
	}
	if subject != "jane@example.com" {
		t.Fatalf("unexpected refresh subject: %s", subject)
	}
}

func TestLoginCaseFoldsEmail(t *testing.T) {
	users := newUserRepoMock(activeUser())
	svc := NewAuthService(users, fakeHasher{}, newAuthCodec(t), nil)

	if _, _, err := svc.Login(context.Background(), "Jane@Example.COM", "Correct1Password"); err != nil {
		t.Fatalf("Login with differently cased email returned error: %v", err)
	}
}

func TestLoginIdenticalErrorForWrongPasswordAndUnknownEmail(t *testing.T) {
	users := newUserRepoMock(activeUser())
	svc := NewAuthService(users, fakeHasher{}, newAuthCodec(t), nil)

	_, _, wrongPassword := svc.Login(context.Background(), "jane@example.com", "WrongPassword1")
	_, _, unknownEmail := svc.Login(context.Background(), "nobody@example.com", "Correct1Password")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("error messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser()
	user.IsActive = false
	users := newUserRepoMock(user)
	svc := NewAuthService(users, fakeHasher{}, newAuthCodec(t), nil)

	if _, _, err := svc.Login(context.Background(), "jane@example.com", "Correct1Password"); !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

func TestRefreshMintsAccessToken(t *testing.T) {
	users := newUserRepoMock(activeUser())
	codec := newAuthCodec(t)
	svc := NewAuthService(users, fakeHasher{}, codec, nil)

	refresh, err := codec.CreateRefreshToken("jane@example.com")
	if err != nil {
		t.Fatalf("CreateRefreshToken returned error: %v", err)
	}

	access, err := svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}

	if _, err := codec.VerifyToken(access, security.TokenTypeAccess); err != nil {
		t.Fatalf("minted token failed access verification: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	users := newUserRepoMock(activeUser())
	codec := newAuthCodec(t)
	svc := NewAuthService(users, fakeHasher{}, codec, nil)

	access, err := codec.CreateAccessToken("jane@example.com")
	if err != nil {
		t.Fatalf("CreateAccessToken returned error: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), access); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for access token, got %v", err)
	}
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	codec := newAuthCodec(t)
	svc := NewAuthService(newUserRepoMock(), fakeHasher{}, codec, nil)

	refresh, err := codec.CreateRefreshToken("ghost@example.com")
	if err != nil {
		t.Fatalf("CreateRefreshToken returned error: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), refresh); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for deleted user, got %v", err)
	}
}

func TestCurrentUserResolvesSubject(t *testing.T) {
	users := newUserRepoMock(activeUser())
	codec := newAuthCodec(t)
	svc := NewAuthService(users, fakeHasher{}, codec, nil)

	access, err := codec.CreateAccessToken("jane@example.com")
	if err != nil {
		t.Fatalf("CreateAccessToken returned error: %v", err)
	}

	user, err := svc.CurrentUser(context.Background(), access)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Fatal("returned user must not carry the password hash")
	}
}

func TestCurrentUserRejectsRefreshToken(t *testing.T) {
	users := newUserRepoMock(activeUser())
	codec := newAuthCodec(t)
	svc := NewAuthService(users, fakeHasher{}, codec, nil)

	refresh, err := codec.CreateRefreshToken("jane@example.com")
	if err != nil {
		t.Fatalf("CreateRefreshToken returned error: %v", err)
	}

	if _, err := svc.CurrentUser(context.Background(), refresh); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for refresh token, got %v", err)
	}
}
