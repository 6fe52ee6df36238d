package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/Dheelyte/studyflow/internal/core/domain"
)

func TestRegisterCreatesActiveUser(t *testing.T) {
	users := newUserRepoMock()
	events := &publisherMock{}
	svc := NewRegistrationService(users, fakeHasher{}, nil, events, nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:     "Jane.Doe@Example.com",
		Password:  "Str0ngEnough#Passw0rd",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if user.Email != "jane.doe@example.com" {
		t.Fatalf("email not lowercased: %s", user.Email)
	}
	if !user.IsActive {
		t.Fatal("new user must be active")
	}
	if user.IsVerified {
		t.Fatal("new user must not be pre-verified")
	}
	if user.PasswordHash != "" {
		t.Fatal("returned user must not carry the password hash")
	}

	stored, err := users.GetByEmail(context.Background(), "jane.doe@example.com")
	if err != nil {
		t.Fatalf("stored user not found: %v", err)
	}
	if stored.PasswordHash != "hashed:Str0ngEnough#Passw0rd" {
		t.Fatalf("stored hash unexpected: %s", stored.PasswordHash)
	}

	if len(events.registered) != 1 {
		t.Fatalf("expected 1 registration event, got %d", len(events.registered))
	}
	if events.registered[0].UserID != user.ID {
		t.Fatalf("event user mismatch: %s", events.registered[0].UserID)
	}
}

func TestRegisterRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	users := newUserRepoMock(domain.User{
		ID:    "user-1",
		Email: "jane@example.com",
	})
	svc := NewRegistrationService(users, fakeHasher{}, nil, nil, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "JANE@EXAMPLE.COM",
		Password: "Str0ngEnough#Passw0rd",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterRejectsMalformedEmail(t *testing.T) {
	svc := NewRegistrationService(newUserRepoMock(), fakeHasher{}, nil, nil, nil)

	for _, email := range []string{"not-an-email", "missing@", "@example.com"} {
		_, err := svc.Register(context.Background(), RegisterInput{
			Email:    email,
			Password: "Str0ngEnough#Passw0rd",
		})
		if !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestRegisterEnforcesPasswordPolicy(t *testing.T) {
	svc := NewRegistrationService(newUserRepoMock(), fakeHasher{}, nil, nil, nil)

	cases := []string{
		"Sh0rt",          // too short
		"nouppercase123", // no uppercase
		"NOLOWERCASE123", // no lowercase
		"NoDigitsHere",   // no digit
	}
	for _, password := range cases {
		_, err := svc.Register(context.Background(), RegisterInput{
			Email:    "jane@example.com",
			Password: password,
		})
		if !errors.Is(err, ErrPasswordPolicyViolation) {
			t.Fatalf("password %q: expected ErrPasswordPolicyViolation, got %v", password, err)
		}
	}
}
