package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/Dheelyte/studyflow/internal/core/domain"
	"github.com/Dheelyte/studyflow/internal/core/port"
	"github.com/Dheelyte/studyflow/internal/repository"
)

// fakeHasher is a deterministic stand-in for the Argon2 hasher.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed:"+password, nil
}

type userRepoMock struct {
	users       map[string]domain.User // keyed by ID
	updatedID   string
	updatedHash string
	updatedAt   time.Time
	createErr   error
}

func newUserRepoMock(users ...domain.User) *userRepoMock {
	m := &userRepoMock{users: make(map[string]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *userRepoMock) Create(_ context.Context, user domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.users[user.ID] = user
	return nil
}

func (m *userRepoMock) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			copy := u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		copy := u
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) UpdatePassword(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = changedAt
	m.users[id] = u
	m.updatedID = id
	m.updatedHash = passwordHash
	m.updatedAt = changedAt
	return nil
}

type resetCodeRepoMock struct {
	codes       map[string]domain.ResetCode // keyed by ID
	users       *userRepoMock
	now         func() time.Time
	markUsedErr error // when set, MarkUsed fails with this error
}

func newResetCodeRepoMock(users *userRepoMock, now func() time.Time) *resetCodeRepoMock {
	if now == nil {
		now = time.Now
	}
	return &resetCodeRepoMock{
		codes: make(map[string]domain.ResetCode),
		users: users,
		now:   now,
	}
}

func (m *resetCodeRepoMock) Create(_ context.Context, code domain.ResetCode) error {
	m.codes[code.ID] = code
	return nil
}

func (m *resetCodeRepoMock) FindValidByCodeAndEmail(ctx context.Context, codeHash, email string) (*domain.ResetCode, error) {
	user, err := m.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	for _, c := range m.codes {
		if c.UserID == user.ID && c.CodeHash == codeHash && c.IsValid(m.now().UTC()) {
			copy := c
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *resetCodeRepoMock) InvalidateUnusedForUser(_ context.Context, userID string) error {
	for id, c := range m.codes {
		if c.UserID == userID && !c.Used {
			c.Used = true
			m.codes[id] = c
		}
	}
	return nil
}

func (m *resetCodeRepoMock) MarkUsed(_ context.Context, codeID string) error {
	if m.markUsedErr != nil {
		return m.markUsedErr
	}
	c, ok := m.codes[codeID]
	if !ok || c.Used {
		return repository.ErrNotFound
	}
	c.Used = true
	m.codes[codeID] = c
	return nil
}

func (m *resetCodeRepoMock) validCountForUser(userID string) int {
	count := 0
	at := m.now().UTC()
	for _, c := range m.codes {
		if c.UserID == userID && c.IsValid(at) {
			count++
		}
	}
	return count
}

// uowMock hands the shared in-memory stores straight to fn; commit/rollback
// semantics are exercised against the real implementation elsewhere.
type uowMock struct {
	stores port.Stores
}

func (m *uowMock) Do(ctx context.Context, fn func(ctx context.Context, stores port.Stores) error) error {
	return fn(ctx, m.stores)
}

type publisherMock struct {
	registered      []domain.UserRegisteredEvent
	passwordChanges []domain.PasswordChangedEvent
	resetRequests   []domain.PasswordResetRequestedEvent
}

func (m *publisherMock) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	m.registered = append(m.registered, event)
	return nil
}

func (m *publisherMock) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	m.passwordChanges = append(m.passwordChanges, event)
	return nil
}

func (m *publisherMock) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	m.resetRequests = append(m.resetRequests, event)
	return nil
}

type notifierMock struct {
	recipients []string
	subjects   []string
	bodies     []string
	err        error
}

func (m *notifierMock) Send(_ context.Context, recipient, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.recipients = append(m.recipients, recipient)
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, body)
	return nil
}
