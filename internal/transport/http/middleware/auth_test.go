package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/Dheelyte/studyflow/internal/core/domain"
	"github.com/Dheelyte/studyflow/internal/infra/security"
	"github.com/Dheelyte/studyflow/internal/repository"
	"github.com/Dheelyte/studyflow/internal/usecase"
)

type stubUserRepo struct {
	user *domain.User
}

func (s *stubUserRepo) Create(ctx context.Context, user domain.User) error { return nil }

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.user != nil && strings.EqualFold(s.user.Email, email) {
		copied := *s.user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if s.user != nil && s.user.ID == id {
		copied := *s.user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	return nil
}

type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return password, nil }

func (stubHasher) Verify(password, encoded string) (bool, error) {
	return password == encoded, nil
}

func newAuthTestRouter(t *testing.T, repo *stubUserRepo) (*gin.Engine, *security.TokenCodec) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := security.NewTokenCodec("middleware-test-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("failed to create token codec: %v", err)
	}

	svc := usecase.NewAuthService(repo, stubHasher{}, codec, zaptest.NewLogger(t))

	router := gin.New()
	router.Use(EnrichContext())
	router.GET("/me", RequireAuth(svc), func(c *gin.Context) {
		id, ok := GetAuthenticatedUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id)
	})

	return router, codec
}

func TestRequireAuthAcceptsValidCookie(t *testing.T) {
	repo := &stubUserRepo{user: &domain.User{
		ID:       "user-1",
		Email:    "reader@example.com",
		IsActive: true,
	}}

	router, codec := newAuthTestRouter(t, repo)

	token, err := codec.CreateAccessToken("reader@example.com")
	if err != nil {
		t.Fatalf("failed to create access token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if rr.Body.String() != "user-1" {
		t.Fatalf("expected authenticated user id in response, got %q", rr.Body.String())
	}
}

func TestRequireAuthRejectsMissingCookie(t *testing.T) {
	router, _ := newAuthTestRouter(t, &stubUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsRefreshTokenCookie(t *testing.T) {
	repo := &stubUserRepo{user: &domain.User{
		ID:       "user-1",
		Email:    "reader@example.com",
		IsActive: true,
	}}

	router, codec := newAuthTestRouter(t, repo)

	token, err := codec.CreateRefreshToken("reader@example.com")
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuthRejectsInactiveAccount(t *testing.T) {
	repo := &stubUserRepo{user: &domain.User{
		ID:       "user-2",
		Email:    "suspended@example.com",
		IsActive: false,
	}}

	router, codec := newAuthTestRouter(t, repo)

	token, err := codec.CreateAccessToken("suspended@example.com")
	if err != nil {
		t.Fatalf("failed to create access token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
