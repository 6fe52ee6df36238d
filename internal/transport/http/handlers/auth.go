package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Dheelyte/studyflow/internal/infra/config"
	"github.com/Dheelyte/studyflow/internal/transport/http/middleware"
	"github.com/Dheelyte/studyflow/internal/usecase"
)

const (
	accessTokenCookie  = middleware.AccessTokenCookie
	refreshTokenCookie = "refresh_token"

	// The refresh cookie is scoped to the refresh endpoint so browsers do
	// not attach the long-lived token to every request.
	refreshCookiePath = "/api/v1/auth/refresh"
)

// AuthHandler exposes login, token refresh, and logout endpoints.
type AuthHandler struct {
	auth    *usecase.AuthService
	cookies config.CookieSettings
}

func NewAuthHandler(auth *usecase.AuthService, cookies config.CookieSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

// RegisterRoutes binds authentication endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	loginChain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	loginChain = append(loginChain, h.Login)

	r.POST("/login", loginChain...)
	r.POST("/refresh", h.Refresh)
	r.POST("/logout", h.Logout)
}

// Login godoc
// @Summary Authenticate with email and password
// @Description Issues an access/refresh token pair as HttpOnly cookies and in the response body.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	pair, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError, "failed to authenticate",
			errorCase{err: usecase.ErrInvalidCredentials, status: http.StatusUnauthorized, message: "invalid email or password"},
			errorCase{err: usecase.ErrInactiveAccount, status: http.StatusUnauthorized, message: "account is inactive"},
		)
		return
	}

	h.setAuthCookies(c, pair.AccessToken, pair.RefreshToken)

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(h.auth.AccessTTL().Seconds()),
		User:         newUserSummary(user),
	})
}

// Refresh godoc
// @Summary Renew the access token
// @Description Validates the refresh token cookie and issues a fresh access token. The refresh token is not rotated.
// @Tags Auth
// @Produce json
// @Success 200 {object} TokenRefreshResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(refreshTokenCookie)
	if err != nil || strings.TrimSpace(token) == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing refresh token"))
		return
	}

	access, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError, "failed to refresh token",
			errorCase{err: usecase.ErrUnauthenticated, status: http.StatusUnauthorized, message: "invalid or expired refresh token"},
			errorCase{err: usecase.ErrInactiveAccount, status: http.StatusUnauthorized, message: "account is inactive"},
		)
		return
	}

	h.setCookie(c, accessTokenCookie, access, int(h.auth.AccessTTL().Seconds()), "/")

	c.JSON(http.StatusOK, TokenRefreshResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int(h.auth.AccessTTL().Seconds()),
	})
}

// Logout godoc
// @Summary Terminate the current session
// @Description Clears both token cookies. Idempotent; succeeds without valid credentials.
// @Tags Auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, accessTokenCookie, "", -1, "/")
	h.setCookie(c, refreshTokenCookie, "", -1, refreshCookiePath)

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, access, refresh string) {
	h.setCookie(c, accessTokenCookie, access, int(h.auth.AccessTTL().Seconds()), "/")
	h.setCookie(c, refreshTokenCookie, refresh, int(h.auth.RefreshTTL().Seconds()), refreshCookiePath)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int, path string) {
	c.SetSameSite(sameSiteMode(h.cookies.SameSite))
	c.SetCookie(name, value, maxAge, path, h.cookies.Domain, h.cookies.Secure, true)
}

func sameSiteMode(mode string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
