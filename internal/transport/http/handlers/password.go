package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dheelyte/studyflow/internal/transport/http/middleware"
	"github.com/Dheelyte/studyflow/internal/usecase"
)

const resetAcceptedMessage = "If the account exists, a reset code has been sent"

// PasswordHandler exposes endpoints for the reset and change flows.
type PasswordHandler struct {
	reset *usecase.PasswordResetService
	isDev bool
}

func NewPasswordHandler(reset *usecase.PasswordResetService, isDev bool) *PasswordHandler {
	return &PasswordHandler{reset: reset, isDev: isDev}
}

// RequestReset godoc
// @Summary Initiate a password reset
// @Description Starts the reset flow. Always returns an accepted response to avoid account enumeration.
// @Tags Password
// @Accept json
// @Produce json
// @Param request body PasswordResetRequest true "Password reset request"
// @Success 202 {object} PasswordResetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/forgot-password [post]
func (h *PasswordHandler) RequestReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password reset request"))
		return
	}

	result, err := h.reset.RequestReset(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		// Unknown accounts get the same acknowledgement as known ones.
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusAccepted, PasswordResetResponse{Message: resetAcceptedMessage})
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to initiate password reset"))
		return
	}

	response := PasswordResetResponse{Message: resetAcceptedMessage}

	if !result.ExpiresAt.IsZero() {
		expires := result.ExpiresAt.UTC().Format(time.RFC3339)
		response.ExpiresAt = &expires
	}

	// SECURITY: the raw code is only exposed in development mode. In
	// production it travels via the notification channel.
	if h.isDev {
		if code := strings.TrimSpace(result.Code); code != "" {
			response.DevCode = &code
		}
	}

	c.JSON(http.StatusAccepted, response)
}

// VerifyResetCode godoc
// @Summary Check a reset code before use
// @Description Reports whether a reset code is currently redeemable for the account.
// @Tags Password
// @Accept json
// @Produce json
// @Param request body VerifyResetCodeRequest true "Verification request"
// @Success 200 {object} VerifyResetCodeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/verify-reset-code [post]
func (h *PasswordHandler) VerifyResetCode(c *gin.Context) {
	var req VerifyResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	err := h.reset.VerifyCode(c.Request.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.Code))
	if err != nil {
		respondError(c, err, http.StatusInternalServerError, "failed to verify reset code",
			errorCase{err: usecase.ErrInvalidOrExpiredCode, status: http.StatusBadRequest, message: "invalid or expired reset code"},
		)
		return
	}

	c.JSON(http.StatusOK, VerifyResetCodeResponse{IsValid: true})
}

// ConfirmReset godoc
// @Summary Complete a password reset
// @Description Redeems a valid reset code and sets the new password.
// @Tags Password
// @Accept json
// @Produce json
// @Param request body PasswordResetConfirmRequest true "Reset confirmation"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/reset-password [post]
func (h *PasswordHandler) ConfirmReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset payload"))
		return
	}

	err := h.reset.ResetPassword(c.Request.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.Code), req.NewPassword)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError, "failed to reset password",
			errorCase{err: usecase.ErrInvalidOrExpiredCode, status: http.StatusBadRequest, message: "invalid or expired reset code"},
			errorCase{err: usecase.ErrSamePassword, status: http.StatusBadRequest, message: "new password must differ from the current password"},
			errorCase{err: usecase.ErrPasswordPolicyViolation, status: http.StatusBadRequest, message: "password does not meet requirements"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

// ChangePassword godoc
// @Summary Change the password for the authenticated user
// @Description Verifies the current password before applying the new one.
// @Tags Password
// @Accept json
// @Produce json
// @Param request body PasswordChangeRequest true "Password change request"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/me/password [post]
func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid change password payload"))
		return
	}

	err := h.reset.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, err, http.StatusInternalServerError, "failed to change password",
			errorCase{err: usecase.ErrCurrentPasswordInvalid, status: http.StatusUnauthorized, message: "current password is incorrect"},
			errorCase{err: usecase.ErrSamePassword, status: http.StatusBadRequest, message: "new password must differ from the current password"},
			errorCase{err: usecase.ErrPasswordPolicyViolation, status: http.StatusBadRequest, message: "password does not meet requirements"},
			errorCase{err: usecase.ErrUserNotFound, status: http.StatusUnauthorized, message: "invalid authentication"},
		)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}
