package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dheelyte/studyflow/internal/transport/http/middleware"
)

// UserHandler exposes endpoints for the authenticated user's own profile.
type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me godoc
// @Summary Return the authenticated user's profile
// @Tags Users
// @Produce json
// @Success 200 {object} UserSummary
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.GetAuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid authentication"))
		return
	}

	c.JSON(http.StatusOK, newUserSummary(user))
}
