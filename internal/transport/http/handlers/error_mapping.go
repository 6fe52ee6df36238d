package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// errorCase pairs a sentinel error from the usecase layer with the status
// and client-facing message it translates to.
type errorCase struct {
	err     error
	status  int
	message string
}

// respondError writes the response for the first case matching err via
// errors.Is. Unmatched errors get the fallback, which keeps internal detail
// out of responses to unauthenticated callers.
func respondError(c *gin.Context, err error, fallbackStatus int, fallbackMessage string, cases ...errorCase) {
	for _, cs := range cases {
		if cs.err == nil {
			continue
		}
		if errors.Is(err, cs.err) {
			c.JSON(cs.status, NewErrorResponse(c, cs.message))
			return
		}
	}
	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}
