package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knighthoot/backend/internal/response"
	"github.com/knighthoot/backend/internal/service"
)

// CheckActiveSession validates the JWT's JTI against the active session in
// Redis. Tokens from before a newer login or a password reset stop working.
func CheckActiveSession(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.Role, claims.UserID, claims.ID); err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}

		c.Next()
	}
}
