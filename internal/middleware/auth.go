package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akshardoc/akshardoc/internal/pkg/response"
)

const (
	ContextEmailKey = "email"

	// SessionCookie carries the signed session token.
	SessionCookie = "session"
)

// Authenticator resolves a session token to the email it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Auth gates a route group on a valid session cookie and stores the caller's
// email in the gin context.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "login required")
			c.Abort()
			return
		}
		email, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session")
			c.Abort()
			return
		}
		c.Set(ContextEmailKey, email)
		c.Next()
	}
}
