package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// SessionCookieName carries the session token for regular collaborators.
	SessionCookieName = "trackroom_session"

	// ContextKeyUserID is where the session middleware stores the caller's id.
	ContextKeyUserID = "user_id"

	msgMissingSession = "authentication required"
	msgInvalidSession = "invalid or expired session"
)

type Middleware struct {
	tokens *TokenService
}

func NewMiddleware(tokens *TokenService) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireSession authenticates requests via the session cookie. File
// capability tokens are rejected here; they only gate the streaming routes.
func (m *Middleware) RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return respondError(c, http.StatusUnauthorized, msgMissingSession)
			}

			userID, err := m.tokens.VerifySession(cookie.Value)
			if err != nil {
				return respondError(c, http.StatusUnauthorized, msgInvalidSession)
			}

			c.Set(ContextKeyUserID, userID)

			return next(c)
		}
	}
}

// GetUserID extracts the authenticated user id from the context.
func GetUserID(c echo.Context) string {
	if userID, ok := c.Get(ContextKeyUserID).(string); ok {
		return userID
	}
	return ""
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}
