package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"trackroom/internal/auth"
	"trackroom/internal/domain/user"
	"trackroom/pkg/password"
)

// UserStore is the slice of the user repository the login flow needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*user.User, error)
}

// SessionSigner mints session tokens.
type SessionSigner interface {
	SignSession(userID string, ttl time.Duration) (string, error)
}

// CSRFTokenIssuer hands out the per-user token the API group's CSRF
// middleware expects on state-changing requests.
type CSRFTokenIssuer interface {
	GetOrCreateToken(userID string) (string, error)
}

type AuthHandler struct {
	users        UserStore
	tokens       SessionSigner
	csrf         CSRFTokenIssuer
	sessionTTL   time.Duration
	secureCookie bool
}

func NewAuthHandler(users UserStore, tokens SessionSigner, csrf CSRFTokenIssuer, sessionTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		csrf:         csrf,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	CSRFToken string `json:"csrf_token"`
}

// Login verifies credentials and sets the session cookie. The route's rate
// limiter has already run by the time this handler sees the request, so
// guessing is throttled even for usernames that do not exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return handleHTTPError(c, err)
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return respondError(c, http.StatusBadRequest, msgUsernamePasswordRequired)
	}

	u, err := h.users.GetByUsername(c.Request().Context(), req.Username)
	if err != nil {
		// Burn a bcrypt comparison so unknown and known usernames take
		// the same time to reject.
		password.Verify(req.Password, password.DummyHash)
		return respondError(c, http.StatusUnauthorized, msgLoginFailed)
	}

	if !password.Verify(req.Password, u.PasswordHash) {
		return respondError(c, http.StatusUnauthorized, msgLoginFailed)
	}

	token, err := h.tokens.SignSession(u.ID.String(), h.sessionTTL)
	if err != nil {
		c.Logger().Errorf("failed to sign session for %s: %v", u.ID, err)
		return respondError(c, http.StatusInternalServerError, msgSessionIssueFailed)
	}

	csrfToken, err := h.csrf.GetOrCreateToken(u.ID.String())
	if err != nil {
		c.Logger().Errorf("failed to issue CSRF token for %s: %v", u.ID, err)
		return respondError(c, http.StatusInternalServerError, msgSessionIssueFailed)
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, LoginResponse{
		UserID:    u.ID.String(),
		Username:  u.Username,
		CSRFToken: csrfToken,
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return respondMessage(c, http.StatusOK, "logged out")
}
