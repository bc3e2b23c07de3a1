package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"trackroom/internal/auth"
)

const (
	// CSRFHeaderName carries the token on state-changing API requests. The
	// login response hands the token out; scripts on foreign origins cannot
	// read it, which is what makes the cookie safe to send cross-site.
	CSRFHeaderName = "X-CSRF-Token"

	csrfTokenLength     = 32
	csrfTokenTTL        = 24 * time.Hour
	csrfCleanupInterval = time.Hour

	msgCSRFTokenRequired = "CSRF token required"
	msgCSRFTokenRejected = "invalid or expired CSRF token"
)

type csrfToken struct {
	value     string
	expiresAt time.Time
}

// CSRFMiddleware protects the cookie-authenticated API group against
// cross-site request forgery. Each session user gets a random token at
// login; every state-changing request must echo it back in a header.
type CSRFMiddleware struct {
	tokens  sync.Map // userID -> *csrfToken
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewCSRFMiddleware creates the middleware and starts its background
// cleanup of expired tokens. Call Stop to end the cleanup goroutine.
func NewCSRFMiddleware(ctx context.Context) *CSRFMiddleware {
	cleanupCtx, cancel := context.WithCancel(ctx)
	m := &CSRFMiddleware{
		now:     time.Now,
		ctx:     cleanupCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}

	go m.cleanupLoop()

	return m
}

// Stop gracefully stops the cleanup goroutine.
func (m *CSRFMiddleware) Stop() {
	m.cancel()
	<-m.stopped
}

func (m *CSRFMiddleware) cleanupLoop() {
	defer close(m.stopped)

	ticker := time.NewTicker(csrfCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpiredTokens()
		}
	}
}

func generateToken() (string, error) {
	bytes := make([]byte, csrfTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

// GetOrCreateToken returns the user's current token, minting a fresh one
// when none exists or the old one expired.
func (m *CSRFMiddleware) GetOrCreateToken(userID string) (string, error) {
	if raw, exists := m.tokens.Load(userID); exists {
		if token, ok := raw.(*csrfToken); ok && m.now().Before(token.expiresAt) {
			return token.value, nil
		}
	}

	value, err := generateToken()
	if err != nil {
		return "", err
	}

	m.tokens.Store(userID, &csrfToken{
		value:     value,
		expiresAt: m.now().Add(csrfTokenTTL),
	})

	return value, nil
}

// Middleware enforces the token on state-changing requests. Safe methods
// and unauthenticated requests pass through untouched; the session
// middleware has already decided who may reach the group at all.
func (m *CSRFMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			method := c.Request().Method
			if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
				return next(c)
			}

			userID := auth.GetUserID(c)
			if userID == "" {
				return next(c)
			}

			provided := c.Request().Header.Get(CSRFHeaderName)
			if provided == "" {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": msgCSRFTokenRequired,
				})
			}

			raw, exists := m.tokens.Load(userID)
			if !exists {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": msgCSRFTokenRejected,
				})
			}

			token, ok := raw.(*csrfToken)
			if !ok || m.now().After(token.expiresAt) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": msgCSRFTokenRejected,
				})
			}

			if subtle.ConstantTimeCompare([]byte(provided), []byte(token.value)) != 1 {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": msgCSRFTokenRejected,
				})
			}

			return next(c)
		}
	}
}

// CleanupExpiredTokens removes expired tokens.
func (m *CSRFMiddleware) CleanupExpiredTokens() {
	now := m.now()
	m.tokens.Range(func(key, value any) bool {
		if token, ok := value.(*csrfToken); ok {
			if now.After(token.expiresAt) {
				m.tokens.Delete(key)
			}
		}
		return true
	})
}
