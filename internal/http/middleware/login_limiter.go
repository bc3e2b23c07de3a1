package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// IdentityLimiter decides per identity whether another attempt is allowed.
// The in-process implementation below is enough for a single-process
// deployment; a shared backing store can replace it without touching call
// sites.
type IdentityLimiter interface {
	Allow(identity string) bool
}

const msgTooManyLoginAttempts = "too many login attempts, try again later"

type attemptWindow struct {
	start time.Time
	count int
}

// LoginLimiter counts attempts per identity in fixed windows: the first
// attempt of a window always passes, and once the count exceeds the maximum
// every further attempt in that window is refused. State is in process
// memory and lost on restart, which is acceptable for abuse dampening.
type LoginLimiter struct {
	mu      sync.Mutex
	windows map[string]*attemptWindow
	max     int
	window  time.Duration
	now     func() time.Time
}

func NewLoginLimiter(maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		windows: make(map[string]*attemptWindow),
		max:     maxAttempts,
		window:  window,
		now:     time.Now,
	}
}

func (l *LoginLimiter) Allow(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[identity]
	if !ok || now.Sub(w.start) >= l.window {
		l.windows[identity] = &attemptWindow{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= l.max
}

// Middleware refuses rate-limited identities before the handler runs, so
// throttling happens before any credential check.
func (l *LoginLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": msgTooManyLoginAttempts,
				})
			}
			return next(c)
		}
	}
}
