package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders adds a baseline of browser security headers to every
// response of the public app server.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// Media is embedded from the app itself; everything else stays
			// same-origin.
			h.Set("Content-Security-Policy",
				"default-src 'self'; "+
					"media-src 'self'; "+
					"img-src 'self' data:; "+
					"frame-ancestors 'none'; "+
					"base-uri 'self'")

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}
