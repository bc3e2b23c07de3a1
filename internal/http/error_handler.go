package http

import (
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/labstack/echo/v4"

	"trackroom/internal/http/middleware"
	apperrors "trackroom/pkg/errors"
)

const jsonKeyError = "error"

// CustomHTTPErrorHandler handles every error that escapes a handler or is
// raised by echo itself (unmatched routes, method not allowed, body limit).
// It maps sentinel errors to status codes and keeps the `{error}` envelope
// the handlers use, so clients see one error shape everywhere. Internal
// errors are sanitized before they leave the process.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := stdhttp.StatusInternalServerError
	message := "internal server error"

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		message = fmt.Sprintf("%v", httpErr.Message)
	} else {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			code = stdhttp.StatusNotFound
			message = "resource not found"
		case errors.Is(err, apperrors.ErrUnauthorized),
			errors.Is(err, apperrors.ErrInvalidCredentials):
			code = stdhttp.StatusUnauthorized
			message = "unauthorized"
		case errors.Is(err, apperrors.ErrForbidden),
			errors.Is(err, apperrors.ErrExpired):
			code = stdhttp.StatusForbidden
			message = "forbidden"
		case errors.Is(err, apperrors.ErrBadRequest),
			errors.Is(err, apperrors.ErrValidation),
			errors.Is(err, apperrors.ErrPathTraversal):
			code = stdhttp.StatusBadRequest
			message = "bad request"
		case errors.Is(err, apperrors.ErrConflict):
			code = stdhttp.StatusConflict
			message = "resource already exists"
		case errors.Is(err, apperrors.ErrTooLarge):
			code = stdhttp.StatusRequestEntityTooLarge
			message = "payload too large"
		case errors.Is(err, apperrors.ErrRateLimited):
			code = stdhttp.StatusTooManyRequests
			message = "too many requests"
		}

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && code < 500 {
			message = appErr.Message
		}
	}

	requestID := c.Response().Header().Get(middleware.RequestIDHeader)
	if requestID == "" {
		requestID = "unknown"
	}

	if code >= 500 {
		c.Logger().Errorf("request %s failed with %d: %v", requestID, code, err)
		// Internal details never leave the process.
		message = "internal server error"
	} else {
		c.Logger().Warnf("request %s rejected with %d: %v", requestID, code, err)
	}

	if err := c.JSON(code, map[string]string{jsonKeyError: message}); err != nil {
		c.Logger().Error(err)
	}
}
