package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"trackroom/internal/domain/media"
)

// CapabilityVerifier checks a file capability token and returns the storage
// key it is scoped to.
type CapabilityVerifier interface {
	VerifyFileCapability(token string) (string, error)
}

// FileFetcher retrieves a stored file from the media storage peer. The
// returned response is streamed through unread.
type FileFetcher interface {
	Fetch(ctx context.Context, name, rangeHeader string) (*http.Response, error)
}

// GatewayHandler turns a capability token into a byte stream. It is the only
// way unauthenticated clients ever reach stored files.
type GatewayHandler struct {
	tokens CapabilityVerifier
	files  FileFetcher
}

func NewGatewayHandler(tokens CapabilityVerifier, files FileFetcher) *GatewayHandler {
	return &GatewayHandler{tokens: tokens, files: files}
}

// Headers relayed from the peer so caching and range requests keep working
// through the proxy.
var relayedHeaders = []string{
	echo.HeaderContentLength,
	"ETag",
	"Last-Modified",
	"Accept-Ranges",
	"Content-Range",
}

// Stream verifies the capability, resolves the requested variant and relays
// the peer's bytes without buffering. Every storage-side failure, peer
// unreachable included, resolves to 404: the caller cannot tell a missing
// file from an unreadable one, and has no reason to.
func (h *GatewayHandler) Stream(c echo.Context) error {
	token := c.QueryParam(queryParamToken)
	if token == "" {
		return respondError(c, http.StatusBadRequest, msgTokenRequired)
	}

	storageKey, err := h.tokens.VerifyFileCapability(token)
	if err != nil {
		// Never fall back to treating the token as a plain file name.
		return respondError(c, http.StatusForbidden, msgTokenRejected)
	}

	name := storageKey
	if c.QueryParam(queryParamMedia) == mediaVariantWaveform {
		name = media.WaveformKey(storageKey)
	}

	resp, err := h.files.Fetch(c.Request().Context(), name, c.Request().Header.Get("Range"))
	if err != nil {
		c.Logger().Errorf("fetch of %s failed: %v", name, err)
		return respondError(c, http.StatusNotFound, msgFileNotFound)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return respondError(c, http.StatusNotFound, msgFileNotFound)
	}

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = media.ContentTypeFor(name)
	}

	for _, header := range relayedHeaders {
		if value := resp.Header.Get(header); value != "" {
			c.Response().Header().Set(header, value)
		}
	}

	return c.Stream(resp.StatusCode, contentType, resp.Body)
}
