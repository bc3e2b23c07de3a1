package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackroom/internal/auth"
)

type fakeFetcher struct {
	resp         *http.Response
	err          error
	requested    string
	requestRange string
}

func (f *fakeFetcher) Fetch(_ context.Context, name, rangeHeader string) (*http.Response, error) {
	f.requested = name
	f.requestRange = rangeHeader
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func upstreamResponse(status int, contentType, body string, headers map[string]string) *http.Response {
	h := http.Header{}
	if contentType != "" {
		h.Set(echo.HeaderContentType, contentType)
	}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newGatewayFixture(fetcher *fakeFetcher) (*GatewayHandler, *auth.TokenService, *echo.Echo) {
	tokens := auth.NewTokenService("test-secret-at-least-32-characters!!")
	return NewGatewayHandler(tokens, fetcher), tokens, echo.New()
}

func streamContext(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestGatewayHandler_MissingToken(t *testing.T) {
	h, _, e := newGatewayFixture(&fakeFetcher{})

	c, rec := streamContext(e, "/stream")
	require.NoError(t, h.Stream(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGatewayHandler_InvalidToken(t *testing.T) {
	h, _, e := newGatewayFixture(&fakeFetcher{})

	c, rec := streamContext(e, "/stream?token=garbage")
	require.NoError(t, h.Stream(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGatewayHandler_SessionTokenRejected(t *testing.T) {
	fetcher := &fakeFetcher{}
	h, tokens, e := newGatewayFixture(fetcher)

	sessionToken, err := tokens.SignSession("user-1", time.Hour)
	require.NoError(t, err)

	c, rec := streamContext(e, "/stream?token="+sessionToken)
	require.NoError(t, h.Stream(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, fetcher.requested, "a mistyped token must never reach storage")
}

func TestGatewayHandler_ExpiredToken(t *testing.T) {
	h, tokens, e := newGatewayFixture(&fakeFetcher{})

	token, err := tokens.SignFileCapability("1_song.mp3", -time.Minute)
	require.NoError(t, err)

	c, rec := streamContext(e, "/stream?token="+token)
	require.NoError(t, h.Stream(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGatewayHandler_StreamsAudio(t *testing.T) {
	fetcher := &fakeFetcher{resp: upstreamResponse(http.StatusOK, "audio/mpeg", "mp3 bytes", map[string]string{
		echo.HeaderContentLength: "9",
		"ETag":                   `"abc"`,
		"Last-Modified":          "Mon, 02 Jan 2006 15:04:05 GMT",
	})}
	h, tokens, e := newGatewayFixture(fetcher)

	token, err := tokens.SignFileCapability("1_song.mp3", time.Hour)
	require.NoError(t, err)

	c, rec := streamContext(e, "/stream?token="+token+"&media=audio")
	require.NoError(t, h.Stream(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1_song.mp3", fetcher.requested)
	assert.Equal(t, "mp3 bytes", rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "9", rec.Header().Get(echo.HeaderContentLength))
	assert.Equal(t, `"abc"`, rec.Header().Get("ETag"))
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", rec.Header().Get("Last-Modified"))
}

func TestGatewayHandler_WaveformVariant(t *testing.T) {
	fetcher := &fakeFetcher{resp: upstreamResponse(http.StatusOK, "application/octet-stream", "waveform", nil)}
	h, tokens, e := newGatewayFixture(fetcher)

	token, err := tokens.SignFileCapability("1_song.mp3", time.Hour)
	require.NoError(t, err)

	c, rec := streamContext(e, "/stream?token="+token+"&media=waveform")
	require.NoError(t, h.Stream(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1_song.mp3.dat", fetcher.requested,
		"the gateway, not the issuer, resolves the waveform artifact")
}

func TestGatewayHandler_ForwardsRange(t *testing.T) {
	fetcher := &fakeFetcher{resp: upstreamResponse(http.StatusPartialContent, "video/mp4", "0123", map[string]string{
		"Content-Range": "bytes 0-3/100",
		"Accept-Ranges": "bytes",
	})}
	h, tokens, e := newGatewayFixture(fetcher)

	token, err := tokens.SignFileCapability("1_clip.mp4", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/stream?token="+token, nil)
	req.Header.Set("Range", "bytes=0-3")
	rec := httptest.NewRecorder()

	require.NoError(t, h.Stream(e.NewContext(req, rec)))

	assert.Equal(t, "bytes=0-3", fetcher.requestRange)
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 0-3/100", rec.Header().Get("Content-Range"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
}

func TestGatewayHandler_UpstreamNotFound(t *testing.T) {
	fetcher := &fakeFetcher{resp: upstreamResponse(http.StatusNotFound, "application/json", `{"error":"file not found"}`, nil)}
	h, tokens, e := newGatewayFixture(fetcher)

	token, err := tokens.SignFileCapability("gone.mp3", time.Hour)
	require.NoError(t, err)

	c, rec := streamContext(e, "/stream?token="+token)
	require.NoError(t, h.Stream(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestGatewayHandler_UpstreamUnreachable(t *testing.T) {
	fetcher := &fakeFetcher{err: io.ErrUnexpectedEOF}
	h, tokens, e := newGatewayFixture(fetcher)

	token, err := tokens.SignFileCapability("1_song.mp3", time.Hour)
	require.NoError(t, err)

	c, rec := streamContext(e, "/stream?token="+token)
	require.NoError(t, h.Stream(c))
	assert.Equal(t, http.StatusNotFound, rec.Code, "an unreachable peer reads as a missing file")
}
