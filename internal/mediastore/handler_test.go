package mediastore

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackroom/internal/infra/disk"
)

func newTestHandler(t *testing.T, extractor WaveformExtractor, maxBytes int64) (*Handler, *disk.Store) {
	t.Helper()
	store, err := disk.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewHandler(NewService(store, extractor, maxBytes)), store
}

func multipartBody(t *testing.T, fieldName, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHandler_Upload(t *testing.T) {
	h, store := newTestHandler(t, &fakeExtractor{writeDat: true}, 1<<20)
	e := echo.New()

	body, contentType := multipartBody(t, "file", "song.mp3", "audio bytes")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	err := h.Upload(e.NewContext(req, rec))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasSuffix(resp.StorageKey, "_song.mp3"))
	assert.True(t, store.Exists(resp.StorageKey))
	assert.True(t, store.Exists(resp.StorageKey+".dat"))
}

func TestHandler_UploadNoFile(t *testing.T) {
	h, _ := newTestHandler(t, &fakeExtractor{}, 1<<20)
	e := echo.New()

	body, contentType := multipartBody(t, "wrong_field", "song.mp3", "audio")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	err := h.Upload(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestHandler_UploadOversized(t *testing.T) {
	h, store := newTestHandler(t, &fakeExtractor{}, 4)
	e := echo.New()

	body, contentType := multipartBody(t, "file", "song.mp3", "more than four bytes")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	err := h.Upload(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, store.Exists("song.mp3"))
}

func TestHandler_UploadFailingWaveform(t *testing.T) {
	h, _ := newTestHandler(t, &fakeExtractor{err: errors.New("exit status 1")}, 1<<20)
	e := echo.New()

	body, contentType := multipartBody(t, "file", "song.mp3", "audio")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	err := h.Upload(e.NewContext(req, rec))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_Fetch(t *testing.T) {
	h, store := newTestHandler(t, &fakeExtractor{}, 1<<20)
	e := echo.New()

	_, err := store.Write("1_track.mp3", strings.NewReader("mp3 bytes"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/files/1_track.mp3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues("1_track.mp3")

	require.NoError(t, h.Fetch(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "9", rec.Header().Get(echo.HeaderContentLength))
	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.NotEmpty(t, rec.Header().Get("Last-Modified"))
	assert.Equal(t, "mp3 bytes", rec.Body.String())
}

func TestHandler_FetchVideoAdvertisesRanges(t *testing.T) {
	h, store := newTestHandler(t, &fakeExtractor{}, 1<<20)
	e := echo.New()

	_, err := store.Write("1_clip.mp4", strings.NewReader("mp4 bytes"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/files/1_clip.mp4", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues("1_clip.mp4")

	require.NoError(t, h.Fetch(c))
	assert.Equal(t, "video/mp4", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
}

func TestHandler_FetchRangeRequest(t *testing.T) {
	h, store := newTestHandler(t, &fakeExtractor{}, 1<<20)
	e := echo.New()

	_, err := store.Write("1_clip.mp4", strings.NewReader("0123456789"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/files/1_clip.mp4", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues("1_clip.mp4")

	require.NoError(t, h.Fetch(c))
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "2345", rec.Body.String())
}

func TestHandler_FetchMissingReturnsStructured404(t *testing.T) {
	h, _ := newTestHandler(t, &fakeExtractor{}, 1<<20)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/files/never_written.mp3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues("never_written.mp3")

	require.NoError(t, h.Fetch(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestHandler_FetchUnknownExtensionIsOctetStream(t *testing.T) {
	h, store := newTestHandler(t, &fakeExtractor{}, 1<<20)
	e := echo.New()

	_, err := store.Write("1_track.mp3.dat", strings.NewReader("waveform"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/files/1_track.mp3.dat", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("name")
	c.SetParamValues("1_track.mp3.dat")

	require.NoError(t, h.Fetch(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get(echo.HeaderContentType))
}

func TestHandler_Delete(t *testing.T) {
	h, store := newTestHandler(t, &fakeExtractor{}, 1<<20)
	e := echo.New()

	_, err := store.Write("1_track.mp3", strings.NewReader("mp3"))
	require.NoError(t, err)
	_, err = store.Write("1_track.mp3.dat", strings.NewReader("waveform"))
	require.NoError(t, err)

	reqBody := `{"fileName":"1_track.mp3"}`
	req := httptest.NewRequest(http.MethodDelete, "/files", strings.NewReader(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Delete(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp deleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "1_track.mp3", resp.Deleted)
	assert.False(t, store.Exists("1_track.mp3"))
	assert.False(t, store.Exists("1_track.mp3.dat"))
}

func TestHandler_DeleteMissingFileName(t *testing.T) {
	h, _ := newTestHandler(t, &fakeExtractor{}, 1<<20)
	e := echo.New()

	req := httptest.NewRequest(http.MethodDelete, "/files", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Delete(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
