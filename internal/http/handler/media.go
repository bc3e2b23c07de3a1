package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"trackroom/internal/domain/media"
	"trackroom/internal/service"
	apperrors "trackroom/pkg/errors"
)

const (
	formFieldFile        = "file"
	formFieldTitle       = "title"
	formFieldDescription = "description"
	formFieldProjectID   = "projectId"

	queryParamProject = "project"
	queryParamMedia   = "media"
	queryParamToken   = "token"

	mediaVariantAudio    = "audio"
	mediaVariantWaveform = "waveform"

	streamPath = "/stream"
)

// MediaStore is the slice of the metadata repository the media routes need.
type MediaStore interface {
	Create(ctx context.Context, input media.CreateMediaInput) (*media.Media, error)
	GetByID(ctx context.Context, id uuid.UUID) (*media.Media, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*media.Media, error)
}

// Uploader forwards an upload stream to the media storage peer.
type Uploader interface {
	Upload(ctx context.Context, fileName string, r io.Reader) (string, error)
}

// CapabilitySigner mints file capability tokens.
type CapabilitySigner interface {
	SignFileCapability(storageKey string, ttl time.Duration) (string, error)
}

// MediaDeleter runs the cascading delete.
type MediaDeleter interface {
	Delete(ctx context.Context, id uuid.UUID) (service.DeleteResult, error)
}

type MediaHandler struct {
	records        MediaStore
	uploads        Uploader
	tokens         CapabilitySigner
	deleter        MediaDeleter
	publicBaseURL  string
	fileTokenTTL   time.Duration
	maxUploadBytes int64
}

func NewMediaHandler(records MediaStore, uploads Uploader, tokens CapabilitySigner, deleter MediaDeleter, publicBaseURL string, fileTokenTTL time.Duration, maxUploadBytes int64) *MediaHandler {
	return &MediaHandler{
		records:        records,
		uploads:        uploads,
		tokens:         tokens,
		deleter:        deleter,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		fileTokenTTL:   fileTokenTTL,
		maxUploadBytes: maxUploadBytes,
	}
}

type UploadMediaResponse struct {
	ID         string `json:"id"`
	StorageKey string `json:"storageKey"`
}

// Upload forwards the multipart file to the storage peer and persists the
// metadata record. The record is only written once the peer reports the
// whole ingest succeeded, waveform included, so a record can never name a
// file whose mandatory artifact is missing.
func (h *MediaHandler) Upload(c echo.Context) error {
	projectID, err := uuid.Parse(c.FormValue(formFieldProjectID))
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidProjectID)
	}

	fileHeader, err := c.FormFile(formFieldFile)
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgNoFileProvided)
	}

	kind, ok := media.KindForName(fileHeader.Filename)
	if !ok {
		return respondError(c, http.StatusBadRequest, msgUnsupportedMedia)
	}

	// Fail fast on the declared size; the peer re-checks what it reads.
	if fileHeader.Size > h.maxUploadBytes {
		return respondError(c, http.StatusRequestEntityTooLarge, msgFileTooLarge)
	}

	title := strings.TrimSpace(c.FormValue(formFieldTitle))
	if title == "" {
		title = fileHeader.Filename
	}

	src, err := fileHeader.Open()
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgNoFileProvided)
	}
	defer src.Close()

	ctx := c.Request().Context()

	storageKey, err := h.uploads.Upload(ctx, fileHeader.Filename, src)
	if err != nil {
		c.Logger().Errorf("upload of %s failed: %v", fileHeader.Filename, err)
		return respondError(c, http.StatusInternalServerError, msgUploadFailed)
	}

	record, err := h.records.Create(ctx, media.CreateMediaInput{
		ProjectID:   projectID,
		Title:       title,
		Description: c.FormValue(formFieldDescription),
		StorageKey:  storageKey,
		Kind:        kind,
	})
	if err != nil {
		c.Logger().Errorf("record creation for %s failed, stored file orphaned: %v", storageKey, err)
		return respondError(c, http.StatusInternalServerError, msgCreateRecordFailed)
	}

	return c.JSON(http.StatusCreated, UploadMediaResponse{
		ID:         record.ID.String(),
		StorageKey: record.StorageKey,
	})
}

func (h *MediaHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidMediaID)
	}

	record, err := h.records.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, http.StatusNotFound, msgMediaNotFound)
		}
		return respondError(c, http.StatusInternalServerError, msgListMediaFailed)
	}

	return c.JSON(http.StatusOK, record)
}

func (h *MediaHandler) List(c echo.Context) error {
	projectID, err := uuid.Parse(c.QueryParam(queryParamProject))
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidProjectID)
	}

	records, err := h.records.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		c.Logger().Errorf("listing media for project %s failed: %v", projectID, err)
		return respondError(c, http.StatusInternalServerError, msgListMediaFailed)
	}
	if records == nil {
		records = []*media.Media{}
	}

	return c.JSON(http.StatusOK, records)
}

type FileURLsResponse struct {
	AudioURL    string `json:"audioUrl"`
	WaveformURL string `json:"waveformUrl"`
}

// GetFileURLs mints one capability scoped to the record's stored file and
// returns the two gateway URLs sharing it. The gateway decides which
// physical artifact the variant discriminator maps to.
func (h *MediaHandler) GetFileURLs(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidMediaID)
	}

	record, err := h.records.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, http.StatusNotFound, msgMediaNotFound)
		}
		return respondError(c, http.StatusInternalServerError, msgCapabilityIssueFail)
	}

	token, err := h.tokens.SignFileCapability(record.StorageKey, h.fileTokenTTL)
	if err != nil {
		c.Logger().Errorf("failed to sign capability for %s: %v", record.StorageKey, err)
		return respondError(c, http.StatusInternalServerError, msgCapabilityIssueFail)
	}

	return c.JSON(http.StatusOK, FileURLsResponse{
		AudioURL:    h.streamURL(token, mediaVariantAudio),
		WaveformURL: h.streamURL(token, mediaVariantWaveform),
	})
}

func (h *MediaHandler) streamURL(token, variant string) string {
	q := url.Values{}
	q.Set(queryParamToken, token)
	q.Set(queryParamMedia, variant)
	return h.publicBaseURL + streamPath + "?" + q.Encode()
}

type DeleteMediaResponse struct {
	Success bool `json:"success"`
	service.DeleteResult
}

// Delete runs the cascade. A storage-side failure is already absorbed by
// the coordinator; only metadata failures surface here.
func (h *MediaHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidMediaID)
	}

	result, err := h.deleter.Delete(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, http.StatusNotFound, msgMediaNotFound)
		}
		c.Logger().Errorf("delete of media %s failed: %v", id, err)
		return respondError(c, http.StatusInternalServerError, msgDeleteMediaFailed)
	}

	return c.JSON(http.StatusOK, DeleteMediaResponse{Success: true, DeleteResult: result})
}
