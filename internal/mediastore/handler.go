package mediastore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"trackroom/internal/domain/media"
	apperrors "trackroom/pkg/errors"
)

const (
	formFieldFile = "file"

	headerAcceptRanges = "Accept-Ranges"
	acceptRangesBytes  = "bytes"

	msgNoFileProvided   = "no file provided"
	msgFileTooLarge     = "file exceeds the upload size limit"
	msgFileNotFound     = "file not found"
	msgFileNameRequired = "fileName is required"
	msgIngestFailed     = "failed to store file"
	msgDeleteFailed     = "failed to delete file"
)

// Handler exposes the storage service over HTTP: multipart ingest, raw
// fetch, and the peer delete endpoint the deletion coordinator calls.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type uploadResponse struct {
	StorageKey string `json:"storageKey"`
}

// Upload accepts one multipart file and returns the storage key it was
// persisted under.
func (h *Handler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile(formFieldFile)
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgNoFileProvided)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgNoFileProvided)
	}
	defer src.Close()

	key, err := h.service.Ingest(c.Request().Context(), src, fileHeader.Filename, fileHeader.Size)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrTooLarge):
			return respondError(c, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		default:
			c.Logger().Errorf("ingest of %s failed: %v", fileHeader.Filename, err)
			return respondError(c, http.StatusInternalServerError, msgIngestFailed)
		}
	}

	return c.JSON(http.StatusCreated, uploadResponse{StorageKey: key})
}

// Fetch streams a stored file. Any failure to open or read resolves to 404:
// from the caller's side a missing file and an unreadable one are the same.
func (h *Handler) Fetch(c echo.Context) error {
	name := c.Param("name")

	f, _, modTime, err := h.service.Open(name)
	if err != nil {
		return respondError(c, http.StatusNotFound, msgFileNotFound)
	}
	defer f.Close()

	contentType := media.ContentTypeFor(name)
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	if media.IsVideoContentType(contentType) {
		c.Response().Header().Set(headerAcceptRanges, acceptRangesBytes)
	}
	c.Response().Header().Set("ETag", fmt.Sprintf("%q", fmt.Sprintf("%s-%d", name, modTime.UnixNano())))

	// ServeContent handles Range requests, Content-Length and Last-Modified.
	http.ServeContent(c.Response(), c.Request(), name, modTime, f)
	return nil
}

type deleteRequest struct {
	FileName string `json:"fileName"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Deleted string `json:"deleted"`
}

// Delete removes a stored file and its waveform sibling. Only the original's
// removal decides the response; a failing sibling unlink is logged inside
// the service and swallowed.
func (h *Handler) Delete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil || req.FileName == "" {
		return respondError(c, http.StatusBadRequest, msgFileNameRequired)
	}

	if err := h.service.Remove(req.FileName); err != nil {
		c.Logger().Errorf("delete of %s failed: %v", req.FileName, err)
		return respondError(c, http.StatusNotFound, msgDeleteFailed)
	}

	return c.JSON(http.StatusOK, deleteResponse{Success: true, Deleted: req.FileName})
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}
