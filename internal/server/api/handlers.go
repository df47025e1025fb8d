// Package api is the HTTP side of the upload sink.
//
// POST /upload requires a signed upload token. The /objects routes only
// check the shape and validity window of the SigV4 credentials they are
// given, not the signature, so they are an unauthenticated development
// endpoint: anyone who can reach the sink can write or delete any key.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/dmitrijs2005/filepicker/internal/common"
	"github.com/dmitrijs2005/filepicker/internal/logging"
	"github.com/dmitrijs2005/filepicker/internal/server/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UploadResponse is the JSON body returned for a stored file.
type UploadResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MediaType string `json:"media_type"`
}

// Handler contains the HTTP handlers of the sink.
type Handler struct {
	store  storage.Store
	logger logging.Logger
}

func NewHandler(store storage.Store, logger logging.Logger) *Handler {
	return &Handler{store: store, logger: logger.With("module", "http_api")}
}

// HandleUpload handles POST /upload.
// Accepts a multipart form with a "file" field. The bearer token names the
// file ID the upload is stored under, and the X-Content-Blake2b header must
// match the digest of the received bytes.
func (h *Handler) HandleUpload(c echo.Context) error {
	ctx := c.Request().Context()

	fileID, _ := c.Get(fileIDKey).(string)
	if _, err := uuid.Parse(fileID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token subject is not a file id"})
	}
	if id := c.FormValue("id"); id != "" && id != fileID {
		return mapServiceError(c, fmt.Errorf("form id %q: %w", id, common.ErrUnauthorized))
	}

	fingerprint := strings.ToLower(c.Request().Header.Get(common.FingerprintHeaderName))
	if fingerprint == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": common.FingerprintHeaderName + " header is required",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "file is required (use form field 'file')",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to read uploaded file",
		})
	}
	defer src.Close()

	saved, err := h.store.Save(fileID, src)
	if err != nil {
		h.logger.Error(ctx, "failed to store upload", "file_id", fileID, "error", err)
		return mapServiceError(c, err)
	}

	if saved.Fingerprint != fingerprint {
		if err := h.store.Delete(fileID); err != nil {
			h.logger.Error(ctx, "failed to drop corrupt upload", "file_id", fileID, "error", err)
		}
		h.logger.Warn(ctx, "fingerprint mismatch", "file_id", fileID, "want", fingerprint, "got", saved.Fingerprint)
		return mapServiceError(c, common.ErrFingerprintMismatch)
	}

	resp := UploadResponse{
		ID:        fileID,
		Name:      fileHeader.Filename,
		Size:      saved.Size,
		MediaType: h.mediaType(fileID, fileHeader.Header.Get(echo.HeaderContentType)),
	}

	h.logger.Info(ctx, "file received", "file_id", fileID, "name", resp.Name, "size", resp.Size)
	return c.JSON(http.StatusCreated, resp)
}

// HandlePutObject handles PUT /objects/*, the target of presigned uploads.
// The request body is stored as is under the wildcard path.
func (h *Handler) HandlePutObject(c echo.Context) error {
	ctx := c.Request().Context()
	key := c.Param("*")

	saved, err := h.store.Save(key, c.Request().Body)
	if err != nil {
		h.logger.Error(ctx, "failed to store object", "key", key, "error", err)
		return mapServiceError(c, err)
	}

	resp := UploadResponse{
		ID:        key,
		Name:      path.Base(key),
		Size:      saved.Size,
		MediaType: h.mediaType(key, c.Request().Header.Get(echo.HeaderContentType)),
	}

	h.logger.Info(ctx, "object received", "key", key, "size", resp.Size)
	return c.JSON(http.StatusOK, resp)
}

// HandleDeleteObject handles DELETE /objects/*.
func (h *Handler) HandleDeleteObject(c echo.Context) error {
	key := c.Param("*")
	if err := h.store.Delete(key); err != nil {
		return mapServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "healthy"})
}

// mediaType trusts a specific declared type and sniffs the stored bytes
// otherwise.
func (h *Handler) mediaType(key, declared string) string {
	if declared != "" && declared != echo.MIMEOctetStream {
		return declared
	}
	p, err := h.store.GetPath(key)
	if err != nil {
		return echo.MIMEOctetStream
	}
	mt, err := mimetype.DetectFile(p)
	if err != nil {
		return echo.MIMEOctetStream
	}
	return mt.String()
}

// mapServiceError translates storage and auth errors into HTTP responses.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "object not found"})
	case errors.Is(err, storage.ErrInvalidKey):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid object key"})
	case errors.Is(err, common.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "token was issued for another file"})
	case errors.Is(err, common.ErrFingerprintMismatch):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "fingerprint mismatch"})
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{
				"error": "file exceeds maximum allowed size",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
