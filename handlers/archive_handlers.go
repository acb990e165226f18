package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"indisense/sentiment-gateway/internal/archive"
	"indisense/sentiment-gateway/internal/capture"
	"indisense/sentiment-gateway/internal/worker"
	"indisense/sentiment-gateway/models"
	"indisense/sentiment-gateway/utils"
)

// ArchiveAcceptedResponse is returned once an upload is queued.
type ArchiveAcceptedResponse struct {
	Status string             `json:"status"`
	Upload models.MediaUpload `json:"upload"`
}

// ArchiveListResponse lists a caller's uploads.
type ArchiveListResponse struct {
	Status  string               `json:"status"`
	Uploads []models.MediaUpload `json:"uploads"`
}

// ArchiveMedia godoc
// @Summary Archive a media file
// @Description Queues the uploaded file for storage under the caller's account. Independent of analysis.
// @Tags media
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   file formData file true "Media file"
// @Success 202 {object} ArchiveAcceptedResponse "Upload queued"
// @Failure 400 {object} models.ErrorResponse "Missing or empty file"
// @Failure 401 {object} models.ErrorResponse "Missing or rejected token"
// @Failure 503 {object} models.ErrorResponse "Archive unavailable or busy"
// @Router /media [post]
func (h *ApplicationHandler) ArchiveMedia(c *fiber.Ctx) error {
	if h.Archiver == nil {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Media archive not configured")
	}
	token := utils.BearerToken(c)
	if token == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "Missing bearer token")
	}

	file, err := c.FormFile("file")
	if err != nil {
		h.Logger.Errorf("Error getting file from request: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, "A multipart field named 'file' is required")
	}
	fileHandle, err := file.Open()
	if err != nil {
		h.Logger.Errorf("Error opening file: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error opening file")
	}
	defer fileHandle.Close()

	data, err := io.ReadAll(fileHandle)
	if err != nil {
		h.Logger.Errorf("Error reading file content: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error reading file")
	}

	mimeType := file.Header.Get(fiber.HeaderContentType)
	if mimeType == "" || mimeType == fiber.MIMEOctetStream {
		mimeType = capture.DetectMIMEType(file.Filename, data)
	}

	upload, err := h.Archiver.Archive(c.UserContext(), token, archive.Upload{
		FileName: file.Filename,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		return h.respondArchiveFailure(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(ArchiveAcceptedResponse{Status: "accepted", Upload: *upload})
}

// ListMedia godoc
// @Summary List archived media
// @Description Returns the caller's archived uploads, newest first.
// @Tags media
// @Produce  json
// @Security BearerAuth
// @Param   limit query int false "Maximum number of uploads (default 50)"
// @Success 200 {object} ArchiveListResponse "Uploads"
// @Failure 401 {object} models.ErrorResponse "Missing or rejected token"
// @Failure 503 {object} models.ErrorResponse "Archive unavailable"
// @Router /media [get]
func (h *ApplicationHandler) ListMedia(c *fiber.Ctx) error {
	if h.Archiver == nil {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Media archive not configured")
	}
	token := utils.BearerToken(c)
	if token == "" {
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "Missing bearer token")
	}
	uploads, err := h.Archiver.List(c.UserContext(), token, c.QueryInt("limit", 0))
	if err != nil {
		return h.respondArchiveFailure(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(ArchiveListResponse{Status: "success", Uploads: uploads})
}

func (h *ApplicationHandler) respondArchiveFailure(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, archive.ErrUnauthorized):
		return utils.RespondWithError(c, fiber.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, archive.ErrEmptyUpload):
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Uploaded file is empty")
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrStopped):
		h.Logger.WithError(err).Warn("Archive queue unavailable")
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Archive is busy, please retry shortly")
	}
	h.Logger.WithError(err).Error("Archive request failed")
	return utils.RespondWithError(c, fiber.StatusInternalServerError, msgInternal)
}
