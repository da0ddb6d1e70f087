package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/api/metrics"
	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
	"github.com/opsdeck/platform/internal/infrastructure/upload"
)

// maxUploadBytes caps a single upload body.
const maxUploadBytes = 32 << 20

// UploadHandler receives project file uploads behind the concurrency
// limiter: at most five uploads are processed at once, the rest get a
// retryable 503 instead of queueing unboundedly in memory.
type UploadHandler struct {
	projects ports.ProjectService
	gate     ports.AuthGate
	limiter  *upload.Limiter
}

func NewUploadHandler(projects ports.ProjectService, gate ports.AuthGate, limiter *upload.Limiter) *UploadHandler {
	return &UploadHandler{projects: projects, gate: gate, limiter: limiter}
}

// Upload handles POST /projects/:id/uploads.
//
// @Summary      Upload a file attachment
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Project ID"
// @Param        file  formData  file    true  "File"
// @Success      201   {object}  domain.Attachment
// @Failure      403   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /projects/{id}/uploads [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	projectID := c.Param("id")

	authCtx, err := authorize(c, h.gate, domain.ActionUploadFile, ports.TargetRef{Kind: domain.KindProject, ID: projectID})
	if err != nil {
		return err
	}

	release, err := h.limiter.Acquire(c.Request().Context())
	if err != nil {
		if errors.Is(err, domain.ErrRetryable) {
			metrics.UploadsRejectedTotal.Inc()
		}
		return err
	}
	defer release()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	// Drain the body under the size cap. Storage backends are external to
	// this core; the attachment record carries the storage key.
	n, err := io.Copy(io.Discard, io.LimitReader(src, maxUploadBytes))
	if err != nil {
		return err
	}
	if n == maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	att := domain.Attachment{
		ID:         uuid.NewString(),
		FileName:   fileHeader.Filename,
		StorageKey: "uploads/" + projectID + "/" + uuid.NewString(),
		UploadedBy: authCtx.Caller.ID,
		UploadedAt: time.Now().UTC(),
	}

	if _, err := h.projects.AttachFile(c.Request().Context(), projectID, att); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, att)
}
