package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// ActivityHandler exposes the audit log to admin-hub users.
type ActivityHandler struct {
	log  ports.ActivityLog
	gate ports.AuthGate
}

func NewActivityHandler(log ports.ActivityLog, gate ports.AuthGate) *ActivityHandler {
	return &ActivityHandler{log: log, gate: gate}
}

// List handles GET /admin/activity.
//
// @Summary      List activity log entries
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.ActivityEntry
// @Failure      403  {object}  map[string]string
// @Router       /admin/activity [get]
func (h *ActivityHandler) List(c echo.Context) error {
	if _, err := authorize(c, h.gate, domain.ActionViewActivity, ports.TargetRef{}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.log.Snapshot())
}
