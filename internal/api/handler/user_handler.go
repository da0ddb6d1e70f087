package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// UserHandler serves the admin-hub user management endpoints.
type UserHandler struct {
	users ports.UserService
	gate  ports.AuthGate
}

func NewUserHandler(users ports.UserService, gate ports.AuthGate) *UserHandler {
	return &UserHandler{users: users, gate: gate}
}

// List handles GET /admin/users.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      403  {object}  map[string]string
// @Router       /admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	if _, err := authorize(c, h.gate, domain.ActionAdminUserManagement, ports.TargetRef{}); err != nil {
		return err
	}

	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Update handles PATCH /admin/users/:id. The body is a raw field map; the
// user service projects it through the admin-user-management whitelist, so
// unknown or internal-only fields are dropped before they reach storage.
//
// @Summary      Update a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "User ID"
// @Param        body  body      map[string]any  true  "Field changes"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /admin/users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	id := c.Param("id")

	var fields map[string]any
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if _, err := authorize(c, h.gate, domain.ActionAdminUserManagement, ports.TargetRef{}); err != nil {
		return err
	}

	user, err := h.users.UpdateUser(c.Request().Context(), id, fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
