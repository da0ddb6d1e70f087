package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

type ClientHandler struct {
	clients ports.ClientService
	gate    ports.AuthGate
}

func NewClientHandler(clients ports.ClientService, gate ports.AuthGate) *ClientHandler {
	return &ClientHandler{clients: clients, gate: gate}
}

type createClientRequest struct {
	PracticeName string `json:"practice_name" validate:"required"`
	Slug         string `json:"slug" validate:"required"`
}

// Create handles POST /clients.
//
// @Summary      Create a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        body  body      createClientRequest  true  "Client details"
// @Success      201   {object}  domain.Client
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /clients [post]
func (h *ClientHandler) Create(c echo.Context) error {
	var req createClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionAdminUserManagement, ports.TargetRef{}); err != nil {
		return err
	}

	client, err := h.clients.Create(c.Request().Context(), req.PracticeName, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, client)
}

// Rename handles PUT /clients/:id/slug.
//
// @Summary      Rename a client slug
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Client ID"
// @Param        body  body      renameRequest  true  "New slug"
// @Success      200   {object}  domain.Client
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /clients/{id}/slug [put]
func (h *ClientHandler) Rename(c echo.Context) error {
	id := c.Param("id")

	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionRenameClient, ports.TargetRef{Kind: domain.KindClient, ID: id}); err != nil {
		return err
	}

	client, err := h.clients.Rename(c.Request().Context(), id, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, client)
}

// List handles GET /clients.
//
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Success      200  {array}   domain.Client
// @Failure      403  {object}  map[string]string
// @Router       /clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	if _, err := authorize(c, h.gate, domain.ActionAdminUserManagement, ports.TargetRef{}); err != nil {
		return err
	}

	clients, err := h.clients.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, clients)
}
