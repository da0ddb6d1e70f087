package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

type ProjectHandler struct {
	projects ports.ProjectService
	gate     ports.AuthGate
}

func NewProjectHandler(projects ports.ProjectService, gate ports.AuthGate) *ProjectHandler {
	return &ProjectHandler{projects: projects, gate: gate}
}

type createProjectRequest struct {
	Name      string `json:"name" validate:"required"`
	Slug      string `json:"slug" validate:"required"`
	ClientID  string `json:"client_id" validate:"required"`
	UUIDTasks bool   `json:"uuid_tasks"`
}

type cloneProjectRequest struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}

type renameRequest struct {
	Slug string `json:"slug" validate:"required"`
}

type accessLevelRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Level  string `json:"level" validate:"required,oneof=none read write admin"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused completed"`
}

// Create handles POST /projects.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        body  body      createProjectRequest  true  "Project details"
// @Success      201   {object}  domain.Project
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionCreateProject, ports.TargetRef{Kind: domain.KindClient, ID: req.ClientID}); err != nil {
		return err
	}

	project, err := h.projects.Create(c.Request().Context(), ports.CreateProjectInput{
		Name:      req.Name,
		Slug:      req.Slug,
		ClientID:  req.ClientID,
		UUIDTasks: req.UUIDTasks,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, project)
}

// Clone handles POST /projects/:id/clone.
//
// @Summary      Clone a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "Source project ID"
// @Param        body  body      cloneProjectRequest  true  "Clone details"
// @Success      201   {object}  domain.Project
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /projects/{id}/clone [post]
func (h *ProjectHandler) Clone(c echo.Context) error {
	id := c.Param("id")

	var req cloneProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionCloneProject, ports.TargetRef{Kind: domain.KindProject, ID: id}); err != nil {
		return err
	}

	clone, err := h.projects.Clone(c.Request().Context(), id, req.Name, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, clone)
}

// Rename handles PUT /projects/:id/slug.
//
// @Summary      Rename a project slug
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Project ID"
// @Param        body  body      renameRequest  true  "New slug"
// @Success      200   {object}  domain.Project
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /projects/{id}/slug [put]
func (h *ProjectHandler) Rename(c echo.Context) error {
	id := c.Param("id")

	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionRenameProject, ports.TargetRef{Kind: domain.KindProject, ID: id}); err != nil {
		return err
	}

	project, err := h.projects.Rename(c.Request().Context(), id, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// SetAccess handles PUT /projects/:id/access.
//
// @Summary      Grant or revoke a user's project access level
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Project ID"
// @Param        body  body      accessLevelRequest  true  "Access grant"
// @Success      200   {object}  domain.Project
// @Failure      403   {object}  map[string]string
// @Router       /projects/{id}/access [put]
func (h *ProjectHandler) SetAccess(c echo.Context) error {
	id := c.Param("id")

	var req accessLevelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionAdminUserManagement, ports.TargetRef{Kind: domain.KindProject, ID: id}); err != nil {
		return err
	}

	project, err := h.projects.SetAccessLevel(c.Request().Context(), id, req.UserID, domain.AccessLevel(req.Level))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// SetStatus handles PUT /projects/:id/status.
//
// @Summary      Change project status
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Project ID"
// @Param        body  body      statusRequest  true  "New status"
// @Success      200   {object}  domain.Project
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /projects/{id}/status [put]
func (h *ProjectHandler) SetStatus(c echo.Context) error {
	id := c.Param("id")

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionWriteTask, ports.TargetRef{Kind: domain.KindProject, ID: id}); err != nil {
		return err
	}

	project, err := h.projects.SetStatus(c.Request().Context(), id, domain.ProjectStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// Get handles GET /projects/:id.
//
// @Summary      Fetch a project
// @Tags         projects
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  domain.Project
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	id := c.Param("id")

	authCtx, err := authorize(c, h.gate, domain.ActionReadProject, ports.TargetRef{Kind: domain.KindProject, ID: id})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authCtx.Project)
}
