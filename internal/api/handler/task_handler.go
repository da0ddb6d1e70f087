package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

type TaskHandler struct {
	tasks ports.TaskService
	gate  ports.AuthGate
}

func NewTaskHandler(tasks ports.TaskService, gate ports.AuthGate) *TaskHandler {
	return &TaskHandler{tasks: tasks, gate: gate}
}

type addTaskRequest struct {
	Title        string           `json:"title" validate:"required"`
	Description  string           `json:"description"`
	Phase        string           `json:"phase"`
	DependsOn    []string         `json:"depends_on"`
	ShowToClient bool             `json:"show_to_client"`
	Subtasks     []subtaskRequest `json:"subtasks"`
}

type subtaskRequest struct {
	Title    string `json:"title" validate:"required"`
	Required bool   `json:"required"`
	// ShowToClient inherits the parent task's value when omitted.
	ShowToClient *bool `json:"show_to_client"`
}

// bulkUpdateRequest carries raw per-task field maps; the task service
// projects each through the write-task whitelist before anything persists.
type bulkUpdateRequest struct {
	Tasks []struct {
		ID     string         `json:"id" validate:"required"`
		Fields map[string]any `json:"fields"`
	} `json:"tasks" validate:"required,min=1"`
}

type bulkDeleteRequest struct {
	TaskIDs []string `json:"task_ids" validate:"required,min=1"`
}

type bulkResponse struct {
	Results []ports.ItemResult `json:"results"`
}

// Add handles POST /projects/:id/tasks.
//
// @Summary      Add a task to a project
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Project ID"
// @Param        body  body      addTaskRequest  true  "Task details"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /projects/{id}/tasks [post]
func (h *TaskHandler) Add(c echo.Context) error {
	projectID := c.Param("id")

	var req addTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionWriteTask, ports.TargetRef{Kind: domain.KindProject, ID: projectID}); err != nil {
		return err
	}

	input := ports.NewTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Phase:        req.Phase,
		DependsOn:    req.DependsOn,
		ShowToClient: req.ShowToClient,
	}
	for _, st := range req.Subtasks {
		input.Subtasks = append(input.Subtasks, ports.NewSubtaskInput{
			Title:        st.Title,
			Required:     st.Required,
			ShowToClient: st.ShowToClient,
		})
	}

	task, err := h.tasks.Add(c.Request().Context(), projectID, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// BulkUpdate handles PATCH /projects/:id/tasks. Partial success is the
// contract: the response is HTTP 200 with per-item outcomes even when some
// tasks were skipped.
//
// @Summary      Bulk-update tasks
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Project ID"
// @Param        body  body      bulkUpdateRequest  true  "Per-task patches"
// @Success      200   {object}  bulkResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /projects/{id}/tasks [patch]
func (h *TaskHandler) BulkUpdate(c echo.Context) error {
	projectID := c.Param("id")

	var req bulkUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionWriteTask, ports.TargetRef{Kind: domain.KindProject, ID: projectID}); err != nil {
		return err
	}

	patches := make([]ports.TaskPatch, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		patches = append(patches, ports.TaskPatch{TaskID: t.ID, Fields: t.Fields})
	}

	results, err := h.tasks.BulkUpdate(c.Request().Context(), projectID, patches)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bulkResponse{Results: results})
}

// Delete handles DELETE /projects/:id/tasks/:taskID.
//
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Param        id      path  string  true  "Project ID"
// @Param        taskID  path  string  true  "Task ID"
// @Success      204     "task deleted"
// @Failure      403     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /projects/{id}/tasks/{taskID} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	projectID := c.Param("id")
	taskID := c.Param("taskID")

	if _, err := authorize(c, h.gate, domain.ActionDeleteTask, ports.TargetRef{Kind: domain.KindProject, ID: projectID}); err != nil {
		return err
	}

	if err := h.tasks.Delete(c.Request().Context(), projectID, taskID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkDelete handles POST /projects/:id/tasks/delete with the same per-item
// contract as BulkUpdate.
//
// @Summary      Bulk-delete tasks
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Project ID"
// @Param        body  body      bulkDeleteRequest  true  "Task IDs"
// @Success      200   {object}  bulkResponse
// @Failure      403   {object}  map[string]string
// @Router       /projects/{id}/tasks/delete [post]
func (h *TaskHandler) BulkDelete(c echo.Context) error {
	projectID := c.Param("id")

	var req bulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := authorize(c, h.gate, domain.ActionDeleteTask, ports.TargetRef{Kind: domain.KindProject, ID: projectID}); err != nil {
		return err
	}

	results, err := h.tasks.BulkDelete(c.Request().Context(), projectID, req.TaskIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bulkResponse{Results: results})
}
