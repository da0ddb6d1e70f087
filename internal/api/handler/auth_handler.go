package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

type AuthHandler struct {
	users ports.UserService
	gate  ports.AuthGate
}

func NewAuthHandler(users ports.UserService, gate ports.AuthGate) *AuthHandler {
	return &AuthHandler{users: users, gate: gate}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token              string       `json:"token"`
	User               *domain.User `json:"user"`
	MustChangePassword bool         `json:"must_change_password"`
}

type registerRequest struct {
	Name              string          `json:"name" validate:"required"`
	Email             string          `json:"email" validate:"required,email"`
	Password          string          `json:"password" validate:"required,min=8"`
	Role              string          `json:"role" validate:"required"`
	Flags             map[string]bool `json:"flags"`
	AssignedClientIDs []string        `json:"assigned_client_ids"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Token:              token,
		User:               user,
		MustChangePassword: user.MustChangePassword,
	})
}

// Register creates a new user account. Admin-hub access required.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	if _, err := authorize(c, h.gate, domain.ActionAdminUserManagement, ports.TargetRef{}); err != nil {
		return err
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	flags := make(map[domain.Capability]bool, len(req.Flags))
	for name, v := range req.Flags {
		flags[domain.Capability(name)] = v
	}

	user, err := h.users.Register(c.Request().Context(), ports.RegisterUserInput{
		Name:              req.Name,
		Email:             req.Email,
		Password:          req.Password,
		Role:              domain.Role(req.Role),
		Flags:             flags,
		AssignedClientIDs: req.AssignedClientIDs,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// ChangePassword updates the caller's own password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Passwords"
// @Success      204   "password changed"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.ChangePassword(c.Request().Context(), caller.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
