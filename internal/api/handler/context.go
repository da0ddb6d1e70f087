package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/api/metrics"
	"github.com/opsdeck/platform/internal/api/middleware"
	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// callerFromContext extracts the authenticated user injected by the Auth
// middleware. Its absence means the middleware did not run on this route;
// fail with 401 rather than proceeding with a nil identity.
func callerFromContext(c echo.Context) (*domain.User, error) {
	caller, _ := c.Get(middleware.CallerKey).(*domain.User)
	if caller == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return caller, nil
}

// authorize runs the gate for the caller on this request and records the
// decision metric. All mutating handlers go through here.
func authorize(c echo.Context, gate ports.AuthGate, action domain.Action, ref ports.TargetRef) (*ports.AuthorizedContext, error) {
	caller, err := callerFromContext(c)
	if err != nil {
		return nil, err
	}

	authCtx, err := gate.Authorize(c.Request().Context(), caller, action, ref)
	switch {
	case err == nil:
		metrics.AuthzDecisionsTotal.WithLabelValues(string(action), "allowed").Inc()
	default:
		if _, denied := domain.IsForbidden(err); denied {
			metrics.AuthzDecisionsTotal.WithLabelValues(string(action), "denied").Inc()
		} else {
			metrics.AuthzDecisionsTotal.WithLabelValues(string(action), "error").Inc()
		}
	}
	return authCtx, err
}
