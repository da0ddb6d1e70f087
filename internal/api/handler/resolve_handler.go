package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/opsdeck/platform/internal/api/metrics"
	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// ResolveHandler serves the slug-based portal routes. A current-slug hit
// serves directly; a historical slug answers with a temporary redirect to the
// canonical URL. Never a permanent redirect: browsers would cache it across
// the next rename.
type ResolveHandler struct {
	resolver ports.SlugResolver
	gate     ports.AuthGate
}

func NewResolveHandler(resolver ports.SlugResolver, gate ports.AuthGate) *ResolveHandler {
	return &ResolveHandler{resolver: resolver, gate: gate}
}

// Project resolves GET /p/:slug.
//
// @Summary      Resolve a project slug
// @Tags         resolve
// @Produce      json
// @Param        slug  path      string  true  "Project slug"
// @Success      200   {object}  domain.Project
// @Success      302   "redirect to current slug"
// @Failure      404   {object}  map[string]string
// @Router       /p/{slug} [get]
func (h *ResolveHandler) Project(c echo.Context) error {
	return h.resolve(c, domain.KindProject, "/p/")
}

// Client resolves GET /c/:slug.
//
// @Summary      Resolve a client slug
// @Tags         resolve
// @Produce      json
// @Param        slug  path      string  true  "Client slug"
// @Success      200   {object}  domain.Client
// @Success      302   "redirect to current slug"
// @Failure      404   {object}  map[string]string
// @Router       /c/{slug} [get]
func (h *ResolveHandler) Client(c echo.Context) error {
	return h.resolve(c, domain.KindClient, "/c/")
}

func (h *ResolveHandler) resolve(c echo.Context, kind domain.EntityKind, prefix string) error {
	slug := c.Param("slug")

	res, err := h.resolver.Resolve(c.Request().Context(), kind, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.SlugResolutionsTotal.WithLabelValues(string(kind), "miss").Inc()
		}
		return err
	}

	if res.Redirect {
		metrics.SlugResolutionsTotal.WithLabelValues(string(kind), "redirect").Inc()
		return c.Redirect(http.StatusFound, prefix+res.Entity.GetSlug())
	}
	metrics.SlugResolutionsTotal.WithLabelValues(string(kind), "current").Inc()

	if _, err := authorize(c, h.gate, domain.ActionReadProject, ports.TargetRef{Kind: kind, ID: res.Entity.GetID()}); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res.Entity)
}
