package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// WebhookHandler receives inbound collaborator callbacks (CRM, document
// store). Callbacks authenticate with the shared webhook secret, not with
// user bearer tokens.
type WebhookHandler struct {
	secret string
	logger zerolog.Logger
}

func NewWebhookHandler(secret string, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{secret: secret, logger: logger}
}

type webhookPayload struct {
	Event    string         `json:"event"`
	EntityID string         `json:"entity_id"`
	Data     map[string]any `json:"data"`
}

// CRM handles POST /webhooks/crm.
//
// @Summary      Receive a CRM callback
// @Tags         webhooks
// @Accept       json
// @Success      202  "accepted"
// @Failure      401  {object}  map[string]string
// @Router       /webhooks/crm [post]
func (h *WebhookHandler) CRM(c echo.Context) error {
	// An unset secret rejects everything: no silent insecure default.
	provided := c.Request().Header.Get("X-Webhook-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook secret")
	}

	var payload webhookPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	h.logger.Info().
		Str("event", payload.Event).
		Str("entity_id", payload.EntityID).
		Msg("crm callback received")
	return c.NoContent(http.StatusAccepted)
}
