package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"tripdesk/internal/repository"
)

const defaultAuditLimit = 50

// AuditHandler exposes the auth-event audit trail to authenticated admins.
type AuditHandler struct {
	events repository.AuthEventRepository
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(events repository.AuthEventRepository) *AuditHandler {
	return &AuditHandler{events: events}
}

// ListEvents godoc
// @Summary List recent auth events
// @Tags audit
// @Produce json
// @Param email query string false "Filter by actor email"
// @Param limit query int false "Max events to return"
// @Success 200 {array} model.AuthEvent
// @Failure 500 {object} errors.ErrorResponse
// @Router /audit/events [get]
func (h *AuditHandler) ListEvents(c echo.Context) error {
	limit := defaultAuditLimit
	if v := c.QueryParam("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	ctx := c.Request().Context()
	if email := c.QueryParam("email"); email != "" {
		events, err := h.events.ListByEmail(ctx, email, limit)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "could not list events")
		}
		return c.JSON(http.StatusOK, events)
	}

	events, err := h.events.ListRecent(ctx, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list events")
	}
	return c.JSON(http.StatusOK, events)
}
