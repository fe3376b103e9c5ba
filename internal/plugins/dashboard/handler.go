package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the dashboard over HTTP.
type Handler struct {
	service DashboardService
}

// NewHandler creates a dashboard handler.
func NewHandler(service DashboardService) *Handler {
	return &Handler{service: service}
}

// Overview returns the class mood overview.
func (h *Handler) Overview(c echo.Context) error {
	overview, err := h.service.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, overview)
}
