package journal

import (
	"github.com/labstack/echo/v4"

	"github.com/kindmind/kindmind/internal/plugins/auth"
)

// RegisterRoutes sets up the journal routes. Everything requires a logged-in
// student session.
func RegisterRoutes(g *echo.Group, h *Handler, authService auth.AuthService) {
	jg := g.Group("/journal", auth.RequireAuth(authService))
	jg.POST("/start", h.Start)
	jg.POST("/message", h.Message)
	jg.GET("/history", h.History)
}
