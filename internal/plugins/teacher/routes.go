package teacher

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kindmind/kindmind/internal/middleware"
)

// RegisterRoutes sets up all teacher routes on the given group. Verify is
// public (it IS the authentication step) but rate-limited hard because the
// teacher credential is a single shared secret. Everything else requires a
// live unlock token.
func RegisterRoutes(g *echo.Group, h *Handler, service TeacherService) {
	g.POST("/teacher/verify", h.Verify, middleware.RateLimit(5, time.Minute))
	g.POST("/teacher/lock", h.Lock)

	unlocked := g.Group("/teacher", RequireTeacher(service))
	unlocked.POST("/password", h.ChangePassword)
	unlocked.POST("/students/reset-password", h.ResetStudent)
	unlocked.GET("/students", h.ListStudents)
	unlocked.PUT("/credential", h.SetCredential)
}
