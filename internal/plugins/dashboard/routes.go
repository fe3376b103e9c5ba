package dashboard

import (
	"github.com/labstack/echo/v4"

	"github.com/kindmind/kindmind/internal/plugins/teacher"
)

// RegisterRoutes sets up the dashboard route behind the teacher unlock.
func RegisterRoutes(g *echo.Group, h *Handler, teacherService teacher.TeacherService) {
	g.GET("/teacher/dashboard", h.Overview, teacher.RequireTeacher(teacherService))
}
