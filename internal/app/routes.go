package app

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kindmind/kindmind/internal/plugins/auth"
	"github.com/kindmind/kindmind/internal/plugins/coach"
	"github.com/kindmind/kindmind/internal/plugins/dashboard"
	"github.com/kindmind/kindmind/internal/plugins/journal"
	"github.com/kindmind/kindmind/internal/plugins/teacher"
)

// RegisterRoutes constructs every plugin's repository, service, and handler
// and mounts them under /api/v1. This is the single place where all routes
// are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		if err := a.DB.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "down"})
		}
		if err := a.Redis.Ping(c.Request().Context()).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": "down"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	// auth plugin: student accounts and sessions.
	accountRepo := auth.NewAccountRepository(a.DB)
	authService := auth.NewAuthService(accountRepo, a.Redis, a.Config.Auth.SessionTTL, a.Config.Auth.DefaultStudentPassword)
	auth.RegisterRoutes(api, auth.NewHandler(authService), authService)

	// coach gateway: shared by journal and dashboard. The credential source
	// reads the teacher-managed key from settings with an env fallback.
	settingsRepo := teacher.NewSettingsRepository(a.DB)
	creds := teacher.NewCredentialSource(settingsRepo, a.Config.Coach.APIKey)
	gateway := coach.NewClient(a.Config.Coach, creds)

	// teacher plugin: shared-credential unlock, student admin, provider key.
	directory := teacher.NewStudentDirectoryAdapter(accountRepo, authService)
	teacherService := teacher.NewTeacherService(
		settingsRepo,
		directory,
		gateway,
		a.Redis,
		a.Config.Auth.TeacherTTL,
		a.Config.Auth.DefaultTeacherPassword,
	)
	teacher.RegisterRoutes(api, teacher.NewHandler(teacherService), teacherService)

	// journal plugin: the student conversation state machine.
	convRepo := journal.NewConversationRepository(a.DB)
	drafts := journal.NewDraftStore(a.Redis, a.Config.Coach.DraftTTL)
	journalService := journal.NewJournalService(convRepo, drafts, gateway, a.Config.Coach.MaxTurns, slog.Default())
	journal.RegisterRoutes(api, journal.NewHandler(journalService), authService)

	// dashboard plugin: class mood overview for the teacher.
	dashboardService := dashboard.NewDashboardService(convRepo, gateway, creds)
	dashboard.RegisterRoutes(api, dashboard.NewHandler(dashboardService), teacherService)
}
