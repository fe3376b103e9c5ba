package teacher

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kindmind/kindmind/internal/apperror"
)

// unlockCookieName is the HTTP cookie used to store the teacher unlock token.
const unlockCookieName = "kindmind_teacher"

// Handler handles HTTP requests for teacher operations. Handlers are thin:
// bind, call the service, write JSON.
type Handler struct {
	service TeacherService
}

// NewHandler creates a new teacher handler with the given service.
func NewHandler(service TeacherService) *Handler {
	return &Handler{service: service}
}

// Verify unlocks teacher access (POST /api/v1/teacher/verify).
func (h *Handler) Verify(c echo.Context) error {
	var req VerifyRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	token, err := h.service.VerifyAccess(c.Request().Context(), req.Password)
	if err != nil {
		return err
	}

	setUnlockCookie(c, token)
	return c.JSON(http.StatusOK, map[string]bool{"unlocked": true})
}

// Lock discards teacher access (POST /api/v1/teacher/lock). Idempotent.
func (h *Handler) Lock(c echo.Context) error {
	if token := getUnlockToken(c); token != "" {
		_ = h.service.DestroyUnlock(c.Request().Context(), token)
	}
	clearUnlockCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// ChangePassword rotates the shared teacher credential
// (POST /api/v1/teacher/password).
func (h *Handler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if err := h.service.ChangePassword(c.Request().Context(), req.Old, req.New); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetStudent resets a student's password to the default
// (POST /api/v1/teacher/students/reset-password). Responds 204 whether or
// not the name matched, so the endpoint does not confirm which students
// exist.
func (h *Handler) ResetStudent(c echo.Context) error {
	var req ResetStudentRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Name == "" {
		return apperror.NewValidation("name is required")
	}

	if err := h.service.ResetStudentPassword(c.Request().Context(), req.Name); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListStudents returns the roster (GET /api/v1/teacher/students).
func (h *Handler) ListStudents(c echo.Context) error {
	students, err := h.service.ListStudents(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"students": students})
}

// SetCredential validates and stores the provider API key
// (PUT /api/v1/teacher/credential). The key is never echoed back.
func (h *Handler) SetCredential(c echo.Context) error {
	var req CredentialRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if err := h.service.SetProviderKey(c.Request().Context(), req.APIKey); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Cookie helpers ---

// getUnlockToken reads the unlock token from the cookie.
func getUnlockToken(c echo.Context) string {
	cookie, err := c.Cookie(unlockCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setUnlockCookie sets the unlock cookie. Session-scoped (no MaxAge): the
// unlock does not outlive the browser, mirroring its short Redis TTL.
func setUnlockCookie(c echo.Context, token string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     unlockCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}

// clearUnlockCookie removes the unlock cookie by setting MaxAge to -1.
func clearUnlockCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     unlockCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
