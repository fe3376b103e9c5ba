package teacher

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireTeacher returns middleware that validates the teacher unlock
// cookie. Every teacher operation past verify sits behind this check, so
// the authorization decision is made at the module boundary rather than
// trusting UI gating.
func RequireTeacher(service TeacherService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getUnlockToken(c)
			if token == "" {
				return lockedOut(c)
			}

			if _, err := service.ValidateUnlock(c.Request().Context(), token); err != nil {
				clearUnlockCookie(c)
				return lockedOut(c)
			}

			return next(c)
		}
	}
}

// lockedOut writes the 401 response for missing/expired teacher unlocks.
func lockedOut(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error":   "unauthorized",
		"message": "teacher access required",
	})
}
