package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kindmind/kindmind/internal/apperror"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "kindmind_session"

// sessionCookieMaxAge bounds the cookie lifetime; the authoritative expiry
// is the Redis TTL.
const sessionCookieMaxAge = 30 * 24 * 60 * 60 // 30 days in seconds

// Handler handles HTTP requests for authentication (register, login, logout).
// Handlers are thin: they bind the request, call the service, and write the
// JSON response. No business logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Register processes a signup (POST /api/v1/auth/register) and logs the new
// student straight in.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if msg := validateRegisterRequest(&req); msg != "" {
		return apperror.NewValidation(msg)
	}

	account, err := h.service.Register(c.Request().Context(), RegisterInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	// Auto-login after successful signup.
	token, _, err := h.service.Login(c.Request().Context(), LoginInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		// Signup succeeded but auto-login failed -- the client can log in
		// manually.
		return c.JSON(http.StatusCreated, account)
	}

	setSessionCookie(c, token)
	return c.JSON(http.StatusCreated, account)
}

// Login processes a login (POST /api/v1/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	token, account, err := h.service.Login(c.Request().Context(), LoginInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	setSessionCookie(c, token)
	return c.JSON(http.StatusOK, account)
}

// Logout destroys the session and clears the cookie (POST /api/v1/auth/logout).
// Idempotent: succeeds whether or not a session exists.
func (h *Handler) Logout(c echo.Context) error {
	if token := getSessionToken(c); token != "" {
		// Destroy the session in Redis. Ignore errors -- the cookie is
		// cleared regardless.
		_ = h.service.DestroySession(c.Request().Context(), token)
	}

	clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the current session's account info (GET /api/v1/auth/me).
// Registered behind RequireAuth, so the session is always present.
func (h *Handler) Me(c echo.Context) error {
	session := GetSession(c)
	if session == nil {
		return apperror.NewInvalidCredentials("not logged in")
	}
	return c.JSON(http.StatusOK, session)
}

// --- Cookie helpers ---

// getSessionToken reads the session token from the cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure if behind TLS, and SameSite=Lax.
func setSessionCookie(c echo.Context, token string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionCookieMaxAge,
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// --- Validation helpers ---

// validateRegisterRequest performs basic server-side validation on the
// signup payload. Returns an error message or empty string.
func validateRegisterRequest(req *RegisterRequest) string {
	if req.Name == "" {
		return "name is required"
	}
	if len(req.Name) < 2 {
		return "name must be at least 2 characters"
	}
	if len(req.Name) > 100 {
		return "name must be at most 100 characters"
	}
	if req.Password == "" {
		return "password is required"
	}
	if len(req.Password) < 8 {
		return "password must be at least 8 characters"
	}
	if len(req.Password) > 128 {
		return "password must be at most 128 characters"
	}
	return ""
}
