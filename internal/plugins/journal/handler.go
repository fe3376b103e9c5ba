package journal

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kindmind/kindmind/internal/apperror"
	"github.com/kindmind/kindmind/internal/plugins/auth"
)

// Handler exposes the journal over HTTP.
type Handler struct {
	service JournalService
}

// NewHandler creates a journal handler.
func NewHandler(service JournalService) *Handler {
	return &Handler{service: service}
}

// Start begins a new conversation for the logged-in student.
func (h *Handler) Start(c echo.Context) error {
	session := auth.GetSession(c)
	if session == nil {
		return apperror.NewInvalidCredentials("authentication required")
	}

	resp, err := h.service.Start(c.Request().Context(), session.AccountID, session.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

// Message handles one student message in the active conversation.
func (h *Handler) Message(c echo.Context) error {
	accountID := auth.GetAccountID(c)
	if accountID == "" {
		return apperror.NewInvalidCredentials("authentication required")
	}

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	resp, err := h.service.Send(c.Request().Context(), accountID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// History returns the student's completed conversations.
func (h *Handler) History(c echo.Context) error {
	accountID := auth.GetAccountID(c)
	if accountID == "" {
		return apperror.NewInvalidCredentials("authentication required")
	}

	convs, err := h.service.History(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	if convs == nil {
		convs = []Conversation{}
	}
	return c.JSON(http.StatusOK, map[string]any{"conversations": convs})
}
