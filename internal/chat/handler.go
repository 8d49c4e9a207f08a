package chat

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/eleven-am/newsdesk/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger.With("handler", "chat"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.HandleChat)
}

// HandleChat answers one turn of the news assistant conversation
// @Summary      Chat
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request body Request true "Message and prior conversation"
// @Success      200 {object} Response
// @Failure      400 {object} shared.APIError "Missing message"
// @Failure      500 {object} shared.APIError "Assistant unavailable"
// @Router       /v1/chat [post]
func (h *Handler) HandleChat(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "Invalid request body")
	}

	if strings.TrimSpace(req.Message) == "" {
		return shared.BadRequest("missing_message", "Message is required")
	}

	msg, err := h.service.Reply(c.Request().Context(), req.Message, req.Conversation)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return shared.InternalError("not_configured", "Chat API key not configured")
		}
		h.logger.Error("chat reply failed", "error", err)
		return shared.InternalError("chat_failed", "Failed to get response from news search service")
	}

	return c.JSON(http.StatusOK, Response{Message: *msg})
}
