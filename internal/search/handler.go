package search

import (
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
		logger:  logger.With("handler", "search"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.HandleSearch)
}

// HandleSearch runs an assistant search against the web or story history
// @Summary      Search
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request body Request true "Search request"
// @Success      200 {object} Response
// @Failure      400 {object} shared.APIError "Missing query or unknown search type"
// @Failure      500 {object} shared.APIError "Search failed"
// @Router       /v1/search [post]
func (h *Handler) HandleSearch(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "Invalid request body")
	}

	if strings.TrimSpace(req.Query) == "" {
		return shared.BadRequest("missing_query", "Query is required")
	}

	switch req.SearchType {
	case "", TypeWeb, TypeHistory:
	default:
		return shared.BadRequest("invalid_type", "search_type must be web or history")
	}

	result, err := h.service.Search(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("search failed", "error", err, "type", req.SearchType)
		return shared.InternalError("search_failed", "An error occurred while searching")
	}

	return c.JSON(http.StatusOK, result)
}
