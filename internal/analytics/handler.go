package analytics

import (
	"log/slog"
	"net/http"

	"github.com/eleven-am/newsdesk/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  store,
		logger: logger.With("handler", "analytics"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.HandleGetAll)
	g.POST("/:metric", h.HandleIncrement)
}

type CountsResponse struct {
	Views     int64 `json:"views"`
	Shares    int64 `json:"shares"`
	Reactions int64 `json:"reactions"`
	Entries   int64 `json:"entries"`
}

type IncrementResponse struct {
	Metric string `json:"metric"`
	Count  int64  `json:"count"`
}

// HandleGetAll returns every engagement counter in one payload
// @Summary      All metrics
// @Tags         analytics
// @Produce      json
// @Success      200 {object} CountsResponse
// @Failure      500 {object} shared.APIError "Counter fetch failed"
// @Router       /v1/analytics [get]
func (h *Handler) HandleGetAll(c echo.Context) error {
	counts, err := h.store.GetAll(c.Request().Context())
	if err != nil {
		h.logger.Error("analytics fetch failed", "error", err)
		return shared.InternalError("analytics_failed", "Failed to fetch analytics metrics")
	}

	return c.JSON(http.StatusOK, CountsResponse{
		Views:     counts[MetricViews],
		Shares:    counts[MetricShares],
		Reactions: counts[MetricReactions],
		Entries:   counts[MetricEntries],
	})
}

// HandleIncrement bumps one engagement counter
// @Summary      Increment metric
// @Tags         analytics
// @Produce      json
// @Param        metric path string true "views, shares, reactions, or entries"
// @Success      200 {object} IncrementResponse
// @Failure      400 {object} shared.APIError "Unknown metric"
// @Failure      500 {object} shared.APIError "Counter update failed"
// @Router       /v1/analytics/{metric} [post]
func (h *Handler) HandleIncrement(c echo.Context) error {
	name := c.Param("metric")
	if !IsMetric(name) {
		return shared.BadRequest("invalid_metric", "Unknown metric")
	}

	count, err := h.store.Increment(c.Request().Context(), Metric(name))
	if err != nil {
		h.logger.Error("analytics increment failed", "error", err, "metric", name)
		return shared.InternalError("analytics_failed", "Failed to update metric")
	}

	return c.JSON(http.StatusOK, IncrementResponse{Metric: name, Count: count})
}
