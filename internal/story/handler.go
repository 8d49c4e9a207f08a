package story

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eleven-am/newsdesk/internal/shared"
	"github.com/labstack/echo/v4"
)

// Indexer receives story lifecycle events so history search stays in sync
// with the feed. Indexing failures never fail the request that caused them.
type Indexer interface {
	IndexStory(ctx context.Context, st Story) error
	RemoveStory(ctx context.Context, id string) error
}

type Handler struct {
	store   *Store
	indexer Indexer
	logger  *slog.Logger
}

func NewHandler(store *Store, indexer Indexer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:   store,
		indexer: indexer,
		logger:  logger.With("handler", "story"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/feed", h.HandleFeed)
	g.POST("/stories", h.HandleCreate)
	g.GET("/stories/:id", h.HandleStory)
	g.DELETE("/stories/:id", h.HandleDelete)
}

// HandleFeed returns a cursor-paginated window of the story feed
// @Summary      List stories
// @Description  Returns stories newest first. Pass the previous page's next_cursor as `before` to continue.
// @Tags         stories
// @Produce      json
// @Param        before query string false "Story ID cursor"
// @Param        limit query int false "Page size (1-50)" default(20)
// @Success      200 {object} Page
// @Failure      500 {object} shared.APIError "Query failed"
// @Router       /v1/feed [get]
func (h *Handler) HandleFeed(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	before := c.QueryParam("before")

	page, err := h.store.List(c.Request().Context(), before, limit)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.BadRequest("invalid_cursor", "Unknown cursor")
		}
		h.logger.Error("feed query failed", "error", err)
		return shared.InternalError("feed_failed", "Failed to fetch stories")
	}

	return c.JSON(http.StatusOK, page)
}

// HandleStory returns a single story by ID
// @Summary      Get story
// @Tags         stories
// @Produce      json
// @Param        id path string true "Story ID"
// @Success      200 {object} Story
// @Failure      404 {object} shared.APIError "Story not found"
// @Router       /v1/stories/{id} [get]
func (h *Handler) HandleStory(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return shared.BadRequest("missing_id", "Story ID is required")
	}

	st, err := h.store.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("not_found", "Story not found")
		}
		h.logger.Error("story lookup failed", "error", err, "id", id)
		return shared.InternalError("story_failed", "Failed to fetch story")
	}

	return c.JSON(http.StatusOK, st)
}

type CreateRequest struct {
	Title    string             `json:"title"`
	Summary  string             `json:"summary"`
	Date     time.Time          `json:"date"`
	Sources  shared.StringSlice `json:"sources"`
	Research string             `json:"research"`
}

// HandleCreate adds a story to the feed and indexes it for history search
// @Summary      Create story
// @Tags         stories
// @Accept       json
// @Produce      json
// @Param        request body CreateRequest true "Story fields"
// @Success      201 {object} Story
// @Failure      400 {object} shared.APIError "Missing title"
// @Failure      500 {object} shared.APIError "Write failed"
// @Router       /v1/stories [post]
func (h *Handler) HandleCreate(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_body", "Invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return shared.BadRequest("missing_title", "Title is required")
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}

	st := Story{
		Title:    req.Title,
		Summary:  req.Summary,
		Date:     req.Date,
		Sources:  req.Sources,
		Research: req.Research,
	}
	if err := h.store.Create(c.Request().Context(), &st); err != nil {
		h.logger.Error("story create failed", "error", err)
		return shared.InternalError("story_failed", "Failed to create story")
	}

	if h.indexer != nil {
		if err := h.indexer.IndexStory(c.Request().Context(), st); err != nil {
			h.logger.Warn("story indexing failed", "error", err, "id", st.ID)
		}
	}

	return c.JSON(http.StatusCreated, st)
}

// HandleDelete removes a story from the feed and the history index
// @Summary      Delete story
// @Tags         stories
// @Param        id path string true "Story ID"
// @Success      204 "Deleted"
// @Failure      404 {object} shared.APIError "Story not found"
// @Router       /v1/stories/{id} [delete]
func (h *Handler) HandleDelete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return shared.BadRequest("missing_id", "Story ID is required")
	}

	if err := h.store.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("not_found", "Story not found")
		}
		h.logger.Error("story delete failed", "error", err, "id", id)
		return shared.InternalError("story_failed", "Failed to delete story")
	}

	if h.indexer != nil {
		if err := h.indexer.RemoveStory(c.Request().Context(), id); err != nil {
			h.logger.Warn("story deindexing failed", "error", err, "id", id)
		}
	}

	return c.NoContent(http.StatusNoContent)
}
