package briefing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/eleven-am/newsdesk/internal/shared"
	"github.com/labstack/echo/v4"
)

// filenamePattern accepts only rendered briefing files: a UUID plus .wav.
var filenamePattern = regexp.MustCompile(`^[a-f0-9-]{36}\.wav$`)

// Config points the audio proxy at the CDN that hosts rendered briefings.
type Config struct {
	CDNBaseURL string
}

type Handler struct {
	store  *Store
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewHandler(store *Store, cfg Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  store,
		cfg:    cfg,
		client: http.DefaultClient,
		logger: logger.With("handler", "briefing"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/latest", h.HandleLatest)
	g.GET("/audio/:filename", h.HandleAudio)
}

// HandleLatest returns the most recently published briefing
// @Summary      Latest briefing
// @Tags         briefings
// @Produce      json
// @Success      200 {object} Briefing
// @Failure      404 {object} shared.APIError "No briefing published yet"
// @Router       /v1/briefings/latest [get]
func (h *Handler) HandleLatest(c echo.Context) error {
	b, err := h.store.Latest(c.Request().Context())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("not_found", "No briefing found")
		}
		h.logger.Error("latest briefing lookup failed", "error", err)
		return shared.InternalError("briefing_failed", "Failed to fetch latest briefing")
	}
	return c.JSON(http.StatusOK, b)
}

// HandleAudio streams a rendered briefing file from the CDN through the API,
// sidestepping CDN CORS restrictions for the web player.
// @Summary      Briefing audio
// @Tags         briefings
// @Produce      audio/wav
// @Param        filename path string true "Rendered file name (uuid.wav)"
// @Success      200 {file} binary "Audio file"
// @Failure      400 {object} shared.APIError "Malformed filename"
// @Failure      404 {object} shared.APIError "File not on CDN"
// @Router       /v1/briefings/audio/{filename} [get]
func (h *Handler) HandleAudio(c echo.Context) error {
	filename := c.Param("filename")
	if !filenamePattern.MatchString(filename) {
		return shared.BadRequest("invalid_filename", "Invalid filename format")
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, h.cfg.CDNBaseURL+"/"+filename, nil)
	if err != nil {
		return shared.InternalError("proxy_failed", "Failed to stream audio")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("cdn fetch failed", "error", err, "filename", filename)
		return shared.InternalError("proxy_failed", "Failed to stream audio")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return shared.NotFound("not_found", "Audio file not found")
	}

	header := c.Response().Header()
	header.Set("Content-Type", "audio/wav")
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET")
	// Rendered files never change, so let every layer hold on to them.
	header.Set("Cache-Control", "public, max-age=31536000")
	if length := resp.Header.Get("Content-Length"); length != "" {
		header.Set("Content-Length", length)
	}
	c.Response().WriteHeader(http.StatusOK)

	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		// Past the status line a failed copy just means the client left.
		h.logger.Debug("briefing stream ended early", "error", err, "filename", filename)
	}
	return nil
}
