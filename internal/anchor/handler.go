package anchor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const defaultResponseTimeout = 60 * time.Second

// Config holds the upstream anchor generation service settings. Both values
// are required; the handler refuses to open a stream without them.
type Config struct {
	BaseURL string
	APIKey  string

	// ResponseTimeout bounds the wait for upstream response headers. The
	// body itself carries no deadline since a broadcast stream is
	// long-lived.
	ResponseTimeout time.Duration
}

// streamError is the wire shape the broadcast player expects for every
// failure on this endpoint.
type streamError struct {
	Error string `json:"error"`
}

// StreamGauge tracks how many broadcast relays are live. A nil gauge
// disables tracking.
type StreamGauge interface {
	IncrementBroadcasts()
	DecrementBroadcasts()
}

type Handler struct {
	cfg    Config
	client *http.Client
	gauge  StreamGauge
	logger *slog.Logger
}

func NewHandler(cfg Config, gauge StreamGauge, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.ResponseTimeout
	if timeout <= 0 {
		timeout = defaultResponseTimeout
	}
	return &Handler{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: timeout,
			},
		},
		gauge:  gauge,
		logger: logger.With("handler", "anchor"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/anchor", h.HandleBroadcast)
	e.POST("/api/anchor", h.HandleBroadcast)
}

// HandleBroadcast relays a live anchor audio stream from the generation
// backend to the caller without buffering the payload.
// @Summary      Generate anchor broadcast
// @Description  Opens a stream on the anchor generation backend and relays the audio bytes to the caller as a chunked response.
// @Tags         anchor
// @Produce      audio/wav
// @Success      200 {file} binary "Live audio stream"
// @Failure      500 {object} streamError "Configuration missing or backend fault"
// @Router       /api/anchor [get]
func (h *Handler) HandleBroadcast(c echo.Context) error {
	start := time.Now()

	if strings.TrimSpace(h.cfg.BaseURL) == "" {
		return c.JSON(http.StatusInternalServerError, streamError{Error: "ANCHOR_SERVICE_URL not configured"})
	}
	if strings.TrimSpace(h.cfg.APIKey) == "" {
		return c.JSON(http.StatusInternalServerError, streamError{Error: "ANCHOR_API_KEY not configured"})
	}

	req, err := http.NewRequestWithContext(
		c.Request().Context(),
		http.MethodPost,
		normalizeBaseURL(h.cfg.BaseURL)+"/generate-anchor-stream",
		nil,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, streamError{Error: "Failed to generate anchor broadcast"})
	}
	req.Header.Set("X-API-Key", h.cfg.APIKey)

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("anchor backend unreachable", "error", err)
		return c.JSON(http.StatusInternalServerError, streamError{Error: "Failed to generate anchor broadcast"})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return c.JSON(resp.StatusCode, streamError{Error: fmt.Sprintf("Backend responded with %d", resp.StatusCode)})
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return c.JSON(http.StatusInternalServerError, streamError{Error: "No response body from backend"})
	}

	if h.gauge != nil {
		h.gauge.IncrementBroadcasts()
		// Deferred so the gauge drops on every exit path, the abort
		// panic included.
		defer h.gauge.DecrementBroadcasts()
	}

	copyStreamHeaders(c.Response().Header(), resp.Header)
	c.Response().WriteHeader(http.StatusOK)

	cancel := &CancelToken{}
	// The client closing its end cancels the request context; flag the
	// session so the read loop stops pulling data it cannot deliver.
	stop := context.AfterFunc(c.Request().Context(), cancel.Cancel)
	defer stop()

	session := NewSession(NewBodySource(resp.Body), &responseSink{resp: c.Response()}, cancel, start, h.logger)
	if err := session.Run(); err != nil {
		// Streaming already began, so the status line is spoken for. The
		// only way left to signal failure is to drop the connection
		// without a terminal chunk.
		h.logger.Error("anchor stream interrupted", "error", err, "chunks", session.Chunks())
		panic(http.ErrAbortHandler)
	}

	return nil
}

type responseSink struct {
	resp *echo.Response
}

func (s *responseSink) Forward(p []byte) error {
	if _, err := s.resp.Write(p); err != nil {
		return err
	}
	s.resp.Flush()
	return nil
}

func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http") {
		return raw
	}
	return "https://" + raw
}

// copyStreamHeaders builds the downstream header set: audio content type
// passed through, caching disabled at every layer, and the backend's task
// metadata forwarded when present. Transfer-Encoding is left to the HTTP
// server, which switches to chunked on its own for bodies of unknown length.
func copyStreamHeaders(dst http.Header, src http.Header) {
	contentType := src.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}
	dst.Set("Content-Type", contentType)

	dst.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	dst.Set("Pragma", "no-cache")
	dst.Set("Expires", "0")
	dst.Set("Connection", "keep-alive")

	if taskID := src.Get("X-Task-ID"); strings.TrimSpace(taskID) != "" {
		dst.Set("X-Task-ID", taskID)
	}
	if disposition := src.Get("Content-Disposition"); strings.TrimSpace(disposition) != "" {
		dst.Set("Content-Disposition", disposition)
	}
}
