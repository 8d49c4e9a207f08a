package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/eleven-am/newsdesk/internal/analytics"
	"github.com/eleven-am/newsdesk/internal/anchor"
	"github.com/eleven-am/newsdesk/internal/briefing"
	"github.com/eleven-am/newsdesk/internal/chat"
	"github.com/eleven-am/newsdesk/internal/health"
	"github.com/eleven-am/newsdesk/internal/search"
	"github.com/eleven-am/newsdesk/internal/story"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// noopEmbedder stands in until a real embedding sidecar is wired up. History
// search degrades to returning no matches rather than failing.
type noopEmbedder struct{}

func (n *noopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, 384), nil
}

func ProvideEmbedder() search.Embedder {
	return &noopEmbedder{}
}

func ProvideAnchorConfig(cfg *Config) anchor.Config {
	return anchor.Config{
		BaseURL:         cfg.AnchorServiceURL,
		APIKey:          cfg.AnchorAPIKey,
		ResponseTimeout: cfg.AnchorResponseTimeout,
	}
}

type HandlerParams struct {
	fx.In

	AnchorHandler    *anchor.Handler
	StoryHandler     *story.Handler
	BriefingHandler  *briefing.Handler
	SearchHandler    *search.Handler
	ChatHandler      *chat.Handler
	AnalyticsHandler *analytics.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	params.AnchorHandler.RegisterRoutes(e)

	api := e.Group("/v1")
	params.StoryHandler.RegisterRoutes(api)
	params.BriefingHandler.RegisterRoutes(api.Group("/briefings"))
	params.SearchHandler.RegisterRoutes(api.Group("/search"))
	params.ChatHandler.RegisterRoutes(api.Group("/chat"))
	params.AnalyticsHandler.RegisterRoutes(api.Group("/analytics"))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideAnchorHandler(anchorCfg anchor.Config, healthHandler *health.Handler, logger *slog.Logger) *anchor.Handler {
	return anchor.NewHandler(anchorCfg, healthHandler, logger)
}

func ProvideStoryHandler(store *story.Store, service *search.Service, logger *slog.Logger) *story.Handler {
	return story.NewHandler(store, service, logger)
}

func ProvideBriefingHandler(store *briefing.Store, cfg *Config, logger *slog.Logger) *briefing.Handler {
	return briefing.NewHandler(store, briefing.Config{CDNBaseURL: cfg.BriefingCDNBaseURL}, logger)
}

func ProvideSearchService(cfg *Config, index *search.Index, stories *story.Store, embedder search.Embedder, logger *slog.Logger) *search.Service {
	return search.NewService(search.Config{
		Endpoint: cfg.SearchAPIEndpoint,
		APIKey:   cfg.SearchAPIKey,
	}, index, stories, embedder, logger)
}

func ProvideSearchHandler(service *search.Service, logger *slog.Logger) *search.Handler {
	return search.NewHandler(service, logger)
}

func ProvideChatService(cfg *Config, logger *slog.Logger) *chat.Service {
	return chat.NewService(chat.Config{
		BaseURL: cfg.ChatAPIBaseURL,
		APIKey:  cfg.ChatAPIKey,
	}, logger)
}

func ProvideChatHandler(service *chat.Service, logger *slog.Logger) *chat.Handler {
	return chat.NewHandler(service, logger)
}

func ProvideAnalyticsHandler(store *analytics.Store, logger *slog.Logger) *analytics.Handler {
	return analytics.NewHandler(store, logger)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideEmbedder,
		ProvideAnchorConfig,
		ProvideAnchorHandler,
		ProvideStoryHandler,
		ProvideBriefingHandler,
		ProvideSearchService,
		ProvideSearchHandler,
		ProvideChatService,
		ProvideChatHandler,
		ProvideAnalyticsHandler,
	),
	fx.Invoke(RegisterRoutes),
)
