package bootstrap

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string

	AnchorServiceURL      string
	AnchorAPIKey          string
	AnchorResponseTimeout time.Duration

	SearchAPIEndpoint string
	SearchAPIKey      string

	ChatAPIBaseURL string
	ChatAPIKey     string

	BriefingCDNBaseURL string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		QdrantHost:   getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:   6334,
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),

		AnchorServiceURL:      getEnv("ANCHOR_SERVICE_URL", ""),
		AnchorAPIKey:          getEnv("ANCHOR_API_KEY", ""),
		AnchorResponseTimeout: time.Duration(getEnvInt("ANCHOR_RESPONSE_TIMEOUT_SECONDS", 60)) * time.Second,

		SearchAPIEndpoint: getEnv("SEARCH_API_ENDPOINT", ""),
		SearchAPIKey:      getEnv("SEARCH_API_KEY", ""),

		ChatAPIBaseURL: getEnv("CHAT_API_BASE_URL", ""),
		ChatAPIKey:     getEnv("PERPLEXITY_API_KEY", ""),

		BriefingCDNBaseURL: getEnv("BRIEFING_CDN_BASE_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
