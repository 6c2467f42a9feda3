package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("RECVIEWER_SERVER_ADDR"); v != "" {
		cfg.ServerEndpointAddr = v
	}
	if v := os.Getenv("RECVIEWER_HTTP_BASE_URL"); v != "" {
		cfg.HTTPBaseURL = v
	}
	if v, err := time.ParseDuration(os.Getenv("RECVIEWER_REFRESH_INTERVAL")); err == nil {
		cfg.RefreshInterval = v
	}
	if v := os.Getenv("RECVIEWER_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("RECVIEWER_CLIENT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
