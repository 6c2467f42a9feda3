package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays RECVIEWER_* environment variables. A .env file in the
// working directory is loaded first if present; real environment variables
// win over it.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	envString(&config.HTTPAddr, "RECVIEWER_HTTP_ADDR")
	envString(&config.GRPCAddr, "RECVIEWER_GRPC_ADDR")
	envString(&config.StoreBackend, "RECVIEWER_STORE_BACKEND")
	envString(&config.S3RootUser, "RECVIEWER_S3_ROOT_USER")
	envString(&config.S3RootPassword, "RECVIEWER_S3_ROOT_PASSWORD")
	envString(&config.S3Bucket, "RECVIEWER_S3_BUCKET")
	envString(&config.S3Region, "RECVIEWER_S3_REGION")
	envString(&config.S3BaseEndpoint, "RECVIEWER_S3_BASE_ENDPOINT")
	if v, err := strconv.ParseBool(os.Getenv("RECVIEWER_S3_USE_PATH_STYLE")); err == nil {
		config.S3UsePathStyle = v
	}
	if v, err := time.ParseDuration(os.Getenv("RECVIEWER_PRESIGN_TTL")); err == nil {
		config.PresignTTL = v
	}
	envString(&config.DatabaseDSN, "RECVIEWER_DATABASE_DSN")
	envString(&config.TranscriptionURL, "RECVIEWER_TRANSCRIPTION_URL")
	envString(&config.TranscriptionAPIKey, "RECVIEWER_TRANSCRIPTION_API_KEY")
	envString(&config.TranscriptionModel, "RECVIEWER_TRANSCRIPTION_MODEL")
	envString(&config.TranscriptionLanguage, "RECVIEWER_TRANSCRIPTION_LANGUAGE")
	envString(&config.CORSOrigins, "RECVIEWER_CORS_ORIGINS")
	envString(&config.LogLevel, "RECVIEWER_LOG_LEVEL")
	envString(&config.TimestampSource, "RECVIEWER_TIMESTAMP_SOURCE")
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
