// Package config handles configuration for the viewer server: defaults, a
// JSON or YAML file overlay, environment variables and command-line flags.
package config

import "time"

// Store backends.
const (
	StoreS3     = "s3"
	StoreMemory = "memory"
)

// Session timestamp sources.
const (
	TimestampFromFolder  = "folder"
	TimestampFromObjects = "objects"
)

// Config holds runtime settings for the viewer server.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses for the browser API and the CLI endpoint.
//   - S3*: object storage settings (any S3-compatible backend, e.g. MinIO).
//   - PresignTTL: lifetime of presigned media read URLs.
//   - DatabaseDSN: optional PostgreSQL DSN for the persistent folder → prefix
//     index. Empty keeps the index in memory.
//   - Transcription*: OpenAI-compatible speech-to-text endpoint.
//   - TimestampSource: "folder" derives session time from the key path,
//     "objects" uses the earliest object LastModified.
type Config struct {
	HTTPAddr              string
	GRPCAddr              string
	StoreBackend          string
	S3RootUser            string
	S3RootPassword        string
	S3Bucket              string
	S3Region              string
	S3BaseEndpoint        string
	S3UsePathStyle        bool
	PresignTTL            time.Duration
	DatabaseDSN           string
	TranscriptionURL      string
	TranscriptionAPIKey   string
	TranscriptionModel    string
	TranscriptionLanguage string
	CORSOrigins           string
	LogLevel              string
	TimestampSource       string
}

// LoadDefaults populates Config with development defaults (a local MinIO).
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.StoreBackend = StoreS3
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "recordings"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3UsePathStyle = true
	c.PresignTTL = 1 * time.Hour
	c.DatabaseDSN = ""
	c.TranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"
	c.TranscriptionAPIKey = ""
	c.TranscriptionModel = "whisper-1"
	c.TranscriptionLanguage = "en"
	c.CORSOrigins = "http://localhost:3000"
	c.LogLevel = "info"
	c.TimestampSource = TimestampFromFolder
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
