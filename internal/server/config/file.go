package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/recviewer/internal/flagx"
	"github.com/dmitrijs2005/recviewer/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the server configuration. Pointer fields
// distinguish "absent" from a zero value so a partial file only overrides
// what it names.
type FileConfig struct {
	HTTPAddr              *string         `json:"http_addr" yaml:"http_addr"`
	GRPCAddr              *string         `json:"grpc_addr" yaml:"grpc_addr"`
	StoreBackend          *string         `json:"store_backend" yaml:"store_backend"`
	S3RootUser            *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword        *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket              *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region              *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint        *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3UsePathStyle        *bool           `json:"s3_use_path_style" yaml:"s3_use_path_style"`
	PresignTTL            *timex.Duration `json:"presign_ttl" yaml:"presign_ttl"`
	DatabaseDSN           *string         `json:"database_dsn" yaml:"database_dsn"`
	TranscriptionURL      *string         `json:"transcription_url" yaml:"transcription_url"`
	TranscriptionAPIKey   *string         `json:"transcription_api_key" yaml:"transcription_api_key"`
	TranscriptionModel    *string         `json:"transcription_model" yaml:"transcription_model"`
	TranscriptionLanguage *string         `json:"transcription_language" yaml:"transcription_language"`
	CORSOrigins           *string         `json:"cors_origins" yaml:"cors_origins"`
	LogLevel              *string         `json:"log_level" yaml:"log_level"`
	TimestampSource       *string         `json:"timestamp_source" yaml:"timestamp_source"`
}

// parseFile loads the file named by -c/-config (or $RECVIEWER_CONFIG) into
// config. Files ending in .yaml/.yml are decoded as YAML, everything else as
// JSON. A missing flag loads nothing; an unreadable or invalid file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.StoreBackend, c.StoreBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3UsePathStyle != nil {
		config.S3UsePathStyle = *c.S3UsePathStyle
	}
	if c.PresignTTL != nil {
		config.PresignTTL = c.PresignTTL.Duration
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.TranscriptionURL, c.TranscriptionURL)
	setString(&config.TranscriptionAPIKey, c.TranscriptionAPIKey)
	setString(&config.TranscriptionModel, c.TranscriptionModel)
	setString(&config.TranscriptionLanguage, c.TranscriptionLanguage)
	setString(&config.CORSOrigins, c.CORSOrigins)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.TimestampSource, c.TimestampSource)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
