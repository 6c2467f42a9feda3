package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/recviewer/internal/flagx"
	"github.com/dmitrijs2005/recviewer/internal/timex"
)

// FileConfig is the on-disk shape of the client configuration. Absent fields
// keep their earlier value.
type FileConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	HTTPBaseURL        *string         `json:"http_base_url" yaml:"http_base_url"`
	RefreshInterval    *timex.Duration `json:"refresh_interval" yaml:"refresh_interval"`
	Output             *string         `json:"output" yaml:"output"`
	LogLevel           *string         `json:"log_level" yaml:"log_level"`
}

// parseFile overlays cfg with the file named by -c/--config or
// $RECVIEWER_CONFIG. An unreadable or invalid file panics.
func parseFile(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	if fc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *fc.ServerEndpointAddr
	}
	if fc.HTTPBaseURL != nil {
		cfg.HTTPBaseURL = *fc.HTTPBaseURL
	}
	if fc.RefreshInterval != nil {
		cfg.RefreshInterval = fc.RefreshInterval.Duration
	}
	if fc.Output != nil {
		cfg.Output = *fc.Output
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
}
