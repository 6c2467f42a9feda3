package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Output formats for command results.
const (
	OutputAuto  = "auto"
	OutputTable = "table"
	OutputJSON  = "json"
)

// Config holds runtime settings for the recviewer CLI.
type Config struct {
	// ServerEndpointAddr is host:port of the gRPC endpoint.
	ServerEndpointAddr string
	// HTTPBaseURL is where media is relayed from.
	HTTPBaseURL     string
	RefreshInterval time.Duration
	// Output is auto, table or json. Auto picks table on a terminal.
	Output   string
	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.HTTPBaseURL = "http://127.0.0.1:8080"
	c.RefreshInterval = 30 * time.Second
	c.Output = OutputAuto
	c.LogLevel = "warn"
}

// LoadConfig builds a Config from defaults, the config file and the
// environment. Flags are applied later by the command tree via BindFlags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	return cfg
}

// BindFlags registers the persistent flags on fs with the loaded values as
// defaults, so an explicit flag wins over every other source.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.ServerEndpointAddr, "addr", "a", c.ServerEndpointAddr, "gRPC address of the server")
	fs.StringVar(&c.HTTPBaseURL, "http", c.HTTPBaseURL, "base URL of the server's HTTP API")
	fs.DurationVarP(&c.RefreshInterval, "interval", "i", c.RefreshInterval, "auto-refresh interval")
	fs.StringVarP(&c.Output, "output", "o", c.Output, "output format: auto, table or json")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
	fs.StringP("config", "c", "", "path to a JSON or YAML config file")
}

// Validate reports settings no command can run with.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputAuto, OutputTable, OutputJSON:
	default:
		return fmt.Errorf("unknown output format %q", c.Output)
	}
	if c.ServerEndpointAddr == "" {
		return fmt.Errorf("server address is empty")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	return nil
}
