// Package config loads runtime configuration for the recviewer CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file selected with -c/--config or
//     $RECVIEWER_CONFIG.
//  3. RECVIEWER_* environment variables, with a .env file in the working
//     directory loaded first.
//  4. Command-line flags bound by BindFlags, which override everything.
//
// # File schema
//
// Intervals use timex.Duration, so they can be strings like "30s" or integer
// nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "http_base_url": "http://127.0.0.1:8080",
//	  "refresh_interval": "30s",
//	  "output": "auto"
//	}
package config
