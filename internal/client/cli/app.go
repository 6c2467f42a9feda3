package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dmitrijs2005/recviewer/internal/client/client"
	"github.com/dmitrijs2005/recviewer/internal/client/config"
	"github.com/dmitrijs2005/recviewer/internal/logging"
)

// Connector opens a client for the configured server.
type Connector func(cfg *config.Config) (client.Client, error)

func dial(cfg *config.Config) (client.Client, error) {
	return client.NewGRPCClient(cfg.ServerEndpointAddr, cfg.HTTPBaseURL)
}

type App struct {
	config  *config.Config
	connect Connector
	client  client.Client
	out     io.Writer
	errOut  io.Writer
	log     logging.Logger
	// isTerminal decides what "auto" output means.
	isTerminal func() bool
}

func NewApp(cfg *config.Config) *App {
	return &App{
		config:  cfg,
		connect: dial,
		out:     os.Stdout,
		errOut:  os.Stderr,
		log:     logging.Nop(),
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd()))
		},
	}
}

// open validates the configuration and connects once.
func (a *App) open(ctx context.Context) error {
	if err := a.config.Validate(); err != nil {
		return err
	}
	a.log = logging.NewJSONLogger(a.errOut, a.config.LogLevel)
	if a.client != nil {
		return nil
	}
	c, err := a.connect(a.config)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", a.config.ServerEndpointAddr, err)
	}
	a.client = c
	a.log.Debug(ctx, "connected", "addr", a.config.ServerEndpointAddr)
	return nil
}

func (a *App) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

func (a *App) jsonOutput() bool {
	switch a.config.Output {
	case config.OutputJSON:
		return true
	case config.OutputTable:
		return false
	default:
		return !a.isTerminal()
	}
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit writes v as JSON or calls table to render it.
func (a *App) emit(v any, table func(w io.Writer) error) error {
	if a.jsonOutput() {
		return a.printJSON(v)
	}
	return table(a.out)
}
