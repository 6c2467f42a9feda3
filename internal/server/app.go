// Package server wires the viewer backend: object store, prefix index,
// catalog, metadata and transcription services, and the HTTP and gRPC
// boundaries in front of them.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/recviewer/internal/logging"
	"github.com/dmitrijs2005/recviewer/internal/objectstore"
	"github.com/dmitrijs2005/recviewer/internal/server/catalog"
	"github.com/dmitrijs2005/recviewer/internal/server/config"
	"github.com/dmitrijs2005/recviewer/internal/server/httpapi"
	"github.com/dmitrijs2005/recviewer/internal/server/metadata"
	"github.com/dmitrijs2005/recviewer/internal/server/prefixindex"
	"github.com/dmitrijs2005/recviewer/internal/server/sessions"
	"github.com/dmitrijs2005/recviewer/internal/server/transcription"

	gs "github.com/dmitrijs2005/recviewer/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
	grpc    *gs.Server
}

// seams for tests
var (
	newS3Store = func(ctx context.Context, c objectstore.S3Config) (objectstore.Store, error) {
		return objectstore.NewS3Store(ctx, c)
	}
	openIndexDB = prefixindex.Open
	migrate     = func(ctx context.Context, idx *prefixindex.PostgresIndex) error {
		return idx.RunMigrations(ctx)
	}
)

func newStore(ctx context.Context, c *config.Config) (objectstore.Store, error) {
	switch c.StoreBackend {
	case config.StoreMemory:
		return objectstore.NewMemoryStore(c.S3Bucket), nil
	case config.StoreS3:
		return newS3Store(ctx, objectstore.S3Config{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			UsePathStyle: c.S3UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}
}

func splitOrigins(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	switch sessions.TimestampStrategy(c.TimestampSource) {
	case sessions.FromFolder, sessions.FromObjects:
	default:
		return nil, fmt.Errorf("unknown timestamp source %q", c.TimestampSource)
	}

	store, err := newStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	var index prefixindex.Index = prefixindex.NewMemoryIndex()
	if c.DatabaseDSN != "" {
		db, err := openIndexDB(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		pg := prefixindex.NewPostgresIndex(db)
		if err := migrate(ctx, pg); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		app.db = db
		index = pg
	}

	cat := catalog.NewService(store, catalog.Options{
		Strategy:   sessions.TimestampStrategy(c.TimestampSource),
		PresignTTL: c.PresignTTL,
		Index:      index,
		Logger:     logger.With("module", "catalog"),
	})
	meta := metadata.NewStore(store, cat.Resolver(), logger.With("module", "metadata"))
	provider := transcription.NewHTTPProvider(c.TranscriptionURL, c.TranscriptionAPIKey, c.TranscriptionModel, 0)
	bridge := transcription.NewBridge(store, cat.Resolver(), provider, c.TranscriptionLanguage, logger.With("module", "transcription"))

	app.handler = httpapi.NewRouter(
		httpapi.NewHandler(cat, meta, bridge, logger.With("module", "http")),
		httpapi.RouterOptions{CORSOrigins: splitOrigins(c.CORSOrigins), Logger: logger.With("module", "http")},
	)
	app.grpc = gs.NewServer(c.GRPCAddr, logger, cat, meta, bridge)

	return app, nil
}

// Handler is the HTTP API.
func (app *App) Handler() http.Handler { return app.handler }

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.grpc.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		cancelFunc()
		return err
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
		return err
	}
	return nil
}

// Run serves HTTP and gRPC until ctx is done, a termination signal arrives
// or either server fails. It returns the first server error.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, start := range []func(context.Context, context.CancelFunc) error{app.startHTTPServer, app.startGRPCServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := start(ctx, cancelFunc); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(ctx, "db close failed", "error", err)
		}
	}
	app.logger.Info(context.Background(), "Stopped")
	return errors.Join(errs...)
}
