// Package app initializes and orchestrates the main components of the update
// coordinator. It wires together the configuration, server, and other services.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/config"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/credentials"
	"github.com/sevigo/shiny-updates/internal/events"
	"github.com/sevigo/shiny-updates/internal/frame"
	"github.com/sevigo/shiny-updates/internal/jobs"
	"github.com/sevigo/shiny-updates/internal/metrics"
	"github.com/sevigo/shiny-updates/internal/notify"
	"github.com/sevigo/shiny-updates/internal/search"
	"github.com/sevigo/shiny-updates/internal/server"
	"github.com/sevigo/shiny-updates/internal/server/handler"
	"github.com/sevigo/shiny-updates/internal/storage"
	"github.com/sevigo/shiny-updates/internal/transport"
	"github.com/sevigo/shiny-updates/internal/updates"
)

// App holds the main application components. The CLI and terminal front ends
// drive the exported components directly; the server front end calls Start.
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Bus         *events.Bus
	Board       *board.Board
	Coordinator *jobs.Coordinator
	Service     *updates.Service
	Throttler   *notify.Throttler
	Searcher    *search.Searcher
	Store       storage.Store
	Metrics     *metrics.Collector

	server      *server.Server
	stopMetrics func()
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, client *transport.Client, store storage.Store) (*App, error) {
	logger.Info("initializing update coordinator",
		"endpoint", cfg.Site.AjaxURL,
		"origin", cfg.Site.Origin,
		"credentials_required", cfg.Site.CredentialsRequired)

	b, err := loadBoard(cfg.Site.ManifestPath, logger)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	collector := metrics.NewCollector()

	gate := credentials.NewGate(cfg.Site.CredentialsRequired, core.Credentials{
		Hostname:       cfg.Site.Hostname,
		Username:       cfg.Site.Username,
		ConnectionType: core.ConnectionType(cfg.Site.ConnectionType),
		FSNonce:        cfg.Site.FSNonce,
	})
	coordinator := jobs.NewCoordinator(ctx, client, gate, cfg.Site.Nonce, logger,
		jobs.WithPublisher(bus),
		jobs.WithObserver(collector),
	)
	collector.Watch(coordinator)

	throttler := notify.NewThrottler(
		notify.MultiSink{notify.LogSink{Logger: logger}, notify.BusSink{Publisher: bus}},
		logger,
		notify.WithRetryInterval(cfg.Messages.RetryInterval),
		notify.WithDwellTime(cfg.Messages.DwellTime),
	)

	service := updates.NewService(coordinator, b, throttler, bus, store, logger)
	searcher := search.NewSearcher(client, logger)

	bridge, err := frame.NewBridge(cfg.Site.Origin, service, b.Counters(), bus, logger)
	if err != nil {
		coordinator.Stop()
		throttler.Close()
		return nil, fmt.Errorf("failed to create frame bridge: %w", err)
	}

	httpServer := server.NewServer(cfg, &server.Handlers{
		Operations:  handler.NewOperationsHandler(service, logger),
		Status:      handler.NewStatusHandler(coordinator, b, store, logger),
		Credentials: handler.NewCredentialsHandler(coordinator, logger),
		Frame:       handler.NewFrameHandler(bridge, logger),
		Search:      handler.NewSearchHandler(searcher, logger),
		Events:      handler.NewEventsHandler(bus, cfg.Site.Origin, logger),
		Metrics:     collector,
	}, logger)

	logger.Info("update coordinator initialized", "rows", len(b.Rows()))
	return &App{
		Config:      cfg,
		Logger:      logger,
		Bus:         bus,
		Board:       b,
		Coordinator: coordinator,
		Service:     service,
		Throttler:   throttler,
		Searcher:    searcher,
		Store:       store,
		Metrics:     collector,
		server:      httpServer,
		stopMetrics: collector.Subscribe(bus),
	}, nil
}

// loadBoard builds the board from the manifest. A missing manifest yields an
// empty board; install cards are still created on demand.
func loadBoard(path string, logger *slog.Logger) (*board.Board, error) {
	m, err := board.LoadManifest(path)
	if errors.Is(err, board.ErrManifestNotFound) {
		logger.Warn("no update manifest, starting with an empty board", "path", path)
		return board.New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	return m.Board(), nil
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.Logger.Info("starting update coordinator", "server_port", a.Config.ServerPort)

	if err := a.server.Start(); err != nil {
		a.Logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.Logger.Info("shutting down update coordinator")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.Logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.Close()

	if serverErr != nil {
		return serverErr
	}
	a.Logger.Info("update coordinator stopped")
	return nil
}

// Close stops the coordinator and the message throttler without touching the
// HTTP server. Front ends that never call Start use it directly.
func (a *App) Close() {
	a.Coordinator.Stop()
	a.Throttler.Close()
	if a.stopMetrics != nil {
		a.stopMetrics()
	}
}
