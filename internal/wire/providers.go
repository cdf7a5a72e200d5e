package wire

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/wire"

	"github.com/sevigo/shiny-updates/internal/app"
	"github.com/sevigo/shiny-updates/internal/config"
	"github.com/sevigo/shiny-updates/internal/db"
	"github.com/sevigo/shiny-updates/internal/logger"
	"github.com/sevigo/shiny-updates/internal/storage"
	"github.com/sevigo/shiny-updates/internal/transport"
)

// memoryHistorySize is how many completed jobs are kept without a database.
const memoryHistorySize = 200

var AppSet = wire.NewSet(
	app.NewApp,
	config.LoadConfig,
	provideLoggerConfig,
	provideSlogLogger,
	provideDBConfig,
	provideHistoryStore,
	provideTransport,
)

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logger
}

func provideSlogLogger(loggerConfig logger.Config) *slog.Logger {
	return logger.NewLogger(loggerConfig, nil)
}

func provideDBConfig(cfg *config.Config) *config.DBConfig {
	return &cfg.Database
}

// provideHistoryStore persists job history to Postgres when the database is
// enabled and keeps a bounded in-memory log otherwise.
func provideHistoryStore(cfg *config.DBConfig, logger *slog.Logger) (storage.Store, func(), error) {
	conn, cleanup, err := db.NewDatabase(cfg, logger)
	if errors.Is(err, db.ErrDisabled) {
		logger.Info("history database disabled, keeping history in memory", "capacity", memoryHistorySize)
		return storage.NewMemoryStore(memoryHistorySize), func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return storage.NewStore(conn.DB), cleanup, nil
}

func provideTransport(cfg *config.Config, logger *slog.Logger) (*transport.Client, error) {
	client, err := transport.NewClient(cfg.Site.AjaxURL, cfg.Site.RequestTimeout, logger,
		transport.WithCookie(cfg.Site.Cookie),
		transport.WithNonce(cfg.Site.SearchNonce),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	return client, nil
}
