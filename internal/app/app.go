package app

import (
	"io"

	"github.com/rileycx/granola-export/config"
	"github.com/rileycx/granola-export/internal/domain/meeting/usecases"
	"github.com/rileycx/granola-export/internal/logging"
	"github.com/rileycx/granola-export/internal/metrics"
	"github.com/rileycx/granola-export/internal/syncer"
)

type App struct {
	Export  *usecases.Export
	Sync    *syncer.Dispatcher
	Metrics *metrics.Metrics
	Logger  *logging.Logger
}

// New wires the use cases from cfg. Console log output goes to console.
func New(cfg *config.Config, console io.Writer) (*App, error) {
	logger, err := logging.New(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		RunLogPath: cfg.LogFile,
	}, console)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	dispatcher := syncer.NewDispatcher(cfg.Sync, logger.Named("sync"))

	export := &usecases.Export{
		Logger:            logger.Named("export"),
		Metrics:           m,
		Hook:              dispatcher,
		RequireTranscript: cfg.RequireTranscript,
	}

	return &App{
		Export:  export,
		Sync:    dispatcher,
		Metrics: m,
		Logger:  logger,
	}, nil
}

// Close flushes and closes the logger.
func (a *App) Close() error {
	return a.Logger.Close()
}
