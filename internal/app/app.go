// Package app assembles the services described by the runtime configuration
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/richard-senior/matchodds/internal/config"
	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/elo"
	"github.com/richard-senior/matchodds/pkg/enrich"
	"github.com/richard-senior/matchodds/pkg/league"
	"github.com/richard-senior/matchodds/pkg/settle"
	"github.com/richard-senior/matchodds/pkg/store"
	"github.com/richard-senior/matchodds/pkg/tools"
	"github.com/richard-senior/matchodds/pkg/transport"
)

// App holds the long lived components
type App struct {
	Config  *config.AppConfig
	DB      *store.DB
	Ratings *elo.Store
	Ledger  *settle.Ledger
	Service *tools.Service

	closers []io.Closer
}

// ConfigureLogging applies the logging section of the configuration
func ConfigureLogging(cfg *config.AppConfig) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetShowDateTime(true)
	logger.SetLogPath(cfg.LogPath)
	if len(cfg.LogOutput) != 1 {
		return fmt.Errorf("invalid log output %q", cfg.LogOutput)
	}
	return logger.SetLogOutput(rune(cfg.LogOutput[0]))
}

// New opens the database and wires the rating store, ledger, enrichment chain and tool service
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{Config: cfg}

	leagues := league.Default()
	if cfg.LeaguesFile != "" {
		t, err := league.LoadFile(cfg.LeaguesFile)
		if err != nil {
			return nil, err
		}
		leagues = t
	}

	if cfg.DatabaseDriver == store.DriverSQLite && cfg.DatabaseDSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabaseDSN), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db)

	if a.Ratings, err = elo.NewStore(ctx, db); err != nil {
		a.Close()
		return nil, err
	}
	if a.Ledger, err = settle.NewLedger(ctx, db, a.Ratings); err != nil {
		a.Close()
		return nil, err
	}

	provider, err := a.provider(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Service = tools.NewService(leagues, nil, a.Ratings, league.DefaultStrengths(), provider, a.Ledger)
	return a, nil
}

// provider builds the enrichment chain: a static document, or scraped pages behind a cache
func (a *App) provider(ctx context.Context) (enrich.Provider, error) {
	cfg := a.Config
	switch {
	case cfg.SignalsFile != "":
		logger.Info("Using static signals", cfg.SignalsFile)
		return enrich.LoadStaticProvider(cfg.SignalsFile)
	case cfg.TeamPageURL == "" && cfg.HeadToHeadURL == "":
		logger.Info("No signal source configured, predictions use neutral signals")
		return nil, nil
	}

	pages := enrich.NewPageProvider(transport.NewHTTPClient(20*time.Second, nil), cfg.TeamPageURL, cfg.HeadToHeadURL)
	var cache enrich.Cache = enrich.NewMemoryCache()
	if cfg.RedisURL != "" {
		rc, err := enrich.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc)
		cache = rc
		logger.Info("Caching signals in redis")
	}
	return enrich.NewCachedProvider(pages, cache, cfg.SignalCacheTTL), nil
}

// Close releases the database and cache connections
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("Close failed", err)
		}
	}
	a.closers = nil
}
