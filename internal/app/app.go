// Package app wires configuration, storage, clients and services together.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/markhallen/portfoliopro/internal/clients/yahoo"
	"github.com/markhallen/portfoliopro/internal/common"
	"github.com/markhallen/portfoliopro/internal/interfaces"
	"github.com/markhallen/portfoliopro/internal/services/portfolio"
	"github.com/markhallen/portfoliopro/internal/services/tax"
	"github.com/markhallen/portfoliopro/internal/storage/portfoliodb"
)

// App holds all application dependencies.
type App struct {
	Config *common.Config
	Logger *common.Logger

	Store  interfaces.PortfolioStore
	Prices interfaces.PriceClient

	Portfolio interfaces.PortfolioService
	Tax       interfaces.TaxService

	StartupTime time.Time
}

// NewApp creates and wires the application from configuration.
func NewApp(configPath string) (*App, error) {
	if env := os.Getenv("PORTFOLIOPRO_CONFIG"); env != "" && configPath == "" {
		configPath = env
	}

	config, err := common.LoadConfig("config/portfoliopro.toml", configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := portfoliodb.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open portfolio store: %w", err)
	}

	prices := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithExchange(config.Clients.Yahoo.Exchange),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithLogger(logger),
	)

	app := &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Prices:      prices,
		Portfolio:   portfolio.NewService(store, prices, logger),
		Tax:         tax.NewService(store, prices, logger),
		StartupTime: time.Now(),
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("storage", config.Storage.Path).
		Msg("Application initialized")

	return app, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close portfolio store")
			return err
		}
	}
	a.Logger.Info().Msg("Application closed")
	return nil
}
