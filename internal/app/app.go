package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aftras/crm/internal/config"
	"github.com/aftras/crm/internal/docstore"
	"github.com/aftras/crm/internal/docstore/memory"
	"github.com/aftras/crm/internal/docstore/mongo"
	"github.com/aftras/crm/internal/docstore/postgres"
	"github.com/aftras/crm/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

type App struct {
	Config *config.Config
	Store  docstore.Store
}

// NewApp connects to the configured document store, retrying with
// exponential backoff.
func NewApp(cfg *config.Config) (*App, error) {
	var (
		store   docstore.Store
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		store, err = connect(cfg)
		if err == nil {
			utils.Logger.Infof("%s connected to %s store on attempt %d", cfg.AppName, cfg.StoreDriver, i)
			break
		}

		utils.Logger.WithError(err).Warnf(
			"Failed store connect on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)

		if i == maxRetries {
			return nil, fmt.Errorf("unable to connect after %d attempts: %w", maxRetries, err)
		}
		time.Sleep(backoff)
		backoff *= 2
	}

	return &App{Config: cfg, Store: store}, nil
}

func connect(cfg *config.Config) (docstore.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case docstore.DriverMemory:
		utils.Logger.Warn("Using the in-memory store; data is lost on restart")
		return memory.NewStore(), nil

	case docstore.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := postgres.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, nil

	case docstore.DriverMongo:
		return mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

func (a *App) Close() {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Error closing document store")
			return
		}
		utils.Logger.Infof("%s store connection closed.", a.Config.AppName)
	}
}
