package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/composer/internal/commands"
	"github.com/zjrosen/composer/internal/commands/command"
	"github.com/zjrosen/composer/internal/commands/tracing"
	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/infrastructure/sqlite"
	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/presentation"
	"github.com/zjrosen/composer/internal/repository"
)

const shutdownTimeout = 5 * time.Second

func formatter() *presentation.Formatter {
	return presentation.NewFormatter(rootCmd.OutOrStdout(), jsonOutput)
}

func openDB() (*sqlite.DB, error) {
	db, err := sqlite.NewDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// cachedMetadata puts the configured read-through cache in front of the store.
func cachedMetadata(db *sqlite.DB) *repository.Cached {
	return repository.NewCached(db.Metadata(), cfg.Cache.Expiration, cfg.Cache.CleanupInterval)
}

// startService starts a command service over layer. The returned stop function drains the
// queue and flushes traces.
func startService(ctx context.Context, layer *composition.Layer, source command.CommandSource) (*commands.Service, func(), error) {
	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}
	svc := commands.New(layer, commands.Config{
		QueueCapacity: cfg.Processor.QueueCapacity,
		SlowThreshold: cfg.Processor.SlowCommandThreshold,
		Source:        source,
		Tracer:        provider.Tracer(),
	})
	if err := svc.Start(ctx); err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, nil, fmt.Errorf("starting command processor: %w", err)
	}

	stop := func() {
		svc.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.ErrorErr(log.CatCommands, "tracer shutdown failed", err)
		}
	}
	return svc, stop, nil
}
