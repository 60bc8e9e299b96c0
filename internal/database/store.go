package database

import (
	"context"
	"fmt"

	"github.com/bilalpiaic/AgenticQuizMaster/internal/config"
	"github.com/bilalpiaic/AgenticQuizMaster/internal/repository"
	"github.com/rs/zerolog"
)

// OpenStore builds the Store selected by STORAGE_DRIVER. The returned close
// function releases any underlying connections and is never nil.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.Store, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageMemory, "":
		log.Info().Msg("Using in-memory store")
		return repository.NewMemoryStore(), func() {}, nil
	case config.StoragePostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL, cfg.MaxDBConns, log)
		if err != nil {
			return nil, func() {}, err
		}
		return repository.NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown storage driver: %q", cfg.StorageDriver)
	}
}
