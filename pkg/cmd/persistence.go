// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/persistence/file"
	"github.com/flowgrid/flowgrid/pkg/persistence/postgresql"
	"github.com/flowgrid/flowgrid/pkg/persistence/redis"
)

// NewPersistence creates the persistence backend selected by the database
// URL scheme. Unknown schemes fall back to file persistence.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parseProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create postgresql persistence: %w", err))
		}

		return store
	case "redis", "rediss":
		store, err := redis.NewPersistence(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create redis persistence: %w", err))
		}

		return store
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parseProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
