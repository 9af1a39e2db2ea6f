package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firecms/cms/pkg/persistence"
	"github.com/firecms/cms/pkg/persistence/file"
	"github.com/firecms/cms/pkg/persistence/postgresql"
	"github.com/firecms/cms/pkg/persistence/rediscache"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql"}

// NewPersistence opens the store named by databaseURL. A bare path or a file:// url
// selects the JSON file store; postgres:// and postgresql:// select PostgreSQL.
// A non-empty redisURL puts the Redis product cache in front of either.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL, redisURL string) (persistence.Persistence, error) {
	var (
		store persistence.Persistence
		err   error
	)

	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err = postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, err
		}
	default:
		store = file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}

	if redisURL == "" {
		return store, nil
	}

	client, err := rediscache.NewClient(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to configure redis cache: %w", err)
	}

	return rediscache.NewPersistence(logger, store, client, rediscache.DefaultTTL), nil
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
