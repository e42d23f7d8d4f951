package providers

import (
	"context"
	"fmt"
	"time"
	"timekeeper/internal/storage"
	"timekeeper/internal/storage/postgres"
	"timekeeper/internal/storage/sqlite"
	"timekeeper/internal/structures"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// NewStoreProvider opens the configured backend. The returned cleanup closes it.
func NewStoreProvider(conf *structures.Config, logger Logger) (storage.Store, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var (
		store storage.Store
		err   error
	)
	switch conf.Database.Driver {
	case DriverSQLite, "":
		store, err = sqlite.Open(ctx, conf.Database.DSN)
	case DriverPostgres:
		store, err = postgres.Open(ctx, conf.Database.DSN)
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", conf.Database.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", conf.Database.Driver, err)
	}

	logger.Infof(TypeApp, "Store opened: driver=%s", conf.Database.Driver)

	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Errorf(TypeApp, "Failed to close store: %v", err)
			return
		}
		logger.Infof(TypeApp, "Store closed")
	}
	return store, cleanup, nil
}
