package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/YK-03/SharePlate/internal/config"

	"go.uber.org/zap"
)

// Open connects the backend selected by cfg and applies the schema.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.SugaredLogger) (Store, error) {
	var (
		store Store
		err   error
	)

	switch driver := cfg.Driver(); driver {
	case "mongodb":
		store, err = NewMongoStore(cfg.MongoURI, cfg.Name, log)
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		store, err = NewSQLStore(driver, cfg.DSN(), SQLOptions{}, log)
	default:
		store, err = NewSQLStore(driver, cfg.DSN(), SQLOptions{
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
		}, log)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
