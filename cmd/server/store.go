package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/hongminglow/fruit-scanner-be/internal/storage"
	"github.com/hongminglow/fruit-scanner-be/internal/storage/postgres"
	"github.com/hongminglow/fruit-scanner-be/internal/storage/sqlite"
)

const (
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
)

// parseDSN picks a storage adapter from DATABASE_URL. Bare paths and file:
// URIs are SQLite; postgres:// and postgresql:// go to Postgres.
func parseDSN(dsn string) (driver, target string, err error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("empty database url")
	case strings.HasPrefix(dsn, "sqlite://"):
		target = strings.TrimPrefix(dsn, "sqlite://")
		if target == "" {
			return "", "", fmt.Errorf("sqlite url %q has no path", dsn)
		}
		return driverSQLite, target, nil
	case strings.HasPrefix(dsn, "file:"):
		return driverSQLite, dsn, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return driverPostgres, dsn, nil
	case strings.Contains(dsn, "://"):
		scheme, _, _ := strings.Cut(dsn, "://")
		return "", "", fmt.Errorf("unsupported database scheme %q", scheme)
	default:
		return driverSQLite, dsn, nil
	}
}

func openUserStore(ctx context.Context, dsn string) (storage.UserStore, error) {
	driver, target, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if driver == driverPostgres {
		store, err := postgres.NewUserStore(ctx, target)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := sqlite.Open(ctx, target)
	if err != nil {
		return nil, err
	}
	return store, nil
}
