//go:build sqlite && postgres

package main

import (
	"os"

	"pharmadmin/internal/observability"
	"pharmadmin/internal/storage"
	pgstore "pharmadmin/internal/storage/postgres"
	sqlitestore "pharmadmin/internal/storage/sqlite"
)

// selectStore picks PostgreSQL if DATABASE_URL is set, otherwise SQLite.
func selectStore(logger observability.Logger) (storage.Store, string) {
	if os.Getenv("DATABASE_URL") != "" {
		st, err := pgstore.New(databaseURL())
		if err == nil {
			logger.Info("using postgres store")
			return st, "postgres"
		}
		logger.Error("postgres init failed; trying sqlite", "error", err)
	}
	st, err := sqlitestore.New(sqliteDSN())
	if err != nil {
		logger.Error("sqlite init failed; falling back to memory store", "error", err)
		return storage.NewMemoryStore(), "memory"
	}
	logger.Info("using sqlite store", "dsn", sqliteDSN())
	return st, "sqlite"
}

func sqliteStatus(dsn string) string {
	s, err := sqlitestore.Status(dsn)
	if err != nil {
		return ""
	}
	return s
}

func postgresStatus() string {
	if os.Getenv("DATABASE_URL") == "" {
		return ""
	}
	s, err := pgstore.Status(databaseURL())
	if err != nil {
		return ""
	}
	return s
}

func postgresRollback(steps int) (int, error) {
	return pgstore.Rollback(databaseURL(), steps)
}
