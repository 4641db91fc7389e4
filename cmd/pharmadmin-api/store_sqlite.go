//go:build sqlite && !postgres

package main

import (
	"errors"

	"pharmadmin/internal/observability"
	"pharmadmin/internal/storage"
	sqlitestore "pharmadmin/internal/storage/sqlite"
)

// selectStore returns a SQLite-backed store configured by SQLITE_DSN.
func selectStore(logger observability.Logger) (storage.Store, string) {
	dsn := sqliteDSN()
	st, err := sqlitestore.New(dsn)
	if err != nil {
		logger.Error("sqlite init failed; falling back to memory store", "error", err)
		return storage.NewMemoryStore(), "memory"
	}
	logger.Info("using sqlite store", "dsn", dsn)
	return st, "sqlite"
}

func sqliteStatus(dsn string) string {
	s, err := sqlitestore.Status(dsn)
	if err != nil {
		return ""
	}
	return s
}

func postgresStatus() string { return "" }

func postgresRollback(int) (int, error) {
	return 0, errors.New("rollback requires a build with -tags postgres")
}
