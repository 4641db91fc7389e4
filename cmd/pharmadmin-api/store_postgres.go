//go:build postgres && !sqlite

package main

import (
	"pharmadmin/internal/observability"
	"pharmadmin/internal/storage"
	pgstore "pharmadmin/internal/storage/postgres"
)

// selectStore returns a PostgreSQL-backed store configured by DATABASE_URL.
func selectStore(logger observability.Logger) (storage.Store, string) {
	st, err := pgstore.New(databaseURL())
	if err != nil {
		logger.Error("postgres init failed; falling back to memory store", "error", err)
		return storage.NewMemoryStore(), "memory"
	}
	logger.Info("using postgres store")
	return st, "postgres"
}

func sqliteStatus(string) string { return "" }

func postgresStatus() string {
	s, err := pgstore.Status(databaseURL())
	if err != nil {
		return ""
	}
	return s
}

func postgresRollback(steps int) (int, error) {
	return pgstore.Rollback(databaseURL(), steps)
}
