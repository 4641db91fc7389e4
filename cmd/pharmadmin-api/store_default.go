//go:build !sqlite && !postgres

package main

import (
	"errors"
	"os"

	"pharmadmin/internal/observability"
	"pharmadmin/internal/storage"
)

// selectStore returns the in-memory store when built without storage tags.
func selectStore(logger observability.Logger) (storage.Store, string) {
	if os.Getenv("SQLITE_DSN") != "" {
		logger.Warn("SQLITE_DSN set, but binary not built with -tags sqlite; using in-memory store")
	}
	if os.Getenv("DATABASE_URL") != "" {
		logger.Warn("DATABASE_URL set, but binary not built with -tags postgres; using in-memory store")
	}
	return storage.NewMemoryStore(), "memory"
}

func sqliteStatus(string) string { return "" }

func postgresStatus() string { return "" }

func postgresRollback(int) (int, error) {
	return 0, errors.New("rollback requires a build with -tags postgres")
}
