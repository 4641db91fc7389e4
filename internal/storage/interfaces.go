package storage

import "context"

// HealthCheck provides database health checking. Stores backed by a
// connection pool implement it; the health endpoint type-asserts for it.
type HealthCheck interface {
	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Stats returns database connection pool statistics.
	Stats() *DBStats
}

// DBStats contains database connection pool statistics.
type DBStats struct {
	MaxOpenConnections int   `json:"maxOpenConnections"`
	OpenConnections    int   `json:"openConnections"`
	InUse              int   `json:"inUse"`
	Idle               int   `json:"idle"`
	WaitCount          int64 `json:"waitCount"`
	WaitDuration       int64 `json:"waitDurationNs"`
}
