//go:build postgres

package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Each version ships as NNNN_name.up.sql with an optional NNNN_name.down.sql.
var migFileRe = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)

type migration struct {
	version int
	name    string
	up      string
	down    string
}

const bookkeeping = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    BIGINT PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS schema_info (
	id             INTEGER PRIMARY KEY CHECK (id = 1),
	schema_version INTEGER NOT NULL,
	app_version    TEXT NOT NULL,
	applied_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// loadMigrations pairs up and down scripts by version, ascending.
func loadMigrations() ([]migration, error) {
	dir, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	byVersion := map[int]*migration{}
	for _, e := range entries {
		m := migFileRe.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		v, _ := strconv.Atoi(m[1])
		body, err := fs.ReadFile(dir, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		mig := byVersion[v]
		if mig == nil {
			mig = &migration{version: v, name: m[2]}
			byVersion[v] = mig
		}
		if m[3] == "up" {
			mig.up = strings.TrimSpace(string(body))
		} else {
			mig.down = strings.TrimSpace(string(body))
		}
	}
	out := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.up == "" {
			return nil, fmt.Errorf("migration %04d_%s has no up script", m.version, m.name)
		}
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b migration) int { return a.version - b.version })
	return out, nil
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) ([]int, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

// runMigrations applies every pending up script, each in its own transaction.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, bookkeeping); err != nil {
		return fmt.Errorf("create migration tables: %w", err)
	}
	migs, err := loadMigrations()
	if err != nil {
		return err
	}
	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}

	for _, m := range migs {
		if slices.Contains(applied, m.version) {
			continue
		}
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.up); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.version, m.name)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %04d_%s: %w", m.version, m.name, err)
		}
	}
	return recordSchemaInfo(ctx, pool)
}

// rollback reverts the newest applied migrations, up to steps of them.
func rollback(ctx context.Context, pool *pgxpool.Pool, steps int) (int, error) {
	migs, err := loadMigrations()
	if err != nil {
		return 0, err
	}
	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return 0, err
	}

	reverted := 0
	for i := len(applied) - 1; i >= 0 && reverted < steps; i-- {
		v := applied[i]
		idx := slices.IndexFunc(migs, func(m migration) bool { return m.version == v })
		if idx < 0 || migs[idx].down == "" {
			return reverted, fmt.Errorf("migration %04d has no down script", v)
		}
		m := migs[idx]
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.down); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.version)
			return err
		})
		if err != nil {
			return reverted, fmt.Errorf("rollback %04d_%s: %w", m.version, m.name, err)
		}
		reverted++
	}
	return reverted, recordSchemaInfo(ctx, pool)
}

func recordSchemaInfo(ctx context.Context, pool *pgxpool.Pool) error {
	appVersion := os.Getenv("APP_VERSION")
	if appVersion == "" {
		appVersion = "dev"
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO schema_info (id, schema_version, app_version, applied_at)
		VALUES (1, (SELECT COALESCE(MAX(version), 0) FROM schema_migrations), $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET schema_version = EXCLUDED.schema_version, app_version = EXCLUDED.app_version, applied_at = EXCLUDED.applied_at`,
		appVersion, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record schema info: %w", err)
	}
	return nil
}

// Rollback connects to connStr and reverts up to steps migrations.
func Rollback(connStr string, steps int) (int, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return 0, err
	}
	defer pool.Close()
	return rollback(ctx, pool, steps)
}

// Status summarises the migration state of the database at connStr.
func Status(connStr string) (string, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return "", err
	}
	defer pool.Close()

	migs, err := loadMigrations()
	if err != nil {
		return "", err
	}
	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return "", err
	}
	var (
		schemaVersion int
		appVersion    string
		appliedAt     time.Time
	)
	err = pool.QueryRow(ctx, `SELECT schema_version, app_version, applied_at FROM schema_info WHERE id = 1`).
		Scan(&schemaVersion, &appVersion, &appliedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	return fmt.Sprintf("schema_version=%d applied=%d available=%d app_version=%s applied_at=%s",
		schemaVersion, len(applied), len(migs), appVersion, appliedAt.Format(time.RFC3339)), nil
}
