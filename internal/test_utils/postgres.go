//go:build integration

package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/finman/finman/internal/config"
	"github.com/finman/finman/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	dbName     = "finman"
	dbUser     = "test_finman"
	dbPassword = "test_finman"
	snapshot   = "finman-test-snapshot"
)

// TestDB is a migrated Postgres container shared by the tests of one package.
type TestDB struct {
	container *postgres.PostgresContainer
	cfg       config.Database
	Pool      *pgxpool.Pool
}

func preparePostgresContainer(ctx context.Context) (*postgres.PostgresContainer, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	return postgres.Run(
		ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(filepath.Join(projectRoot, "dev", "init.sql")),
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)
}

// StartDB starts Postgres, applies all migrations and snapshots the empty schema. Call it from
// TestMain; it exits the process when the database cannot be prepared.
func StartDB() *TestDB {
	ctx := context.Background()

	container, err := preparePostgresContainer(ctx)
	if err != nil {
		log.Errorf("Failed to start postgres container: %v", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")
	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Host:   host,
		Port:   port.Int(),
		User:   dbUser,
		Pass:   dbPassword,
		Name:   dbName,
		Schema: dbName,
	}

	if err := database.Migrate(cfg); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	if err := container.Snapshot(ctx, postgres.WithSnapshotName(snapshot)); err != nil {
		log.Fatalf("Failed to snapshot postgres container: %v", err)
	}

	pool, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	return &TestDB{container: container, cfg: cfg, Pool: pool}
}

// Reset restores the freshly migrated schema. Pool connections are dropped by the restore,
// so the pool is reopened.
func (d *TestDB) Reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	d.Pool.Close()
	if err := d.container.Restore(ctx, postgres.WithSnapshotName(snapshot)); err != nil {
		t.Fatalf("failed to restore snapshot: %v", err)
	}
	pool, err := database.Open(ctx, d.cfg)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	d.Pool = pool
}

func (d *TestDB) Close() {
	d.Pool.Close()
	if err := d.container.Terminate(context.Background()); err != nil {
		log.Warnf("failed to terminate postgres container: %v", err)
	}
}

// Exec runs fixture statements, failing the test on error.
func (d *TestDB) Exec(t *testing.T, sql string, args ...any) {
	t.Helper()
	if _, err := d.Pool.Exec(context.Background(), sql, args...); err != nil {
		t.Fatalf("fixture %q failed: %v", sql, err)
	}
}

// findProjectRoot walks up from the working directory until it finds go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}
