package migratortest

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/racer/migrator"
	"github.com/screwyprof/racer/pkg/pgxdb"
)

// CreateIndexerTestDatabase creates a test database with migrations applied and,
// when startHeight is non-zero, the chain's sync height initialized.
// This mirrors the production pattern: schema first, then sync height.
func CreateIndexerTestDatabase(t *testing.T, migrationsDir string, chainID, startHeight uint64) *pgxpool.Pool {
	t.Helper()

	pool := createTestDatabaseWithMigrator(t, migrator.NewSchemaMigrator(migrationsDir))

	if startHeight > 0 {
		err := migrator.InitializeSyncHeight(t.Context(), pool, chainID, startHeight)
		require.NoError(t, err)
	}

	return pool
}

// CreateSeededTestDatabase creates a test database with migrations and migrator.DemoSeed applied.
func CreateSeededTestDatabase(t *testing.T, migrationsDir string, chainID uint64, seedTimeout time.Duration) *pgxpool.Pool {
	t.Helper()

	return createTestDatabaseWithMigrator(t, migrator.NewSeededMigrator(migrationsDir, chainID, seedTimeout))
}

// createTestDatabaseWithMigrator creates a test database using the provided migrator
func createTestDatabaseWithMigrator(t *testing.T, migratorInstance pgtestdb.Migrator) *pgxpool.Pool {
	t.Helper()

	dbConfig := pgtestdb.Custom(t, createTestDatabaseConfig(), migratorInstance)

	pool, err := pgxdb.NewConnection(t.Context(), dbConfig.URL())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	t.Logf("testdbconf: %s", dbConfig.URL())

	return pool
}

// createTestDatabaseConfig creates the standard pgtestdb configuration for racer tests
func createTestDatabaseConfig() pgtestdb.Config {
	return pgtestdb.Config{
		DriverName: "pgx",
		User:       "racer",
		Password:   "racer",
		Host:       "localhost",
		Port:       "5432",
		Options:    "sslmode=disable",
	}
}
