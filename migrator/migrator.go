package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/screwyprof/racer/indexer/store/pgxstore"
	"github.com/screwyprof/racer/pkg/pgxdb"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"
	seededHashPrefix    = "seeded_demo_"
)

// SQL queries
const (
	initSyncHeightSQL = `
		INSERT INTO sync_heights (chain_id, height)
		VALUES ($1, $2)
		ON CONFLICT (chain_id) DO NOTHING`
)

// Migration-related errors
var (
	ErrMigrationExecution  = errors.New("migration execution failed")
	ErrSyncHeightOperation = errors.New("sync height operation failed")
	ErrSeed                = errors.New("seeding failed")
)

// SchemaMigrator applies only database schema migrations
// Used for production and tests that need schema-only setup
type SchemaMigrator struct {
	migrationsDir string
}

// NewSchemaMigrator creates a migrator that applies schema migrations only
func NewSchemaMigrator(migrationsDir string) *SchemaMigrator {
	return &SchemaMigrator{
		migrationsDir: migrationsDir,
	}
}

func (m *SchemaMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(_ context.Context, db *sql.DB, _ pgtestdb.Config) error {
	return applyMigrations(db, m.migrationsDir)
}

// SeededMigrator applies schema migrations and writes the demo race of one chain
// through the indexer store, so read-side tests see rows shaped exactly as the
// indexer writes them
type SeededMigrator struct {
	migrationsDir string
	chainID       uint64
	seedTimeout   time.Duration
}

// NewSeededMigrator creates a migrator that applies schema + seeds demo data
func NewSeededMigrator(migrationsDir string, chainID uint64, seedTimeout time.Duration) *SeededMigrator {
	return &SeededMigrator{
		migrationsDir: migrationsDir,
		chainID:       chainID,
		seedTimeout:   seedTimeout,
	}
}

func (m *SeededMigrator) Hash() (string, error) {
	baseHash, err := migrationsHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return seededHashPrefix + baseHash + "_" + strconv.FormatUint(m.chainID, 10) + "_" + DemoSeedVersion, nil
}

func (m *SeededMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	if err := applyMigrations(db, m.migrationsDir); err != nil {
		return err
	}
	return m.seedDemoData(ctx, conf.URL())
}

// seedDemoData writes DemoSeed in a single indexer transaction
func (m *SeededMigrator) seedDemoData(ctx context.Context, dbURL string) error {
	seed := DemoSeed(m.chainID)

	slog.InfoContext(ctx, "🌱 Seeding demo database with race data",
		"chainID", m.chainID,
		"cycles", len(seed.Cycles),
		"votes", len(seed.Votes),
		"timeout", m.seedTimeout)

	seedCtx, cancel := context.WithTimeout(ctx, m.seedTimeout)
	defer cancel()

	pool, err := pgxdb.NewConnection(seedCtx, dbURL)
	if err != nil {
		return err
	}

	store, storeCloser := pgxstore.New(pool)
	defer storeCloser()

	tx, err := store.Begin(seedCtx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSeed, err)
	}
	defer func() { _ = tx.Rollback(seedCtx) }()

	for _, c := range seed.Cycles {
		if err := tx.UpsertCycle(seedCtx, c); err != nil {
			return fmt.Errorf("%w: %w", ErrSeed, err)
		}
	}
	for _, v := range seed.Votes {
		if err := tx.UpsertVote(seedCtx, v); err != nil {
			return fmt.Errorf("%w: %w", ErrSeed, err)
		}
	}
	for _, c := range seed.Claims {
		if err := tx.SetVoteClaimed(seedCtx, c); err != nil {
			return fmt.Errorf("%w: %w", ErrSeed, err)
		}
	}
	if err := tx.SetSyncHeight(seedCtx, m.chainID, seed.SyncHeight); err != nil {
		return fmt.Errorf("%w: %w", ErrSeed, err)
	}
	if err := tx.Commit(seedCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrSeed, err)
	}

	slog.InfoContext(ctx, "✅ Demo database seeding completed successfully")
	return nil
}

// ApplyMigrations applies database migrations using sql-migrate with the provided pgx pool
func ApplyMigrations(pool *pgxpool.Pool, migrationsDir string) error {
	// Create sql.DB from the pgx pool for sql-migrate
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrationsDir)
}

// InitializeSyncHeight records a starting sync height for a chain unless one is already recorded
func InitializeSyncHeight(ctx context.Context, pool *pgxpool.Pool, chainID, height uint64) error {
	_, err := pool.Exec(ctx, initSyncHeightSQL, chainID, height)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSyncHeightOperation, err)
	}
	return nil
}

func migrationsHash(migrationsDir string) (string, error) {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	hash, err := sqlmigrator.New(source, migrationSet).Hash()
	if err != nil {
		return "", fmt.Errorf("failed to calculate migration hash for %s: %w", migrationsDir, err)
	}
	return hash, nil
}

// applyMigrations applies database migrations using sql-migrate
func applyMigrations(db *sql.DB, migrationsDir string) error {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	_, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return nil
}
