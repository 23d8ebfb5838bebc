package pgxdb_test

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/racer/pkg/pgxdb"
)

func TestWithMaxConns(t *testing.T) {
	t.Parallel()

	t.Run("it caps the pool and keeps the minimum below the cap", func(t *testing.T) {
		t.Parallel()

		// Arrange
		cfg := &pgxpool.Config{MinConns: 2, MaxConns: 10}

		// Act
		pgxdb.WithMaxConns(1)(cfg)

		// Assert
		assert.Equal(t, int32(1), cfg.MaxConns)
		assert.Equal(t, int32(1), cfg.MinConns)
	})

	t.Run("it ignores non-positive values", func(t *testing.T) {
		t.Parallel()

		// Arrange
		cfg := &pgxpool.Config{MinConns: 2, MaxConns: 10}

		// Act
		pgxdb.WithMaxConns(0)(cfg)

		// Assert
		assert.Equal(t, int32(10), cfg.MaxConns)
		assert.Equal(t, int32(2), cfg.MinConns)
	})
}
