package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/racer/indexer/config"
)

func TestNew(t *testing.T) {
	t.Run("it reads the rpc endpoints as a list", func(t *testing.T) {
		// Arrange
		t.Setenv("INDEXER_CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
		t.Setenv("INDEXER_RPC_URLS", "ws://a:8545,ws://b:8546")
		t.Setenv("INDEXER_RECONCILE_TIMEOUT", "10s")

		// Act
		cfg := config.New()

		// Assert
		assert.Equal(t, []string{"ws://a:8545", "ws://b:8546"}, cfg.RPCURLs)
		assert.Equal(t, 10*time.Second, cfg.ReconcileTimeout)
		assert.Equal(t, uint64(7), cfg.ReorgThreshold)
	})

	t.Run("it shares the pool size default with the server", func(t *testing.T) {
		// Arrange
		t.Setenv("INDEXER_CONTRACT_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")

		// Act
		cfg := config.New()

		// Assert
		assert.Equal(t, int32(10), cfg.DatabaseMaxConns)
		assert.Equal(t, 30*time.Second, cfg.ReconcileTimeout)
	})

	t.Run("it panics without a contract address", func(t *testing.T) {
		// Arrange
		t.Setenv("INDEXER_CONTRACT_ADDRESS", "")

		// Act & Assert
		assert.Panics(t, func() { config.New() })
	})
}
