package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for indexer acceptance tests
// NOTE: values are sized for a scripted in-memory chain, not a live network
type Config struct {
	ChainID         uint64        `env:"INDEXER_TEST_CHAIN_ID" envDefault:"31337"`
	ContractAddress string        `env:"INDEXER_TEST_CONTRACT_ADDRESS" envDefault:"0x5FbDB2315678afecb367f032d93F642f64180aa3"`
	StartHeight     uint64        `env:"INDEXER_TEST_START_HEIGHT" envDefault:"100"`
	ReorgThreshold  uint64        `env:"INDEXER_TEST_REORG_THRESHOLD" envDefault:"2"` // vs 7 in production
	EventTimeout    time.Duration `env:"INDEXER_TEST_EVENT_TIMEOUT" envDefault:"5s"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
