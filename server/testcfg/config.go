package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for server acceptance tests
type Config struct {
	LogLevel         string        `env:"SERVER_TEST_LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool          `env:"SERVER_TEST_LOG_HUMAN_FRIENDLY" envDefault:"true"`
	ChainID          uint64        `env:"SERVER_TEST_CHAIN_ID" envDefault:"31337"`
	Head             uint64        `env:"SERVER_TEST_HEAD" envDefault:"213"` // the demo seed's sync height
	SeedTimeout      time.Duration `env:"SERVER_TEST_SEED_TIMEOUT" envDefault:"5s"`
	ReadTimeout      time.Duration `env:"SERVER_TEST_READ_TIMEOUT" envDefault:"2s"`
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
