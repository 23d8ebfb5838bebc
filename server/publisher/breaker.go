package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker defaults
const (
	DefaultBreakerFailures = 3
	DefaultBreakerCooldown = 30 * time.Second
)

// BreakerChain fails head reads fast while the RPC endpoint keeps failing.
// After the cooldown one probe request decides whether it closes again.
type BreakerChain struct {
	chain ChainReader
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerChain opens after failures consecutive errors and stays open for cooldown
func NewBreakerChain(chain ChainReader, failures uint32, cooldown time.Duration, log *slog.Logger) *BreakerChain {
	return &BreakerChain{
		chain: chain,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "chain-head",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("Circuit breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			},
		}),
	}
}

func (b *BreakerChain) HeadBlockNumber(ctx context.Context) (uint64, error) {
	head, err := b.cb.Execute(func() (any, error) {
		return b.chain.HeadBlockNumber(ctx)
	})
	if err != nil {
		return 0, err
	}
	return head.(uint64), nil
}
