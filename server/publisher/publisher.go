// Package publisher periodically builds topic payloads and hands them to the hub.
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/screwyprof/racer/pkg/clock"
	"github.com/screwyprof/racer/server/pubsub"
)

// Defaults for publisher options
const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 5 * time.Second
)

// Clock abstracts the tick source
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// Hub is the part of the broadcast hub a publisher writes to
type Hub interface {
	SubscriberCount(t pubsub.Topic) int
	Online() int64
	Store(t pubsub.Topic, payload []byte)
	Publish(t pubsub.Topic, payload []byte)
}

// Option configures a publisher
type Option func(*config)

// WithInterval sets the time between ticks
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithTimeout bounds the reads of one tick
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(clk Clock) Option {
	return func(c *config) { c.clock = clk }
}

// WithLogger sets the logger for failed ticks
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

type config struct {
	interval time.Duration
	timeout  time.Duration
	clock    Clock
	log      *slog.Logger
}

func newConfig(opts []Option) config {
	c := config{
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		clock:    clock.SystemClock{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// run calls tick after every interval until ctx is done
func run(ctx context.Context, c config, tick func(context.Context)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(c.interval):
			tick(ctx)
		}
	}
}
