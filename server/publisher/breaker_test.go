package publisher_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/racer/server/publisher"
)

func TestBreakerChain(t *testing.T) {
	t.Parallel()

	t.Run("it passes heads through", func(t *testing.T) {
		t.Parallel()

		// Arrange
		chain := publisher.NewBreakerChain(fakeChain{head: 42}, 3, time.Minute, discardLogger())

		// Act
		head, err := chain.HeadBlockNumber(t.Context())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(42), head)
	})

	t.Run("it stops calling a failing endpoint", func(t *testing.T) {
		t.Parallel()

		// Arrange
		inner := &countingChain{err: errors.New("rpc down")}
		chain := publisher.NewBreakerChain(inner, 3, time.Minute, discardLogger())
		for range 3 {
			_, err := chain.HeadBlockNumber(t.Context())
			require.Error(t, err)
		}

		// Act
		_, err := chain.HeadBlockNumber(t.Context())

		// Assert
		assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, 3, inner.calls)
	})

	t.Run("it probes again after the cooldown", func(t *testing.T) {
		t.Parallel()

		// Arrange
		inner := &countingChain{err: errors.New("rpc down")}
		chain := publisher.NewBreakerChain(inner, 1, 10*time.Millisecond, discardLogger())
		_, _ = chain.HeadBlockNumber(t.Context())
		inner.err = nil
		inner.head = 7

		// Act
		time.Sleep(20 * time.Millisecond)
		head, err := chain.HeadBlockNumber(t.Context())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(7), head)
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingChain struct {
	head  uint64
	err   error
	calls int
}

func (c *countingChain) HeadBlockNumber(context.Context) (uint64, error) {
	c.calls++
	return c.head, c.err
}
