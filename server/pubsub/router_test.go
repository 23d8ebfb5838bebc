package pubsub_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/screwyprof/racer/server/pubsub"
)

func TestRouter(t *testing.T) {
	t.Parallel()

	t.Run("it counts a connection online for exactly its lifetime", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hub := pubsub.NewHub()
		conn := newMemConn()
		done := serve(t, hub, conn)
		require.Eventually(t, func() bool { return hub.Online() == 1 }, time.Second, 5*time.Millisecond)

		// Act
		conn.hangUp()
		err := awaitServe(t, done)

		// Assert
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, int64(0), hub.Online())
	})

	t.Run("it sends the online count right after subscribing", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hub := pubsub.NewHub()
		conn := newMemConn()
		serve(t, hub, conn)

		// Act
		conn.send(`{"subscriptions":["online"]}`)

		// Assert
		assert.JSONEq(t, `{"type":"online","count":1}`, conn.receive(t))
	})

	t.Run("it sends the cached leaderboard to a late joiner before any tick", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hub := pubsub.NewHub()
		hub.Store(pubsub.TopicLeaderboard, []byte(`{"type":"leaderboard","cycle_id":7}`))
		conn := newMemConn()
		serve(t, hub, conn)

		// Act
		conn.send(`{"address":null,"subscriptions":["leaderboard"]}`)

		// Assert
		assert.Equal(t, `{"type":"leaderboard","cycle_id":7}`, conn.receive(t))
	})

	t.Run("it replaces the subscription set on every request", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hub := pubsub.NewHub()
		hub.Store(pubsub.TopicLeaderboard, []byte("board-1"))
		conn := newMemConn()
		serve(t, hub, conn)

		conn.send(`{"subscriptions":["online"]}`)
		conn.receive(t)

		// Act
		conn.send(`{"subscriptions":["leaderboard"]}`)

		// Assert
		assert.Equal(t, "board-1", conn.receive(t))
		assertSubscribers(t, hub, pubsub.TopicOnline, 0)
		assertSubscribers(t, hub, pubsub.TopicLeaderboard, 1)

		hub.Publish(pubsub.TopicOnline, []byte(`{"type":"online","count":9}`))
		hub.Publish(pubsub.TopicLeaderboard, []byte("board-2"))
		assert.Equal(t, "board-2", conn.receive(t))
		conn.assertSilent(t)
	})

	t.Run("it unsubscribes everything on an empty request", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hub := pubsub.NewHub()
		conn := newMemConn()
		serve(t, hub, conn)
		conn.send(`{"subscriptions":["online","leaderboard"]}`)
		conn.receive(t)
		assertSubscribers(t, hub, pubsub.TopicLeaderboard, 1)

		// Act
		conn.send(`{"subscriptions":[]}`)

		// Assert
		assertSubscribers(t, hub, pubsub.TopicOnline, 0)
		assertSubscribers(t, hub, pubsub.TopicLeaderboard, 0)
	})

	t.Run("it reports a malformed request and keeps the connection open", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hub := pubsub.NewHub()
		conn := newMemConn()
		serve(t, hub, conn)

		// Act
		conn.send(`{"subscriptions":["weather"]}`)
		reply := conn.receive(t)
		conn.send(`{"subscriptions":["online"]}`)

		// Assert
		assert.Contains(t, reply, `unknown subscription "weather"`)
		assert.JSONEq(t, `{"type":"online","count":1}`, conn.receive(t))
	})

	t.Run("it holds back requests beyond the allowed rate", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hub := pubsub.NewHub()
		conn := newMemConn()
		serveWith(t, pubsub.NewRouter(hub, pubsub.WithRequestRate(rate.Every(time.Hour), 1)), conn)

		conn.send(`{"subscriptions":["online"]}`)
		conn.receive(t)

		// Act
		conn.send(`{"subscriptions":["leaderboard"]}`)

		// Assert
		conn.assertSilent(t)
		assert.Equal(t, 1, hub.SubscriberCount(pubsub.TopicOnline))
		assert.Equal(t, 0, hub.SubscriberCount(pubsub.TopicLeaderboard))
	})

	t.Run("it stops and releases its subscriptions when a write fails", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hub := pubsub.NewHub()
		conn := newMemConn()
		conn.writeErr = errors.New("broken pipe")
		done := serve(t, hub, conn)

		// Act
		conn.send(`{"subscriptions":["online"]}`)
		err := awaitServe(t, done)

		// Assert
		assert.EqualError(t, err, "broken pipe")
		assert.Equal(t, 0, hub.SubscriberCount(pubsub.TopicOnline))
		assert.Equal(t, int64(0), hub.Online())
	})

	t.Run("it stops when the context ends", func(t *testing.T) {
		t.Parallel()

		// Arrange
		hub := pubsub.NewHub()
		conn := newMemConn()
		ctx, cancel := context.WithCancel(t.Context())
		router := pubsub.NewRouter(hub)
		done := make(chan error, 1)
		go func() { done <- router.Serve(ctx, conn) }()
		conn.send(`{"subscriptions":["leaderboard"]}`)
		assertSubscribers(t, hub, pubsub.TopicLeaderboard, 1)

		// Act
		cancel()
		err := awaitServe(t, done)

		// Assert
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, hub.SubscriberCount(pubsub.TopicLeaderboard))
	})
}

func serve(t *testing.T, hub *pubsub.Hub, conn *memConn) <-chan error {
	t.Helper()
	return serveWith(t, pubsub.NewRouter(hub), conn)
}

func serveWith(t *testing.T, router *pubsub.Router, conn *memConn) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() { done <- router.Serve(ctx, conn) }()

	t.Cleanup(func() {
		cancel()
		<-done
	})
	return done
}

func awaitServe(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("connection did not close")
		return nil
	}
}

func assertSubscribers(t *testing.T, hub *pubsub.Hub, topic pubsub.Topic, expected int) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return hub.SubscriberCount(topic) == expected
	}, time.Second, 5*time.Millisecond, "%s should have %d subscribers", topic, expected)
}

// memConn is an in-memory client connection
type memConn struct {
	in       chan []byte
	out      chan []byte
	closed   chan struct{}
	writeErr error
}

func newMemConn() *memConn {
	return &memConn{
		in:     make(chan []byte, 16),
		out:    make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

func (c *memConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, io.EOF
	case msg := <-c.in:
		return msg, nil
	}
}

func (c *memConn) Write(ctx context.Context, payload []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.out <- payload:
		return nil
	}
}

func (c *memConn) send(msg string) {
	c.in <- []byte(msg)
}

func (c *memConn) hangUp() {
	close(c.closed)
}

func (c *memConn) receive(t *testing.T) string {
	t.Helper()
	select {
	case msg := <-c.out:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("expected a message from the server")
		return ""
	}
}

func (c *memConn) assertSilent(t *testing.T) {
	t.Helper()
	select {
	case msg := <-c.out:
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}
