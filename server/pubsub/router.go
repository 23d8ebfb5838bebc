package pubsub

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultQueueSize bounds the messages waiting to be written to one connection
const DefaultQueueSize = 1000

// Conn is a message-oriented client connection
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
}

// RouterOption configures the Router
type RouterOption func(*Router)

// WithQueueSize sets the per-connection outbound queue capacity
func WithQueueSize(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.queueSize = n
		}
	}
}

// WithRequestRate limits how fast one connection may replace its subscriptions.
// Requests beyond the burst wait for a token, which also stops reading from the client.
func WithRequestRate(limit rate.Limit, burst int) RouterOption {
	return func(r *Router) {
		r.limit = limit
		r.burst = max(1, burst)
	}
}

// WithRouterLogger sets the logger used for connection events
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.log = l }
}

// Router serves hub topics to client connections
type Router struct {
	hub       *Hub
	queueSize int
	limit     rate.Limit
	burst     int
	log       *slog.Logger
}

// NewRouter creates a Router over hub
func NewRouter(hub *Hub, opts ...RouterOption) *Router {
	r := &Router{
		hub:       hub,
		queueSize: DefaultQueueSize,
		limit:     rate.Inf,
		burst:     1,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Serve runs one connection until the client goes away, a write fails or ctx
// ends. The online counter covers exactly the lifetime of the call.
func (r *Router) Serve(ctx context.Context, conn Conn) error {
	r.hub.Connect()
	defer r.hub.Disconnect()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := newSession(ctx, r.hub, r.queueSize)
	defer s.Close()

	errc := make(chan error, 2)
	go func() { errc <- s.writeLoop(ctx, conn) }()
	go func() { errc <- s.readLoop(ctx, conn, rate.NewLimiter(r.limit, r.burst), r.log) }()

	err := <-errc
	cancel()
	<-errc
	return err
}

// session is the subscription state of one connection. Replace is the only
// way its topic set changes.
type session struct {
	hub    *Hub
	parent context.Context
	out    chan []byte

	mu     sync.Mutex
	active []Topic
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newSession(ctx context.Context, hub *Hub, queueSize int) *session {
	return &session{
		hub:    hub,
		parent: ctx,
		out:    make(chan []byte, queueSize),
		cancel: func() {},
	}
}

// Replace stops every running forwarder, waits until they have left the hub,
// then starts one forwarder per topic. When it returns the new set is
// subscribed and no forwarder of the old set is left.
func (s *session) Replace(topics []Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.active = slices.Clone(topics)

	for _, t := range s.active {
		sub := s.hub.Subscribe(t)
		s.wg.Add(1)
		go s.forward(ctx, sub)
	}
}

// Close stops every forwarder
func (s *session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.active = nil
}

func (s *session) forward(ctx context.Context, sub *Subscription) {
	defer s.wg.Done()
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if !s.enqueue(ctx, msg) {
				return
			}
		}
	}
}

func (s *session) enqueue(ctx context.Context, msg []byte) bool {
	select {
	case s.out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *session) writeLoop(ctx context.Context, conn Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.out:
			if err := conn.Write(ctx, msg); err != nil {
				return err
			}
		}
	}
}

func (s *session) readLoop(ctx context.Context, conn Conn, limiter *rate.Limiter, log *slog.Logger) error {
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		req, err := ParseRequest(data)
		if err != nil {
			log.DebugContext(ctx, "Rejected subscription request", slog.Any("error", err))
			if !s.enqueue(ctx, []byte(err.Error())) {
				return ctx.Err()
			}
			continue
		}

		s.Replace(req.Topics)
		log.DebugContext(ctx, "Subscriptions replaced",
			slog.Any("topics", req.Topics),
			slog.Any("address", req.Address),
		)
	}
}
