package pubsub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/screwyprof/racer/server/api"
)

// Topic is a named broadcast feed
type Topic string

const (
	TopicOnline      Topic = api.TypeOnline
	TopicLeaderboard Topic = api.TypeLeaderboard
)

// Topics lists every feed the hub carries
var Topics = []Topic{TopicOnline, TopicLeaderboard}

var ErrUnknownTopic = errors.New("unknown subscription")

// ParseTopic maps a lowercase feed name to its Topic
func ParseTopic(s string) (Topic, error) {
	switch t := Topic(s); t {
	case TopicOnline, TopicLeaderboard:
		return t, nil
	default:
		return "", fmt.Errorf("%w %q, expected %q or %q", ErrUnknownTopic, s, TopicOnline, TopicLeaderboard)
	}
}

// DefaultBufferSize is how many messages a subscriber may lag behind before the oldest is dropped
const DefaultBufferSize = 1000

// HubOption configures the Hub
type HubOption func(*Hub)

// WithBufferSize sets the per-subscriber queue capacity
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithLogger sets the logger used for drop reports
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.log = l }
}

// WithRegisterer registers the hub's metrics with reg
func WithRegisterer(reg prometheus.Registerer) HubOption {
	return func(h *Hub) { h.registerer = reg }
}

// Hub fans out topic messages to subscribers, counts open connections and
// keeps the last leaderboard payload for late joiners
type Hub struct {
	online     atomic.Int64
	bufferSize int
	log        *slog.Logger
	registerer prometheus.Registerer
	metrics    *hubMetrics
	topics     map[Topic]*topic
}

// NewHub creates a Hub with one topic per feed
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		bufferSize: DefaultBufferSize,
		log:        slog.Default(),
		topics:     make(map[Topic]*topic, len(Topics)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.metrics = newHubMetrics(h.registerer)
	for _, name := range Topics {
		h.topics[name] = &topic{name: name, subs: make(map[uint64]*Subscription)}
	}
	return h
}

// Connect records an opened connection and returns the new count
func (h *Hub) Connect() int64 {
	n := h.online.Add(1)
	h.metrics.online.Set(float64(n))
	return n
}

// Disconnect records a closed connection and returns the new count
func (h *Hub) Disconnect() int64 {
	n := h.online.Add(-1)
	h.metrics.online.Set(float64(n))
	return n
}

// Online returns the number of open connections
func (h *Hub) Online() int64 {
	return h.online.Load()
}

// SubscriberCount returns how many subscriptions a topic currently has
func (h *Hub) SubscriberCount(t Topic) int {
	tp := h.topic(t)
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return len(tp.subs)
}

// Store replaces the cached snapshot of a topic
func (h *Hub) Store(t Topic, payload []byte) {
	tp := h.topic(t)
	tp.snapMu.Lock()
	tp.snapshot = payload
	tp.snapMu.Unlock()
}

// Snapshot returns what a late joiner receives first: the cached payload,
// or for the online feed a message built from the live counter.
// Nil means there is nothing to send yet.
func (h *Hub) Snapshot(t Topic) []byte {
	if t == TopicOnline {
		payload, err := json.Marshal(api.NewOnlineMessage(h.Online()))
		if err != nil {
			return nil
		}
		return payload
	}

	tp := h.topic(t)
	tp.snapMu.Lock()
	defer tp.snapMu.Unlock()
	return tp.snapshot
}

// Publish delivers payload to every subscriber of a topic without blocking.
// A subscriber whose queue is full loses its oldest queued message.
func (h *Hub) Publish(t Topic, payload []byte) {
	tp := h.topic(t)
	tp.mu.RLock()
	defer tp.mu.RUnlock()

	for _, sub := range tp.subs {
		if dropped := sub.deliver(payload); dropped > 0 {
			h.metrics.dropped.WithLabelValues(string(t)).Add(float64(dropped))
			h.log.Debug("Subscriber lagging, dropped oldest messages",
				slog.String("topic", string(t)),
				slog.Uint64("subscription", sub.id),
				slog.Int("dropped", dropped),
			)
		}
	}
	h.metrics.published.WithLabelValues(string(t)).Inc()
}

// Subscribe registers a subscription primed with the topic's snapshot
func (h *Hub) Subscribe(t Topic) *Subscription {
	tp := h.topic(t)
	sub := &Subscription{topic: tp, ch: make(chan []byte, h.bufferSize), gauge: h.metrics.subscribers}

	// Holding the write lock keeps a concurrent Publish from slipping in
	// between the snapshot and the registration.
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if snap := h.Snapshot(t); snap != nil {
		sub.ch <- snap
	}
	tp.nextID++
	sub.id = tp.nextID
	tp.subs[sub.id] = sub
	sub.gauge.WithLabelValues(string(t)).Set(float64(len(tp.subs)))

	return sub
}

func (h *Hub) topic(t Topic) *topic {
	tp, ok := h.topics[t]
	if !ok {
		panic(fmt.Sprintf("pubsub: topic %q is not registered", t))
	}
	return tp
}

type topic struct {
	name   Topic
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Subscription

	snapMu   sync.Mutex
	snapshot []byte
}

// Subscription is one subscriber's queue on a topic
type Subscription struct {
	id    uint64
	topic *topic
	ch    chan []byte
	gauge *prometheus.GaugeVec
	once  sync.Once
}

// C returns the queue; it is closed by Unsubscribe
func (s *Subscription) C() <-chan []byte {
	return s.ch
}

// Topic returns the subscribed topic
func (s *Subscription) Topic() Topic {
	return s.topic.name
}

// Unsubscribe removes the subscription from its topic; safe to call more than once
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.topic.mu.Lock()
		defer s.topic.mu.Unlock()
		delete(s.topic.subs, s.id)
		close(s.ch)
		s.gauge.WithLabelValues(string(s.topic.name)).Set(float64(len(s.topic.subs)))
	})
}

// deliver enqueues payload, evicting the oldest queued messages while the queue is full
func (s *Subscription) deliver(payload []byte) (dropped int) {
	for {
		select {
		case s.ch <- payload:
			return dropped
		default:
		}
		select {
		case <-s.ch:
			dropped++
		default:
		}
	}
}
