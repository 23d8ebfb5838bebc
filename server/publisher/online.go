package publisher

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/screwyprof/racer/server/api"
	"github.com/screwyprof/racer/server/pubsub"
)

// Online broadcasts the open connection count on every tick
type Online struct {
	hub Hub
	config
}

// NewOnline constructs an Online publisher
func NewOnline(hub Hub, opts ...Option) *Online {
	return &Online{hub: hub, config: newConfig(opts)}
}

// Run ticks until ctx is done
func (p *Online) Run(ctx context.Context) error {
	return run(ctx, p.config, p.Tick)
}

// Tick publishes the count when anyone is listening
func (p *Online) Tick(context.Context) {
	if p.hub.SubscriberCount(pubsub.TopicOnline) == 0 {
		return
	}

	payload, err := json.Marshal(api.NewOnlineMessage(p.hub.Online()))
	if err != nil {
		p.log.Error("Online count not encoded", slog.Any("error", err))
		return
	}
	p.hub.Publish(pubsub.TopicOnline, payload)
}
