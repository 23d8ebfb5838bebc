package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/screwyprof/racer/pkg/httpkit"
	"github.com/screwyprof/racer/server/api"
	"github.com/screwyprof/racer/server/board"
	"github.com/screwyprof/racer/server/pubsub"
)

const GetLeaderboardRoute = http.MethodGet + " " + "/v1/leaderboard"

// LeaderboardBuilder computes the current cycle's standings
type LeaderboardBuilder interface {
	Build(ctx context.Context) (api.LeaderboardMessage, error)
}

// LeaderboardCache is the hub's view of the live leaderboard feed
type LeaderboardCache interface {
	SubscriberCount(t pubsub.Topic) int
	Snapshot(t pubsub.Topic) []byte
}

type GetLeaderboard struct {
	builder LeaderboardBuilder
	cache   LeaderboardCache
}

func NewGetLeaderboard(builder LeaderboardBuilder, cache LeaderboardCache) *GetLeaderboard {
	return &GetLeaderboard{builder: builder, cache: cache}
}

func (h *GetLeaderboard) AddRoutes(m *http.ServeMux) {
	m.Handle(GetLeaderboardRoute, httpkit.HandlerFunc(h.GetLeaderboard))
}

// GetLeaderboard returns the same message the websocket feed carries.
// While the feed has listeners the publisher keeps the snapshot at most one
// interval old, so it is served as is; otherwise the board is built now.
func (h *GetLeaderboard) GetLeaderboard(_ http.ResponseWriter, r *http.Request) http.HandlerFunc {
	if h.cache.SubscriberCount(pubsub.TopicLeaderboard) > 0 {
		if snapshot := h.cache.Snapshot(pubsub.TopicLeaderboard); snapshot != nil {
			return httpkit.RawJSON(snapshot)
		}
	}

	msg, err := h.builder.Build(r.Context())
	if errors.Is(err, board.ErrNoCurrentCycle) {
		return httpkit.JsonError(api.ServiceUnavailable(err))
	}
	if err != nil {
		return httpkit.JsonError(api.Wrap(err))
	}

	return httpkit.JSON(msg)
}
