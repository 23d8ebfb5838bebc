package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/screwyprof/racer/pkg/numeric"
	"github.com/screwyprof/racer/server/api"
	"github.com/screwyprof/racer/server/board"
	"github.com/screwyprof/racer/server/pubsub"
)

// ChainReader reports the chain head used for blocks_remaining
type ChainReader interface {
	HeadBlockNumber(ctx context.Context) (uint64, error)
}

// Leaderboard rebuilds the current cycle's standings on every tick
type Leaderboard struct {
	hub     Hub
	finder  board.Finder
	chain   ChainReader
	chainID uint64
	config
}

// NewLeaderboard constructs a Leaderboard publisher for one chain
func NewLeaderboard(hub Hub, finder board.Finder, chain ChainReader, chainID uint64, opts ...Option) *Leaderboard {
	return &Leaderboard{
		hub:     hub,
		finder:  finder,
		chain:   chain,
		chainID: chainID,
		config:  newConfig(opts),
	}
}

// Run ticks until ctx is done
func (p *Leaderboard) Run(ctx context.Context) error {
	return run(ctx, p.config, p.Tick)
}

// Tick publishes a fresh leaderboard when anyone is listening.
// A failed tick leaves the cached snapshot as it was.
func (p *Leaderboard) Tick(ctx context.Context) {
	if p.hub.SubscriberCount(pubsub.TopicLeaderboard) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg, err := p.Build(ctx)
	if err != nil {
		p.log.Warn("Leaderboard not published", slog.Uint64("chain_id", p.chainID), slog.Any("error", err))
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("Leaderboard not encoded", slog.Any("error", err))
		return
	}

	p.hub.Store(pubsub.TopicLeaderboard, payload)
	p.hub.Publish(pubsub.TopicLeaderboard, payload)
}

// Build reads the current cycle, its votes and the chain head into a message
func (p *Leaderboard) Build(ctx context.Context) (api.LeaderboardMessage, error) {
	cycle, err := p.finder.CurrentCycle(ctx, p.chainID)
	if err != nil {
		return api.LeaderboardMessage{}, fmt.Errorf("current cycle: %w", err)
	}

	head, err := p.chain.HeadBlockNumber(ctx)
	if err != nil {
		return api.LeaderboardMessage{}, fmt.Errorf("chain head: %w", err)
	}

	votes, err := p.finder.CountVotes(ctx, p.chainID, cycle.ID)
	if err != nil {
		return api.LeaderboardMessage{}, fmt.Errorf("count votes: %w", err)
	}

	entries, err := p.finder.Leaderboard(ctx, p.chainID, cycle.ID)
	if err != nil {
		return api.LeaderboardMessage{}, fmt.Errorf("leaderboard: %w", err)
	}
	board.Rank(entries)

	remaining, err := numeric.ToUint64(cycle.BlocksRemaining(head))
	if err != nil {
		return api.LeaderboardMessage{}, fmt.Errorf("blocks remaining: %w", err)
	}

	return api.LeaderboardMessage{
		Type:    api.TypeLeaderboard,
		CycleID: json.Number(cycle.ID.String()),
		Metadata: api.Metadata{
			BlocksRemaining: remaining,
			Votes:           votes,
			Payout:          cycle.Payout(votes).String(),
		},
		Leaderboard: toEntries(entries),
	}, nil
}

func toEntries(entries []board.Entry) []api.LeaderboardEntry {
	out := make([]api.LeaderboardEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, api.LeaderboardEntry{
			Emoji: board.Emoji(e.Symbol),
			Value: json.Number(e.Amount.String()),
		})
	}
	return out
}
