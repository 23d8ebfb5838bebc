package api

import "encoding/json"

// Push message types
const (
	TypeOnline      = "online"
	TypeLeaderboard = "leaderboard"
)

// SubscribeRequest is what a websocket client sends to choose its feeds.
// A new request replaces the previous one.
type SubscribeRequest struct {
	Address       *string  `json:"address"`
	Subscriptions []string `json:"subscriptions"`
}

// OnlineMessage carries the number of open websocket connections
type OnlineMessage struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// NewOnlineMessage builds an online message for count
func NewOnlineMessage(count int64) OnlineMessage {
	return OnlineMessage{Type: TypeOnline, Count: count}
}

// LeaderboardMessage is the current cycle's standings.
// Chain integers are rendered as JSON numbers of arbitrary size.
type LeaderboardMessage struct {
	Type        string             `json:"type"`
	CycleID     json.Number        `json:"cycle_id"`
	Metadata    Metadata           `json:"metadata"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type Metadata struct {
	BlocksRemaining uint64 `json:"blocks_remaining"`
	Votes           uint64 `json:"votes"`
	Payout          string `json:"payout"`
}

type LeaderboardEntry struct {
	Emoji string      `json:"emoji"`
	Value json.Number `json:"value"`
}

// VotesRequest represents the query parameters for GET /v1/votes
type VotesRequest struct {
	Placer  string `query:"placer"`
	Page    uint64 `query:"page"`
	PerPage uint64 `query:"per_page"`
}

// Vote represents a single vote in the API response
type Vote struct {
	ID        string  `json:"id"`
	CycleID   string  `json:"cycle_id"`
	Block     string  `json:"block"`
	Placer    string  `json:"placer"`
	Emoji     string  `json:"emoji"`
	Amount    string  `json:"amount"`
	Placement string  `json:"placement"`
	Claimed   bool    `json:"claimed"`
	Reward    *string `json:"reward,omitempty"`
}

// VotesResponse represents the API response format for GET /v1/votes
type VotesResponse struct {
	Data []Vote `json:"data"`
}

// HealthResponse represents the API response format for GET /healthz
type HealthResponse struct {
	Status string `json:"status"`
	Online int64  `json:"online"`
}
