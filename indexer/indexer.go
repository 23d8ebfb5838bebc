package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/racer/pkg/ethchain"
	"github.com/screwyprof/racer/pkg/racer"
)

// Sentinel errors for failure cases
var (
	ErrConnect          = errors.New("chain connection failed")
	ErrHeadStream       = errors.New("head subscription ended")
	ErrHeadResolution   = errors.New("head block number unresolvable")
	ErrSyncHeight       = errors.New("sync height access failed")
	ErrBeginTx          = errors.New("begin reconciliation failed")
	ErrDiscardRange     = errors.New("discarding provisional rows failed")
	ErrQueryEvents      = errors.New("event query failed")
	ErrApplyEvent       = errors.New("applying event failed")
	ErrCommit           = errors.New("reconciliation commit failed")
	ErrUnsupportedEvent = errors.New("unsupported contract event")
)

// Default configuration values
const (
	DefaultReorgThreshold   = uint64(7)
	DefaultReconcileTimeout = 30 * time.Second
)

// ChainClient reads chain state for one chain
// -------------------------------------------
type ChainClient interface {
	ChainID(ctx context.Context) (uint64, error)
	SubscribeNewHeads(ctx context.Context) (ethchain.Subscription, error)
	QueryEvents(ctx context.Context, from, to uint64) ([]racer.Log, error)
}

// Store provides the write side of cycle and vote persistence
type Store interface {
	// SyncHeight returns the last reorg-safe height for a chain, 0 when none is recorded
	SyncHeight(ctx context.Context, chainID uint64) (uint64, error)
	// Begin opens the transaction a whole reconciliation runs in
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one reconciliation unit. Nothing is visible until Commit succeeds,
// and Rollback after Commit is a no-op.
type Tx interface {
	DeleteCycles(ctx context.Context, chainID, fromBlock uint64) error
	DeleteVotes(ctx context.Context, chainID, fromBlock uint64) error
	ResetClaims(ctx context.Context, chainID, fromBlock uint64) error
	UpsertCycle(ctx context.Context, cycle Cycle) error
	UpsertVote(ctx context.Context, vote Vote) error
	SetVoteClaimed(ctx context.Context, claim VoteClaim) error
	SetSyncHeight(ctx context.Context, chainID, height uint64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	Now() time.Time
}

// Cycle is one voting round as stored by the indexer
type Cycle struct {
	ChainID     uint64
	ID          decimal.Decimal
	BlockNumber uint64
	Creator     string
	StartBlock  decimal.Decimal
	BlockLength decimal.Decimal
	VotePrice   decimal.Decimal
	Balance     decimal.Decimal
}

// Vote is one stake placed in a cycle
type Vote struct {
	ChainID     uint64
	ID          decimal.Decimal
	CycleID     decimal.Decimal
	BlockNumber uint64
	Placer      string
	Symbol      racer.Symbol
	Amount      decimal.Decimal
	Placement   decimal.Decimal
}

// VoteClaim marks a vote as claimed at a block
type VoteClaim struct {
	ChainID     uint64
	VoteID      decimal.Decimal
	BlockNumber uint64
	Reward      decimal.Decimal
}

// Applied counts the events a reconciliation wrote
type Applied struct {
	Cycles int
	Votes  int
	Claims int
}

// Total returns the number of applied events
func (a Applied) Total() int {
	return a.Cycles + a.Votes + a.Claims
}

// Event represents a service lifecycle event
// ------------------------------------------
type Event any

// FollowingStarted is emitted once the chain is identified and heads are streaming
type FollowingStarted struct {
	ChainID        uint64
	StartedAt      time.Time
	StartHeight    uint64
	ReorgThreshold uint64
}

// RangeReconciled is emitted after a successful commit
type RangeReconciled struct {
	ChainID        uint64
	From           uint64
	Head           uint64
	PreviousHeight uint64
	SyncHeight     uint64
	Applied        Applied
	Duration       time.Duration
}

// ReconcileFailed is emitted when a tick is abandoned; the cursor is unchanged
type ReconcileFailed struct {
	ChainID uint64
	Head    uint64
	Err     error
}

// Faulted is emitted when the service stops on an unrecoverable error
type Faulted struct {
	ChainID uint64
	Err     error
}

// FollowingStopped is emitted when the context is cancelled
type FollowingStopped struct {
	ChainID uint64
	Reason  error
}
