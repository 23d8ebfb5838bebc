package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/screwyprof/racer/pkg/clock"
	"github.com/screwyprof/racer/pkg/ethchain"
	"github.com/screwyprof/racer/pkg/racer"
)

// Option configures the Service
// ------------------------------------------------
type Option func(*Service)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithReorgThreshold sets how many blocks below the head are treated as final
func WithReorgThreshold(n uint64) Option {
	return func(s *Service) { s.reorgThreshold = n }
}

// WithStartHeight sets the lowest block ever indexed
func WithStartHeight(n uint64) Option {
	return func(s *Service) { s.startHeight = n }
}

// WithReconcileTimeout bounds one reconciliation; zero disables the bound
func WithReconcileTimeout(d time.Duration) Option {
	return func(s *Service) { s.reconcileTimeout = d }
}

// Service follows one chain and keeps the store reconciled with its events
// ------------------------------------------------------------------------
type Service struct {
	client           ChainClient
	store            Store
	clock            Clock
	reorgThreshold   uint64
	startHeight      uint64
	reconcileTimeout time.Duration
	events           chan Event
}

// NewService constructs a Service with required dependencies and options.
// By default, it uses a real clock, a reorg threshold of 7 blocks, start
// height 0 and a 30s reconciliation timeout.
func NewService(client ChainClient, store Store, opts ...Option) *Service {
	s := &Service{
		client:           client,
		store:            store,
		clock:            clock.SystemClock{},
		reorgThreshold:   DefaultReorgThreshold,
		reconcileTimeout: DefaultReconcileTimeout,
		events:           make(chan Event, 10),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the follow loop and returns the events channel and done channel.
//
// Shutdown pattern:
//  1. Cancel context to request shutdown: cancel()
//  2. Service stops producing events and closes events channel
//  3. Wait for complete shutdown: <-done
//
// The done channel also closes on its own when the service faults.
func (s *Service) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		defer close(s.events)
		defer close(done)
		s.run(ctx)
	}()
	return s.events, done
}

// run walks Connecting -> Following -> Faulted|stopped
func (s *Service) run(ctx context.Context) {
	// Connecting
	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		s.events <- Faulted{Err: fmt.Errorf("%w: %w", ErrConnect, err)}
		return
	}

	sub, err := s.client.SubscribeNewHeads(ctx)
	if err != nil {
		s.events <- Faulted{ChainID: chainID, Err: fmt.Errorf("%w: %w", ErrConnect, err)}
		return
	}
	defer sub.Unsubscribe()

	// Following
	s.events <- FollowingStarted{
		ChainID:        chainID,
		StartedAt:      s.clock.Now(),
		StartHeight:    s.startHeight,
		ReorgThreshold: s.reorgThreshold,
	}

	for {
		select {
		case <-ctx.Done():
			s.events <- FollowingStopped{ChainID: chainID, Reason: ctx.Err()}
			return

		case err := <-sub.Err():
			if err == nil {
				err = errors.New("subscription closed")
			}
			s.events <- Faulted{ChainID: chainID, Err: fmt.Errorf("%w: %w", ErrHeadStream, err)}
			return

		case head := <-sub.Heads():
			height, err := resolveHead(head)
			if err != nil {
				s.events <- Faulted{ChainID: chainID, Err: err}
				return
			}

			result, err := s.follow(ctx, chainID, height)
			if err != nil {
				observeFailure(chainID)
				s.events <- ReconcileFailed{ChainID: chainID, Head: height, Err: err}
				continue
			}

			observeSuccess(result)
			s.events <- result
		}
	}
}

// follow handles one head notification: compute the range, reconcile it, advance the cursor
func (s *Service) follow(ctx context.Context, chainID, head uint64) (RangeReconciled, error) {
	started := s.clock.Now()

	last, err := s.store.SyncHeight(ctx, chainID)
	if err != nil {
		return RangeReconciled{}, fmt.Errorf("%w: %w", ErrSyncHeight, err)
	}

	safe := ReorgSafeHeight(head, s.reorgThreshold)
	from := TargetHeight(last, s.startHeight, safe)

	if s.reconcileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.reconcileTimeout)
		defer cancel()
	}

	applied, err := s.reconcile(ctx, chainID, from, head, safe)
	if err != nil {
		return RangeReconciled{}, err
	}

	return RangeReconciled{
		ChainID:        chainID,
		From:           from,
		Head:           head,
		PreviousHeight: last,
		SyncHeight:     safe,
		Applied:        applied,
		Duration:       s.clock.Now().Sub(started),
	}, nil
}

// reconcile replaces every row derived from [from, head] with what the chain
// reports now, and moves the cursor to safe, all in one transaction
func (s *Service) reconcile(ctx context.Context, chainID, from, head, safe uint64) (Applied, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Applied{}, fmt.Errorf("%w: %w", ErrBeginTx, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	if err := tx.DeleteCycles(ctx, chainID, from); err != nil {
		return Applied{}, fmt.Errorf("%w: cycles: %w", ErrDiscardRange, err)
	}
	if err := tx.DeleteVotes(ctx, chainID, from); err != nil {
		return Applied{}, fmt.Errorf("%w: votes: %w", ErrDiscardRange, err)
	}
	if err := tx.ResetClaims(ctx, chainID, from); err != nil {
		return Applied{}, fmt.Errorf("%w: claims: %w", ErrDiscardRange, err)
	}

	logs, err := s.client.QueryEvents(ctx, from, head)
	if err != nil {
		return Applied{}, fmt.Errorf("%w: %w", ErrQueryEvents, err)
	}

	var applied Applied
	for _, l := range logs {
		if err := apply(ctx, tx, chainID, l, &applied); err != nil {
			return Applied{}, fmt.Errorf("%w: block %d: %w", ErrApplyEvent, l.BlockNumber, err)
		}
	}

	if err := tx.SetSyncHeight(ctx, chainID, safe); err != nil {
		return Applied{}, fmt.Errorf("%w: %w", ErrSyncHeight, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Applied{}, fmt.Errorf("%w: %w", ErrCommit, err)
	}

	return applied, nil
}

func apply(ctx context.Context, tx Tx, chainID uint64, l racer.Log, applied *Applied) error {
	switch e := l.Event.(type) {
	case racer.CycleCreated:
		applied.Cycles++
		return tx.UpsertCycle(ctx, Cycle{
			ChainID:     chainID,
			ID:          e.ID,
			BlockNumber: l.BlockNumber,
			Creator:     e.Creator.Hex(),
			StartBlock:  e.StartBlock,
			BlockLength: e.BlockLength,
			VotePrice:   e.VotePrice,
		})
	case racer.VotePlaced:
		applied.Votes++
		return tx.UpsertVote(ctx, Vote{
			ChainID:     chainID,
			ID:          e.VoteID,
			CycleID:     e.CycleID,
			BlockNumber: l.BlockNumber,
			Placer:      e.Placer.Hex(),
			Symbol:      e.Symbol,
			Amount:      e.Amount,
			Placement:   e.Placement,
		})
	case racer.VoteClaimed:
		applied.Claims++
		return tx.SetVoteClaimed(ctx, VoteClaim{
			ChainID:     chainID,
			VoteID:      e.VoteID,
			BlockNumber: l.BlockNumber,
			Reward:      e.Reward,
		})
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedEvent, l.Event)
	}
}

func resolveHead(head ethchain.Head) (uint64, error) {
	if head.Number == nil {
		return 0, fmt.Errorf("%w: block %s has no number", ErrHeadResolution, head.Hash.Hex())
	}
	if !head.Number.IsUint64() {
		return 0, fmt.Errorf("%w: block %s has number %s", ErrHeadResolution, head.Hash.Hex(), head.Number)
	}
	return head.Number.Uint64(), nil
}

// ReorgSafeHeight is the highest block treated as final, clamped at zero
func ReorgSafeHeight(head, reorgThreshold uint64) uint64 {
	if head < reorgThreshold {
		return 0
	}
	return head - reorgThreshold
}

// TargetHeight is where a reconciliation starts: never below what is
// recorded or configured, never above the reorg-safe height
func TargetHeight(lastSynced, startHeight, reorgSafe uint64) uint64 {
	return min(max(lastSynced, startHeight), reorgSafe)
}
