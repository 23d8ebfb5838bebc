// Package ethchaintest provides an in-memory chain for tests that run the
// real ethchain.Client: scripted heads and contract logs, no RPC endpoint.
package ethchaintest

import (
	"context"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Backend implements ethchain.Backend in memory
type Backend struct {
	chainID *big.Int

	mu         sync.Mutex
	head       uint64
	logs       []types.Log
	headers    chan<- *types.Header
	subscribed chan struct{}
}

func NewBackend(chainID uint64) *Backend {
	return &Backend{
		chainID:    new(big.Int).SetUint64(chainID),
		subscribed: make(chan struct{}),
	}
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.chainID), nil
}

func (b *Backend) BlockNumber(context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.head, nil
}

// FilterLogs returns the canonical logs of the queried contracts within the block range
func (b *Backend) FilterLogs(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []types.Log
	for _, l := range b.logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		if q.ToBlock != nil && l.BlockNumber > q.ToBlock.Uint64() {
			continue
		}
		if len(q.Addresses) > 0 && !slices.Contains(q.Addresses, l.Address) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// SubscribeNewHead keeps only the latest subscriber
func (b *Backend) SubscribeNewHead(_ context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.headers == nil {
		close(b.subscribed)
	}
	b.headers = ch

	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (b *Backend) Close() {}

// SetLogs replaces the canonical chain's logs, which is how a reorg looks to the indexer
func (b *Backend) SetLogs(logs ...types.Log) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.logs = slices.Clone(logs)
	slices.SortStableFunc(b.logs, func(x, y types.Log) int {
		switch {
		case x.BlockNumber < y.BlockNumber:
			return -1
		case x.BlockNumber > y.BlockNumber:
			return 1
		default:
			return int(x.Index) - int(y.Index)
		}
	})
}

// Mine moves the head to number and announces it once someone has subscribed
func (b *Backend) Mine(ctx context.Context, number uint64) error {
	select {
	case <-b.subscribed:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.mu.Lock()
	b.head = number
	headers := b.headers
	b.mu.Unlock()

	select {
	case headers <- &types.Header{Number: new(big.Int).SetUint64(number)}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
