// Package ethchain adapts a go-ethereum RPC client to the capabilities the
// indexer and the server need: chain identity, head tracking and Racer
// event queries.
package ethchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/screwyprof/racer/pkg/racer"
)

// Sentinel errors for chain client operations
var (
	ErrDial             = errors.New("failed to dial chain RPC")
	ErrChainID          = errors.New("failed to resolve chain id")
	ErrHeadBlockNumber  = errors.New("failed to resolve head block number")
	ErrSubscribe        = errors.New("failed to subscribe to new heads")
	ErrQueryEvents      = errors.New("failed to query contract events")
	ErrDecodeEvent      = errors.New("failed to decode contract event")
	ErrInvalidBlockSpan = errors.New("invalid block span")
)

// DefaultResubscribeBackoff caps the delay between head resubscription attempts
const DefaultResubscribeBackoff = 30 * time.Second

// Backend is the subset of ethclient.Client used by Client
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	Close()
}

// Option configures the Client
type Option func(*Client)

// WithResubscribeBackoff sets the maximum backoff between head resubscriptions
func WithResubscribeBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// Client reads chain state and Racer events for one contract deployment
type Client struct {
	backend  Backend
	contract common.Address
	backoff  time.Duration
}

// Dial connects to a websocket or IPC endpoint; head subscriptions need one of them
func Dial(ctx context.Context, rawURL string, contract common.Address, opts ...Option) (*Client, error) {
	backend, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDial, err)
	}
	return New(backend, contract, opts...), nil
}

// New wraps an existing backend
func New(backend Backend, contract common.Address, opts ...Option) *Client {
	c := &Client{
		backend:  backend,
		contract: contract,
		backoff:  DefaultResubscribeBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChainID resolves the id of the connected chain
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrChainID, err)
	}
	if !id.IsUint64() {
		return 0, fmt.Errorf("%w: %s overflows uint64", ErrChainID, id)
	}
	return id.Uint64(), nil
}

// HeadBlockNumber returns the current head height
func (c *Client) HeadBlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrHeadBlockNumber, err)
	}
	return n, nil
}

// QueryEvents returns the contract's events in [from, to], in chain order,
// each tagged with the block it was emitted in
func (c *Client) QueryEvents(ctx context.Context, from, to uint64) ([]racer.Log, error) {
	if from > to {
		return nil, fmt.Errorf("%w: from %d > to %d", ErrInvalidBlockSpan, from, to)
	}

	logs, err := c.backend.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.contract},
		Topics:    racer.EventTopics(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: [%d, %d]: %w", ErrQueryEvents, from, to, err)
	}

	events := make([]racer.Log, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		decoded, err := racer.DecodeLog(l)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d tx %s: %w", ErrDecodeEvent, l.BlockNumber, l.TxHash.Hex(), err)
		}
		events = append(events, decoded)
	}
	return events, nil
}

// Close releases the underlying RPC connection
func (c *Client) Close() {
	c.backend.Close()
}
