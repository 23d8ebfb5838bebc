package ethchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

const headBuffer = 16

// Head is a new block notification
type Head struct {
	Number *big.Int
	Hash   common.Hash
}

// Subscription delivers new heads until Unsubscribe is called.
// Err is closed when the subscription ends.
type Subscription interface {
	Heads() <-chan Head
	Err() <-chan error
	Unsubscribe()
}

// SubscribeNewHeads opens a head subscription. The first attempt is made
// synchronously so an unusable endpoint is reported to the caller; after that
// a dropped subscription is re-established in the background with capped
// exponential backoff.
func (c *Client) SubscribeNewHeads(ctx context.Context) (Subscription, error) {
	headers := make(chan *types.Header, headBuffer)

	first, err := c.backend.SubscribeNewHead(ctx, headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscribe, err)
	}

	s := &headStream{
		heads: make(chan Head),
		quit:  make(chan struct{}),
	}

	s.sub = event.ResubscribeErr(c.backoff, func(ctx context.Context, _ error) (event.Subscription, error) {
		if first != nil {
			sub := first
			first = nil
			return sub, nil
		}
		return c.backend.SubscribeNewHead(ctx, headers)
	})

	go s.forward(headers)

	return s, nil
}

type headStream struct {
	sub   event.Subscription
	heads chan Head
	quit  chan struct{}
	once  sync.Once
}

func (s *headStream) Heads() <-chan Head { return s.heads }
func (s *headStream) Err() <-chan error  { return s.sub.Err() }

func (s *headStream) Unsubscribe() {
	s.once.Do(func() {
		close(s.quit)
		s.sub.Unsubscribe()
	})
}

func (s *headStream) forward(headers <-chan *types.Header) {
	for {
		select {
		case <-s.quit:
			return
		case h := <-headers:
			head := Head{Number: h.Number, Hash: h.Hash()}
			select {
			case s.heads <- head:
			case <-s.quit:
				return
			}
		}
	}
}
