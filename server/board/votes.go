package board

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/screwyprof/racer/pkg/racer"
)

// Sentinel errors for votes criteria construction
var (
	ErrInvalidPlacer  = errors.New("invalid placer")
	ErrInvalidPerPage = errors.New("invalid per_page")
)

// Vote is the read-side view of a placed vote
type Vote struct {
	ID          decimal.Decimal
	CycleID     decimal.Decimal
	BlockNumber uint64
	Placer      string
	Symbol      racer.Symbol
	Amount      decimal.Decimal
	Placement   decimal.Decimal
	Claimed     bool
	Reward      decimal.NullDecimal
}

// VotesFinder pages through the votes of a chain's current cycle
type VotesFinder interface {
	FindVotes(ctx context.Context, criteria VotesCriteria) (*VotesPage, error)
}

// VotesCriteria selects votes of the current cycle, newest first
type VotesCriteria struct {
	ChainID uint64
	Placer  string // checksummed address; empty means every placer
	Page    Page
	Size    PerPage
}

// ItemsPerPage returns the number of items requested per page
func (c VotesCriteria) ItemsPerPage() uint64 {
	return c.Size.Uint64()
}

// ItemsToSkip returns the number of items to skip for pagination
func (c VotesCriteria) ItemsToSkip() uint64 {
	return (c.Page.Uint64() - 1) * c.Size.Uint64()
}

// NewVotesCriteria validates raw request values into VotesCriteria
func NewVotesCriteria(chainID uint64, placer string, page, perPage uint64) (VotesCriteria, error) {
	if placer != "" {
		if !common.IsHexAddress(placer) {
			return VotesCriteria{}, fmt.Errorf("%w: %q is not an address", ErrInvalidPlacer, placer)
		}
		placer = common.HexToAddress(placer).Hex()
	}

	pp, err := ParsePerPage(perPage)
	if err != nil {
		return VotesCriteria{}, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
	}

	return VotesCriteria{
		ChainID: chainID,
		Placer:  placer,
		Page:    ParsePage(page),
		Size:    pp,
	}, nil
}

// VotesPage represents a page of votes with navigation metadata
type VotesPage struct {
	Votes   []Vote
	HasMore bool
	Number  Page
	Size    PerPage
}

func (p *VotesPage) HasNext() bool     { return p.HasMore }
func (p *VotesPage) HasPrevious() bool { return p.Number > 1 }
