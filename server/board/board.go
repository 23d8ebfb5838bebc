package board

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/racer/pkg/numeric"
	"github.com/screwyprof/racer/pkg/racer"
)

// ErrNoCurrentCycle is returned when a chain has no cycle yet
var ErrNoCurrentCycle = errors.New("no current cycle")

// Cycle is the read-side view of a voting round
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

// EndBlock is the first block after the cycle
func (c Cycle) EndBlock() decimal.Decimal {
	return c.StartBlock.Add(c.BlockLength)
}

// BlocksRemaining counts blocks left in the cycle at head, never below zero
func (c Cycle) BlocksRemaining(head uint64) decimal.Decimal {
	remaining := c.EndBlock().Sub(numeric.FromUint64(head))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Payout is the pool collected by votes at the cycle's vote price
func (c Cycle) Payout(votes uint64) decimal.Decimal {
	return c.VotePrice.Mul(numeric.FromUint64(votes))
}

// Entry is one symbol's standing in a cycle
type Entry struct {
	Symbol      racer.Symbol
	Amount      decimal.Decimal
	LatestBlock uint64
}

// Rank orders entries by amount, highest first. Equal amounts go to the
// symbol whose latest vote landed in the earlier block.
func Rank(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if c := entries[i].Amount.Cmp(entries[j].Amount); c != 0 {
			return c > 0
		}
		return entries[i].LatestBlock < entries[j].LatestBlock
	})
}

// Emoji renders a symbol as its first character, or "?" when the bytes are not UTF-8
func Emoji(s racer.Symbol) string {
	text := strings.TrimRight(string(s[:]), "\x00")
	if text == "" || !utf8.ValidString(text) {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(text)
	return string(r)
}

// Finder reads what the leaderboard is computed from
type Finder interface {
	CurrentCycle(ctx context.Context, chainID uint64) (Cycle, error)
	CountVotes(ctx context.Context, chainID uint64, cycleID decimal.Decimal) (uint64, error)
	Leaderboard(ctx context.Context, chainID uint64, cycleID decimal.Decimal) ([]Entry, error)
}
