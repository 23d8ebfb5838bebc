// Package dbrow holds the rows read by the server's store and their domain conversions.
package dbrow

import (
	"github.com/shopspring/decimal"

	"github.com/screwyprof/racer/pkg/racer"
	"github.com/screwyprof/racer/server/board"
)

// Cycle is a row of the current_cycles view
type Cycle struct {
	ChainID     int64           `db:"chain_id"`
	ID          decimal.Decimal `db:"id"`
	BlockNumber int64           `db:"block_number"`
	Creator     string          `db:"creator"`
	StartBlock  decimal.Decimal `db:"start_block"`
	BlockLength decimal.Decimal `db:"block_length"`
	VotePrice   decimal.Decimal `db:"vote_price"`
	Balance     decimal.Decimal `db:"balance"`
}

func (r Cycle) ToBoard() board.Cycle {
	return board.Cycle{
		ChainID:     uint64(r.ChainID),
		ID:          r.ID,
		BlockNumber: uint64(r.BlockNumber),
		Creator:     r.Creator,
		StartBlock:  r.StartBlock,
		BlockLength: r.BlockLength,
		VotePrice:   r.VotePrice,
		Balance:     r.Balance,
	}
}

// Entry is one grouped symbol of a cycle
type Entry struct {
	Symbol      []byte          `db:"symbol"`
	Amount      decimal.Decimal `db:"amount"`
	LatestBlock int64           `db:"latest_block"`
}

func (r Entry) ToBoard() board.Entry {
	return board.Entry{
		Symbol:      symbol(r.Symbol),
		Amount:      r.Amount,
		LatestBlock: uint64(r.LatestBlock),
	}
}

// Vote is a vote row as listed by the votes endpoint
type Vote struct {
	ID          decimal.Decimal     `db:"id"`
	CycleID     decimal.Decimal     `db:"cycle_id"`
	BlockNumber int64               `db:"block_number"`
	Placer      string              `db:"placer"`
	Symbol      []byte              `db:"symbol"`
	Amount      decimal.Decimal     `db:"amount"`
	Placement   decimal.Decimal     `db:"placement"`
	Claimed     bool                `db:"claimed"`
	Reward      decimal.NullDecimal `db:"reward"`
}

func (r Vote) ToBoard() board.Vote {
	return board.Vote{
		ID:          r.ID,
		CycleID:     r.CycleID,
		BlockNumber: uint64(r.BlockNumber),
		Placer:      r.Placer,
		Symbol:      symbol(r.Symbol),
		Amount:      r.Amount,
		Placement:   r.Placement,
		Claimed:     r.Claimed,
		Reward:      r.Reward,
	}
}

// symbol copies at most four bytes; shorter values stay zero padded
func symbol(b []byte) racer.Symbol {
	var s racer.Symbol
	copy(s[:], b)
	return s
}
