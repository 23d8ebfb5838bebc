package dbrow

import (
	"github.com/jackc/pgx/v5"

	"github.com/screwyprof/racer/indexer"
)

// CycleArgs maps a reconciled cycle onto the named parameters of the cycles table
func CycleArgs(c indexer.Cycle) pgx.NamedArgs {
	return pgx.NamedArgs{
		"chain_id":     c.ChainID,
		"id":           c.ID,
		"block_number": c.BlockNumber,
		"creator":      c.Creator,
		"start_block":  c.StartBlock,
		"block_length": c.BlockLength,
		"vote_price":   c.VotePrice,
		"balance":      c.Balance,
	}
}

// VoteArgs maps a reconciled vote onto the named parameters of the votes table.
// The symbol is stored as its raw four bytes.
func VoteArgs(v indexer.Vote) pgx.NamedArgs {
	return pgx.NamedArgs{
		"chain_id":     v.ChainID,
		"id":           v.ID,
		"cycle_id":     v.CycleID,
		"block_number": v.BlockNumber,
		"placer":       v.Placer,
		"symbol":       v.Symbol[:],
		"amount":       v.Amount,
		"placement":    v.Placement,
	}
}

// ClaimArgs maps a claim onto the named parameters of the claim update
func ClaimArgs(c indexer.VoteClaim) pgx.NamedArgs {
	return pgx.NamedArgs{
		"chain_id":         c.ChainID,
		"id":               c.VoteID,
		"claimed_at_block": c.BlockNumber,
		"reward":           c.Reward,
	}
}
