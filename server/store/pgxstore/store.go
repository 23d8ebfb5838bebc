package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/screwyprof/racer/server/board"
	"github.com/screwyprof/racer/server/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrQueryFailed = errors.New("board query failed")
)

const (
	currentCycleQuery = `SELECT chain_id, id, block_number, creator, start_block, block_length, vote_price, balance
FROM current_cycles WHERE chain_id = $1`

	countVotesQuery = `SELECT COUNT(*) FROM votes WHERE chain_id = $1 AND cycle_id = $2`

	leaderboardQuery = `SELECT symbol, SUM(amount) AS amount, MAX(block_number) AS latest_block
FROM votes
WHERE chain_id = $1 AND cycle_id = $2
GROUP BY symbol
ORDER BY amount DESC, latest_block ASC`
)

// Finder reads cycles and votes using pgx
type Finder struct {
	pool *pgxpool.Pool
}

// New creates a Finder over an existing connection pool.
// Returns the finder and a closer function.
func New(pool *pgxpool.Pool) (*Finder, func()) {
	return &Finder{pool: pool}, pool.Close
}

// CurrentCycle returns the chain's cycle with the greatest start block
func (f *Finder) CurrentCycle(ctx context.Context, chainID uint64) (board.Cycle, error) {
	rows, err := f.pool.Query(ctx, currentCycleQuery, int64(chainID))
	if err != nil {
		return board.Cycle{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[dbrow.Cycle])
	if errors.Is(err, pgx.ErrNoRows) {
		return board.Cycle{}, board.ErrNoCurrentCycle
	}
	if err != nil {
		return board.Cycle{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return row.ToBoard(), nil
}

// CountVotes returns how many votes a cycle has
func (f *Finder) CountVotes(ctx context.Context, chainID uint64, cycleID decimal.Decimal) (uint64, error) {
	var n int64
	if err := f.pool.QueryRow(ctx, countVotesQuery, int64(chainID), cycleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return uint64(n), nil
}

// Leaderboard sums a cycle's votes per symbol, ranked
func (f *Finder) Leaderboard(ctx context.Context, chainID uint64, cycleID decimal.Decimal) ([]board.Entry, error) {
	rows, err := f.pool.Query(ctx, leaderboardQuery, int64(chainID), cycleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (board.Entry, error) {
		e, err := pgx.RowToStructByName[dbrow.Entry](row)
		return e.ToBoard(), err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return entries, nil
}

// FindVotes lists the current cycle's votes, newest first.
// Uses LIMIT n+1 to detect another page without a count query.
func (f *Finder) FindVotes(ctx context.Context, criteria board.VotesCriteria) (*board.VotesPage, error) {
	query, args := NewVotesQuery().ForCriteria(criteria).Build()

	rows, err := f.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	votes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (board.Vote, error) {
		v, err := pgx.RowToStructByName[dbrow.Vote](row)
		return v.ToBoard(), err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan failed: %w", ErrQueryFailed, err)
	}

	hasMore := uint64(len(votes)) > criteria.ItemsPerPage()
	if hasMore {
		votes = votes[:criteria.ItemsPerPage()]
	}

	return &board.VotesPage{
		Votes:   votes,
		HasMore: hasMore,
		Number:  criteria.Page,
		Size:    criteria.Size,
	}, nil
}
