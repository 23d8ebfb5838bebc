package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/racer/indexer"
	"github.com/screwyprof/racer/indexer/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrSyncHeightFailed  = errors.New("sync height operation failed")
	ErrDeleteFailed      = errors.New("delete operation failed")
	ErrResetClaimsFailed = errors.New("claim reset failed")
	ErrUpsertFailed      = errors.New("upsert operation failed")
	ErrClaimFailed       = errors.New("claim update failed")
)

const (
	syncHeightSQL = `SELECT height FROM sync_heights WHERE chain_id = $1`

	setSyncHeightSQL = `
		INSERT INTO sync_heights (chain_id, height) VALUES ($1, $2)
		ON CONFLICT (chain_id) DO UPDATE SET height = EXCLUDED.height, updated_at = CURRENT_TIMESTAMP`

	deleteCyclesSQL = `DELETE FROM cycles WHERE chain_id = $1 AND block_number >= $2`

	deleteVotesSQL = `DELETE FROM votes WHERE chain_id = $1 AND block_number >= $2`

	resetClaimsSQL = `
		UPDATE votes SET claimed = FALSE, claimed_at_block = NULL, reward = NULL
		WHERE chain_id = $1 AND claimed_at_block >= $2`

	upsertCycleSQL = `
		INSERT INTO cycles (chain_id, id, block_number, creator, start_block, block_length, vote_price, balance)
		VALUES (@chain_id, @id, @block_number, @creator, @start_block, @block_length, @vote_price, @balance)
		ON CONFLICT (chain_id, id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			creator      = EXCLUDED.creator,
			start_block  = EXCLUDED.start_block,
			block_length = EXCLUDED.block_length,
			vote_price   = EXCLUDED.vote_price,
			balance      = EXCLUDED.balance`

	upsertVoteSQL = `
		INSERT INTO votes (chain_id, id, cycle_id, block_number, placer, symbol, amount, placement)
		VALUES (@chain_id, @id, @cycle_id, @block_number, @placer, @symbol, @amount, @placement)
		ON CONFLICT (chain_id, id) DO UPDATE SET
			cycle_id         = EXCLUDED.cycle_id,
			block_number     = EXCLUDED.block_number,
			placer           = EXCLUDED.placer,
			symbol           = EXCLUDED.symbol,
			amount           = EXCLUDED.amount,
			placement        = EXCLUDED.placement,
			claimed          = FALSE,
			claimed_at_block = NULL,
			reward           = NULL`

	// A claim for a vote that is not stored is a no-op
	setVoteClaimedSQL = `
		UPDATE votes SET claimed = TRUE, claimed_at_block = @claimed_at_block, reward = @reward
		WHERE chain_id = @chain_id AND id = @id`
)

// Store implements indexer.Store using pgx
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// SyncHeight returns the recorded sync height of a chain, 0 when none is recorded
func (s *Store) SyncHeight(ctx context.Context, chainID uint64) (uint64, error) {
	var height uint64
	err := s.pool.QueryRow(ctx, syncHeightSQL, chainID).Scan(&height)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSyncHeightFailed, err)
	}
	return height, nil
}

// Begin opens a reconciliation transaction
func (s *Store) Begin(ctx context.Context) (indexer.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	return &Tx{tx: tx}, nil
}

// Tx implements indexer.Tx over a single pgx transaction
type Tx struct {
	tx pgx.Tx
}

func (t *Tx) DeleteCycles(ctx context.Context, chainID, fromBlock uint64) error {
	if _, err := t.tx.Exec(ctx, deleteCyclesSQL, chainID, fromBlock); err != nil {
		return fmt.Errorf("%w: cycles: %w", ErrDeleteFailed, err)
	}
	return nil
}

func (t *Tx) DeleteVotes(ctx context.Context, chainID, fromBlock uint64) error {
	if _, err := t.tx.Exec(ctx, deleteVotesSQL, chainID, fromBlock); err != nil {
		return fmt.Errorf("%w: votes: %w", ErrDeleteFailed, err)
	}
	return nil
}

func (t *Tx) ResetClaims(ctx context.Context, chainID, fromBlock uint64) error {
	if _, err := t.tx.Exec(ctx, resetClaimsSQL, chainID, fromBlock); err != nil {
		return fmt.Errorf("%w: %w", ErrResetClaimsFailed, err)
	}
	return nil
}

func (t *Tx) UpsertCycle(ctx context.Context, c indexer.Cycle) error {
	if _, err := t.tx.Exec(ctx, upsertCycleSQL, dbrow.CycleArgs(c)); err != nil {
		return fmt.Errorf("%w: cycle %s: %w", ErrUpsertFailed, c.ID, err)
	}
	return nil
}

func (t *Tx) UpsertVote(ctx context.Context, v indexer.Vote) error {
	if _, err := t.tx.Exec(ctx, upsertVoteSQL, dbrow.VoteArgs(v)); err != nil {
		return fmt.Errorf("%w: vote %s: %w", ErrUpsertFailed, v.ID, err)
	}
	return nil
}

func (t *Tx) SetVoteClaimed(ctx context.Context, c indexer.VoteClaim) error {
	if _, err := t.tx.Exec(ctx, setVoteClaimedSQL, dbrow.ClaimArgs(c)); err != nil {
		return fmt.Errorf("%w: vote %s: %w", ErrClaimFailed, c.VoteID, err)
	}
	return nil
}

func (t *Tx) SetSyncHeight(ctx context.Context, chainID, height uint64) error {
	if _, err := t.tx.Exec(ctx, setSyncHeightSQL, chainID, height); err != nil {
		return fmt.Errorf("%w: %w", ErrSyncHeightFailed, err)
	}
	return nil
}

func (t *Tx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	return nil
}

// Rollback is a no-op after a successful Commit
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}
