package pgxstore_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/racer/server/board"
	"github.com/screwyprof/racer/server/store/pgxstore"
)

func TestVotesQueryBuilder(t *testing.T) {
	t.Parallel()

	const alice = "0x00000000000000000000000000000000000a11ce"
	const selectFrom = `SELECT v.id, v.cycle_id, v.block_number, v.placer, v.symbol, v.amount, v.placement, v.claimed, v.reward
FROM votes v
JOIN current_cycles c ON c.chain_id = v.chain_id AND c.id = v.cycle_id`

	tests := []struct {
		name         string
		placer       string
		page         uint64
		perPage      uint64
		expectedSQL  string
		expectedArgs []any
	}{
		{
			name:         "it lists the first page of every placer",
			page:         1,
			perPage:      50,
			expectedSQL:  selectFrom + " WHERE v.chain_id = $1 ORDER BY v.block_number DESC, v.id DESC LIMIT $2",
			expectedArgs: []any{int64(31337), uint64(51)},
		},
		{
			name:         "it skips earlier pages",
			page:         3,
			perPage:      10,
			expectedSQL:  selectFrom + " WHERE v.chain_id = $1 ORDER BY v.block_number DESC, v.id DESC LIMIT $2 OFFSET $3",
			expectedArgs: []any{int64(31337), uint64(11), uint64(20)},
		},
		{
			name:         "it filters by placer",
			placer:       alice,
			page:         1,
			perPage:      5,
			expectedSQL:  selectFrom + " WHERE v.chain_id = $1 AND v.placer = $2 ORDER BY v.block_number DESC, v.id DESC LIMIT $3",
			expectedArgs: []any{int64(31337), common.HexToAddress(alice).Hex(), uint64(6)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			criteria, err := board.NewVotesCriteria(31337, tc.placer, tc.page, tc.perPage)
			require.NoError(t, err)

			// Act
			sql, args := pgxstore.NewVotesQuery().ForCriteria(criteria).Build()

			// Assert
			assert.Equal(t, tc.expectedSQL, sql)
			assert.Equal(t, tc.expectedArgs, args)
		})
	}
}
