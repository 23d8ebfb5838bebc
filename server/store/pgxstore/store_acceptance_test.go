//go:build acceptance

package pgxstore_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/racer/migrator"
	"github.com/screwyprof/racer/migrator/migratortest"
	"github.com/screwyprof/racer/server/board"
	"github.com/screwyprof/racer/server/store/pgxstore"
)

const (
	migrationsDir = "../../../migrator/migrations"
	chainID       = uint64(31337)
)

// TestFinderAcceptanceBehavior reads the demo seed back through the finder
func TestFinderAcceptanceBehavior(t *testing.T) {
	t.Parallel()

	t.Run("it finds the cycle with the greatest start block", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := createFinder(t)

		// Act
		cycle, err := finder.CurrentCycle(t.Context(), chainID)

		// Assert
		require.NoError(t, err)
		assertDecimal(t, 2, cycle.ID)
		assertDecimal(t, 200, cycle.StartBlock)
		assertDecimal(t, 100, cycle.BlockLength)
		assertDecimal(t, 5, cycle.VotePrice)
		assert.Equal(t, uint64(200), cycle.BlockNumber)
	})

	t.Run("it reports a chain without cycles", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := createFinder(t)

		// Act
		_, err := finder.CurrentCycle(t.Context(), 1)

		// Assert
		assert.ErrorIs(t, err, board.ErrNoCurrentCycle)
	})

	t.Run("it counts the votes of a cycle", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := createFinder(t)

		// Act
		n, err := finder.CountVotes(t.Context(), chainID, decimal.NewFromInt(2))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(4), n)
	})

	t.Run("it sums a cycle's votes per symbol ranked by amount then earliest latest vote", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := createFinder(t)

		// Act
		entries, err := finder.Leaderboard(t.Context(), chainID, decimal.NewFromInt(2))

		// Assert
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assertEntry(t, entries[0], migrator.DemoFrog, 5, 206)
		assertEntry(t, entries[1], migrator.DemoRocket, 5, 210)
		assertEntry(t, entries[2], migrator.DemoA, 1, 212)
	})

	t.Run("it pages the current cycle's votes newest first", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := createFinder(t)

		// Act
		first := findVotes(t, finder, "", 1, 3)
		second := findVotes(t, finder, "", 2, 3)

		// Assert
		assertVoteIDs(t, first, 5, 4, 3)
		assert.True(t, first.HasNext())
		assert.False(t, first.HasPrevious())

		assertVoteIDs(t, second, 2)
		assert.False(t, second.HasNext())
		assert.True(t, second.HasPrevious())
	})

	t.Run("it filters votes by placer", func(t *testing.T) {
		t.Parallel()

		// Arrange
		finder := createFinder(t)

		// Act
		page := findVotes(t, finder, migrator.DemoAlice, 1, 10)

		// Assert
		assertVoteIDs(t, page, 5, 2)
		for _, v := range page.Votes {
			assert.Equal(t, migrator.DemoAlice, v.Placer)
			assert.False(t, v.Claimed)
			assert.False(t, v.Reward.Valid)
		}
	})
}

func createFinder(t *testing.T) *pgxstore.Finder {
	t.Helper()
	pool := migratortest.CreateSeededTestDatabase(t, migrationsDir, chainID, 10*time.Second)
	finder, _ := pgxstore.New(pool)
	return finder
}

func findVotes(t *testing.T, finder *pgxstore.Finder, placer string, page, perPage uint64) *board.VotesPage {
	t.Helper()
	criteria, err := board.NewVotesCriteria(chainID, placer, page, perPage)
	require.NoError(t, err)

	result, err := finder.FindVotes(t.Context(), criteria)
	require.NoError(t, err)
	return result
}

func assertDecimal(t *testing.T, expected int64, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.NewFromInt(expected).Equal(actual), "expected %d, got %s", expected, actual)
}

func assertEntry(t *testing.T, e board.Entry, symbol [4]byte, amount int64, latest uint64) {
	t.Helper()
	assert.Equal(t, symbol, [4]byte(e.Symbol))
	assertDecimal(t, amount, e.Amount)
	assert.Equal(t, latest, e.LatestBlock)
}

func assertVoteIDs(t *testing.T, page *board.VotesPage, ids ...int64) {
	t.Helper()
	require.Len(t, page.Votes, len(ids))
	for i, id := range ids {
		assertDecimal(t, id, page.Votes[i].ID)
	}
}
