package dbrow_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/screwyprof/racer/pkg/racer"
	"github.com/screwyprof/racer/server/store/dbrow"
)

func TestRows(t *testing.T) {
	t.Parallel()

	t.Run("it converts a grouped entry", func(t *testing.T) {
		t.Parallel()

		// Arrange
		row := dbrow.Entry{Symbol: []byte{0xF0, 0x9F, 0x9A, 0x80}, Amount: decimal.NewFromInt(5), LatestBlock: 210}

		// Act
		e := row.ToBoard()

		// Assert
		assert.Equal(t, racer.Symbol{0xF0, 0x9F, 0x9A, 0x80}, e.Symbol)
		assert.True(t, decimal.NewFromInt(5).Equal(e.Amount))
		assert.Equal(t, uint64(210), e.LatestBlock)
	})

	t.Run("it zero pads a short symbol", func(t *testing.T) {
		t.Parallel()

		// Act
		v := dbrow.Vote{Symbol: []byte("A")}.ToBoard()

		// Assert
		assert.Equal(t, racer.Symbol{'A', 0, 0, 0}, v.Symbol)
	})

	t.Run("it keeps an unclaimed reward null", func(t *testing.T) {
		t.Parallel()

		// Act
		v := dbrow.Vote{Claimed: false}.ToBoard()

		// Assert
		assert.False(t, v.Claimed)
		assert.False(t, v.Reward.Valid)
	})

	t.Run("it converts the current cycle", func(t *testing.T) {
		t.Parallel()

		// Arrange
		row := dbrow.Cycle{
			ChainID:     31337,
			ID:          decimal.NewFromInt(2),
			BlockNumber: 190,
			StartBlock:  decimal.NewFromInt(200),
			BlockLength: decimal.NewFromInt(100),
			VotePrice:   decimal.NewFromInt(5),
		}

		// Act
		c := row.ToBoard()

		// Assert
		assert.Equal(t, uint64(31337), c.ChainID)
		assert.Equal(t, uint64(190), c.BlockNumber)
		assert.Equal(t, "300", c.EndBlock().String())
	})
}
