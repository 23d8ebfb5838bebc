package bind_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/racer/pkg/racer"
	"github.com/screwyprof/racer/server/api"
	"github.com/screwyprof/racer/server/board"
	"github.com/screwyprof/racer/server/handler/bind"
)

func TestGetVotesRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		query       string
		expected    api.VotesRequest
		expectedErr error
	}{
		{
			name:     "it applies defaults",
			query:    "",
			expected: api.VotesRequest{Page: 1, PerPage: 50},
		},
		{
			name:     "it binds every parameter",
			query:    "?placer=0xabc&page=3&per_page=20",
			expected: api.VotesRequest{Placer: "0xabc", Page: 3, PerPage: 20},
		},
		{
			name:        "it rejects a non numeric page",
			query:       "?page=two",
			expectedErr: bind.ErrInvalidPage,
		},
		{
			name:        "it rejects page zero",
			query:       "?page=0",
			expectedErr: bind.ErrNotPositive,
		},
		{
			name:        "it rejects a negative per_page",
			query:       "?per_page=-1",
			expectedErr: bind.ErrInvalidPerPage,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			r := httptest.NewRequest(http.MethodGet, "/v1/votes"+tc.query, nil)

			// Act
			req, err := bind.GetVotesRequest(r)

			// Assert
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, req)
		})
	}
}

func TestGetVotesResponse(t *testing.T) {
	t.Parallel()

	t.Run("it renders chain integers as decimal strings", func(t *testing.T) {
		t.Parallel()

		// Arrange
		big, err := decimal.NewFromString("115792089237316195423570985008687907853269984665640564039457584007913129639935")
		require.NoError(t, err)
		votes := []board.Vote{{
			ID:          big,
			CycleID:     decimal.NewFromInt(2),
			BlockNumber: 205,
			Placer:      "0xA11cE",
			Symbol:      racer.Symbol{0xF0, 0x9F, 0x9A, 0x80},
			Amount:      decimal.NewFromInt(3),
			Placement:   decimal.NewFromInt(1),
		}}

		// Act
		resp := bind.GetVotesResponse(votes)

		// Assert
		require.Len(t, resp.Data, 1)
		assert.Equal(t, api.Vote{
			ID:        big.String(),
			CycleID:   "2",
			Block:     "205",
			Placer:    "0xA11cE",
			Emoji:     "🚀",
			Amount:    "3",
			Placement: "1",
		}, resp.Data[0])
	})

	t.Run("it includes the reward of a claimed vote", func(t *testing.T) {
		t.Parallel()

		// Arrange
		votes := []board.Vote{{
			Claimed: true,
			Reward:  decimal.NewNullDecimal(decimal.NewFromInt(14)),
		}}

		// Act
		resp := bind.GetVotesResponse(votes)

		// Assert
		require.NotNil(t, resp.Data[0].Reward)
		assert.Equal(t, "14", *resp.Data[0].Reward)
		assert.True(t, resp.Data[0].Claimed)
	})

	t.Run("it renders an empty page as an empty list", func(t *testing.T) {
		t.Parallel()

		// Act
		resp := bind.GetVotesResponse(nil)

		// Assert
		assert.NotNil(t, resp.Data)
		assert.Empty(t, resp.Data)
	})
}
