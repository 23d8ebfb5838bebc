package numeric_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/racer/pkg/numeric"
)

func TestFromBytes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		be       []byte
		le       []byte
		expected string
	}{
		{
			name:     "empty is zero",
			be:       []byte{},
			le:       []byte{},
			expected: "0",
		},
		{
			name:     "single byte",
			be:       []byte{0x2a},
			le:       []byte{0x2a},
			expected: "42",
		},
		{
			name:     "u64 block number",
			be:       []byte{0, 0, 0, 0, 0, 0x98, 0x96, 0x80},
			le:       []byte{0x80, 0x96, 0x98, 0, 0, 0, 0, 0},
			expected: "10000000",
		},
		{
			name:     "u256 max",
			be:       ones(32),
			le:       ones(32),
			expected: "115792089237316195423570985008687907853269984665640564039457584007913129639935",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Act
			fromBE := numeric.FromBigEndian(tc.be)
			fromLE := numeric.FromLittleEndian(tc.le)

			// Assert
			assert.Equal(t, tc.expected, fromBE.String())
			assert.Equal(t, tc.expected, fromLE.String())
		})
	}

	t.Run("it does not mutate the little-endian input", func(t *testing.T) {
		t.Parallel()

		// Arrange
		le := []byte{0x01, 0x02}

		// Act
		_ = numeric.FromLittleEndian(le)

		// Assert
		assert.Equal(t, []byte{0x01, 0x02}, le)
	})
}

func TestToBytes(t *testing.T) {
	t.Parallel()

	t.Run("it round-trips through both byte orders", func(t *testing.T) {
		t.Parallel()

		// Arrange
		value := decimal.RequireFromString("123456789012345678901234567890")

		// Act
		be, errBE := numeric.ToBigEndian(value, 32)
		le, errLE := numeric.ToLittleEndian(value, 32)

		// Assert
		require.NoError(t, errBE)
		require.NoError(t, errLE)
		assert.Len(t, be, 32)
		assert.True(t, value.Equal(numeric.FromBigEndian(be)))
		assert.True(t, value.Equal(numeric.FromLittleEndian(le)))
	})

	t.Run("it pads to the requested width", func(t *testing.T) {
		t.Parallel()

		// Act
		le, err := numeric.ToLittleEndian(decimal.NewFromInt(1), 8)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, le)
	})

	t.Run("it rejects values wider than the target", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := numeric.ToBigEndian(decimal.NewFromInt(256), 1)

		// Assert
		assert.ErrorIs(t, err, numeric.ErrOverflow)
	})

	t.Run("it rejects negative values", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := numeric.ToBigEndian(decimal.NewFromInt(-1), 8)

		// Assert
		assert.ErrorIs(t, err, numeric.ErrNegative)
	})

	t.Run("it rejects fractional values", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := numeric.ToLittleEndian(decimal.RequireFromString("1.5"), 8)

		// Assert
		assert.ErrorIs(t, err, numeric.ErrFractional)
	})
}

func TestToUint64(t *testing.T) {
	t.Parallel()

	t.Run("it narrows the largest uint64", func(t *testing.T) {
		t.Parallel()

		// Act
		n, err := numeric.ToUint64(numeric.FromUint64(math.MaxUint64))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxUint64), n)
	})

	t.Run("it rejects values above uint64", func(t *testing.T) {
		t.Parallel()

		// Arrange
		tooBig := numeric.FromBig(new(big.Int).Lsh(big.NewInt(1), 64))

		// Act
		_, err := numeric.ToUint64(tooBig)

		// Assert
		assert.ErrorIs(t, err, numeric.ErrOverflow)
	})

	t.Run("it treats a nil big.Int as zero", func(t *testing.T) {
		t.Parallel()

		// Act
		d := numeric.FromBig(nil)

		// Assert
		assert.True(t, d.IsZero())
	})
}

func ones(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0xff
	}
	return b
}
