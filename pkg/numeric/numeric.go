// Package numeric converts fixed-width unsigned on-chain integers to and from
// arbitrary-precision decimals used for storage and arithmetic.
package numeric

import (
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/shopspring/decimal"
)

// Conversion errors
var (
	ErrNegative   = errors.New("value is negative")
	ErrFractional = errors.New("value is not an integer")
	ErrOverflow   = errors.New("value does not fit")
)

// FromBigEndian decodes an unsigned big-endian integer of any width
func FromBigEndian(b []byte) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetBytes(b), 0)
}

// FromLittleEndian decodes an unsigned little-endian integer of any width
func FromLittleEndian(b []byte) decimal.Decimal {
	be := slices.Clone(b)
	slices.Reverse(be)
	return FromBigEndian(be)
}

// FromBig converts a big.Int, treating nil as zero
func FromBig(n *big.Int) decimal.Decimal {
	if n == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n, 0)
}

// FromUint64 converts a block number or chain id
func FromUint64(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}

// ToBigEndian encodes d as an unsigned big-endian integer of exactly width bytes
func ToBigEndian(d decimal.Decimal, width int) ([]byte, error) {
	n, err := unsigned(d)
	if err != nil {
		return nil, err
	}
	if n.BitLen() > width*8 {
		return nil, fmt.Errorf("%w: %s in %d bytes", ErrOverflow, d, width)
	}
	return n.FillBytes(make([]byte, width)), nil
}

// ToLittleEndian encodes d as an unsigned little-endian integer of exactly width bytes
func ToLittleEndian(d decimal.Decimal, width int) ([]byte, error) {
	b, err := ToBigEndian(d, width)
	if err != nil {
		return nil, err
	}
	slices.Reverse(b)
	return b, nil
}

// ToUint64 narrows d to a uint64
func ToUint64(d decimal.Decimal) (uint64, error) {
	n, err := unsigned(d)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: %s in uint64", ErrOverflow, d)
	}
	return n.Uint64(), nil
}

func unsigned(d decimal.Decimal) (*big.Int, error) {
	if d.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegative, d)
	}
	if !d.IsInteger() {
		return nil, fmt.Errorf("%w: %s", ErrFractional, d)
	}
	return d.BigInt(), nil
}
