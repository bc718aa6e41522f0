// Package fixedpoint implements the Q64.64 fixed-point primitives the
// engine's price and fee math is built on: u128 wrapping/checked arithmetic
// promoted through big.Int-backed 256-bit intermediates for any multiply
// that could overflow 128 bits, plus a signed i128 (liquidity_net and
// liquidity deltas have no unsigned counterpart in lukechampine.com/uint128,
// so a thin big.Int-backed wrapper plays that role here the way
// cosmossdk.io/math.Int does for the teacher's swap-step math).
package fixedpoint

import (
	"errors"
	"math/big"

	"lukechampine.com/uint128"
)

// Q64 = 2^64, the fractional-bit scale for sqrt-price and per-step amounts.
var Q64 = new(big.Int).Lsh(big.NewInt(1), 64)

// Q128 = 2^128, the modulus for fee/reward growth accumulators.
var Q128 = new(big.Int).Lsh(big.NewInt(1), 128)

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Q64Uint128 is Q64 rendered as a uint128, for callers that need it as a
// mul_div denominator rather than a big.Int.
func Q64Uint128() uint128.Uint128 { return uint128.New(0, 1) }

// ErrDivByZero is returned by the mul_div family on a zero denominator; per
// spec §4.1 this is always a fatal condition, never a saturating one.
var ErrDivByZero = errors.New("fixedpoint: division by zero")

func u128ToBig(v uint128.Uint128) *big.Int { return v.Big() }

func bigToU128(v *big.Int) uint128.Uint128 {
	return uint128.FromBig(new(big.Int).And(v, maxUint128))
}

// MulDivFloor computes floor(a*b/denom) with a 256-bit intermediate product,
// promoting exactly where spec §4.1 requires it ("all multiplications that
// may overflow 128 bits must promote to ≥256-bit intermediates").
func MulDivFloor(a, b, denom uint128.Uint128) (uint128.Uint128, error) {
	if denom.IsZero() {
		return uint128.Uint128{}, ErrDivByZero
	}
	num := new(big.Int).Mul(u128ToBig(a), u128ToBig(b))
	q := new(big.Int).Quo(num, u128ToBig(denom))
	if q.Cmp(maxUint128) > 0 {
		return uint128.Uint128{}, ErrOverflow
	}
	return bigToU128(q), nil
}

// MulDivCeil computes ceil(a*b/denom).
func MulDivCeil(a, b, denom uint128.Uint128) (uint128.Uint128, error) {
	if denom.IsZero() {
		return uint128.Uint128{}, ErrDivByZero
	}
	num := new(big.Int).Mul(u128ToBig(a), u128ToBig(b))
	d := u128ToBig(denom)
	q, r := new(big.Int).QuoRem(num, d, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	if q.Cmp(maxUint128) > 0 {
		return uint128.Uint128{}, ErrOverflow
	}
	return bigToU128(q), nil
}

// MulDivFloorBig is MulDivFloor's escape hatch for intermediates that
// genuinely need a 256+-bit product held in big.Int form (pkg/pricemath's
// amount and sqrt-price formulas use this directly rather than forcing
// everything through uint128.Uint128 and risking silent truncation).
func MulDivFloorBig(a, b, denom *big.Int) (*big.Int, error) {
	if denom.Sign() == 0 {
		return nil, ErrDivByZero
	}
	num := new(big.Int).Mul(a, b)
	return new(big.Int).Quo(num, denom), nil
}

// MulDivCeilBig is the big.Int analogue of MulDivCeil.
func MulDivCeilBig(a, b, denom *big.Int) (*big.Int, error) {
	if denom.Sign() == 0 {
		return nil, ErrDivByZero
	}
	num := new(big.Int).Mul(a, b)
	q, r := new(big.Int).QuoRem(num, denom, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

// ErrOverflow signals a checked arithmetic operation exceeded its width;
// per spec §9 this must be fatal for liquidity/gross/accumulator math (as
// opposed to the wrapping subtraction used for outside-growth snapshots).
var ErrOverflow = errors.New("fixedpoint: checked arithmetic overflow")

// AddChecked returns a+b, erroring on overflow past 2^128-1.
func AddChecked(a, b uint128.Uint128) (uint128.Uint128, error) {
	sum := a.Big().Add(a.Big(), b.Big())
	if sum.Cmp(maxUint128) > 0 {
		return uint128.Uint128{}, ErrOverflow
	}
	return uint128.FromBig(sum), nil
}

// SubChecked returns a-b, erroring if b > a (genuine underflow, distinct
// from the wrapping subtraction the outside-growth formulas require).
func SubChecked(a, b uint128.Uint128) (uint128.Uint128, error) {
	if a.Cmp(b) < 0 {
		return uint128.Uint128{}, ErrOverflow
	}
	return a.Sub(b), nil
}

// MulChecked returns a*b, erroring if the product exceeds 2^128-1 — the
// checked multiply the oracle's cumulative-price-delta step needs (spec §3
// scopes the oracle in, and a cumulative-price overflow mid-multiply would
// be a genuine programming error, distinct from the accumulator's own
// wrapping addition once the product is known-good).
func MulChecked(a, b uint128.Uint128) (uint128.Uint128, error) {
	prod := new(big.Int).Mul(u128ToBig(a), u128ToBig(b))
	if prod.Cmp(maxUint128) > 0 {
		return uint128.Uint128{}, ErrOverflow
	}
	return uint128.FromBig(prod), nil
}

// WrappingAdd returns (a+b) mod 2^128, the convention
// original_source/programs/amm/src/states/oracle.rs documents explicitly
// for cumulative_time_price_x64 ("may be flipped ... will be
// cumulative_time_price_x64 + u128::MAX").
func WrappingAdd(a, b uint128.Uint128) uint128.Uint128 {
	return a.Add(b)
}

// WrappingSub returns (a-b) mod 2^128. This is the operation spec §4.4/§4.6
// mandate for fee/reward growth "outside"/"inside" snapshot differences:
// global growth accumulators wrap, and the difference between two wrapped
// snapshots must reproduce the true elapsed growth even across a wrap.
// uint128.Uint128.Sub already wraps (two's-complement width-128 subtraction)
// so this is the API name that makes that fact an explicit, grep-able
// decision rather than an accident of the underlying type.
func WrappingSub(a, b uint128.Uint128) uint128.Uint128 {
	return a.Sub(b)
}

// I128 is a signed 128-bit integer, backed by big.Int but range-checked to
// fit signed 128 bits on every constructor and arithmetic op that the
// engine calls directly (liquidity_net and liquidity deltas ΔL).
type I128 struct {
	v *big.Int
}

var (
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
)

// NewI128FromInt64 builds an I128 from a plain int64 (always in range).
func NewI128FromInt64(v int64) I128 { return I128{v: big.NewInt(v)} }

// ZeroI128 is the additive identity.
func ZeroI128() I128 { return I128{v: big.NewInt(0)} }

func inRangeI128(v *big.Int) bool {
	return v.Cmp(minI128) >= 0 && v.Cmp(maxI128) <= 0
}

// Add returns a+b, erroring on signed-128 overflow.
func (a I128) Add(b I128) (I128, error) {
	sum := new(big.Int).Add(a.v, b.v)
	if !inRangeI128(sum) {
		return I128{}, ErrOverflow
	}
	return I128{v: sum}, nil
}

// Sub returns a-b, erroring on signed-128 overflow.
func (a I128) Sub(b I128) (I128, error) {
	diff := new(big.Int).Sub(a.v, b.v)
	if !inRangeI128(diff) {
		return I128{}, ErrOverflow
	}
	return I128{v: diff}, nil
}

// Neg returns -a.
func (a I128) Neg() I128 { return I128{v: new(big.Int).Neg(a.v)} }

// Sign returns -1/0/1.
func (a I128) Sign() int { return a.v.Sign() }

// IsZero reports whether a == 0.
func (a I128) IsZero() bool { return a.v.Sign() == 0 }

// Cmp compares a to b.
func (a I128) Cmp(b I128) int { return a.v.Cmp(b.v) }

// Abs returns the unsigned absolute value as a uint128.
func (a I128) Abs() uint128.Uint128 {
	return bigToU128(new(big.Int).Abs(a.v))
}

// BigInt exposes the underlying value read-only (callers must not mutate).
func (a I128) BigInt() *big.Int { return new(big.Int).Set(a.v) }

// Int64 returns the value truncated/asserted to int64 range; callers use
// this only where the domain (tick deltas, not liquidity magnitudes) makes
// it safe.
func (a I128) Int64() int64 { return a.v.Int64() }

// String renders the value in base 10.
func (a I128) String() string { return a.v.String() }

// AddDelta implements the Rust `liquidity_math::add_delta` convention used
// throughout tick updates: adds a signed delta to an unsigned gross/net
// counter, erroring on overflow either direction (checked, never wrapping —
// see spec §9's gross/net distinction from the wrapping outside-growth
// subtractions above).
func AddDelta(base uint128.Uint128, delta I128) (uint128.Uint128, error) {
	if delta.Sign() >= 0 {
		return AddChecked(base, delta.Abs())
	}
	return SubChecked(base, delta.Abs())
}
