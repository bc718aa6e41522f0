// Package pricemath implements the Q64.64 sqrt-price/liquidity formulas of
// spec §4.3: token amounts for a liquidity range, the price update under an
// exact amount of token 0 or token 1, and their use in the swap step and the
// liquidity modifier. Ground truth is the teacher's
// getTokenAmountAFromLiquidity/getTokenAmountBFromLiquidity/
// getNextSqrtPriceFromTokenAmountARoundingUp/
// getNextSqrtPriceFromTokenAmountBRoundingDown in
// pkg/pool/raydium/clmm_tickerarray.go, ported from big.Int/cosmath.Int onto
// uint128.Uint128 plus the 256-bit-safe fixedpoint.MulDivFloor/Ceil helpers,
// and extended with get_liquidity_for_amounts / get_amount_for_liquidity
// (used only by the teacher's read side implicitly, built here from the
// same amount_0/amount_1 formulas run in reverse, per original-source
// liquidity_math semantics: L = Δx·√Pa·√Pb/(√Pb−√Pa) from amount_0, and
// L = Δy·2^64/(√Pb−√Pa) from amount_1).
package pricemath

import (
	"math/big"

	"github.com/solana-zh/clmm-engine/pkg/clmmerr"
	"github.com/solana-zh/clmm-engine/pkg/fixedpoint"
	"lukechampine.com/uint128"
)

func orderPrices(a, b uint128.Uint128) (lo, hi uint128.Uint128) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// Amount0 computes amount_0(√Pa, √Pb, L) = ceil|floor( L·(√Pb-√Pa) / (√Pa·√Pb) ).
func Amount0(sqrtPriceA, sqrtPriceB uint128.Uint128, liquidity uint128.Uint128, roundUp bool) (uint128.Uint128, error) {
	lo, hi := orderPrices(sqrtPriceA, sqrtPriceB)
	if lo.IsZero() {
		return uint128.Uint128{}, clmmerr.ErrCalculateOverflow
	}
	num1 := new(big.Int).Lsh(liquidity.Big(), 64)
	num2 := new(big.Int).Sub(hi.Big(), lo.Big())

	if roundUp {
		temp, err := fixedpoint.MulDivCeilBig(num1, num2, hi.Big())
		if err != nil {
			return uint128.Uint128{}, err
		}
		result, err := fixedpoint.MulDivCeilBig(temp, big.NewInt(1), lo.Big())
		if err != nil {
			return uint128.Uint128{}, err
		}
		return uint128.FromBig(result), nil
	}
	temp, err := fixedpoint.MulDivFloorBig(num1, num2, hi.Big())
	if err != nil {
		return uint128.Uint128{}, err
	}
	return uint128.FromBig(new(big.Int).Quo(temp, lo.Big())), nil
}

// Amount1 computes amount_1(√Pa, √Pb, L) = ceil|floor( L·(√Pb-√Pa) / 2^64 ).
func Amount1(sqrtPriceA, sqrtPriceB uint128.Uint128, liquidity uint128.Uint128, roundUp bool) (uint128.Uint128, error) {
	lo, hi := orderPrices(sqrtPriceA, sqrtPriceB)
	diff := new(big.Int).Sub(hi.Big(), lo.Big())
	q64 := new(big.Int).Lsh(big.NewInt(1), 64)
	if roundUp {
		v, err := fixedpoint.MulDivCeilBig(liquidity.Big(), diff, q64)
		if err != nil {
			return uint128.Uint128{}, err
		}
		return uint128.FromBig(v), nil
	}
	v, err := fixedpoint.MulDivFloorBig(liquidity.Big(), diff, q64)
	if err != nil {
		return uint128.Uint128{}, err
	}
	return uint128.FromBig(v), nil
}

// NextSqrtPriceFromAmount0RoundingUp solves √P' = L·√P / (L ± Δx·√P), using
// the overflow-safe alternative √P' = L / (L/√P ± Δx) when the direct
// multiplication would not fit (spec §4.3).
func NextSqrtPriceFromAmount0RoundingUp(sqrtPriceX64 uint128.Uint128, liquidity uint128.Uint128, amount uint128.Uint128, add bool) (uint128.Uint128, error) {
	if amount.IsZero() {
		return sqrtPriceX64, nil
	}
	liquidityShifted := new(big.Int).Lsh(liquidity.Big(), 64)
	price := sqrtPriceX64.Big()

	if add {
		numerator1 := liquidityShifted
		denominator := new(big.Int).Add(liquidityShifted, new(big.Int).Mul(amount.Big(), price))
		if denominator.Cmp(numerator1) >= 0 {
			v, err := fixedpoint.MulDivCeilBig(numerator1, price, denominator)
			if err != nil {
				return uint128.Uint128{}, err
			}
			return uint128.FromBig(v), nil
		}
		temp := new(big.Int).Quo(numerator1, price)
		temp.Add(temp, amount.Big())
		v, err := fixedpoint.MulDivCeilBig(numerator1, big.NewInt(1), temp)
		if err != nil {
			return uint128.Uint128{}, err
		}
		return uint128.FromBig(v), nil
	}

	amountMulPrice := new(big.Int).Mul(amount.Big(), price)
	if liquidityShifted.Cmp(amountMulPrice) <= 0 {
		return uint128.Uint128{}, clmmerr.ErrCalculateOverflow
	}
	denominator := new(big.Int).Sub(liquidityShifted, amountMulPrice)
	v, err := fixedpoint.MulDivCeilBig(liquidityShifted, price, denominator)
	if err != nil {
		return uint128.Uint128{}, err
	}
	return uint128.FromBig(v), nil
}

// NextSqrtPriceFromAmount1RoundingDown solves √P' = √P ± Δy·2^64/L.
func NextSqrtPriceFromAmount1RoundingDown(sqrtPriceX64 uint128.Uint128, liquidity uint128.Uint128, amount uint128.Uint128, add bool) (uint128.Uint128, error) {
	deltaY := new(big.Int).Lsh(amount.Big(), 64)
	price := sqrtPriceX64.Big()
	if add {
		return uint128.FromBig(new(big.Int).Add(price, new(big.Int).Quo(deltaY, liquidity.Big()))), nil
	}
	quotient, err := fixedpoint.MulDivCeilBig(deltaY, big.NewInt(1), liquidity.Big())
	if err != nil {
		return uint128.Uint128{}, err
	}
	if price.Cmp(quotient) <= 0 {
		return uint128.Uint128{}, clmmerr.ErrCalculateOverflow
	}
	return uint128.FromBig(new(big.Int).Sub(price, quotient)), nil
}

// NextSqrtPriceFromInput dispatches to the 0- or 1-denominated update for
// an exact-in step.
func NextSqrtPriceFromInput(sqrtPriceX64, liquidity, amountIn uint128.Uint128, zeroForOne bool) (uint128.Uint128, error) {
	if sqrtPriceX64.IsZero() || liquidity.IsZero() {
		return uint128.Uint128{}, clmmerr.ErrCalculateOverflow
	}
	if amountIn.IsZero() {
		return sqrtPriceX64, nil
	}
	if zeroForOne {
		return NextSqrtPriceFromAmount0RoundingUp(sqrtPriceX64, liquidity, amountIn, true)
	}
	return NextSqrtPriceFromAmount1RoundingDown(sqrtPriceX64, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput dispatches to the 0- or 1-denominated update for
// an exact-out step.
func NextSqrtPriceFromOutput(sqrtPriceX64, liquidity, amountOut uint128.Uint128, zeroForOne bool) (uint128.Uint128, error) {
	if sqrtPriceX64.IsZero() || liquidity.IsZero() {
		return uint128.Uint128{}, clmmerr.ErrCalculateOverflow
	}
	if zeroForOne {
		return NextSqrtPriceFromAmount1RoundingDown(sqrtPriceX64, liquidity, amountOut, false)
	}
	return NextSqrtPriceFromAmount0RoundingUp(sqrtPriceX64, liquidity, amountOut, false)
}

// LiquidityForAmount0 inverts Amount0: L = Δx·√Pa·√Pb / (√Pb-√Pa).
func LiquidityForAmount0(sqrtPriceA, sqrtPriceB uint128.Uint128, amount0 uint128.Uint128) (uint128.Uint128, error) {
	lo, hi := orderPrices(sqrtPriceA, sqrtPriceB)
	if lo.IsZero() || lo.Cmp(hi) == 0 {
		return uint128.Uint128{}, clmmerr.ErrCalculateOverflow
	}
	intermediate, err := fixedpoint.MulDivFloorBig(lo.Big(), hi.Big(), new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return uint128.Uint128{}, err
	}
	num := new(big.Int).Mul(amount0.Big(), intermediate)
	diff := new(big.Int).Sub(hi.Big(), lo.Big())
	return uint128.FromBig(new(big.Int).Quo(num, diff)), nil
}

// LiquidityForAmount1 inverts Amount1: L = Δy·2^64 / (√Pb-√Pa).
func LiquidityForAmount1(sqrtPriceA, sqrtPriceB uint128.Uint128, amount1 uint128.Uint128) (uint128.Uint128, error) {
	lo, hi := orderPrices(sqrtPriceA, sqrtPriceB)
	diff := new(big.Int).Sub(hi.Big(), lo.Big())
	if diff.Sign() == 0 {
		return uint128.Uint128{}, clmmerr.ErrCalculateOverflow
	}
	v, err := fixedpoint.MulDivFloorBig(amount1.Big(), new(big.Int).Lsh(big.NewInt(1), 64), diff)
	if err != nil {
		return uint128.Uint128{}, err
	}
	return uint128.FromBig(v), nil
}

// LiquidityForAmounts implements get_liquidity_for_amounts: given a price
// range and the current price, picks the binding side(s) the way
// open_position/increase_liquidity must when a caller supplies desired
// token amounts instead of a raw ΔL.
func LiquidityForAmounts(sqrtPriceCurrent, sqrtPriceLower, sqrtPriceUpper uint128.Uint128, amount0, amount1 uint128.Uint128) (uint128.Uint128, error) {
	lower, upper := orderPrices(sqrtPriceLower, sqrtPriceUpper)
	switch {
	case sqrtPriceCurrent.Cmp(lower) <= 0:
		return LiquidityForAmount0(lower, upper, amount0)
	case sqrtPriceCurrent.Cmp(upper) < 0:
		l0, err := LiquidityForAmount0(sqrtPriceCurrent, upper, amount0)
		if err != nil {
			return uint128.Uint128{}, err
		}
		l1, err := LiquidityForAmount1(lower, sqrtPriceCurrent, amount1)
		if err != nil {
			return uint128.Uint128{}, err
		}
		if l0.Cmp(l1) < 0 {
			return l0, nil
		}
		return l1, nil
	default:
		return LiquidityForAmount1(lower, upper, amount1)
	}
}

// AmountsForLiquidity implements get_amount_{0,1}_for_liquidity: given a
// range, the current price, and a liquidity magnitude, returns the token
// amounts that range currently represents (used by decrease_liquidity and
// by the swap boundary bookkeeping).
func AmountsForLiquidity(sqrtPriceCurrent, sqrtPriceLower, sqrtPriceUpper uint128.Uint128, liquidity uint128.Uint128, roundUp bool) (amount0, amount1 uint128.Uint128, err error) {
	lower, upper := orderPrices(sqrtPriceLower, sqrtPriceUpper)
	switch {
	case sqrtPriceCurrent.Cmp(lower) <= 0:
		amount0, err = Amount0(lower, upper, liquidity, roundUp)
		return amount0, uint128.Zero, err
	case sqrtPriceCurrent.Cmp(upper) < 0:
		amount0, err = Amount0(sqrtPriceCurrent, upper, liquidity, roundUp)
		if err != nil {
			return uint128.Uint128{}, uint128.Uint128{}, err
		}
		amount1, err = Amount1(lower, sqrtPriceCurrent, liquidity, roundUp)
		return amount0, amount1, err
	default:
		amount1, err = Amount1(lower, upper, liquidity, roundUp)
		return uint128.Zero, amount1, err
	}
}
