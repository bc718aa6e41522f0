// Package swap implements the single-pool swap engine (C9): the per-step
// price/fee computation and the step loop that walks ticks until the
// requested amount is exhausted or the price limit is hit, plus the
// multi-hop exact-in router on top. Ground truth for compute_swap_step is
// the teacher's swapStepCompute (pkg/pool/raydium/clmm_tickerarray.go),
// generalized from cosmath.Int sign-encoded direction onto an explicit
// exactInput flag per spec §4.9's cleaner (amount_specified, is_base_input)
// pair, and from the teacher's swapCompute (pkg/pool/raydium/clmmPool.go)
// for the step-loop shape.
package swap

import (
	"github.com/solana-zh/clmm-engine/pkg/ammconfig"
	"github.com/solana-zh/clmm-engine/pkg/clmmerr"
	"github.com/solana-zh/clmm-engine/pkg/fixedpoint"
	"github.com/solana-zh/clmm-engine/pkg/pricemath"
	"lukechampine.com/uint128"
)

// Step is the result of one compute_swap_step call (spec §4.9).
type Step struct {
	SqrtPriceNextX64 uint128.Uint128
	AmountIn         uint128.Uint128
	AmountOut        uint128.Uint128
	FeeAmount        uint128.Uint128
}

// ComputeSwapStep implements compute_swap_step (spec §4.9 step 3): given
// the current and a bounding target price, the active liquidity, a
// remaining amount, and whether that remaining amount is exact-in or
// exact-out, returns how far the price actually moves this step, the
// token amounts crossed, and the fee levied on the input leg.
func ComputeSwapStep(sqrtPriceCurrent, sqrtPriceTarget, liquidity uint128.Uint128, amountRemaining uint128.Uint128, exactInput bool, zeroForOne bool, feeRate uint32) (Step, error) {
	var step Step

	feeRateU := uint128.From64(uint64(feeRate))
	denom := uint128.From64(ammconfig.FeeRateDenominator)

	if exactInput {
		remainingLessFee, err := fixedpoint.MulDivFloor(amountRemaining, denom.Sub(feeRateU), denom)
		if err != nil {
			return Step{}, err
		}

		var amountInToTarget uint128.Uint128
		if zeroForOne {
			amountInToTarget, err = pricemath.Amount0(sqrtPriceTarget, sqrtPriceCurrent, liquidity, true)
		} else {
			amountInToTarget, err = pricemath.Amount1(sqrtPriceCurrent, sqrtPriceTarget, liquidity, true)
		}
		if err != nil {
			return Step{}, err
		}

		if remainingLessFee.Cmp(amountInToTarget) >= 0 {
			step.SqrtPriceNextX64 = sqrtPriceTarget
			step.AmountIn = amountInToTarget
		} else {
			step.SqrtPriceNextX64, err = pricemath.NextSqrtPriceFromInput(sqrtPriceCurrent, liquidity, remainingLessFee, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		var amountOutToTarget uint128.Uint128
		var err error
		if zeroForOne {
			amountOutToTarget, err = pricemath.Amount1(sqrtPriceTarget, sqrtPriceCurrent, liquidity, false)
		} else {
			amountOutToTarget, err = pricemath.Amount0(sqrtPriceCurrent, sqrtPriceTarget, liquidity, false)
		}
		if err != nil {
			return Step{}, err
		}

		if amountRemaining.Cmp(amountOutToTarget) >= 0 {
			step.SqrtPriceNextX64 = sqrtPriceTarget
			step.AmountOut = amountOutToTarget
		} else {
			step.SqrtPriceNextX64, err = pricemath.NextSqrtPriceFromOutput(sqrtPriceCurrent, liquidity, amountRemaining, zeroForOne)
			if err != nil {
				return Step{}, err
			}
		}
	}

	reachedTarget := step.SqrtPriceNextX64 == sqrtPriceTarget

	var err error
	if zeroForOne {
		if !(reachedTarget && exactInput) {
			step.AmountIn, err = pricemath.Amount0(step.SqrtPriceNextX64, sqrtPriceCurrent, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactInput) {
			step.AmountOut, err = pricemath.Amount1(step.SqrtPriceNextX64, sqrtPriceCurrent, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	} else {
		if !(reachedTarget && exactInput) {
			step.AmountIn, err = pricemath.Amount1(sqrtPriceCurrent, step.SqrtPriceNextX64, liquidity, true)
			if err != nil {
				return Step{}, err
			}
		}
		if !(reachedTarget && !exactInput) {
			step.AmountOut, err = pricemath.Amount0(sqrtPriceCurrent, step.SqrtPriceNextX64, liquidity, false)
			if err != nil {
				return Step{}, err
			}
		}
	}

	if !exactInput && step.AmountOut.Cmp(amountRemaining) > 0 {
		step.AmountOut = amountRemaining
	}

	if exactInput && step.SqrtPriceNextX64 != sqrtPriceTarget {
		step.FeeAmount, err = fixedpoint.SubChecked(amountRemaining, step.AmountIn)
		if err != nil {
			return Step{}, err
		}
	} else {
		step.FeeAmount, err = fixedpoint.MulDivCeil(step.AmountIn, feeRateU, denom.Sub(feeRateU))
		if err != nil {
			return Step{}, err
		}
	}

	if step.AmountIn.IsZero() && step.AmountOut.IsZero() && step.SqrtPriceNextX64 == sqrtPriceCurrent {
		return Step{}, clmmerr.ErrTooSmallInputOrOutputAmount
	}

	return step, nil
}
