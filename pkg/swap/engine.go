package swap

import (
	"github.com/solana-zh/clmm-engine/pkg/ammconfig"
	"github.com/solana-zh/clmm-engine/pkg/clmmerr"
	"github.com/solana-zh/clmm-engine/pkg/clmmpool"
	"github.com/solana-zh/clmm-engine/pkg/fixedpoint"
	"github.com/solana-zh/clmm-engine/pkg/tick"
	"github.com/solana-zh/clmm-engine/pkg/tickmath"
	"lukechampine.com/uint128"
)

// TickArraySource resolves and lazily loads tick arrays by start index,
// standing in for the host's account-loading step (spec §5: "all tick
// arrays ... acquired at the top of the call"); a caller backs this with
// whatever in-memory or host-fetched map it already holds.
type TickArraySource interface {
	Array(startIndex int32) (*tick.Array, bool)
}

// Request is one single-pool swap's parameters (spec §4.9).
type Request struct {
	AmountSpecified      uint128.Uint128
	IsBaseInput          bool
	ZeroForOne           bool
	SqrtPriceLimitX64    uint128.Uint128
	OtherAmountThreshold uint128.Uint128
}

// Result is what a completed swap leaves behind for the caller to persist
// and to compute token transfers from.
type Result struct {
	AmountIn        uint128.Uint128
	AmountOut       uint128.Uint128
	SqrtPriceX64    uint128.Uint128
	TickCurrent     int32
	Liquidity       uint128.Uint128
	ProtocolFeeDelta uint64
	FundFeeDelta     uint64
}

const maxSwapSteps = 100_000

// Execute implements the swap engine's step loop (spec §4.9). It mutates
// pool's price/tick/liquidity/fee-growth/protocol-fee/fund-fee fields in
// place on success and leaves them untouched on error (the caller is
// expected to have taken a snapshot/copy if it needs transactional
// rollback, since the core itself has no partial-commit concept per §5).
func Execute(pool *clmmpool.Pool, cfg *ammconfig.Config, arrays TickArraySource, ext *tick.Extension, now uint64, req Request) (Result, error) {
	if req.AmountSpecified.IsZero() {
		return Result{}, clmmerr.ErrZeroAmountSpecified
	}
	if err := validatePriceLimit(pool, req); err != nil {
		return Result{}, err
	}
	if err := pool.UpdateRewardInfos(now); err != nil {
		return Result{}, err
	}

	sqrtPrice := pool.SqrtPriceX64
	tickCurrent := pool.TickCurrent
	liquidity := pool.Liquidity
	feeGrowthGlobal0 := pool.FeeGrowthGlobal0X64
	feeGrowthGlobal1 := pool.FeeGrowthGlobal1X64

	amountRemaining := req.AmountSpecified
	var amountCalculated uint128.Uint128
	var protocolFeeDelta, fundFeeDelta uint64
	var totalIn, totalOut uint128.Uint128

	rewardGrowths := pool.RewardGrowths()
	rewardInit := pool.RewardInitializedFlags()

	bm := (*tick.Bitmap)(&pool.TickArrayBitmap)
	currentArrayStart := tick.StartIndexForTick(tickCurrent, pool.TickSpacing)

	for steps := 0; ; steps++ {
		if amountRemaining.IsZero() || sqrtPrice == req.SqrtPriceLimitX64 {
			break
		}
		if steps >= maxSwapSteps {
			return Result{}, clmmerr.ErrInsufficientLiquidityForDirection
		}

		arr, ok := arrays.Array(currentArrayStart)
		if !ok {
			return Result{}, clmmerr.ErrInvalidTickArray
		}

		nextTickState, nextArrayStart, foundInArray := findNextInitializedTick(arr, tickCurrent, pool.TickSpacing, req.ZeroForOne)
		if !foundInArray {
			search := tick.NextInitializedArrayStart(bm, ext, currentArrayStart, pool.TickSpacing, req.ZeroForOne)
			if !search.Found {
				return Result{}, clmmerr.ErrInsufficientLiquidityForDirection
			}
			nextArr, ok := arrays.Array(search.StartTick)
			if !ok {
				return Result{}, clmmerr.ErrInvalidTickArray
			}
			arr = nextArr
			currentArrayStart = search.StartTick
			nextTickState, nextArrayStart, foundInArray = findNextInitializedTick(arr, boundaryTick(search.StartTick, req.ZeroForOne, pool.TickSpacing), pool.TickSpacing, req.ZeroForOne)
			if !foundInArray {
				return Result{}, clmmerr.ErrInsufficientLiquidityForDirection
			}
		}
		currentArrayStart = nextArrayStart

		tickNext := clampTick(nextTickState.Tick)
		sqrtPriceNext, err := tickmath.SqrtPriceAtTick(tickNext)
		if err != nil {
			return Result{}, err
		}

		target := sqrtPriceNext
		if (req.ZeroForOne && sqrtPriceNext.Cmp(req.SqrtPriceLimitX64) < 0) || (!req.ZeroForOne && sqrtPriceNext.Cmp(req.SqrtPriceLimitX64) > 0) {
			target = req.SqrtPriceLimitX64
		}

		step, err := ComputeSwapStep(sqrtPrice, target, liquidity, amountRemaining, req.IsBaseInput, req.ZeroForOne, cfg.TradeFeeRate)
		if err != nil {
			return Result{}, err
		}

		if req.IsBaseInput {
			spent, err := fixedpoint.AddChecked(step.AmountIn, step.FeeAmount)
			if err != nil {
				return Result{}, err
			}
			amountRemaining, err = fixedpoint.SubChecked(amountRemaining, spent)
			if err != nil {
				return Result{}, err
			}
			amountCalculated, err = fixedpoint.AddChecked(amountCalculated, step.AmountOut)
			if err != nil {
				return Result{}, err
			}
		} else {
			amountRemaining, err = fixedpoint.SubChecked(amountRemaining, step.AmountOut)
			if err != nil {
				return Result{}, err
			}
			spent, err := fixedpoint.AddChecked(step.AmountIn, step.FeeAmount)
			if err != nil {
				return Result{}, err
			}
			amountCalculated, err = fixedpoint.AddChecked(amountCalculated, spent)
			if err != nil {
				return Result{}, err
			}
		}
		totalIn, _ = fixedpoint.AddChecked(totalIn, step.AmountIn)
		totalIn, _ = fixedpoint.AddChecked(totalIn, step.FeeAmount)
		totalOut, _ = fixedpoint.AddChecked(totalOut, step.AmountOut)

		protocolCut, err := fixedpoint.MulDivFloor(step.FeeAmount, uint128.From64(uint64(cfg.ProtocolFeeRate)), uint128.From64(ammconfig.FeeRateDenominator))
		if err != nil {
			return Result{}, err
		}
		fundCut, err := fixedpoint.MulDivFloor(step.FeeAmount, uint128.From64(uint64(cfg.FundFeeRate)), uint128.From64(ammconfig.FeeRateDenominator))
		if err != nil {
			return Result{}, err
		}
		protocolFeeDelta += protocolCut.Big().Uint64()
		fundFeeDelta += fundCut.Big().Uint64()

		lpFee, err := fixedpoint.SubChecked(step.FeeAmount, protocolCut)
		if err != nil {
			return Result{}, err
		}
		lpFee, err = fixedpoint.SubChecked(lpFee, fundCut)
		if err != nil {
			return Result{}, err
		}
		if !liquidity.IsZero() {
			growthDelta, err := fixedpoint.MulDivFloor(lpFee, fixedpoint.Q64Uint128(), liquidity)
			if err != nil {
				return Result{}, err
			}
			if req.ZeroForOne {
				feeGrowthGlobal0, err = fixedpoint.AddChecked(feeGrowthGlobal0, growthDelta)
			} else {
				feeGrowthGlobal1, err = fixedpoint.AddChecked(feeGrowthGlobal1, growthDelta)
			}
			if err != nil {
				return Result{}, err
			}
		}

		if step.SqrtPriceNextX64 == sqrtPriceNext {
			if nextTickState.IsInitialized() {
				liquidityNet := nextTickState.Cross(feeGrowthGlobal0, feeGrowthGlobal1, rewardGrowths, rewardInit)
				if req.ZeroForOne {
					liquidityNet = liquidityNet.Neg()
				}
				liquidity, err = fixedpoint.AddDelta(liquidity, liquidityNet)
				if err != nil {
					return Result{}, err
				}
			}
			if req.ZeroForOne {
				tickCurrent = tickNext - 1
			} else {
				tickCurrent = tickNext
			}
		} else if step.SqrtPriceNextX64 != sqrtPrice {
			tickCurrent, err = tickmath.TickAtSqrtPrice(step.SqrtPriceNextX64)
			if err != nil {
				return Result{}, err
			}
		}
		sqrtPrice = step.SqrtPriceNextX64
	}

	if req.IsBaseInput {
		if amountCalculated.Cmp(req.OtherAmountThreshold) < 0 {
			return Result{}, clmmerr.ErrTooLittleOutputReceived
		}
	} else {
		if amountCalculated.Cmp(req.OtherAmountThreshold) > 0 {
			return Result{}, clmmerr.ErrTooMuchInputPaid
		}
	}

	pool.SqrtPriceX64 = sqrtPrice
	pool.TickCurrent = tickCurrent
	pool.Liquidity = liquidity
	pool.FeeGrowthGlobal0X64 = feeGrowthGlobal0
	pool.FeeGrowthGlobal1X64 = feeGrowthGlobal1
	if req.ZeroForOne {
		pool.ProtocolFeesToken0 += protocolFeeDelta
		pool.FundFeesToken0 += fundFeeDelta
		pool.TotalFeesToken0 += totalIn.Big().Uint64()
		pool.SwapInAmountToken0 = fixedpoint.WrappingAdd(pool.SwapInAmountToken0, totalIn)
		pool.SwapOutAmountToken1 = fixedpoint.WrappingAdd(pool.SwapOutAmountToken1, totalOut)
	} else {
		pool.ProtocolFeesToken1 += protocolFeeDelta
		pool.FundFeesToken1 += fundFeeDelta
		pool.TotalFeesToken1 += totalIn.Big().Uint64()
		pool.SwapInAmountToken1 = fixedpoint.WrappingAdd(pool.SwapInAmountToken1, totalIn)
		pool.SwapOutAmountToken0 = fixedpoint.WrappingAdd(pool.SwapOutAmountToken0, totalOut)
	}

	return Result{
		AmountIn:         totalIn,
		AmountOut:        totalOut,
		SqrtPriceX64:     sqrtPrice,
		TickCurrent:      tickCurrent,
		Liquidity:        liquidity,
		ProtocolFeeDelta: protocolFeeDelta,
		FundFeeDelta:     fundFeeDelta,
	}, nil
}

func validatePriceLimit(pool *clmmpool.Pool, req Request) error {
	if req.ZeroForOne {
		if req.SqrtPriceLimitX64.Cmp(tickmath.MinSqrtPriceX64) <= 0 || req.SqrtPriceLimitX64.Cmp(pool.SqrtPriceX64) >= 0 {
			return clmmerr.ErrSqrtPriceLimitOverflow
		}
	} else {
		if req.SqrtPriceLimitX64.Cmp(pool.SqrtPriceX64) <= 0 || req.SqrtPriceLimitX64.Cmp(tickmath.MaxSqrtPriceX64) >= 0 {
			return clmmerr.ErrSqrtPriceLimitOverflow
		}
	}
	return nil
}

func clampTick(t int32) int32 {
	if t < tickmath.MinTick {
		return tickmath.MinTick
	}
	if t > tickmath.MaxTick {
		return tickmath.MaxTick
	}
	return t
}

// findNextInitializedTick scans arr's slots in the given direction for the
// next initialized tick relative to fromTick, returning the array's own
// start index as nextArrayStart since the caller already holds arr. It
// mirrors the teacher's/Uniswap's nextInitializedTickWithinOneWord: the
// zero_for_one (downward) scan includes fromTick itself, since crossing
// down already leaves tick_current one slot below the crossed tick; the
// upward scan excludes fromTick, since crossing up leaves tick_current
// sitting exactly on the just-crossed tick and must not re-find it.
func findNextInitializedTick(arr *tick.Array, fromTick int32, spacing uint16, zeroForOne bool) (*tick.State, int32, bool) {
	fromOffset := tick.OffsetInArray(fromTick, arr.StartTickIndex, spacing)
	if zeroForOne {
		if fromTick < arr.StartTickIndex {
			return nil, arr.StartTickIndex, false
		}
		for i := fromOffset; i >= 0; i-- {
			if i < int32(len(arr.Ticks)) && arr.Ticks[i].IsInitialized() {
				return &arr.Ticks[i], arr.StartTickIndex, true
			}
		}
	} else {
		for i := fromOffset + 1; i < int32(len(arr.Ticks)); i++ {
			if i >= 0 && arr.Ticks[i].IsInitialized() {
				return &arr.Ticks[i], arr.StartTickIndex, true
			}
		}
	}
	return nil, arr.StartTickIndex, false
}

// boundaryTick picks the array-relative scan origin (first or last slot)
// after a bitmap search lands the loop in a brand-new array, as the
// fromTick findNextInitializedTick scans from: the downward scan includes
// fromTick, so the last slot is passed directly; the upward scan excludes
// fromTick, so one spacing below the first slot is passed so the scan
// still lands on slot 0.
func boundaryTick(arrayStart int32, zeroForOne bool, spacing uint16) int32 {
	if zeroForOne {
		return arrayStart + int32(tick.TickArraySize-1)*int32(spacing)
	}
	return arrayStart - int32(spacing)
}
