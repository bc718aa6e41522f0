// Package liquidity implements the liquidity modifier (C8): open_position,
// increase_liquidity, decrease_liquidity, all funneled through
// modify_position, spec §4.8. Ground truth for the region-dependent
// amount_0/amount_1 split and the tick-flip/bitmap wiring is the teacher's
// CalculateDepositAmount-style read path in pkg/pool/raydium/clmm_tickerarray.go
// and GetPoolTickArray, generalized into a write path since the teacher
// never mutates a position; the reward-pokes-before-every-change rule is
// ported from original_source/programs/amm/src/instructions/open_position.rs
// and decrease_liquidity.rs ("update_reward_infos before modify_position").
package liquidity

import (
	"github.com/solana-zh/clmm-engine/pkg/clmmerr"
	"github.com/solana-zh/clmm-engine/pkg/clmmpool"
	"github.com/solana-zh/clmm-engine/pkg/fixedpoint"
	"github.com/solana-zh/clmm-engine/pkg/position"
	"github.com/solana-zh/clmm-engine/pkg/pricemath"
	"github.com/solana-zh/clmm-engine/pkg/tick"
	"github.com/solana-zh/clmm-engine/pkg/tickmath"
	"lukechampine.com/uint128"
)

// ModifyResult carries the token deltas and flip flags modify_position
// returns (spec §4.8); amounts are always non-negative magnitudes, signs
// following the caller's ΔL direction.
type ModifyResult struct {
	Amount0      uint128.Uint128
	Amount1      uint128.Uint128
	FlipLower    bool
	FlipUpper    bool
	GrowthInside tick.GrowthInside
}

// ModifyPosition implements modify_position(ΔL) (spec §4.8): updates both
// tick endpoints, flips bitmap bits on transition, recomputes the inside
// growth snapshot, derives the region-dependent token deltas, and applies
// ΔL to pool.liquidity when the range contains the current tick. It does
// NOT touch any position record — callers (OpenPosition, IncreaseLiquidity,
// DecreaseLiquidity) own that so they can interleave the reward poke and
// position accrual at the right points.
func ModifyPosition(pool *clmmpool.Pool, lowerArray, upperArray *tick.Array, lowerTick, upperTick int32, delta fixedpoint.I128, roundUp bool) (ModifyResult, error) {
	lower, err := lowerArray.TickAt(lowerTick, pool.TickSpacing)
	if err != nil {
		return ModifyResult{}, err
	}
	upper, err := upperArray.TickAt(upperTick, pool.TickSpacing)
	if err != nil {
		return ModifyResult{}, err
	}

	rewardGrowths := pool.RewardGrowths()
	rewardInit := pool.RewardInitializedFlags()

	lowerResult, err := lower.Update(delta, pool.TickCurrent, false, pool.FeeGrowthGlobal0X64, pool.FeeGrowthGlobal1X64, rewardGrowths)
	if err != nil {
		return ModifyResult{}, err
	}
	upperResult, err := upper.Update(delta, pool.TickCurrent, true, pool.FeeGrowthGlobal0X64, pool.FeeGrowthGlobal1X64, rewardGrowths)
	if err != nil {
		return ModifyResult{}, err
	}

	if lowerResult.Flipped {
		adjustInitializedCount(lowerArray, lower.IsInitialized())
		flipBitmap(pool, lowerArray.StartTickIndex, lower.IsInitialized())
	}
	if upperResult.Flipped {
		adjustInitializedCount(upperArray, upper.IsInitialized())
		flipBitmap(pool, upperArray.StartTickIndex, upper.IsInitialized())
	}

	growth := tick.FeeGrowthInside(lower, upper, pool.TickCurrent, pool.FeeGrowthGlobal0X64, pool.FeeGrowthGlobal1X64, rewardGrowths, rewardInit)

	sqrtPriceLower, err := tickmath.SqrtPriceAtTick(lowerTick)
	if err != nil {
		return ModifyResult{}, err
	}
	sqrtPriceUpper, err := tickmath.SqrtPriceAtTick(upperTick)
	if err != nil {
		return ModifyResult{}, err
	}

	var amount0, amount1 uint128.Uint128
	switch {
	case pool.TickCurrent < lowerTick:
		amount0, err = pricemath.Amount0(sqrtPriceLower, sqrtPriceUpper, delta.Abs(), roundUp)
		if err != nil {
			return ModifyResult{}, err
		}
	case pool.TickCurrent < upperTick:
		amount0, err = pricemath.Amount0(pool.SqrtPriceX64, sqrtPriceUpper, delta.Abs(), roundUp)
		if err != nil {
			return ModifyResult{}, err
		}
		amount1, err = pricemath.Amount1(sqrtPriceLower, pool.SqrtPriceX64, delta.Abs(), roundUp)
		if err != nil {
			return ModifyResult{}, err
		}
		newLiquidity, err := fixedpoint.AddDelta(pool.Liquidity, delta)
		if err != nil {
			return ModifyResult{}, clmmerr.ErrLiquiditySubValue
		}
		pool.Liquidity = newLiquidity
	default:
		amount1, err = pricemath.Amount1(sqrtPriceLower, sqrtPriceUpper, delta.Abs(), roundUp)
		if err != nil {
			return ModifyResult{}, err
		}
	}

	return ModifyResult{
		Amount0:      amount0,
		Amount1:      amount1,
		FlipLower:    lowerResult.Flipped,
		FlipUpper:    upperResult.Flipped,
		GrowthInside: growth,
	}, nil
}

func adjustInitializedCount(arr *tick.Array, nowInitialized bool) {
	if nowInitialized {
		arr.InitializedTickCount++
	} else if arr.InitializedTickCount > 0 {
		arr.InitializedTickCount--
	}
}

func flipBitmap(pool *clmmpool.Pool, start int32, initialized bool) {
	if tick.InDefaultRange(start, pool.TickSpacing) {
		bm := (*tick.Bitmap)(&pool.TickArrayBitmap)
		bm.SetInitialized(start, pool.TickSpacing, initialized)
	}
	// Only the default-window bitmap embedded in Pool is updated, matching
	// pool.tick_array_bitmap in original_source/programs/amm/src/states/pool.rs.
	// A start outside that window is not recorded in the bitmap extension,
	// neither here nor by any caller in this module.
}

// ValidateTicks implements open_position step 1 (spec §4.8): range bounds
// within [MIN_TICK, MAX_TICK], strictly ordered, and both spacing-aligned.
func ValidateTicks(lower, upper int32, spacing uint16) error {
	if lower < tickmath.MinTick {
		return clmmerr.ErrTickLowerOverflow
	}
	if upper > tickmath.MaxTick {
		return clmmerr.ErrTickUpperOverflow
	}
	if lower >= upper {
		return clmmerr.ErrTickInvalidOrder
	}
	if lower%int32(spacing) != 0 || upper%int32(spacing) != 0 {
		return clmmerr.ErrTickAndSpacingMismatch
	}
	return nil
}

// OpenPosition implements open_position (spec §4.8): validates the range,
// applies +ΔL via ModifyPosition, creates the personal position fresh, and
// enforces the caller's max-amount slippage bounds (round up on supply).
// It does not update the pool's reward infos itself; the engine façade
// does that before calling it.
func OpenPosition(pool *clmmpool.Pool, lowerArray, upperArray *tick.Array, protocol *position.Protocol, lowerTick, upperTick int32, delta fixedpoint.I128, amount0Max, amount1Max uint64) (*position.Personal, ModifyResult, error) {
	if err := ValidateTicks(lowerTick, upperTick, pool.TickSpacing); err != nil {
		return nil, ModifyResult{}, err
	}
	if delta.Sign() <= 0 {
		return nil, ModifyResult{}, clmmerr.ErrInvalidLiquidity
	}

	result, err := ModifyPosition(pool, lowerArray, upperArray, lowerTick, upperTick, delta, true)
	if err != nil {
		return nil, ModifyResult{}, err
	}
	if err := checkMax(result.Amount0, amount0Max); err != nil {
		return nil, ModifyResult{}, err
	}
	if err := checkMax(result.Amount1, amount1Max); err != nil {
		return nil, ModifyResult{}, err
	}

	if err := protocol.UpdateProtocol(result.GrowthInside, delta); err != nil {
		return nil, ModifyResult{}, err
	}

	personal := &position.Personal{
		FeeGrowthInside0LastX64:   result.GrowthInside.FeeGrowthInside0X64,
		FeeGrowthInside1LastX64:   result.GrowthInside.FeeGrowthInside1X64,
		RewardGrowthInsideLastX64: result.GrowthInside.RewardGrowthsInsideX64,
		Liquidity:                 delta.Abs(),
	}
	return personal, result, nil
}

// IncreaseLiquidity implements increase_liquidity (spec §6): pool rewards
// are poked first (the global growth used by FeeGrowthInside must be
// current), then +ΔL is applied and both protocol/personal positions accrue.
func IncreaseLiquidity(pool *clmmpool.Pool, lowerArray, upperArray *tick.Array, protocol *position.Protocol, personal *position.Personal, lowerTick, upperTick int32, delta fixedpoint.I128, amount0Max, amount1Max uint64, now uint64) (ModifyResult, error) {
	if delta.Sign() <= 0 {
		return ModifyResult{}, clmmerr.ErrInvalidLiquidity
	}
	if err := pool.UpdateRewardInfos(now); err != nil {
		return ModifyResult{}, err
	}

	result, err := ModifyPosition(pool, lowerArray, upperArray, lowerTick, upperTick, delta, true)
	if err != nil {
		return ModifyResult{}, err
	}
	if err := checkMax(result.Amount0, amount0Max); err != nil {
		return ModifyResult{}, err
	}
	if err := checkMax(result.Amount1, amount1Max); err != nil {
		return ModifyResult{}, err
	}
	if err := protocol.UpdateProtocol(result.GrowthInside, delta); err != nil {
		return ModifyResult{}, err
	}
	if err := personal.UpdatePersonal(result.GrowthInside, delta); err != nil {
		return ModifyResult{}, err
	}
	return result, nil
}

// DecreaseLiquidity implements decrease_liquidity (spec §4.8): pokes
// rewards, applies -ΔL (token deltas round down since they are leaving the
// pool), accrues owed fees/rewards onto the position records, and applies
// the vault-underflow self-protecting CollectFee bit per invariant 6.
// Returns the liquidity-withdrawal amounts only; the owed fees and rewards
// stay recorded on the positions and are not transferred here.
func DecreaseLiquidity(pool *clmmpool.Pool, lowerArray, upperArray *tick.Array, protocol *position.Protocol, personal *position.Personal, lowerTick, upperTick int32, delta fixedpoint.I128, amount0Min, amount1Min uint64, now uint64, vault0Balance, vault1Balance uint64) (ModifyResult, error) {
	if delta.Sign() <= 0 {
		return ModifyResult{}, clmmerr.ErrInvalidLiquidity
	}
	if personal.Liquidity.Cmp(delta.Abs()) < 0 {
		return ModifyResult{}, clmmerr.ErrLiquiditySubValue
	}
	if err := pool.UpdateRewardInfos(now); err != nil {
		return ModifyResult{}, err
	}

	negDelta := delta.Neg()
	result, err := ModifyPosition(pool, lowerArray, upperArray, lowerTick, upperTick, negDelta, false)
	if err != nil {
		return ModifyResult{}, err
	}
	if result.Amount0.Big().Uint64() < amount0Min {
		return ModifyResult{}, clmmerr.ErrPriceSlippageCheck
	}
	if result.Amount1.Big().Uint64() < amount1Min {
		return ModifyResult{}, clmmerr.ErrPriceSlippageCheck
	}

	if err := protocol.UpdateProtocol(result.GrowthInside, negDelta); err != nil {
		return ModifyResult{}, err
	}
	if err := personal.UpdatePersonal(result.GrowthInside, negDelta); err != nil {
		return ModifyResult{}, err
	}

	unclaimed0 := protocol.TokenFeesOwed0
	unclaimed1 := protocol.TokenFeesOwed1
	pool.CheckVaultUnderflow(unclaimed0, vault0Balance, unclaimed1, vault1Balance)

	return result, nil
}

func checkMax(amount uint128.Uint128, max uint64) error {
	if amount.Big().BitLen() > 64 || amount.Big().Uint64() > max {
		return clmmerr.ErrPriceSlippageCheck
	}
	return nil
}
