package swap

import (
	"github.com/solana-zh/clmm-engine/pkg/ammconfig"
	"github.com/solana-zh/clmm-engine/pkg/clmmerr"
	"github.com/solana-zh/clmm-engine/pkg/clmmpool"
	"github.com/solana-zh/clmm-engine/pkg/tick"
	"github.com/solana-zh/clmm-engine/pkg/tickmath"
	"lukechampine.com/uint128"
)

// Hop is one leg of a multi-hop route: a pool plus everything Execute needs
// to run a single-pool swap against it, and the direction this hop takes
// through that pool.
type Hop struct {
	Pool       *clmmpool.Pool
	Config     *ammconfig.Config
	Arrays     TickArraySource
	Extension  *tick.Extension
	ZeroForOne bool
}

// RouterBaseIn implements swap_router_base_in (spec §4.9): feeds each hop's
// amount_out as the next hop's amount_in, exact-in throughout. Intermediate
// hops use the direction's natural price-limit bound (no per-hop slippage
// bound); only the final output is checked against amountOutMin.
func RouterBaseIn(hops []Hop, amountIn uint128.Uint128, amountOutMin uint128.Uint128, now uint64) (uint128.Uint128, error) {
	if len(hops) == 0 {
		return uint128.Uint128{}, clmmerr.ErrZeroAmountSpecified
	}
	current := amountIn
	for i, hop := range hops {
		limit := tickmathLimit(hop)
		threshold := uint128.Zero
		if i == len(hops)-1 {
			threshold = amountOutMin
		}
		result, err := Execute(hop.Pool, hop.Config, hop.Arrays, hop.Extension, now, Request{
			AmountSpecified:      current,
			IsBaseInput:          true,
			ZeroForOne:           hop.ZeroForOne,
			SqrtPriceLimitX64:    limit,
			OtherAmountThreshold: threshold,
		})
		if err != nil {
			return uint128.Uint128{}, err
		}
		if result.AmountOut.IsZero() {
			return uint128.Uint128{}, clmmerr.ErrTooLittleOutputReceived
		}
		current = result.AmountOut
	}
	return current, nil
}

// tickmathLimit picks the direction's natural bound, one unit inside the
// legal range the way the teacher's swapCompute seeds sqrtPriceLimitX64
// (MIN_SQRT_PRICE_X64.Add(1) / MAX_SQRT_PRICE_X64.Sub(1)) when the caller
// supplies no explicit per-hop limit.
func tickmathLimit(hop Hop) uint128.Uint128 {
	if hop.ZeroForOne {
		return tickmath.MinSqrtPriceX64.Add(uint128.From64(1))
	}
	return tickmath.MaxSqrtPriceX64.Sub(uint128.From64(1))
}
