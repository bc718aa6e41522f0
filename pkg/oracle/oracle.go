// Package oracle implements the single cumulative-price observation spec §3
// scopes the engine to (no ring buffer of historical observations — spec §1
// keeps only "the single cumulative-price entry" in scope). Ground truth is
// original_source/programs/amm/src/states/oracle.rs's ObservationState.
// update_check, narrowed to its single-slot case; the teacher never reads or
// writes oracle state at all, so the wrapping-cumulative convention here is
// carried over from the Rust source directly rather than adapted from Go.
package oracle

import (
	"github.com/solana-zh/clmm-engine/pkg/fixedpoint"
	"lukechampine.com/uint128"
)

// Observation is the single most-recent price sample a pool keeps.
type Observation struct {
	Initialized            bool
	BlockTimestamp         uint32
	SqrtPriceX64           uint128.Uint128
	CumulativeTimePriceX64 uint128.Uint128
}

// Update implements update_check's single-slot case: on first write it
// seeds the sample with a zero cumulative; thereafter it requires both at
// least updateDuration elapsed seconds and a changed price before folding price^2/Q64 * delta_time into the cumulative via wrapping
// addition (the accumulator is a rolling mod-2^128 counter by design, not a
// magnitude that can overflow). Returns true if the observation was
// written.
func (o *Observation) Update(blockTimestamp uint32, sqrtPriceX64 uint128.Uint128, updateDuration uint32) (bool, error) {
	if !o.Initialized {
		o.Initialized = true
		o.BlockTimestamp = blockTimestamp
		o.SqrtPriceX64 = sqrtPriceX64
		o.CumulativeTimePriceX64 = uint128.Zero
		return true, nil
	}

	deltaTime := blockTimestamp - o.BlockTimestamp
	if blockTimestamp < o.BlockTimestamp {
		deltaTime = 0
	}
	if deltaTime < updateDuration || sqrtPriceX64 == o.SqrtPriceX64 {
		return false, nil
	}

	curPriceX64, err := fixedpoint.MulDivFloor(sqrtPriceX64, sqrtPriceX64, fixedpoint.Q64Uint128())
	if err != nil {
		return false, err
	}
	deltaPriceX64, err := fixedpoint.MulChecked(curPriceX64, uint128.From64(uint64(deltaTime)))
	if err != nil {
		return false, err
	}

	o.CumulativeTimePriceX64 = fixedpoint.WrappingAdd(o.CumulativeTimePriceX64, deltaPriceX64)
	o.BlockTimestamp = blockTimestamp
	o.SqrtPriceX64 = sqrtPriceX64
	return true, nil
}
