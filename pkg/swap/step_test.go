package swap

import (
	"testing"

	"github.com/solana-zh/clmm-engine/pkg/tickmath"
	"lukechampine.com/uint128"
)

// TestComputeSwapStepExactNumbers is spec §8 scenario 2: a tick_spacing=60
// pool at tick 0, trade_fee_rate=500, swapping 100 units of token 0 for
// token 1 with the target price at tick -60 (one tick spacing away) never
// actually reaches that
// target (liquidity 1_000_000 dwarfs the trade), so this exercises the
// "not reached" recompute path on both legs.
func TestComputeSwapStepExactNumbers(t *testing.T) {
	current, err := tickmath.SqrtPriceAtTick(0)
	if err != nil {
		t.Fatalf("SqrtPriceAtTick(0): %v", err)
	}
	target, err := tickmath.SqrtPriceAtTick(-60)
	if err != nil {
		t.Fatalf("SqrtPriceAtTick(-60): %v", err)
	}
	liquidity := uint128.From64(1_000_000)

	step, err := ComputeSwapStep(current, target, liquidity, uint128.From64(100), true, true, 500)
	if err != nil {
		t.Fatalf("ComputeSwapStep: %v", err)
	}
	if step.SqrtPriceNextX64 == target {
		t.Fatal("expected the step to stop short of the target price")
	}
	if got := step.AmountIn.Big().Uint64(); got != 99 {
		t.Errorf("amount_in = %d, want 99", got)
	}
	if got := step.FeeAmount.Big().Uint64(); got != 1 {
		t.Errorf("fee_amount = %d, want 1", got)
	}
	if got := step.AmountOut.Big().Uint64(); got != 99 {
		t.Errorf("amount_out = %d, want 99", got)
	}
}

// TestComputeSwapStepReachesTargetExactIn is the regression case for the
// reviewed bug: when an exact-in step consumes enough of the remaining
// amount to land exactly on the target price, step.AmountIn must be the
// to-target amount, not the zero value it was left at before the target
// branch assigned it.
func TestComputeSwapStepReachesTargetExactIn(t *testing.T) {
	current, err := tickmath.SqrtPriceAtTick(0)
	if err != nil {
		t.Fatalf("SqrtPriceAtTick(0): %v", err)
	}
	target, err := tickmath.SqrtPriceAtTick(-60)
	if err != nil {
		t.Fatalf("SqrtPriceAtTick(-60): %v", err)
	}
	liquidity := uint128.From64(1_000_000)

	step, err := ComputeSwapStep(current, target, liquidity, uint128.From64(1_000_000_000), true, true, 500)
	if err != nil {
		t.Fatalf("ComputeSwapStep: %v", err)
	}
	if step.SqrtPriceNextX64 != target {
		t.Fatal("expected the step to reach the target price given a large enough input")
	}
	if step.AmountIn.IsZero() {
		t.Fatal("amount_in must not be zero when the step reaches its target price")
	}
	if step.FeeAmount.IsZero() {
		t.Fatal("fee_amount must not be zero when amount_in is nonzero")
	}
	if step.AmountOut.IsZero() {
		t.Fatal("amount_out must not be zero when the step reaches its target price")
	}
}

// TestComputeSwapStepReachesTargetExactOut mirrors the above for the
// exact-out leg (review comment on step.go's second branch).
func TestComputeSwapStepReachesTargetExactOut(t *testing.T) {
	current, err := tickmath.SqrtPriceAtTick(0)
	if err != nil {
		t.Fatalf("SqrtPriceAtTick(0): %v", err)
	}
	target, err := tickmath.SqrtPriceAtTick(-60)
	if err != nil {
		t.Fatalf("SqrtPriceAtTick(-60): %v", err)
	}
	liquidity := uint128.From64(1_000_000)

	step, err := ComputeSwapStep(current, target, liquidity, uint128.From64(1_000_000_000), false, true, 500)
	if err != nil {
		t.Fatalf("ComputeSwapStep: %v", err)
	}
	if step.SqrtPriceNextX64 != target {
		t.Fatal("expected the step to reach the target price given a large enough requested output")
	}
	if step.AmountOut.IsZero() {
		t.Fatal("amount_out must not be zero when the step reaches its target price")
	}
	if step.AmountIn.IsZero() {
		t.Fatal("amount_in must not be zero once amount_out is known")
	}
	if step.FeeAmount.IsZero() {
		t.Fatal("fee_amount must not be zero when amount_in is nonzero")
	}
}
