// Command clmmsim drives the façade through a representative end-to-end
// flow against the in-memory host implementations (pkg/host/simhost),
// standing in for the teacher's main.go (which wires a live sol.Client and
// pushes a real transaction). Nothing here touches a network or a wallet;
// every account is a derived identifier and every balance lives in
// simhost.TokenMover's ledger.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/solana-zh/clmm-engine/pkg/engine"
	"github.com/solana-zh/clmm-engine/pkg/events"
	"github.com/solana-zh/clmm-engine/pkg/fixedpoint"
	"github.com/solana-zh/clmm-engine/pkg/host"
	"github.com/solana-zh/clmm-engine/pkg/host/simhost"
	"github.com/solana-zh/clmm-engine/pkg/tickmath"
	"lukechampine.com/uint128"
)

var (
	ammConfigIndex    = uint16(0)
	tickSpacing       = uint16(10)
	tradeFeeRate      = uint32(2500)  // 0.25%
	protocolFeeRate   = uint32(120000) // 12% of trade fee
	fundFeeRate       = uint32(40000)  // 4% of trade fee
	openLowerTick     = int32(-1000)
	openUpperTick     = int32(1000)
	openLiquidity     = uint128.From64(1_000_000_000)
	swapAmountIn      = uint128.From64(1_000_000)
	slippageBps       = uint64(100) // 1%
	startUnix         = uint64(1_700_000_000)
	startEpoch        = uint64(600)
)

func main() {
	log.Printf("🚀🚀🚀 spinning up a simulated CLMM pool...")

	ctx := context.Background()
	clock := simhost.NewClock(startUnix, startEpoch)
	mover := simhost.NewTokenMover(0)
	deriver := simhost.Deriver{}
	eng := engine.New(clock, mover, deriver, events.NewSink(nil))

	owner := id(deriver, "owner")
	payer := id(deriver, "payer")
	mintA := id(deriver, "mint-a")
	mintB := id(deriver, "mint-b")
	mint0, mint1 := mintA, mintB
	if string(mint0[:]) > string(mint1[:]) {
		mint0, mint1 = mint1, mint0
	}
	vault0 := id(deriver, "vault-0")
	vault1 := id(deriver, "vault-1")
	observationKey := id(deriver, "observation")
	payerAccount0 := id(deriver, "payer-account-0")
	payerAccount1 := id(deriver, "payer-account-1")

	mover.SetBalance(host.AccountID(payerAccount0), host.AccountID(mint0), 1_000_000_000)
	mover.SetBalance(host.AccountID(payerAccount1), host.AccountID(mint1), 1_000_000_000)
	log.Printf("😈 payer funded: 1e9 of each mint")

	cfg, err := eng.CreateAmmConfig(ammConfigIndex, tickSpacing, tradeFeeRate, protocolFeeRate, fundFeeRate, idString(owner), idString(owner))
	if err != nil {
		log.Fatalf("failed to create amm config: %v", err)
	}
	log.Printf("👌 amm config created: index=%d tickSpacing=%d tradeFeeRate=%d", cfg.Index, cfg.TickSpacing, cfg.TradeFeeRate)

	sqrtPriceX64, err := tickmath.SqrtPriceAtTick(0)
	if err != nil {
		log.Fatalf("failed to compute starting sqrt price: %v", err)
	}
	poolID, err := eng.CreatePool(ctx, ammConfigIndex, owner, mint0, mint1, vault0, vault1, observationKey, 9, 6, sqrtPriceX64, startUnix)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}
	log.Printf("🏊 pool created: %x", poolID)

	log.Printf("⌛️ opening a position over ticks [%d, %d)...", openLowerTick, openUpperTick)
	nftMint, openResult, err := eng.OpenPosition(ctx, poolID, payer, payerAccount0, payerAccount1,
		openLowerTick, openUpperTick, fixedpoint.NewI128FromInt64(openLiquidity.Big().Int64()),
		^uint64(0), ^uint64(0))
	if err != nil {
		log.Fatalf("failed to open position: %v", err)
	}
	log.Printf("👌 position opened: nft=%x amount0=%v amount1=%v", nftMint, openResult.Amount0, openResult.Amount1)

	payerSwapIn := id(deriver, "payer-swap-in")
	payerSwapOut := id(deriver, "payer-swap-out")
	mover.SetBalance(host.AccountID(payerSwapIn), host.AccountID(mint0), swapAmountIn.Big().Uint64())

	log.Printf("⌛️ swapping %v of mint0 for mint1...", swapAmountIn)
	limit := tickmath.MinSqrtPriceX64.Add(uint128.From64(1))
	result, err := eng.Swap(ctx, poolID, payerSwapIn, payerSwapOut, swapAmountIn, limit, uint128.Zero, true, true)
	if err != nil {
		log.Fatalf("failed to swap: %v", err)
	}
	minOut := result.AmountOut.Big().Uint64() * (10_000 - slippageBps) / 10_000
	log.Printf("✅ swap done: amountIn=%v amountOut=%v (slippage floor %v) newTick=%d", result.AmountIn, result.AmountOut, minOut, result.TickCurrent)
}

func id(deriver simhost.Deriver, label string) [32]byte {
	accountID, err := deriver.Derive([]byte(label))
	if err != nil {
		log.Fatalf("failed to derive %q: %v", label, err)
	}
	return accountID
}

func idString(accountID [32]byte) string {
	return fmt.Sprintf("%x", accountID)
}
