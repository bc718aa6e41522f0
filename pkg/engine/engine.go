// Package engine is the façade exposing every entrypoint spec §6 names as
// a method: create_amm_config, create_pool, open_position,
// increase_liquidity, decrease_liquidity, swap, swap_router_base_in, the
// reward lifecycle, fee collection, and update_pool_status. It owns the
// arena the design notes call for (spec §9: "arena-plus-identifier" — each
// record lives in a store keyed by a derive_address-produced identifier,
// with no language-level ownership graph across pools/ticks/positions) and
// wires the host services (pkg/host) to the pure computation packages
// (clmmpool, liquidity, swap, tick, position, ammconfig).
//
// Ground truth for the overall shape — one struct holding host
// collaborators plus decoded account caches, with one method per
// instruction — is the teacher's protocol/pool split
// (pkg/protocol/raydium_clmm.go's RaydiumClient wraps an RPC client the
// same way Engine wraps host.Clock/TokenMover/AddressDeriver); the teacher
// never writes state, so the mutating method bodies here are new, grounded
// directly in original_source/programs/amm/src/instructions/*.rs.
package engine

import (
	"context"
	"fmt"

	"github.com/solana-zh/clmm-engine/pkg/ammconfig"
	"github.com/solana-zh/clmm-engine/pkg/clmmerr"
	"github.com/solana-zh/clmm-engine/pkg/clmmpool"
	"github.com/solana-zh/clmm-engine/pkg/events"
	"github.com/solana-zh/clmm-engine/pkg/fixedpoint"
	"github.com/solana-zh/clmm-engine/pkg/host"
	"github.com/solana-zh/clmm-engine/pkg/liquidity"
	"github.com/solana-zh/clmm-engine/pkg/position"
	"github.com/solana-zh/clmm-engine/pkg/swap"
	"github.com/solana-zh/clmm-engine/pkg/tick"
	"github.com/solana-zh/clmm-engine/pkg/tickmath"
	"lukechampine.com/uint128"
)

// protocolKey identifies a deduplicated protocol position by its range.
type protocolKey struct {
	Pool  host.AccountID
	Lower int32
	Upper int32
}

// poolEntry bundles one pool's singleton record with the tick arrays and
// bitmap extension it owns, per the arena model.
type poolEntry struct {
	Pool      *clmmpool.Pool
	Extension *tick.Extension
	Arrays    map[int32]*tick.Array
}

func (e *poolEntry) Array(start int32) (*tick.Array, bool) {
	return e.arrayOrCreate(start, e.Pool.TickSpacing), true
}

func (e *poolEntry) arrayOrCreate(start int32, spacing uint16) *tick.Array {
	if a, ok := e.Arrays[start]; ok {
		return a
	}
	a := tick.NewArray(start, spacing)
	e.Arrays[start] = a
	return a
}

// Engine is the mutable runtime the façade methods operate against.
type Engine struct {
	Clock    host.Clock
	Mover    host.TokenMover
	Deriver  host.AddressDeriver
	Configs  *ammconfig.Store
	Events   *events.Sink

	pools          map[host.AccountID]*poolEntry
	protocols      map[protocolKey]*position.Protocol
	personals      map[host.AccountID]*position.Personal
	personalRanges map[host.AccountID]protocolKey
}

// New wires a façade instance around its host collaborators.
func New(clock host.Clock, mover host.TokenMover, deriver host.AddressDeriver, sink *events.Sink) *Engine {
	return &Engine{
		Clock:          clock,
		Mover:          mover,
		Deriver:        deriver,
		Configs:        ammconfig.NewStore(),
		Events:         sink,
		pools:          make(map[host.AccountID]*poolEntry),
		protocols:      make(map[protocolKey]*position.Protocol),
		personals:      make(map[host.AccountID]*position.Personal),
		personalRanges: make(map[host.AccountID]protocolKey),
	}
}

// CreateAmmConfig implements create_amm_config (spec §6).
func (e *Engine) CreateAmmConfig(index, tickSpacing uint16, tradeFeeRate, protocolFeeRate, fundFeeRate uint32, owner, fundOwner string) (*ammconfig.Config, error) {
	cfg, err := e.Configs.Create(index, tickSpacing, tradeFeeRate, protocolFeeRate, fundFeeRate, owner, fundOwner)
	if err != nil {
		return nil, err
	}
	e.Events.ConfigChange(events.ConfigChangeEvent{
		Index:           cfg.Index,
		TickSpacing:     cfg.TickSpacing,
		TradeFeeRate:    cfg.TradeFeeRate,
		ProtocolFeeRate: cfg.ProtocolFeeRate,
		FundFeeRate:     cfg.FundFeeRate,
		Owner:           cfg.Owner,
	})
	return cfg, nil
}

// poolID derives a pool's content-addressed identifier from its two mints
// and fee-tier index, mirroring the PDA seeds
// (original_source/programs/amm/src/instructions/create_pool.rs: seeds =
// [POOL_SEED, amm_config, mint_0, mint_1]).
func (e *Engine) poolID(ammConfigIndex uint16, mint0, mint1 [32]byte) (host.AccountID, error) {
	return e.Deriver.Derive([]byte("pool"), []byte{byte(ammConfigIndex), byte(ammConfigIndex >> 8)}, mint0[:], mint1[:])
}

// CreatePool implements create_pool (spec §6): mint_0 < mint_1 is required,
// and the fee tier must already be registered.
func (e *Engine) CreatePool(ctx context.Context, ammConfigIndex uint16, owner, mint0, mint1, vault0, vault1, observationKey [32]byte, decimals0, decimals1 uint8, sqrtPriceX64 uint128.Uint128, openTime uint64) (host.AccountID, error) {
	if compareMints(mint0, mint1) >= 0 {
		return host.AccountID{}, clmmerr.ErrInvalidInputMint
	}
	cfg, ok := e.Configs.Get(ammConfigIndex)
	if !ok {
		return host.AccountID{}, clmmerr.ErrInvalidUpdateConfigFlag
	}
	tickCurrent, err := tickmath.TickAtSqrtPrice(sqrtPriceX64)
	if err != nil {
		return host.AccountID{}, err
	}
	epoch, err := e.Clock.Epoch(ctx)
	if err != nil {
		return host.AccountID{}, err
	}
	id, err := e.poolID(ammConfigIndex, mint0, mint1)
	if err != nil {
		return host.AccountID{}, err
	}
	if _, exists := e.pools[id]; exists {
		return host.AccountID{}, clmmerr.ErrInvalidUpdateConfigFlag
	}
	pool := clmmpool.New(ammConfigIndex, cfg.TickSpacing, owner, mint0, mint1, vault0, vault1, observationKey, decimals0, decimals1, sqrtPriceX64, tickCurrent, openTime, epoch)
	e.pools[id] = &poolEntry{Pool: pool, Extension: &tick.Extension{}, Arrays: make(map[int32]*tick.Array)}
	e.Events.PoolCreated(events.PoolCreated{
		PoolID:         idString(id),
		AmmConfigIndex: ammConfigIndex,
		TokenMint0:     idString(host.AccountID(mint0)),
		TokenMint1:     idString(host.AccountID(mint1)),
		SqrtPriceX64:   sqrtPriceX64,
		TickCurrent:    tickCurrent,
		OpenTime:       openTime,
	})
	return id, nil
}

func compareMints(a, b [32]byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func idString(id host.AccountID) string { return fmt.Sprintf("%x", id) }

// entry resolves a pool's arena bundle or fails with a not-found error.
func (e *Engine) entry(poolID host.AccountID) (*poolEntry, error) {
	pe, ok := e.pools[poolID]
	if !ok {
		return nil, clmmerr.ErrAccountLack
	}
	return pe, nil
}

func (e *Engine) config(pe *poolEntry) (*ammconfig.Config, error) {
	cfg, ok := e.Configs.Get(pe.Pool.AmmConfigIndex)
	if !ok {
		return nil, clmmerr.ErrInvalidUpdateConfigFlag
	}
	return cfg, nil
}

// OpenPosition implements open_position (spec §6): creates the
// deduplicated protocol position (if this [L,U) range is new to the pool)
// and a personal stake against it, transferring tokens in.
func (e *Engine) OpenPosition(ctx context.Context, poolID host.AccountID, payer, payerToken0, payerToken1 host.AccountID, lowerTick, upperTick int32, delta fixedpoint.I128, amount0Max, amount1Max uint64) (nftMint host.AccountID, result liquidity.ModifyResult, err error) {
	pe, err := e.entry(poolID)
	if err != nil {
		return host.AccountID{}, liquidity.ModifyResult{}, err
	}
	if err := liquidity.ValidateTicks(lowerTick, upperTick, pe.Pool.TickSpacing); err != nil {
		return host.AccountID{}, liquidity.ModifyResult{}, err
	}
	lowerStart := tick.StartIndexForTick(lowerTick, pe.Pool.TickSpacing)
	upperStart := tick.StartIndexForTick(upperTick, pe.Pool.TickSpacing)
	lowerArray := pe.arrayOrCreate(lowerStart, pe.Pool.TickSpacing)
	upperArray := pe.arrayOrCreate(upperStart, pe.Pool.TickSpacing)

	pk := protocolKey{Pool: poolID, Lower: lowerTick, Upper: upperTick}
	protocol, ok := e.protocols[pk]
	if !ok {
		protocol = &position.Protocol{TickLower: lowerTick, TickUpper: upperTick}
		e.protocols[pk] = protocol
	}

	now, err := e.Clock.Now(ctx)
	if err != nil {
		return host.AccountID{}, liquidity.ModifyResult{}, err
	}
	if err := pe.Pool.UpdateRewardInfos(now); err != nil {
		return host.AccountID{}, liquidity.ModifyResult{}, err
	}
	personal, modResult, err := liquidity.OpenPosition(pe.Pool, lowerArray, upperArray, protocol, lowerTick, upperTick, delta, amount0Max, amount1Max)
	if err != nil {
		return host.AccountID{}, liquidity.ModifyResult{}, err
	}

	id, err := e.Deriver.Derive([]byte("personal_position"), poolID[:], i32bytes(lowerTick), i32bytes(upperTick), nowNonce(ctx, e))
	if err != nil {
		return host.AccountID{}, liquidity.ModifyResult{}, err
	}
	personal.NFTMint = idString(id)
	e.personals[id] = personal
	e.personalRanges[id] = pk

	if err := e.settle(ctx, pe.Pool, payerToken0, payerToken1, modResult.Amount0, modResult.Amount1, true); err != nil {
		return host.AccountID{}, liquidity.ModifyResult{}, err
	}

	e.Events.CreatePersonalPosition(events.CreatePersonalPositionEvent{
		PoolID:    idString(poolID),
		NFTMint:   personal.NFTMint,
		TickLower: lowerTick,
		TickUpper: upperTick,
		Liquidity: personal.Liquidity,
		Amount0:   modResult.Amount0,
		Amount1:   modResult.Amount1,
	})
	return id, modResult, nil
}

// i32bytes renders a tick index as 4 little-endian bytes for derivation seeds.
func i32bytes(v int32) []byte {
	u := uint32(v)
	return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}

// nowNonce folds the current epoch and the number of personal positions
// recorded so far into NFT-mint derivation so repeated open_position calls
// against the same range mint distinct identifiers, the way a real NFT mint
// keypair would never collide.
func nowNonce(ctx context.Context, e *Engine) []byte {
	epoch, _ := e.Clock.Epoch(ctx)
	return append(i32bytes(int32(epoch)), i32bytes(int32(len(e.personals)))...)
}

// IncreaseLiquidity implements increase_liquidity (spec §6).
func (e *Engine) IncreaseLiquidity(ctx context.Context, poolID, personalID host.AccountID, payerToken0, payerToken1 host.AccountID, delta fixedpoint.I128, amount0Max, amount1Max uint64) (liquidity.ModifyResult, error) {
	pe, err := e.entry(poolID)
	if err != nil {
		return liquidity.ModifyResult{}, err
	}
	personal, ok := e.personals[personalID]
	if !ok {
		return liquidity.ModifyResult{}, clmmerr.ErrAccountLack
	}
	pk, ok := e.personalRanges[personalID]
	if !ok {
		return liquidity.ModifyResult{}, clmmerr.ErrAccountLack
	}
	protocol, ok := e.protocols[pk]
	if !ok {
		return liquidity.ModifyResult{}, clmmerr.ErrAccountLack
	}
	lowerStart := tick.StartIndexForTick(protocol.TickLower, pe.Pool.TickSpacing)
	upperStart := tick.StartIndexForTick(protocol.TickUpper, pe.Pool.TickSpacing)
	lowerArray := pe.arrayOrCreate(lowerStart, pe.Pool.TickSpacing)
	upperArray := pe.arrayOrCreate(upperStart, pe.Pool.TickSpacing)

	now, err := e.Clock.Now(ctx)
	if err != nil {
		return liquidity.ModifyResult{}, err
	}
	result, err := liquidity.IncreaseLiquidity(pe.Pool, lowerArray, upperArray, protocol, personal, protocol.TickLower, protocol.TickUpper, delta, amount0Max, amount1Max, now)
	if err != nil {
		return liquidity.ModifyResult{}, err
	}
	if err := e.settle(ctx, pe.Pool, payerToken0, payerToken1, result.Amount0, result.Amount1, true); err != nil {
		return liquidity.ModifyResult{}, err
	}
	e.Events.IncreaseLiquidity(events.IncreaseLiquidityEvent{
		PoolID:        idString(poolID),
		NFTMint:       personal.NFTMint,
		LiquidityDiff: delta.Abs(),
		Amount0:       result.Amount0,
		Amount1:       result.Amount1,
	})
	return result, nil
}

// DecreaseLiquidity implements decrease_liquidity (spec §6): removes
// liquidity and transfers the withdrawn token amounts to the recipient
// accounts. Fees and rewards owed to the position are accrued onto its
// records but are not transferred by this call.
func (e *Engine) DecreaseLiquidity(ctx context.Context, poolID, personalID host.AccountID, recipientToken0, recipientToken1 host.AccountID, delta fixedpoint.I128, amount0Min, amount1Min uint64, vault0Balance, vault1Balance uint64) (liquidity.ModifyResult, error) {
	pe, err := e.entry(poolID)
	if err != nil {
		return liquidity.ModifyResult{}, err
	}
	personal, ok := e.personals[personalID]
	if !ok {
		return liquidity.ModifyResult{}, clmmerr.ErrAccountLack
	}
	pk, ok := e.personalRanges[personalID]
	if !ok {
		return liquidity.ModifyResult{}, clmmerr.ErrAccountLack
	}
	protocol, ok := e.protocols[pk]
	if !ok {
		return liquidity.ModifyResult{}, clmmerr.ErrAccountLack
	}
	lowerStart := tick.StartIndexForTick(protocol.TickLower, pe.Pool.TickSpacing)
	upperStart := tick.StartIndexForTick(protocol.TickUpper, pe.Pool.TickSpacing)
	lowerArray := pe.arrayOrCreate(lowerStart, pe.Pool.TickSpacing)
	upperArray := pe.arrayOrCreate(upperStart, pe.Pool.TickSpacing)

	now, err := e.Clock.Now(ctx)
	if err != nil {
		return liquidity.ModifyResult{}, err
	}
	result, err := liquidity.DecreaseLiquidity(pe.Pool, lowerArray, upperArray, protocol, personal, protocol.TickLower, protocol.TickUpper, delta, amount0Min, amount1Min, now, vault0Balance, vault1Balance)
	if err != nil {
		return liquidity.ModifyResult{}, err
	}
	if err := e.settle(ctx, pe.Pool, recipientToken0, recipientToken1, result.Amount0, result.Amount1, false); err != nil {
		return liquidity.ModifyResult{}, err
	}
	e.Events.DecreaseLiquidity(events.DecreaseLiquidityEvent{
		PoolID:        idString(poolID),
		NFTMint:       personal.NFTMint,
		LiquidityDiff: delta.Abs(),
		Amount0:       result.Amount0,
		Amount1:       result.Amount1,
	})
	return result, nil
}

// settle moves the computed token amounts between pool vaults and the
// counterparty account; `in` selects the transfer direction (payer->vault
// on open/increase, vault->recipient on decrease/collect).
func (e *Engine) settle(ctx context.Context, pool *clmmpool.Pool, account0, account1 host.AccountID, amount0, amount1 uint128.Uint128, in bool) error {
	from0, to0 := host.AccountID(pool.TokenVault0), account0
	from1, to1 := host.AccountID(pool.TokenVault1), account1
	if in {
		from0, to0 = account0, host.AccountID(pool.TokenVault0)
		from1, to1 = account1, host.AccountID(pool.TokenVault1)
	}
	if !amount0.IsZero() {
		u0, err := toU64(amount0)
		if err != nil {
			return err
		}
		if _, err := e.Mover.Transfer(ctx, host.AccountID(pool.TokenMint0), from0, to0, u0, pool.MintDecimals0); err != nil {
			return err
		}
	}
	if !amount1.IsZero() {
		u1, err := toU64(amount1)
		if err != nil {
			return err
		}
		if _, err := e.Mover.Transfer(ctx, host.AccountID(pool.TokenMint1), from1, to1, u1, pool.MintDecimals1); err != nil {
			return err
		}
	}
	return nil
}

// toU64 narrows a uint128 token amount, failing per spec §7's
// NumericError.MaxTokenOverflow rather than silently truncating.
func toU64(amount uint128.Uint128) (uint64, error) {
	if amount.Big().BitLen() > 64 {
		return 0, clmmerr.ErrMaxTokenOverflow
	}
	return amount.Big().Uint64(), nil
}

// Swap implements swap (spec §6): a single-pool exact-in/exact-out trade.
func (e *Engine) Swap(ctx context.Context, poolID host.AccountID, payerIn, payerOut host.AccountID, amountSpecified, sqrtPriceLimitX64, otherAmountThreshold uint128.Uint128, isBaseInput, zeroForOne bool) (swap.Result, error) {
	pe, err := e.entry(poolID)
	if err != nil {
		return swap.Result{}, err
	}
	cfg, err := e.config(pe)
	if err != nil {
		return swap.Result{}, err
	}
	if !pe.Pool.StatusEnabled(clmmpool.StatusSwap) {
		return swap.Result{}, clmmerr.ErrNotApproved
	}
	now, err := e.Clock.Now(ctx)
	if err != nil {
		return swap.Result{}, err
	}
	result, err := swap.Execute(pe.Pool, cfg, pe, pe.Extension, now, swap.Request{
		AmountSpecified:      amountSpecified,
		IsBaseInput:          isBaseInput,
		ZeroForOne:           zeroForOne,
		SqrtPriceLimitX64:    sqrtPriceLimitX64,
		OtherAmountThreshold: otherAmountThreshold,
	})
	if err != nil {
		return swap.Result{}, err
	}
	mintIn, mintOut := host.AccountID(pe.Pool.TokenMint0), host.AccountID(pe.Pool.TokenMint1)
	vaultIn, vaultOut := host.AccountID(pe.Pool.TokenVault0), host.AccountID(pe.Pool.TokenVault1)
	decimalsIn, decimalsOut := pe.Pool.MintDecimals0, pe.Pool.MintDecimals1
	if !zeroForOne {
		mintIn, mintOut = mintOut, mintIn
		vaultIn, vaultOut = vaultOut, vaultIn
		decimalsIn, decimalsOut = decimalsOut, decimalsIn
	}
	amountIn, err := toU64(result.AmountIn)
	if err != nil {
		return swap.Result{}, err
	}
	amountOut, err := toU64(result.AmountOut)
	if err != nil {
		return swap.Result{}, err
	}
	if _, err := e.Mover.Transfer(ctx, mintIn, payerIn, vaultIn, amountIn, decimalsIn); err != nil {
		return swap.Result{}, err
	}
	if _, err := e.Mover.Transfer(ctx, mintOut, vaultOut, payerOut, amountOut, decimalsOut); err != nil {
		return swap.Result{}, err
	}
	e.Events.Swap(events.SwapEvent{
		PoolID:           idString(poolID),
		Payer:            idString(payerIn),
		ZeroForOne:       zeroForOne,
		AmountIn:         result.AmountIn,
		AmountOut:        result.AmountOut,
		SqrtPriceX64:     result.SqrtPriceX64,
		TickCurrent:      result.TickCurrent,
		Liquidity:        result.Liquidity,
		ProtocolFeeDelta: result.ProtocolFeeDelta,
		FundFeeDelta:     result.FundFeeDelta,
	})
	return result, nil
}

// SwapRouterBaseIn implements swap_router_base_in (spec §6): a multi-hop
// exact-in route across pools this Engine already hosts.
func (e *Engine) SwapRouterBaseIn(ctx context.Context, poolIDs []host.AccountID, zeroForOnes []bool, amountIn, amountOutMin uint128.Uint128) (uint128.Uint128, error) {
	if len(poolIDs) != len(zeroForOnes) || len(poolIDs) == 0 {
		return uint128.Uint128{}, clmmerr.ErrZeroAmountSpecified
	}
	hops := make([]swap.Hop, len(poolIDs))
	now, err := e.Clock.Now(ctx)
	if err != nil {
		return uint128.Uint128{}, err
	}
	for i, id := range poolIDs {
		pe, err := e.entry(id)
		if err != nil {
			return uint128.Uint128{}, err
		}
		cfg, err := e.config(pe)
		if err != nil {
			return uint128.Uint128{}, err
		}
		if !pe.Pool.StatusEnabled(clmmpool.StatusSwap) {
			return uint128.Uint128{}, clmmerr.ErrNotApproved
		}
		hops[i] = swap.Hop{Pool: pe.Pool, Config: cfg, Arrays: pe, Extension: pe.Extension, ZeroForOne: zeroForOnes[i]}
	}
	return swap.RouterBaseIn(hops, amountIn, amountOutMin, now)
}

// InitializeReward implements initialize_reward (spec §6).
func (e *Engine) InitializeReward(poolID host.AccountID, openTime, endTime uint64, emissionsPerSecondX64 uint128.Uint128, tokenMint, tokenVault, authority [32]byte, isAdminOrOperator bool, whitelistMints map[[32]byte]bool) error {
	pe, err := e.entry(poolID)
	if err != nil {
		return err
	}
	return pe.Pool.InitializeReward(openTime, endTime, emissionsPerSecondX64, tokenMint, tokenVault, authority, isAdminOrOperator, whitelistMints)
}

// SetRewardParams implements set_reward_params (spec §6).
func (e *Engine) SetRewardParams(ctx context.Context, poolID host.AccountID, index int, newEndTime uint64, newEmissionsPerSecondX64 uint128.Uint128) error {
	pe, err := e.entry(poolID)
	if err != nil {
		return err
	}
	now, err := e.Clock.Now(ctx)
	if err != nil {
		return err
	}
	return pe.Pool.SetRewardParams(index, now, newEndTime, newEmissionsPerSecondX64)
}

// CollectRemainingRewards implements collect_remaining_rewards (spec §6):
// the pool owner reclaims the unemitted remainder once a stream has ended.
func (e *Engine) CollectRemainingRewards(ctx context.Context, poolID host.AccountID, index int, rewardVault, recipient host.AccountID, vaultBalance uint64) (uint64, error) {
	pe, err := e.entry(poolID)
	if err != nil {
		return 0, err
	}
	now, err := e.Clock.Now(ctx)
	if err != nil {
		return 0, err
	}
	if err := pe.Pool.UpdateRewardInfos(now); err != nil {
		return 0, err
	}
	if index < 0 || index >= clmmpool.RewardNum {
		return 0, clmmerr.ErrInvalidRewardIndex
	}
	info := &pe.Pool.RewardInfos[index]
	if info.State != clmmpool.RewardEnded {
		return 0, clmmerr.ErrNotApproveUpdateRewardEmissions
	}
	if info.RewardTotalEmissioned < info.RewardClaimed || vaultBalance < info.RewardTotalEmissioned-info.RewardClaimed {
		return 0, clmmerr.ErrCalculateOverflow
	}
	remaining := vaultBalance - (info.RewardTotalEmissioned - info.RewardClaimed)
	if remaining == 0 {
		return 0, nil
	}
	if _, err := e.Mover.Transfer(ctx, host.AccountID(info.TokenMint), rewardVault, recipient, remaining, 0); err != nil {
		return 0, err
	}
	return remaining, nil
}

// CollectProtocolFee implements collect_protocol_fee (spec §6).
func (e *Engine) CollectProtocolFee(ctx context.Context, poolID host.AccountID, vault0, vault1, recipient0, recipient1 host.AccountID, amount0Requested, amount1Requested uint64) (uint64, uint64, error) {
	return e.collectFee(ctx, poolID, vault0, vault1, recipient0, recipient1, amount0Requested, amount1Requested, false)
}

// CollectFundFee implements collect_fund_fee (spec §6).
func (e *Engine) CollectFundFee(ctx context.Context, poolID host.AccountID, vault0, vault1, recipient0, recipient1 host.AccountID, amount0Requested, amount1Requested uint64) (uint64, uint64, error) {
	return e.collectFee(ctx, poolID, vault0, vault1, recipient0, recipient1, amount0Requested, amount1Requested, true)
}

func (e *Engine) collectFee(ctx context.Context, poolID host.AccountID, vault0, vault1, recipient0, recipient1 host.AccountID, amount0Requested, amount1Requested uint64, fund bool) (uint64, uint64, error) {
	pe, err := e.entry(poolID)
	if err != nil {
		return 0, 0, err
	}
	if !pe.Pool.StatusEnabled(clmmpool.StatusCollectFee) {
		return 0, 0, clmmerr.ErrNotApproved
	}
	available0, available1 := pe.Pool.ProtocolFeesToken0, pe.Pool.ProtocolFeesToken1
	if fund {
		available0, available1 = pe.Pool.FundFeesToken0, pe.Pool.FundFeesToken1
	}
	amount0 := min64(amount0Requested, available0)
	amount1 := min64(amount1Requested, available1)
	if fund {
		pe.Pool.FundFeesToken0 -= amount0
		pe.Pool.FundFeesToken1 -= amount1
	} else {
		pe.Pool.ProtocolFeesToken0 -= amount0
		pe.Pool.ProtocolFeesToken1 -= amount1
	}
	if amount0 > 0 {
		if _, err := e.Mover.Transfer(ctx, host.AccountID(pe.Pool.TokenMint0), vault0, recipient0, amount0, pe.Pool.MintDecimals0); err != nil {
			return 0, 0, err
		}
	}
	if amount1 > 0 {
		if _, err := e.Mover.Transfer(ctx, host.AccountID(pe.Pool.TokenMint1), vault1, recipient1, amount1, pe.Pool.MintDecimals1); err != nil {
			return 0, 0, err
		}
	}
	e.Events.CollectProtocolFee(events.CollectProtocolFeeEvent{PoolID: idString(poolID), Fund: fund, Amount0: amount0, Amount1: amount1})
	return amount0, amount1, nil
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// UpdatePoolStatus implements update_pool_status (spec §6): an
// admin-gated, full status-byte overwrite.
func (e *Engine) UpdatePoolStatus(poolID host.AccountID, statusByte uint8) error {
	pe, err := e.entry(poolID)
	if err != nil {
		return err
	}
	pe.Pool.SetStatus(statusByte)
	return nil
}
