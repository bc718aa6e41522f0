// Package events defines the structured records emitted by the engine's
// state-mutating entrypoints (spec §6) and a zap-backed sink to publish
// them. Event struct shape follows the plain-exported-fields convention
// the pack uses for on-chain-style domain events (e.g. parsdao-pars's
// dex.LiquidationEvent); the structured-logging sink is new but built on
// go.uber.org/zap, already present in the teacher's own dependency graph
// (go.mod lists it, pulled in transitively) and the natural home for it:
// the teacher logs ad hoc with the standard library's log package, but a
// library this size emitting ten distinct, field-rich event types is
// exactly where zap's structured fields earn their keep over Printf.
package events

import (
	"go.uber.org/zap"
	"lukechampine.com/uint128"
)

// PoolCreated fires once per create_pool.
type PoolCreated struct {
	PoolID         string
	AmmConfigIndex uint16
	TokenMint0     string
	TokenMint1     string
	SqrtPriceX64   uint128.Uint128
	TickCurrent    int32
	OpenTime       uint64
}

// SwapEvent fires once per single-pool swap; swap_router_base_in emits no
// event.
type SwapEvent struct {
	PoolID           string
	Payer            string
	ZeroForOne       bool
	AmountIn         uint128.Uint128
	AmountOut        uint128.Uint128
	SqrtPriceX64     uint128.Uint128
	TickCurrent      int32
	Liquidity        uint128.Uint128
	ProtocolFeeDelta uint64
	FundFeeDelta     uint64
}

// LiquidityChangeEvent records a signed liquidity change on a range. The
// engine façade does not emit it; increase_liquidity and
// decrease_liquidity emit IncreaseLiquidityEvent and DecreaseLiquidityEvent.
type LiquidityChangeEvent struct {
	PoolID         string
	NFTMint        string
	TickLower      int32
	TickUpper      int32
	LiquidityDelta fixedpointSign
	Amount0        uint128.Uint128
	Amount1        uint128.Uint128
}

// fixedpointSign carries a signed liquidity delta without importing the
// fixedpoint package's I128 representation into the event surface.
type fixedpointSign struct {
	Magnitude uint128.Uint128
	Negative  bool
}

// SignedDelta builds a fixedpointSign from a magnitude and direction; it is
// the conversion point between pkg/fixedpoint.I128 and the event surface.
func SignedDelta(magnitude uint128.Uint128, negative bool) fixedpointSign {
	return fixedpointSign{Magnitude: magnitude, Negative: negative}
}

// LiquidityCalculateEvent records amounts derived from a requested delta-L
// (or vice versa), mirroring the teacher's separation between quoting a
// change and committing it. The engine façade does not emit it.
type LiquidityCalculateEvent struct {
	PoolID    string
	TickLower int32
	TickUpper int32
	Liquidity uint128.Uint128
	Amount0   uint128.Uint128
	Amount1   uint128.Uint128
}

// CreatePersonalPositionEvent fires once per open_position.
type CreatePersonalPositionEvent struct {
	PoolID    string
	NFTMint   string
	TickLower int32
	TickUpper int32
	Liquidity uint128.Uint128
	Amount0   uint128.Uint128
	Amount1   uint128.Uint128
}

// IncreaseLiquidityEvent fires once per increase_liquidity.
type IncreaseLiquidityEvent struct {
	PoolID        string
	NFTMint       string
	LiquidityDiff uint128.Uint128
	Amount0       uint128.Uint128
	Amount1       uint128.Uint128
}

// DecreaseLiquidityEvent fires once per decrease_liquidity.
type DecreaseLiquidityEvent struct {
	PoolID          string
	NFTMint         string
	LiquidityDiff   uint128.Uint128
	Amount0         uint128.Uint128
	Amount1         uint128.Uint128
	RewardsHarvested [3]uint64
}

// CollectPersonalFeeEvent records a personal position's fee collection. The
// engine façade has no such entrypoint and does not emit it.
type CollectPersonalFeeEvent struct {
	PoolID  string
	NFTMint string
	Amount0 uint64
	Amount1 uint64
}

// CollectProtocolFeeEvent fires on collect_protocol_fee / collect_fund_fee.
type CollectProtocolFeeEvent struct {
	PoolID  string
	Fund    bool
	Amount0 uint64
	Amount1 uint64
}

// ConfigChangeEvent fires on create_amm_config and any later config update.
type ConfigChangeEvent struct {
	Index           uint16
	TickSpacing     uint16
	TradeFeeRate    uint32
	ProtocolFeeRate uint32
	FundFeeRate     uint32
	Owner           string
}

// Sink publishes events; the engine façade holds one and calls its methods
// when create_amm_config, create_pool, open_position, increase_liquidity,
// decrease_liquidity, swap, collect_protocol_fee and collect_fund_fee
// complete successfully (events fire after the state mutation commits,
// never on an aborted call per spec §7's propagation policy). The router,
// reward and pool-status entrypoints emit no event.
type Sink struct {
	log *zap.Logger
}

// NewSink wraps a zap logger. Passing zap.NewNop() is the test-friendly,
// silent default.
func NewSink(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{log: log}
}

func (s *Sink) PoolCreated(e PoolCreated) {
	s.log.Info("pool_created",
		zap.String("pool_id", e.PoolID),
		zap.Uint16("amm_config_index", e.AmmConfigIndex),
		zap.String("token_mint_0", e.TokenMint0),
		zap.String("token_mint_1", e.TokenMint1),
		zap.String("sqrt_price_x64", e.SqrtPriceX64.String()),
		zap.Int32("tick_current", e.TickCurrent),
		zap.Uint64("open_time", e.OpenTime),
	)
}

func (s *Sink) Swap(e SwapEvent) {
	s.log.Info("swap",
		zap.String("pool_id", e.PoolID),
		zap.String("payer", e.Payer),
		zap.Bool("zero_for_one", e.ZeroForOne),
		zap.String("amount_in", e.AmountIn.String()),
		zap.String("amount_out", e.AmountOut.String()),
		zap.String("sqrt_price_x64", e.SqrtPriceX64.String()),
		zap.Int32("tick_current", e.TickCurrent),
		zap.String("liquidity", e.Liquidity.String()),
		zap.Uint64("protocol_fee_delta", e.ProtocolFeeDelta),
		zap.Uint64("fund_fee_delta", e.FundFeeDelta),
	)
}

func (s *Sink) LiquidityChange(e LiquidityChangeEvent) {
	s.log.Info("liquidity_change",
		zap.String("pool_id", e.PoolID),
		zap.String("nft_mint", e.NFTMint),
		zap.Int32("tick_lower", e.TickLower),
		zap.Int32("tick_upper", e.TickUpper),
		zap.String("liquidity_delta", e.LiquidityDelta.Magnitude.String()),
		zap.Bool("liquidity_delta_negative", e.LiquidityDelta.Negative),
		zap.String("amount0", e.Amount0.String()),
		zap.String("amount1", e.Amount1.String()),
	)
}

func (s *Sink) LiquidityCalculate(e LiquidityCalculateEvent) {
	s.log.Info("liquidity_calculate",
		zap.String("pool_id", e.PoolID),
		zap.Int32("tick_lower", e.TickLower),
		zap.Int32("tick_upper", e.TickUpper),
		zap.String("liquidity", e.Liquidity.String()),
		zap.String("amount0", e.Amount0.String()),
		zap.String("amount1", e.Amount1.String()),
	)
}

func (s *Sink) CreatePersonalPosition(e CreatePersonalPositionEvent) {
	s.log.Info("create_personal_position",
		zap.String("pool_id", e.PoolID),
		zap.String("nft_mint", e.NFTMint),
		zap.Int32("tick_lower", e.TickLower),
		zap.Int32("tick_upper", e.TickUpper),
		zap.String("liquidity", e.Liquidity.String()),
		zap.String("amount0", e.Amount0.String()),
		zap.String("amount1", e.Amount1.String()),
	)
}

func (s *Sink) IncreaseLiquidity(e IncreaseLiquidityEvent) {
	s.log.Info("increase_liquidity",
		zap.String("pool_id", e.PoolID),
		zap.String("nft_mint", e.NFTMint),
		zap.String("liquidity_diff", e.LiquidityDiff.String()),
		zap.String("amount0", e.Amount0.String()),
		zap.String("amount1", e.Amount1.String()),
	)
}

func (s *Sink) DecreaseLiquidity(e DecreaseLiquidityEvent) {
	s.log.Info("decrease_liquidity",
		zap.String("pool_id", e.PoolID),
		zap.String("nft_mint", e.NFTMint),
		zap.String("liquidity_diff", e.LiquidityDiff.String()),
		zap.String("amount0", e.Amount0.String()),
		zap.String("amount1", e.Amount1.String()),
		zap.Uint64s("rewards_harvested", e.RewardsHarvested[:]),
	)
}

func (s *Sink) CollectPersonalFee(e CollectPersonalFeeEvent) {
	s.log.Info("collect_personal_fee",
		zap.String("pool_id", e.PoolID),
		zap.String("nft_mint", e.NFTMint),
		zap.Uint64("amount0", e.Amount0),
		zap.Uint64("amount1", e.Amount1),
	)
}

func (s *Sink) CollectProtocolFee(e CollectProtocolFeeEvent) {
	s.log.Info("collect_protocol_fee",
		zap.String("pool_id", e.PoolID),
		zap.Bool("fund", e.Fund),
		zap.Uint64("amount0", e.Amount0),
		zap.Uint64("amount1", e.Amount1),
	)
}

func (s *Sink) ConfigChange(e ConfigChangeEvent) {
	s.log.Info("config_change",
		zap.Uint16("index", e.Index),
		zap.Uint16("tick_spacing", e.TickSpacing),
		zap.Uint32("trade_fee_rate", e.TradeFeeRate),
		zap.Uint32("protocol_fee_rate", e.ProtocolFeeRate),
		zap.Uint32("fund_fee_rate", e.FundFeeRate),
		zap.String("owner", e.Owner),
	)
}
