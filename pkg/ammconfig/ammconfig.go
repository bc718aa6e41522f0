// Package ammconfig models the fee-tier record (AmmConfig) a pool is
// created against. Ground truth for the read side is the teacher's
// AmmConfig struct and Decode in pkg/protocol/raydium_clmm.go; this
// expansion adds the write side (NewConfig/validation), since a complete
// engine must be able to create fee tiers, not just read them off-chain.
package ammconfig

import "github.com/solana-zh/clmm-engine/pkg/clmmerr"

// FeeRateDenominator is the fixed-point denominator for trade/protocol/fund
// fee rates (spec §6).
const FeeRateDenominator = 1_000_000

// Config is one fee-tier record (spec §3: amm_config_id resolves to one of
// these).
type Config struct {
	Index           uint16
	TickSpacing     uint16
	TradeFeeRate    uint32
	ProtocolFeeRate uint32
	FundFeeRate     uint32
	FundOwner       string
	Owner           string
}

// NewConfig implements create_amm_config (spec §6): index/spacing/fee
// params, each fee strictly below FeeRateDenominator.
func NewConfig(index, tickSpacing uint16, tradeFeeRate, protocolFeeRate, fundFeeRate uint32, owner, fundOwner string) (*Config, error) {
	if tradeFeeRate >= FeeRateDenominator || protocolFeeRate >= FeeRateDenominator || fundFeeRate >= FeeRateDenominator {
		return nil, clmmerr.ErrInvalidRewardInitParam
	}
	if tickSpacing == 0 {
		return nil, clmmerr.ErrInvalidTickIndex
	}
	return &Config{
		Index:           index,
		TickSpacing:     tickSpacing,
		TradeFeeRate:    tradeFeeRate,
		ProtocolFeeRate: protocolFeeRate,
		FundFeeRate:     fundFeeRate,
		Owner:           owner,
		FundOwner:       fundOwner,
	}, nil
}

// Store is a minimal in-memory keeper of fee-tier records, keyed by index;
// a real host persists these per its own account model (out of scope,
// spec §1), but the engine needs some resolvable store to validate
// create_pool against.
type Store struct {
	byIndex map[uint16]*Config
}

// NewStore returns an empty config store.
func NewStore() *Store { return &Store{byIndex: make(map[uint16]*Config)} }

// Create validates and registers a new fee tier; the index must be unused.
func (s *Store) Create(index, tickSpacing uint16, tradeFeeRate, protocolFeeRate, fundFeeRate uint32, owner, fundOwner string) (*Config, error) {
	if _, exists := s.byIndex[index]; exists {
		return nil, clmmerr.ErrInvalidUpdateConfigFlag
	}
	cfg, err := NewConfig(index, tickSpacing, tradeFeeRate, protocolFeeRate, fundFeeRate, owner, fundOwner)
	if err != nil {
		return nil, err
	}
	s.byIndex[index] = cfg
	return cfg, nil
}

// Get resolves a fee tier by index.
func (s *Store) Get(index uint16) (*Config, bool) {
	cfg, ok := s.byIndex[index]
	return cfg, ok
}
