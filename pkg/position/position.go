// Package position implements the protocol/personal position records and
// the update_position accrual law (C6). Ground truth:
// original_source/programs/amm/src/states/tick.rs's get_fee_growth_inside
// (now pkg/tick.FeeGrowthInside) feeding into the owed-fee/reward accrual
// spec §4.6 specifies, mirrored from the teacher's struct-field style for
// CLMMPool (pkg/pool/raydium/clmmPool.go) rather than any teacher position
// code (the teacher is read-only and never opens/closes a position).
package position

import (
	"github.com/solana-zh/clmm-engine/pkg/clmmerr"
	"github.com/solana-zh/clmm-engine/pkg/codec"
	"github.com/solana-zh/clmm-engine/pkg/fixedpoint"
	"github.com/solana-zh/clmm-engine/pkg/tick"
	"lukechampine.com/uint128"
)

// Protocol is the deduplicated per-range accounting record (spec §3).
type Protocol struct {
	TickLower                    int32
	TickUpper                    int32
	Liquidity                    uint128.Uint128
	FeeGrowthInside0LastX64      uint128.Uint128
	FeeGrowthInside1LastX64      uint128.Uint128
	RewardGrowthInsideLastX64    [tick.RewardNum]uint128.Uint128
	TokenFeesOwed0               uint64
	TokenFeesOwed1               uint64
	RewardAmountOwed             [tick.RewardNum]uint64
}

const protocolRecordName = "position.Protocol"

// MarshalBinary encodes the protocol position as a discriminator-tagged,
// versioned record (spec §6).
func (p *Protocol) MarshalBinary() ([]byte, error) {
	return codec.Encode(protocolRecordName, p)
}

// UnmarshalBinary decodes a record produced by MarshalBinary into p.
func (p *Protocol) UnmarshalBinary(data []byte) error {
	return codec.Decode(protocolRecordName, data, p)
}

// Personal is a per-LP stake within a protocol position, externally
// represented by an NFT (spec §3).
type Personal struct {
	NFTMint                   string
	Liquidity                 uint128.Uint128
	FeeGrowthInside0LastX64   uint128.Uint128
	FeeGrowthInside1LastX64   uint128.Uint128
	RewardGrowthInsideLastX64 [tick.RewardNum]uint128.Uint128
	TokenFeesOwed0            uint64
	TokenFeesOwed1            uint64
	RewardAmountOwed          [tick.RewardNum]uint64
}

const personalRecordName = "position.Personal"

// MarshalBinary encodes the personal position as a discriminator-tagged,
// versioned record (spec §6).
func (p *Personal) MarshalBinary() ([]byte, error) {
	return codec.Encode(personalRecordName, p)
}

// UnmarshalBinary decodes a record produced by MarshalBinary into p.
func (p *Personal) UnmarshalBinary(data []byte) error {
	return codec.Decode(personalRecordName, data, p)
}

// IsClosable reports whether a personal position may be closed: liquidity,
// owed fees and owed rewards must all be zero (spec §3 lifecycle note).
func (p *Personal) IsClosable() bool {
	if !p.Liquidity.IsZero() || p.TokenFeesOwed0 != 0 || p.TokenFeesOwed1 != 0 {
		return false
	}
	for _, r := range p.RewardAmountOwed {
		if r != 0 {
			return false
		}
	}
	return true
}

// accrueOwed adds (growth - lastSnapshot) * liquidityBefore / 2^64 to an
// owed-fee accumulator, via the checked mul_div spec §4.6 step 3 specifies.
// growth and lastSnapshot are both mod-2^128 accumulators so their
// difference must be taken with wrapping subtraction; the resulting
// per-liquidity-unit delta is then scaled by liquidityBefore and divided by
// Q64, which is itself checked (a genuinely negative/overflowing owed delta
// is impossible for honest accounting and signals ErrMaxTokenOverflow).
func accrueOwed(owed uint64, growthNow, growthLast uint128.Uint128, liquidityBefore uint128.Uint128) (uint64, error) {
	delta := fixedpoint.WrappingSub(growthNow, growthLast)
	if delta.IsZero() || liquidityBefore.IsZero() {
		return owed, nil
	}
	scaled, err := fixedpoint.MulDivFloor(delta, liquidityBefore, uint128.New(0, 1))
	if err != nil {
		return 0, err
	}
	if !scaled.IsZero() && scaled.Big().BitLen() > 64 {
		return 0, clmmerr.ErrMaxTokenOverflow
	}
	sum := owed + scaled.Big().Uint64()
	if sum < owed {
		return 0, clmmerr.ErrMaxTokenOverflow
	}
	return sum, nil
}

// UpdateProtocol implements update_position's protocol-position half (spec
// §4.6 steps 2-3): accrue owed fees/rewards from the freshly computed
// inside-growth snapshot, re-snapshot, then apply the liquidity delta
// (checked, never silently wrapping — a genuine underflow on decrease is a
// caller bug and must fail loudly).
func (p *Protocol) UpdateProtocol(growth tick.GrowthInside, delta fixedpoint.I128) error {
	liquidityBefore := p.Liquidity

	owed0, err := accrueOwed(p.TokenFeesOwed0, growth.FeeGrowthInside0X64, p.FeeGrowthInside0LastX64, liquidityBefore)
	if err != nil {
		return err
	}
	owed1, err := accrueOwed(p.TokenFeesOwed1, growth.FeeGrowthInside1X64, p.FeeGrowthInside1LastX64, liquidityBefore)
	if err != nil {
		return err
	}
	var rewardsOwed [tick.RewardNum]uint64
	for i := 0; i < tick.RewardNum; i++ {
		rewardsOwed[i], err = accrueOwed(p.RewardAmountOwed[i], growth.RewardGrowthsInsideX64[i], p.RewardGrowthInsideLastX64[i], liquidityBefore)
		if err != nil {
			return err
		}
	}

	p.TokenFeesOwed0 = owed0
	p.TokenFeesOwed1 = owed1
	p.RewardAmountOwed = rewardsOwed
	p.FeeGrowthInside0LastX64 = growth.FeeGrowthInside0X64
	p.FeeGrowthInside1LastX64 = growth.FeeGrowthInside1X64
	p.RewardGrowthInsideLastX64 = growth.RewardGrowthsInsideX64

	newLiquidity, err := fixedpoint.AddDelta(liquidityBefore, delta)
	if err != nil {
		return clmmerr.ErrLiquiditySubValue
	}
	p.Liquidity = newLiquidity
	return nil
}

// UpdatePersonal mirrors UpdateProtocol for the owning personal position
// (spec §4.6 step 4): accrues against its own snapshot, then snapshots and
// applies its own liquidity delta, which for a single-owner personal
// position is the full ΔL of the call.
func (pp *Personal) UpdatePersonal(growth tick.GrowthInside, delta fixedpoint.I128) error {
	liquidityBefore := pp.Liquidity

	owed0, err := accrueOwed(pp.TokenFeesOwed0, growth.FeeGrowthInside0X64, pp.FeeGrowthInside0LastX64, liquidityBefore)
	if err != nil {
		return err
	}
	owed1, err := accrueOwed(pp.TokenFeesOwed1, growth.FeeGrowthInside1X64, pp.FeeGrowthInside1LastX64, liquidityBefore)
	if err != nil {
		return err
	}
	var rewardsOwed [tick.RewardNum]uint64
	for i := 0; i < tick.RewardNum; i++ {
		rewardsOwed[i], err = accrueOwed(pp.RewardAmountOwed[i], growth.RewardGrowthsInsideX64[i], pp.RewardGrowthInsideLastX64[i], liquidityBefore)
		if err != nil {
			return err
		}
	}

	pp.TokenFeesOwed0 = owed0
	pp.TokenFeesOwed1 = owed1
	pp.RewardAmountOwed = rewardsOwed
	pp.FeeGrowthInside0LastX64 = growth.FeeGrowthInside0X64
	pp.FeeGrowthInside1LastX64 = growth.FeeGrowthInside1X64
	pp.RewardGrowthInsideLastX64 = growth.RewardGrowthsInsideX64

	newLiquidity, err := fixedpoint.AddDelta(liquidityBefore, delta)
	if err != nil {
		return clmmerr.ErrLiquiditySubValue
	}
	pp.Liquidity = newLiquidity
	return nil
}
