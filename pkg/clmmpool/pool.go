// Package clmmpool implements the pool singleton (C7): current price/tick,
// in-range liquidity, global fee/reward accumulators, the status bit flags,
// and the reward integrator. Ground truth for field naming and grouping is
// the teacher's CLMMPool struct (pkg/pool/raydium/clmmPool.go), which this
// generalizes from a read-only decoded snapshot into a record the engine
// can mutate; the reward integrator and init-rule bodies are ported from
// original_source/programs/amm/src/states/pool.rs's update_reward_infos and
// initialize_reward (the teacher never implements either, since it only
// ever reads pools off-chain).
package clmmpool

import (
	"github.com/solana-zh/clmm-engine/pkg/clmmerr"
	"github.com/solana-zh/clmm-engine/pkg/codec"
	"github.com/solana-zh/clmm-engine/pkg/fixedpoint"
	"lukechampine.com/uint128"
)

// RewardNum is the number of concurrent reward emission streams a pool may
// run (spec §3/§4.7).
const RewardNum = 3

// Reward period bounds (spec §4.7), carried verbatim from
// original_source/programs/amm/src/states/pool.rs's reward_period_limit
// module (the "not(paramset)" / production branch).
const (
	MinRewardPeriodSeconds      = 7 * 24 * 60 * 60
	MaxRewardPeriodSeconds      = 90 * 24 * 60 * 60
	IncreaseEmissionsPeriodSecs = 72 * 60 * 60
)

// RewardState is the monotonic lifecycle a reward stream passes through.
type RewardState uint8

const (
	RewardUninitialized RewardState = iota
	RewardInitialized
	RewardOpening
	RewardEnded
)

// RewardInfo is one of up to three per-pool emission streams (spec §3).
type RewardInfo struct {
	State                 RewardState
	OpenTime              uint64
	EndTime               uint64
	LastUpdateTime        uint64
	EmissionsPerSecondX64 uint128.Uint128
	RewardTotalEmissioned uint64
	RewardClaimed         uint64
	TokenMint             [32]byte
	TokenVault            [32]byte
	Authority             [32]byte
	RewardGrowthGlobalX64 uint128.Uint128
}

// Initialized reports whether this slot has ever been assigned a mint; once
// true it never reverts (spec §4.7, mirroring RewardInfo::initialized in
// the source: "a reward cannot transition back to uninitialized").
func (r *RewardInfo) Initialized() bool {
	return r.TokenMint != ([32]byte{})
}

// StatusBit names one of the five admin-gated behaviors spec §3's status
// byte packs (bit index matches original_source's PoolStatusBitIndex).
type StatusBit uint8

const (
	StatusOpenPositionOrIncreaseLiquidity StatusBit = iota
	StatusDecreaseLiquidity
	StatusCollectFee
	StatusCollectReward
	StatusSwap
)

// Pool is the mutable singleton per (token pair, amm config) (spec §3).
type Pool struct {
	AmmConfigIndex uint16
	Owner          [32]byte
	TokenMint0     [32]byte
	TokenMint1     [32]byte
	TokenVault0    [32]byte
	TokenVault1    [32]byte
	ObservationKey [32]byte
	MintDecimals0  uint8
	MintDecimals1  uint8
	TickSpacing    uint16

	Liquidity           uint128.Uint128
	SqrtPriceX64        uint128.Uint128
	TickCurrent         int32
	FeeGrowthGlobal0X64 uint128.Uint128
	FeeGrowthGlobal1X64 uint128.Uint128

	ProtocolFeesToken0 uint64
	ProtocolFeesToken1 uint64
	FundFeesToken0     uint64
	FundFeesToken1     uint64

	SwapInAmountToken0  uint128.Uint128
	SwapOutAmountToken1 uint128.Uint128
	SwapInAmountToken1  uint128.Uint128
	SwapOutAmountToken0 uint128.Uint128

	Status uint8

	RewardInfos [RewardNum]RewardInfo

	TickArrayBitmap [16]uint64

	TotalFeesToken0        uint64
	TotalFeesClaimedToken0 uint64
	TotalFeesToken1        uint64
	TotalFeesClaimedToken1 uint64

	OpenTime    uint64
	RecentEpoch uint64
}

// New returns a freshly initialized pool at the given starting price/tick,
// per create_pool (spec §6); mint_0 < mint_1 ordering is the caller's
// responsibility to enforce before calling this (ErrInvalidInputMint if
// violated upstream).
func New(ammConfigIndex uint16, tickSpacing uint16, owner, mint0, mint1, vault0, vault1, observationKey [32]byte, decimals0, decimals1 uint8, sqrtPriceX64 uint128.Uint128, tickCurrent int32, openTime, recentEpoch uint64) *Pool {
	return &Pool{
		AmmConfigIndex: ammConfigIndex,
		TickSpacing:    tickSpacing,
		Owner:          owner,
		TokenMint0:     mint0,
		TokenMint1:     mint1,
		TokenVault0:    vault0,
		TokenVault1:    vault1,
		ObservationKey: observationKey,
		MintDecimals0:  decimals0,
		MintDecimals1:  decimals1,
		SqrtPriceX64:   sqrtPriceX64,
		TickCurrent:    tickCurrent,
		OpenTime:       openTime,
		RecentEpoch:    recentEpoch,
	}
}

// recordName is the discriminator seed for a persisted Pool record (spec
// §6's "fixed and versioned" serialized shape).
const recordName = "clmmpool.Pool"

// MarshalBinary encodes the pool as a discriminator-tagged, versioned
// record suitable for content-addressed storage.
func (p *Pool) MarshalBinary() ([]byte, error) {
	return codec.Encode(recordName, p)
}

// UnmarshalBinary decodes a record produced by MarshalBinary into p.
func (p *Pool) UnmarshalBinary(data []byte) error {
	return codec.Decode(recordName, data, p)
}

// SetStatus overwrites the full status byte (update_pool_status, spec §6).
func (p *Pool) SetStatus(status uint8) { p.Status = status }

// SetStatusBit enables or disables one status bit; disabled sets the bit,
// enabled clears it — mirroring set_status_by_bit's inverted-bit
// convention (bit=1 means disabled) from
// original_source/programs/amm/src/states/pool.rs.
func (p *Pool) SetStatusBit(bit StatusBit, disable bool) {
	mask := uint8(1) << uint8(bit)
	if disable {
		p.Status |= mask
	} else {
		p.Status &^= mask
	}
}

// StatusEnabled reports whether a bit's gated behavior is currently allowed
// (bit clear == normal/enabled).
func (p *Pool) StatusEnabled(bit StatusBit) bool {
	mask := uint8(1) << uint8(bit)
	return p.Status&mask == 0
}

// InitializeReward implements initialize_reward's validation (spec §4.7):
// the index must be the lowest uninitialized slot, the mint must not
// already be in use, index 1 requires the mint to be a pool mint or
// whitelisted (a rule applied only while neither pool mint is among the
// already-initialized rewards), and index 2 is admin/operation-owner gated.
func (p *Pool) InitializeReward(openTime, endTime uint64, emissionsPerSecondX64 uint128.Uint128, tokenMint, tokenVault, authority [32]byte, isAdminOrOperator bool, whitelistMints map[[32]byte]bool) error {
	lowestIndex := -1
	for i := range p.RewardInfos {
		if !p.RewardInfos[i].Initialized() {
			lowestIndex = i
			break
		}
	}
	if lowestIndex < 0 {
		return clmmerr.ErrFullRewardInfo
	}

	for i := range p.RewardInfos {
		if p.RewardInfos[i].Initialized() && p.RewardInfos[i].TokenMint == tokenMint {
			return clmmerr.ErrRewardTokenAlreadyInUse
		}
	}

	if lowestIndex == RewardNum-2 {
		pairRepresented := false
		for i := range p.RewardInfos {
			if p.RewardInfos[i].Initialized() && (p.RewardInfos[i].TokenMint == p.TokenMint0 || p.RewardInfos[i].TokenMint == p.TokenMint1) {
				pairRepresented = true
				break
			}
		}
		if !pairRepresented {
			if tokenMint != p.TokenMint0 && tokenMint != p.TokenMint1 && !whitelistMints[tokenMint] {
				return clmmerr.ErrExceptRewardMint
			}
		}
	} else if lowestIndex == RewardNum-1 {
		if !isAdminOrOperator {
			return clmmerr.ErrNotApproved
		}
	}

	p.RewardInfos[lowestIndex] = RewardInfo{
		State:                 RewardInitialized,
		OpenTime:              openTime,
		EndTime:               endTime,
		LastUpdateTime:        openTime,
		EmissionsPerSecondX64: emissionsPerSecondX64,
		TokenMint:             tokenMint,
		TokenVault:            tokenVault,
		Authority:             authority,
	}
	return nil
}

// SetRewardParams implements set_reward_params's period-extension rule
// (spec §4.7): the new rate must not decrease, end_time must strictly
// grow, the extension must occur within IncreaseEmissionsPeriodSecs of the
// current end_time, and the resulting period length must lie in
// [MinRewardPeriodSeconds, MaxRewardPeriodSeconds].
func (p *Pool) SetRewardParams(index int, now uint64, newEndTime uint64, newEmissionsPerSecondX64 uint128.Uint128) error {
	if index < 0 || index >= RewardNum {
		return clmmerr.ErrInvalidRewardIndex
	}
	r := &p.RewardInfos[index]
	if !r.Initialized() {
		return clmmerr.ErrUnInitializedRewardInfo
	}
	if newEmissionsPerSecondX64.Cmp(r.EmissionsPerSecondX64) < 0 {
		return clmmerr.ErrInvalidRewardInitParam
	}
	if newEndTime <= r.EndTime {
		return clmmerr.ErrInvalidRewardInitParam
	}
	if now+IncreaseEmissionsPeriodSecs < r.EndTime {
		return clmmerr.ErrInvalidRewardInitParam
	}
	period := newEndTime - now
	if period < MinRewardPeriodSeconds || period > MaxRewardPeriodSeconds {
		return clmmerr.ErrInvalidRewardPeriod
	}
	r.EmissionsPerSecondX64 = newEmissionsPerSecondX64
	r.EndTime = newEndTime
	return nil
}

// UpdateRewardInfos advances every initialized reward stream's integrator
// up to currTimestamp, implementing spec §4.7's per-slot loop. Ground
// truth: update_reward_infos in
// original_source/programs/amm/src/states/pool.rs, including its U256
// mul_div_floor for the growth delta and ceiling division for the
// emissioned-total accrual.
func (p *Pool) UpdateRewardInfos(currTimestamp uint64) error {
	for i := range p.RewardInfos {
		r := &p.RewardInfos[i]
		if !r.Initialized() {
			continue
		}
		if currTimestamp <= r.OpenTime {
			continue
		}
		latest := currTimestamp
		if r.EndTime < latest {
			latest = r.EndTime
		}

		if !p.Liquidity.IsZero() {
			if latest < r.LastUpdateTime {
				return clmmerr.ErrCalculateOverflow
			}
			timeDelta := latest - r.LastUpdateTime

			growthDelta, err := fixedpoint.MulDivFloor(uint128.From64(timeDelta), r.EmissionsPerSecondX64, p.Liquidity)
			if err != nil {
				return err
			}
			newGrowth, err := fixedpoint.AddChecked(r.RewardGrowthGlobalX64, growthDelta)
			if err != nil {
				return err
			}
			r.RewardGrowthGlobalX64 = newGrowth

			emittedDelta, err := fixedpoint.MulDivCeil(uint128.From64(timeDelta), r.EmissionsPerSecondX64, fixedpoint.Q64Uint128())
			if err != nil {
				return err
			}
			if !emittedDelta.IsZero() && emittedDelta.Big().BitLen() > 64 {
				return clmmerr.ErrCalculateOverflow
			}
			sum := r.RewardTotalEmissioned + emittedDelta.Big().Uint64()
			if sum < r.RewardTotalEmissioned {
				return clmmerr.ErrCalculateOverflow
			}
			r.RewardTotalEmissioned = sum
		}

		r.LastUpdateTime = latest
		switch {
		case latest >= r.OpenTime && latest < r.EndTime:
			r.State = RewardOpening
		case latest == r.EndTime:
			r.State = RewardEnded
		}
	}
	return nil
}

// RewardGrowths returns the current global growth accumulator for each
// reward slot, the shape tick.FeeGrowthInside needs as input.
func (p *Pool) RewardGrowths() [RewardNum]uint128.Uint128 {
	var out [RewardNum]uint128.Uint128
	for i := range p.RewardInfos {
		out[i] = p.RewardInfos[i].RewardGrowthGlobalX64
	}
	return out
}

// RewardInitializedFlags reports which reward slots are initialized, the
// shape tick.FeeGrowthInside needs to skip uninitialized streams.
func (p *Pool) RewardInitializedFlags() [RewardNum]bool {
	var out [RewardNum]bool
	for i := range p.RewardInfos {
		out[i] = p.RewardInfos[i].Initialized()
	}
	return out
}

// CheckUnclaimedReward implements check_unclaimed_reward (spec §4.7
// collect_remaining_rewards precondition): the requested amount must not
// exceed what has been emissioned but not yet claimed.
func (p *Pool) CheckUnclaimedReward(index int, rewardAmountOwed uint64) error {
	if index < 0 || index >= RewardNum {
		return clmmerr.ErrInvalidRewardIndex
	}
	r := &p.RewardInfos[index]
	if r.RewardTotalEmissioned < r.RewardClaimed {
		return clmmerr.ErrCalculateOverflow
	}
	unclaimed := r.RewardTotalEmissioned - r.RewardClaimed
	if unclaimed < rewardAmountOwed {
		return clmmerr.ErrInsufficientRewardBalance
	}
	return nil
}

// AddRewardClaimed records a reward payout against a stream's claimed
// total.
func (p *Pool) AddRewardClaimed(index int, amount uint64) error {
	if index < 0 || index >= RewardNum {
		return clmmerr.ErrInvalidRewardIndex
	}
	r := &p.RewardInfos[index]
	sum := r.RewardClaimed + amount
	if sum < r.RewardClaimed {
		return clmmerr.ErrCalculateOverflow
	}
	r.RewardClaimed = sum
	return nil
}

// CheckVaultUnderflow implements spec §4.8 step 4 / invariant 6: if
// unclaimed fees would meet or exceed the vault balance, the CollectFee bit
// is disabled defensively rather than letting a future collect underflow
// the vault.
func (p *Pool) CheckVaultUnderflow(unclaimedFee0, vault0Balance, unclaimedFee1, vault1Balance uint64) {
	if (unclaimedFee0 >= vault0Balance && vault0Balance > 0) || (unclaimedFee1 >= vault1Balance && vault1Balance > 0) {
		p.SetStatusBit(StatusCollectFee, true)
	}
}
