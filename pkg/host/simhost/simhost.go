// Package simhost is an in-memory Clock/TokenMover/AddressDeriver used by
// tests and cmd/clmmsim, grounded on the teacher's pkg/sol/clock.go (same
// Clock shape, minus the live sysvar-account read) and
// pkg/sol/rate_limiter.go (the same golang.org/x/time/rate wiring, applied
// here to throttle simulated host calls the way the teacher throttles RPC
// calls).
package simhost

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/solana-zh/clmm-engine/pkg/host"
	"golang.org/x/time/rate"
)

// Clock is a manually-advanced, monotonic wall clock.
type Clock struct {
	mu    sync.Mutex
	now   uint64
	epoch uint64
}

// NewClock returns a Clock starting at the given unix time and epoch.
func NewClock(startUnix, startEpoch uint64) *Clock {
	return &Clock{now: startUnix, epoch: startEpoch}
}

// Now returns the current simulated wall-clock time.
func (c *Clock) Now(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now, nil
}

// Epoch returns the current simulated epoch counter.
func (c *Clock) Epoch(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch, nil
}

// Advance moves the clock forward by deltaSeconds; it refuses to move
// backward since spec §6 requires now() to be non-decreasing.
func (c *Clock) Advance(deltaSeconds uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += deltaSeconds
}

// SetEpoch bumps the opaque epoch counter attached to mutated records.
func (c *Clock) SetEpoch(epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = epoch
}

// TokenMover is an in-memory ledger of per-account, per-mint balances. It
// applies an optional per-mint transfer-fee basis-points rate the way a
// Token-2022 transfer-fee extension mint would, so callers can exercise
// spec §6's "may levy a transfer fee known to the pool via the mint".
type TokenMover struct {
	mu           sync.Mutex
	balances     map[host.AccountID]map[host.AccountID]uint64
	feeBpsByMint map[host.AccountID]uint16
	limiter      *rate.Limiter
}

// NewTokenMover returns an empty ledger rate-limited to ops-per-second
// (mirroring the teacher's RateLimiter default of throttling RPC-style
// calls); pass 0 to disable limiting.
func NewTokenMover(opsPerSecond float64) *TokenMover {
	var limiter *rate.Limiter
	if opsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opsPerSecond), 1)
	}
	return &TokenMover{
		balances:     make(map[host.AccountID]map[host.AccountID]uint64),
		feeBpsByMint: make(map[host.AccountID]uint16),
		limiter:      limiter,
	}
}

// SetBalance seeds an account's balance for a mint.
func (m *TokenMover) SetBalance(account, mint host.AccountID, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.balances[account]
	if !ok {
		acct = make(map[host.AccountID]uint64)
		m.balances[account] = acct
	}
	acct[mint] = amount
}

// Balance returns an account's balance for a mint.
func (m *TokenMover) Balance(account, mint host.AccountID) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[account][mint]
}

// SetTransferFeeBps configures a transfer-fee rate (basis points of
// amount) for a mint, modeling a Token-2022 transfer-fee extension.
func (m *TokenMover) SetTransferFeeBps(mint host.AccountID, bps uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feeBpsByMint[mint] = bps
}

// Transfer moves amount of mint from->to, levying any configured transfer
// fee and returning what to actually received.
func (m *TokenMover) Transfer(ctx context.Context, mint host.AccountID, from, to host.AccountID, amount uint64, decimals uint8) (uint64, error) {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	fromAcct := m.balances[from]
	fromAcct[mint] -= amount

	bps := m.feeBpsByMint[mint]
	fee := uint64(0)
	if bps > 0 {
		fee = amount * uint64(bps) / 10_000
	}
	received := amount - fee

	toAcct, ok := m.balances[to]
	if !ok {
		toAcct = make(map[host.AccountID]uint64)
		m.balances[to] = toAcct
	}
	toAcct[mint] += received
	return received, nil
}

// Deriver derives deterministic AccountIDs by hashing the concatenated
// seeds, standing in for host.SolanaDeriver's PDA derivation in tests that
// don't need real Solana program addresses.
type Deriver struct{}

// Derive hashes the seeds into a 32-byte AccountID.
func (Deriver) Derive(seeds ...[]byte) (host.AccountID, error) {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	var id host.AccountID
	copy(id[:], h.Sum(nil))
	return id, nil
}
