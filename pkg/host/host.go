// Package host declares the external collaborators spec §6 names: wall
// clock, token transfer, and content-addressed derivation. The engine
// depends only on these interfaces, never a concrete blockchain client —
// account hosting, signer checks and token-program transfers are all out of
// scope (spec §1) and left to whatever implements them.
//
// Ground truth for the shape of Clock is the teacher's pkg/sol/clock.go
// (GetClock reading the Solana sysvar clock account); AddressDeriver
// generalizes solana.FindProgramAddress usage scattered across
// pkg/pool/raydium/*.go (getPdaTickArrayAddress, GetPdaExBitmapAccount).
package host

import "context"

// AccountID is an opaque, comparable content-addressed identifier. The
// default implementation (solanaderiver.go) wraps a solana.PublicKey, but
// the type itself carries no Solana dependency so a non-Solana host can
// supply its own IDs, per spec §9's "arena-plus-identifier" design note.
type AccountID [32]byte

// Clock is the host's wall-clock and epoch service (spec §6: now(),
// current_epoch()). now() must be non-decreasing across calls within one
// engine session.
type Clock interface {
	Now(ctx context.Context) (unixSeconds uint64, err error)
	Epoch(ctx context.Context) (epoch uint64, err error)
}

// TokenMover is the host's transfer service (spec §6: transfer(token,
// from, to, amount, decimals)). It returns the amount actually received by
// to, which may be less than requested if the mint levies a transfer fee —
// a detail the core must reconcile against its own expectations
// (NumericError.TransferFeeCalculateNotMatch).
type TokenMover interface {
	Transfer(ctx context.Context, mint AccountID, from, to AccountID, amount uint64, decimals uint8) (received uint64, err error)
}

// AddressDeriver is the host's derive_address service (spec §6):
// deterministic identifiers for content-addressed records (pool,
// tick_array[start], bitmap_extension, protocol_position[L,U],
// personal_position[nft_mint]).
type AddressDeriver interface {
	Derive(seeds ...[]byte) (AccountID, error)
}
