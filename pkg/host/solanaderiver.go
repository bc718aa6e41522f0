package host

import "github.com/gagliardetto/solana-go"

// SolanaDeriver implements AddressDeriver over solana.FindProgramAddress,
// the PDA-derivation idiom the teacher uses directly in
// pkg/pool/raydium/clmm_tickerarray.go (getPdaTickArrayAddress,
// GetPdaExBitmapAccount) rather than through any interface — this wraps
// that same call so the core depends on AddressDeriver, not solana-go,
// while a Solana-hosted deployment gets byte-identical PDA seeds.
type SolanaDeriver struct {
	ProgramID solana.PublicKey
}

// Derive finds a program-derived address for the given seeds under the
// deriver's program ID.
func (d SolanaDeriver) Derive(seeds ...[]byte) (AccountID, error) {
	pk, _, err := solana.FindProgramAddress(seeds, d.ProgramID)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(pk), nil
}

// PublicKey renders an AccountID back as a solana.PublicKey for callers
// that need to hand it to solana-go APIs.
func PublicKey(id AccountID) solana.PublicKey {
	return solana.PublicKey(id)
}

// FromPublicKey wraps a solana.PublicKey as an AccountID.
func FromPublicKey(pk solana.PublicKey) AccountID {
	return AccountID(pk)
}
