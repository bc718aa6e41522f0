// Package codec generalizes the teacher's repetitive, hand-rolled
// byte-offset Decode methods (e.g. CLMMPool.Decode in
// pkg/pool/raydium/clmmPool.go, which walks a manually-tracked offset
// field by field) into a single reusable pair of functions built on
// github.com/gagliardetto/binary's Borsh codec, the same library the
// teacher already depends on for account decoding. Every persisted record
// (spec §6: "the serialized shape of each record must be fixed and
// versioned") is discriminator-prefixed the way the teacher's own structs
// carry a `Discriminator [8]uint8` field, computed the same way Anchor
// programs derive one: the first 8 bytes of sha256("account:TypeName").
package codec

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Discriminator derives the 8-byte account-type tag used to distinguish
// persisted record kinds sharing one content-addressed namespace, matching
// the convention the teacher's decoded structs assume a leading
// `Discriminator [8]uint8 bin:"skip"` field already carries.
func Discriminator(typeName string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + typeName))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// Encode Borsh-serializes v and prepends its type discriminator.
func Encode(typeName string, v any) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	disc := Discriminator(typeName)
	if err := enc.WriteBytes(disc[:], false); err != nil {
		return nil, fmt.Errorf("codec: encode %s discriminator: %w", typeName, err)
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", typeName, err)
	}
	return buf.Bytes(), nil
}

// Decode verifies data's leading discriminator matches typeName, then
// Borsh-decodes the remainder into v (a pointer).
func Decode(typeName string, data []byte, v any) error {
	want := Discriminator(typeName)
	if len(data) < len(want) {
		return fmt.Errorf("codec: decode %s: short record (%d bytes)", typeName, len(data))
	}
	var got [8]byte
	copy(got[:], data[:8])
	if got != want {
		return fmt.Errorf("codec: decode %s: discriminator mismatch", typeName)
	}
	dec := bin.NewBorshDecoder(data[8:])
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("codec: decode %s: %w", typeName, err)
	}
	return nil
}
