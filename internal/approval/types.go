// Package approval implements the approval-distribution gossip subsystem:
// dissemination of assignment certificates and approval votes among the
// validators of a parachain relay chain, following a structured grid
// topology with randomized supplementary routing and aggression escalation.
package approval

import (
	"encoding/binary"
	"fmt"
)

// MaxBitfieldSize bounds the logical length of any CandidateBitfield.
const MaxBitfieldSize = 500

// Hash is a 32-byte block identifier.
type Hash [32]byte

func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:4])
}

// BlockNumber identifies a block's height.
type BlockNumber uint32

// SessionIndex identifies a fixed-validator-set epoch.
type SessionIndex uint32

// ValidatorIndex identifies a validator within a session.
type ValidatorIndex uint32

// CandidateIndex identifies a candidate within a block, 0-based.
type CandidateIndex uint32

// PeerID identifies a connected network peer.
type PeerID uint64

// CandidateBitfield is a little-endian bitset over CandidateIndex values.
// Its logical length is defined by the position of its most significant
// set bit; it must never exceed MaxBitfieldSize bits.
type CandidateBitfield struct {
	bits []byte
}

// NewCandidateBitfield builds a bitfield with the given candidate indices set.
func NewCandidateBitfield(indices ...CandidateIndex) CandidateBitfield {
	var b CandidateBitfield
	for _, i := range indices {
		b.Set(i)
	}
	return b
}

// Set marks the given candidate index as present.
func (b *CandidateBitfield) Set(i CandidateIndex) {
	byteIdx := int(i / 8)
	for len(b.bits) <= byteIdx {
		b.bits = append(b.bits, 0)
	}
	b.bits[byteIdx] |= 1 << (i % 8)
}

// IsSet reports whether the given candidate index is present.
func (b CandidateBitfield) IsSet(i CandidateIndex) bool {
	byteIdx := int(i / 8)
	if byteIdx >= len(b.bits) {
		return false
	}
	return b.bits[byteIdx]&(1<<(i%8)) != 0
}

// Len returns the bitfield's logical length: one past the most significant
// set bit, or 0 if no bit is set.
func (b CandidateBitfield) Len() int {
	for byteIdx := len(b.bits) - 1; byteIdx >= 0; byteIdx-- {
		v := b.bits[byteIdx]
		if v == 0 {
			continue
		}
		for bit := 7; bit >= 0; bit-- {
			if v&(1<<uint(bit)) != 0 {
				return byteIdx*8 + bit + 1
			}
		}
	}
	return 0
}

// IsZero reports whether no candidate bit is set at all.
func (b CandidateBitfield) IsZero() bool {
	return b.Len() == 0
}

// Intersects reports whether any bit is set in both bitfields.
func (b CandidateBitfield) Intersects(other CandidateBitfield) bool {
	n := len(b.bits)
	if len(other.bits) < n {
		n = len(other.bits)
	}
	for i := 0; i < n; i++ {
		if b.bits[i]&other.bits[i] != 0 {
			return true
		}
	}
	return false
}

// Indices returns the set candidate indices in ascending order.
func (b CandidateBitfield) Indices() []CandidateIndex {
	var out []CandidateIndex
	for byteIdx, v := range b.bits {
		for bit := 0; bit < 8; bit++ {
			if v&(1<<uint(bit)) != 0 {
				out = append(out, CandidateIndex(byteIdx*8+bit))
			}
		}
	}
	return out
}

// Key returns a comparable string suitable for use as a map key.
func (b CandidateBitfield) Key() string {
	return string(b.bits)
}

// Bytes returns the raw little-endian byte representation.
func (b CandidateBitfield) Bytes() []byte {
	return append([]byte(nil), b.bits...)
}

// CandidateBitfieldFromBytes reconstructs a bitfield from its raw bytes.
func CandidateBitfieldFromBytes(raw []byte) CandidateBitfield {
	return CandidateBitfield{bits: append([]byte(nil), raw...)}
}

// MarshalBinary satisfies encoding.BinaryMarshaler so that the ugorji CBOR
// codec (internal/wire/codec.go) serializes the bitfield's raw bytes
// instead of reflecting over its unexported field, which would see
// nothing at all.
func (b CandidateBitfield) MarshalBinary() ([]byte, error) {
	return b.Bytes(), nil
}

// UnmarshalBinary satisfies encoding.BinaryUnmarshaler, the decode side of
// MarshalBinary.
func (b *CandidateBitfield) UnmarshalBinary(data []byte) error {
	b.bits = append([]byte(nil), data...)
	return nil
}

// singleCandidateBitfield returns the bitfield with exactly one bit set,
// used for the per-candidate shadow keys a multi-candidate assignment
// installs into the knowledge ledger.
func singleCandidateBitfield(i CandidateIndex) CandidateBitfield {
	return NewCandidateBitfield(i)
}

// hashFromUint64 is a test/diagnostic helper producing a deterministic Hash
// from a small integer, avoiding the need for real block hashes in tests.
func hashFromUint64(n uint64) Hash {
	var h Hash
	binary.BigEndian.PutUint64(h[24:], n)
	return h
}
