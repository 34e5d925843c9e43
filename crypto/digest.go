package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// MessageDigest is the 32-byte prehashed message to be signed. Hashing the
// message is the caller's job; the protocol only ever sees the digest.
type MessageDigest [32]byte

// MessageDigestFromBytes copies a 32-byte slice into a MessageDigest.
func MessageDigestFromBytes(b []byte) (MessageDigest, error) {
	var d MessageDigest
	if len(b) != len(d) {
		return d, fmt.Errorf("crypto: message digest must be %d bytes, got %d", len(d), len(b))
	}
	copy(d[:], b)
	return d, nil
}

// Scalar interprets the digest as a scalar mod the group order, the way ECDSA
// consumes a prehashed message.
func (d *MessageDigest) Scalar() *secp256k1.ModNScalar {
	s := new(secp256k1.ModNScalar)
	s.SetByteSlice(d[:])
	return s
}
