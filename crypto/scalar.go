// Package crypto provides the secp256k1 scalar and point helpers, the
// message digest type and the deterministic seeded randomness used by the
// protocol instances.
package crypto

import (
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// RandomScalar draws a uniformly random non-zero scalar from rng by
// rejection sampling.
func RandomScalar(rng io.Reader) (*secp256k1.ModNScalar, error) {
	var buf [32]byte
	for {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return nil, fmt.Errorf("crypto: reading scalar randomness: %w", err)
		}
		s := new(secp256k1.ModNScalar)
		overflow := s.SetBytes(&buf)
		if overflow != 0 || s.IsZero() {
			continue
		}
		zeroBytes(buf[:])
		return s, nil
	}
}

// ScalarFromBytes decodes a canonical big-endian 32-byte scalar. It rejects
// values that overflow the group order and the zero scalar, so the result is
// always usable as a secret key.
func ScalarFromBytes(b []byte) (*secp256k1.ModNScalar, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("crypto: scalar must be 32 bytes, got %d", len(b))
	}
	var buf [32]byte
	copy(buf[:], b)
	s := new(secp256k1.ModNScalar)
	if overflow := s.SetBytes(&buf); overflow != 0 {
		return nil, errors.New("crypto: scalar is not canonical (overflows the group order)")
	}
	if s.IsZero() {
		return nil, errors.New("crypto: scalar is zero")
	}
	return s, nil
}

// ScalarBytes returns the canonical big-endian encoding of s.
func ScalarBytes(s *secp256k1.ModNScalar) []byte {
	b := s.Bytes()
	return b[:]
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
