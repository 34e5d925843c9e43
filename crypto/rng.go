package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20"
)

// SecretRecoveryKey is the per-party seed all of a party's protocol
// randomness is derived from. Re-running a protocol with the same recovery
// key and session nonce reproduces the exact same run.
type SecretRecoveryKey [64]byte

// Wipe zeroes the key material.
func (k *SecretRecoveryKey) Wipe() {
	for i := range k {
		k[i] = 0
	}
}

const seedDomain = "tessella-seeded-rng-v1"

// SeededReader returns a deterministic randomness stream derived from a
// domain tag, an index, the party's secret recovery key and a session nonce.
// Distinct tags, indices or nonces yield independent streams; identical
// inputs yield identical streams.
func SeededReader(tag byte, index int, key *SecretRecoveryKey, sessionNonce []byte) (io.Reader, error) {
	if len(sessionNonce) == 0 {
		return nil, fmt.Errorf("crypto: empty session nonce")
	}

	h := sha256.New()
	h.Write([]byte(seedDomain))
	h.Write([]byte{tag})
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], uint64(index))
	h.Write(idx[:])
	h.Write(key[:])
	h.Write(sessionNonce)
	seed := h.Sum(nil)

	cipher, err := chacha20.NewUnauthenticatedCipher(seed, make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, fmt.Errorf("crypto: seeding stream: %w", err)
	}
	zeroBytes(seed)
	return &streamReader{cipher: cipher}, nil
}

// streamReader turns a chacha20 keystream into an io.Reader.
type streamReader struct {
	cipher *chacha20.Cipher
}

func (r *streamReader) Read(p []byte) (int, error) {
	zeroBytes(p)
	r.cipher.XORKeyStream(p, p)
	return len(p), nil
}
