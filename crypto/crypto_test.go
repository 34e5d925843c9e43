package crypto

import (
	"crypto/rand"
	"io"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"
)

func TestSeededReaderIsDeterministic(t *testing.T) {
	var srk SecretRecoveryKey
	srk[0] = 1
	nonce := []byte("session")

	read := func(tag byte, index int, key *SecretRecoveryKey, nonce []byte) []byte {
		r, err := SeededReader(tag, index, key, nonce)
		require.NoError(t, err)
		buf := make([]byte, 64)
		_, err = io.ReadFull(r, buf)
		require.NoError(t, err)
		return buf
	}

	a := read(1, 0, &srk, nonce)
	require.Equal(t, a, read(1, 0, &srk, nonce))

	require.NotEqual(t, a, read(2, 0, &srk, nonce), "tag must separate streams")
	require.NotEqual(t, a, read(1, 1, &srk, nonce), "index must separate streams")
	require.NotEqual(t, a, read(1, 0, &srk, []byte("other")), "nonce must separate streams")

	var other SecretRecoveryKey
	other[0] = 2
	require.NotEqual(t, a, read(1, 0, &other, nonce), "recovery key must separate streams")
}

func TestSeededReaderRejectsEmptyNonce(t *testing.T) {
	var srk SecretRecoveryKey
	_, err := SeededReader(1, 0, &srk, nil)
	require.Error(t, err)
}

func TestScalarRoundTrip(t *testing.T) {
	s, err := RandomScalar(rand.Reader)
	require.NoError(t, err)
	require.False(t, s.IsZero())

	got, err := ScalarFromBytes(ScalarBytes(s))
	require.NoError(t, err)
	require.True(t, got.Equals(s))

	_, err = ScalarFromBytes(make([]byte, 32))
	require.Error(t, err, "zero scalar")
	_, err = ScalarFromBytes(make([]byte, 31))
	require.Error(t, err, "wrong length")
}

func TestPointArithmetic(t *testing.T) {
	a, err := RandomScalar(rand.Reader)
	require.NoError(t, err)
	b, err := RandomScalar(rand.Reader)
	require.NoError(t, err)

	sum := new(secp256k1.ModNScalar).Set(a)
	sum.Add(b)
	require.True(t, BaseMult(a).Add(BaseMult(b)).Equals(BaseMult(sum)))

	prod := new(secp256k1.ModNScalar).Set(a)
	prod.Mul(b)
	require.True(t, BaseMult(a).Mul(b).Equals(BaseMult(prod)))
}

func TestPointEncoding(t *testing.T) {
	s, err := RandomScalar(rand.Reader)
	require.NoError(t, err)
	p := BaseMult(s)

	b, err := p.Bytes()
	require.NoError(t, err)
	require.Len(t, b, 33)

	got, err := ParsePoint(b)
	require.NoError(t, err)
	require.True(t, got.Equals(p))

	_, err = ParsePoint(b[:32])
	require.Error(t, err)

	var infinity Point
	require.True(t, infinity.IsInfinity())
	_, err = infinity.Bytes()
	require.Error(t, err)
}

func TestMessageDigest(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = 42
	}
	d, err := MessageDigestFromBytes(raw)
	require.NoError(t, err)
	require.Equal(t, raw, d[:])
	require.False(t, d.Scalar().IsZero())

	_, err = MessageDigestFromBytes(raw[:31])
	require.Error(t, err)
}
