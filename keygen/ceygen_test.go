package keygen

import (
	"crypto/rand"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/key"
	"github.com/tessella/tessella/sharing"
)

func TestCeygenRedistributesKnownSecret(t *testing.T) {
	counts, err := key.NewPartyShareCounts([]int{1, 2})
	require.NoError(t, err)
	secret, err := crypto.RandomScalar(rand.Reader)
	require.NoError(t, err)

	shares, err := CeygenUnsafe(rand.Reader, counts, 1, secret, []byte("ceygen test"))
	require.NoError(t, err)
	require.Equal(t, 3, shares.Len())

	want := crypto.BaseMult(secret)
	points := make([]sharing.Share, 0, 2)
	for _, id := range shares.IDs() {
		s, err := shares.Get(id)
		require.NoError(t, err)
		require.Equal(t, id, s.Share().ID())
		require.True(t, s.Group().Point().Equals(want), "group key must match the dealt secret")

		info, err := s.Group().SharePublicInfo(id)
		require.NoError(t, err)
		require.True(t, crypto.BaseMult(s.Share().Scalar()).Equals(info.X))

		if len(points) < 2 {
			points = append(points, sharing.NewShare(id.AsInt(), s.Share().Scalar()))
		}
	}

	// threshold+1 shares reconstruct the dealt secret exactly
	got, err := sharing.Interpolate(points)
	require.NoError(t, err)
	require.True(t, got.Equals(secret))
}

func TestCeygenSharesDecryptionKeyPerParty(t *testing.T) {
	counts, err := key.NewPartyShareCounts([]int{1, 2})
	require.NoError(t, err)
	secret, err := crypto.RandomScalar(rand.Reader)
	require.NoError(t, err)
	shares, err := CeygenUnsafe(rand.Reader, counts, 1, secret, []byte("ceygen keys"))
	require.NoError(t, err)

	get := func(i int) *key.SecretKeyShare {
		s, err := shares.Get(collections.IDFromInt[key.ShareSpace](i))
		require.NoError(t, err)
		return s
	}

	// shares 1 and 2 belong to party 1 and share its keypair; share 0 does not
	ek1, err := get(1).Group().SharePublicInfo(collections.IDFromInt[key.ShareSpace](1))
	require.NoError(t, err)
	ek2, err := get(2).Group().SharePublicInfo(collections.IDFromInt[key.ShareSpace](2))
	require.NoError(t, err)
	ek0, err := get(0).Group().SharePublicInfo(collections.IDFromInt[key.ShareSpace](0))
	require.NoError(t, err)
	require.True(t, ek1.Ek.Equals(ek2.Ek))
	require.False(t, ek0.Ek.Equals(ek1.Ek))
}

func TestCeygenIsDeterministic(t *testing.T) {
	counts, err := key.NewPartyShareCounts([]int{1, 1})
	require.NoError(t, err)
	secret := new(secp256k1.ModNScalar)
	secret.SetInt(424242)
	nonce := []byte("determinism")

	run := func() *key.SecretKeyShare {
		var seed crypto.SecretRecoveryKey
		rng, err := crypto.SeededReader(0x7f, 0, &seed, nonce)
		require.NoError(t, err)
		shares, err := CeygenUnsafe(rng, counts, 1, secret, nonce)
		require.NoError(t, err)
		s, err := shares.Get(collections.IDFromInt[key.ShareSpace](1))
		require.NoError(t, err)
		return s
	}

	a, b := run(), run()
	require.True(t, a.Share().Scalar().Equals(b.Share().Scalar()))
	require.True(t, a.Group().Point().Equals(b.Group().Point()))
	infoA, err := a.Group().SharePublicInfo(collections.IDFromInt[key.ShareSpace](0))
	require.NoError(t, err)
	infoB, err := b.Group().SharePublicInfo(collections.IDFromInt[key.ShareSpace](0))
	require.NoError(t, err)
	require.True(t, infoA.Ek.Equals(infoB.Ek))
}

func TestCeygenRejectsBadArguments(t *testing.T) {
	counts, err := key.NewPartyShareCounts([]int{1, 1})
	require.NoError(t, err)
	secret, err := crypto.RandomScalar(rand.Reader)
	require.NoError(t, err)

	_, err = CeygenUnsafe(rand.Reader, counts, 2, secret, []byte("x"))
	require.Error(t, err, "threshold not below total share count")
	_, err = CeygenUnsafe(rand.Reader, counts, -1, secret, []byte("x"))
	require.Error(t, err)
	_, err = CeygenUnsafe(rand.Reader, counts, 1, new(secp256k1.ModNScalar), []byte("x"))
	require.Error(t, err, "zero secret")
	_, err = CeygenUnsafe(rand.Reader, counts, 1, secret, nil)
	require.Error(t, err, "empty session nonce")
}
