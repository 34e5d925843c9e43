package sign_test

import (
	"crypto/rand"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/require"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/common/log"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/engine"
	"github.com/tessella/tessella/key"
	"github.com/tessella/tessella/keygen"
	"github.com/tessella/tessella/sign"
)

func testLogger() log.Logger {
	return log.New(nil, log.DebugLevel, false)
}

func testDigest(t *testing.T) crypto.MessageDigest {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = 42
	}
	d, err := crypto.MessageDigestFromBytes(raw)
	require.NoError(t, err)
	return d
}

// testKey deals a known secret into ten shares across four parties with
// threshold five.
func testKey(t *testing.T) *collections.IDMap[key.ShareSpace, *key.SecretKeyShare] {
	t.Helper()
	counts, err := key.NewPartyShareCounts([]int{1, 2, 3, 4})
	require.NoError(t, err)
	secret, err := crypto.RandomScalar(rand.Reader)
	require.NoError(t, err)
	shares, err := keygen.CeygenUnsafe(rand.Reader, counts, 5, secret, []byte("sign test"))
	require.NoError(t, err)
	return shares
}

func subsetOf(t *testing.T, shares *collections.IDMap[key.ShareSpace, *key.SecretKeyShare], parties ...int) *collections.Subset[key.PartySpace] {
	t.Helper()
	first, err := shares.Get(collections.IDFromInt[key.ShareSpace](0))
	require.NoError(t, err)
	subset := collections.NewSubset[key.PartySpace](first.Group().Counts().PartyCount())
	for _, p := range parties {
		require.NoError(t, subset.Add(collections.IDFromInt[key.PartySpace](p)))
	}
	return subset
}

// runSession signs the digest with every share of the selected parties and
// returns the DER signatures in session share order alongside their keygen
// share ids.
func runSession(
	t *testing.T,
	shares *collections.IDMap[key.ShareSpace, *key.SecretKeyShare],
	subset *collections.Subset[key.PartySpace],
	digest *crypto.MessageDigest,
) ([][]byte, []key.ShareID) {
	t.Helper()
	first, err := shares.Get(collections.IDFromInt[key.ShareSpace](0))
	require.NoError(t, err)
	keygenIDs, err := first.Group().Counts().ShareIDSubset(subset)
	require.NoError(t, err)

	protocols := make([]*sign.Protocol, 0, len(keygenIDs))
	for _, kid := range keygenIDs {
		share, err := shares.Get(kid)
		require.NoError(t, err)
		p, err := sign.New(share, subset, digest, testLogger())
		require.NoError(t, err)
		protocols = append(protocols, p)
	}

	parties := collections.NewIDMap[sign.ShareSpace](protocols)
	require.NoError(t, engine.ExecuteProtocol(testLogger(), parties))

	sigs := make([][]byte, 0, len(keygenIDs))
	for _, id := range parties.IDs() {
		p, err := parties.Get(id)
		require.NoError(t, err)
		require.True(t, p.Done())
		sig, err := p.Output().Result()
		require.NoError(t, err)
		sigs = append(sigs, sig)
	}
	return sigs, keygenIDs
}

func TestSignEndToEnd(t *testing.T) {
	shares := testKey(t)
	subset := subsetOf(t, shares, 0, 1, 3)
	digest := testDigest(t)

	sigs, keygenIDs := runSession(t, shares, subset, &digest)
	require.Len(t, sigs, 7, "parties 0, 1 and 3 hold seven shares")

	// every signature verifies against its share's public commitment
	first, err := shares.Get(collections.IDFromInt[key.ShareSpace](0))
	require.NoError(t, err)
	for i, raw := range sigs {
		sig, err := ecdsa.ParseDERSignature(raw)
		require.NoError(t, err)
		info, err := first.Group().SharePublicInfo(keygenIDs[i])
		require.NoError(t, err)
		pk, err := info.X.PubKey()
		require.NoError(t, err)
		require.True(t, sig.Verify(digest[:], pk))
	}

	// deterministic nonces: a second session yields identical bytes
	again, _ := runSession(t, shares, subset, &digest)
	require.Equal(t, sigs, again)
}

func TestSignRejectsThresholdWeightSubset(t *testing.T) {
	shares := testKey(t)
	// parties 1 and 2 hold five shares, exactly the threshold, which can
	// never reconstruct
	subset := subsetOf(t, shares, 1, 2)
	digest := testDigest(t)

	share, err := shares.Get(collections.IDFromInt[key.ShareSpace](1))
	require.NoError(t, err)
	_, err = sign.New(share, subset, &digest, testLogger())
	require.Error(t, err)
}

func TestSignRejectsOutsiderShare(t *testing.T) {
	shares := testKey(t)
	subset := subsetOf(t, shares, 0, 1, 3)
	digest := testDigest(t)

	// share 3 belongs to party 2, which is not in the subset
	outsider, err := shares.Get(collections.IDFromInt[key.ShareSpace](3))
	require.NoError(t, err)
	_, err = sign.New(outsider, subset, &digest, testLogger())
	require.Error(t, err)
}

func TestSignAccusesWrongKeyShare(t *testing.T) {
	shares := testKey(t)
	subset := subsetOf(t, shares, 0, 1, 3)
	digest := testDigest(t)

	first, err := shares.Get(collections.IDFromInt[key.ShareSpace](0))
	require.NoError(t, err)
	keygenIDs, err := first.Group().Counts().ShareIDSubset(subset)
	require.NoError(t, err)

	protocols := make([]*sign.Protocol, 0, len(keygenIDs))
	for i, kid := range keygenIDs {
		share, err := shares.Get(kid)
		require.NoError(t, err)
		if i == 1 {
			// party 1's first share signs with a key that does not match
			// its public commitment
			wrongScalar, err := crypto.RandomScalar(rand.Reader)
			require.NoError(t, err)
			share = key.NewSecretKeyShare(
				share.Group(),
				key.NewShareSecretInfo(kid, wrongScalar, share.Share().DecryptionKey()),
			)
		}
		p, err := sign.New(share, subset, &digest, testLogger())
		require.NoError(t, err)
		protocols = append(protocols, p)
	}

	parties := collections.NewIDMap[sign.ShareSpace](protocols)
	require.NoError(t, engine.ExecuteProtocol(testLogger(), parties))

	// every honest instance accuses session party 1
	for _, id := range parties.IDs() {
		if id.AsInt() == 1 {
			continue
		}
		p, err := parties.Get(id)
		require.NoError(t, err)
		require.True(t, p.Done())
		require.False(t, p.Output().Ok())
		fault, ok := p.Output().Faulters().Get(collections.IDFromInt[sign.PartySpace](1))
		require.True(t, ok)
		require.Equal(t, engine.FaultProtocolViolation, fault)
	}
}
