package keygen

import (
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/key"
	"github.com/tessella/tessella/sharing"
)

// Ceygen is centralized key generation: a trusted dealer splits an existing
// secret key into threshold shares for every party, producing the same key
// material layout as distributed keygen. It is the redistribution path for
// migrating a plain ECDSA key into the threshold scheme; the dealer must be
// trusted, since it sees the full secret.
//
// Party keypair material is derived from each party's dummy recovery key and
// the session nonce, so a run is reproducible from (secret, rng, nonce).
func Ceygen(
	rng io.Reader,
	counts *key.PartyShareCounts,
	threshold int,
	secret *secp256k1.ModNScalar,
	sessionNonce []byte,
) (*collections.IDMap[key.ShareSpace, *key.SecretKeyShare], error) {
	return ceygen(rng, counts, threshold, secret, sessionNonce, false)
}

// CeygenUnsafe is Ceygen with reduced-size party keypairs.
// BEWARE: only made visible for faster integration testing.
func CeygenUnsafe(
	rng io.Reader,
	counts *key.PartyShareCounts,
	threshold int,
	secret *secp256k1.ModNScalar,
	sessionNonce []byte,
) (*collections.IDMap[key.ShareSpace, *key.SecretKeyShare], error) {
	return ceygen(rng, counts, threshold, secret, sessionNonce, true)
}

func ceygen(
	rng io.Reader,
	counts *key.PartyShareCounts,
	threshold int,
	secret *secp256k1.ModNScalar,
	sessionNonce []byte,
	unsafeSizes bool,
) (*collections.IDMap[key.ShareSpace, *key.SecretKeyShare], error) {
	if threshold < 0 || threshold >= counts.TotalShareCount() {
		return nil, fmt.Errorf("keygen: threshold %d out of range [0,%d)", threshold, counts.TotalShareCount())
	}

	poly, err := sharing.NewPolynomialFromSecret(threshold, secret, rng)
	if err != nil {
		return nil, err
	}
	defer poly.Wipe()
	shares, err := poly.Shares(counts.TotalShareCount())
	if err != nil {
		return nil, err
	}
	defer func() {
		for i := range shares {
			shares[i].Wipe()
		}
	}()
	commitments := poly.Commitments()

	// one keypair and zk setup per party, shared by all of its shares
	partyData := make([]*PartyKeygenData, counts.PartyCount())
	for p := range partyData {
		partyID := collections.IDFromInt[key.PartySpace](p)
		data, err := createPartyData(partyID, DummySecretRecoveryKey(partyID), sessionNonce, unsafeSizes)
		if err != nil {
			return nil, err
		}
		partyData[p] = data
	}

	infos := make([]*key.SharePublicInfo, counts.TotalShareCount())
	for k := range infos {
		party, err := counts.ShareToPartyID(collections.IDFromInt[key.ShareSpace](k))
		if err != nil {
			return nil, err
		}
		Xk, err := sharing.EvalCommitments(commitments, sharing.EvalPoint(k))
		if err != nil {
			return nil, err
		}
		infos[k] = &key.SharePublicInfo{
			X:  Xk,
			Ek: partyData[party.AsInt()].EncryptionKey.PublicKey(),
			Zk: partyData[party.AsInt()].ZkSetup,
		}
	}
	group, err := key.NewGroupPublicInfo(counts, threshold, commitments[0], collections.NewIDMap[key.ShareSpace](infos))
	if err != nil {
		return nil, err
	}

	out := make([]*key.SecretKeyShare, counts.TotalShareCount())
	for k := range out {
		id := collections.IDFromInt[key.ShareSpace](k)
		party, err := counts.ShareToPartyID(id)
		if err != nil {
			return nil, err
		}
		secretInfo := key.NewShareSecretInfo(id, shares[k].Scalar(), partyData[party.AsInt()].EncryptionKey)
		out[k] = key.NewSecretKeyShare(group, secretInfo)
	}
	return collections.NewIDMap[key.ShareSpace](out), nil
}

// WriteCeygenResults persists a full ceygen output into one key directory.
func WriteCeygenResults(
	store *key.FileStore,
	counts *key.PartyShareCounts,
	shares *collections.IDMap[key.ShareSpace, *key.SecretKeyShare],
) error {
	if err := store.SaveCounts(counts); err != nil {
		return err
	}
	for _, id := range shares.IDs() {
		share, err := shares.Get(id)
		if err != nil {
			return err
		}
		if err := store.SaveShare(share); err != nil {
			return err
		}
	}
	return nil
}
