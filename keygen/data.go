package keygen

import (
	"encoding/binary"
	"fmt"

	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/crypto/paillier"
	"github.com/tessella/tessella/crypto/zkp"
	"github.com/tessella/tessella/key"
)

// PartyKeygenData is the cryptographic collaborator material one party
// generates once and reuses for all of its subshares: its encryption keypair
// with correctness proof and its zero-knowledge setup with validity proof.
type PartyKeygenData struct {
	EncryptionKey      *paillier.PrivateKey
	EncryptionKeyProof paillier.Proof
	ZkSetup            *zkp.Setup
	ZkSetupProof       *zkp.Proof
}

// CreatePartyKeypairAndZkSetup deterministically derives a party's keypair
// and zk setup from its secret recovery key and the session nonce. Safe
// prime sizes make this take several moments.
func CreatePartyKeypairAndZkSetup(
	partyID key.PartyID,
	srk *crypto.SecretRecoveryKey,
	sessionNonce []byte,
) (*PartyKeygenData, error) {
	return createPartyData(partyID, srk, sessionNonce, false)
}

// CreatePartyKeypairAndZkSetupUnsafe is the reduced-modulus variant.
// BEWARE: this is only made visible for faster integration testing.
func CreatePartyKeypairAndZkSetupUnsafe(
	partyID key.PartyID,
	srk *crypto.SecretRecoveryKey,
	sessionNonce []byte,
) (*PartyKeygenData, error) {
	return createPartyData(partyID, srk, sessionNonce, true)
}

func createPartyData(
	partyID key.PartyID,
	srk *crypto.SecretRecoveryKey,
	sessionNonce []byte,
	unsafeSizes bool,
) (*PartyKeygenData, error) {
	keypairRNG, err := crypto.SeededReader(tagKeypair, partyID.AsInt(), srk, sessionNonce)
	if err != nil {
		return nil, err
	}
	var dk *paillier.PrivateKey
	if unsafeSizes {
		dk, err = paillier.GenerateKeyPairUnsafe(keypairRNG)
	} else {
		dk, err = paillier.GenerateKeyPair(keypairRNG)
	}
	if err != nil {
		return nil, fmt.Errorf("keygen: generating encryption keypair: %w", err)
	}
	ekProof, err := dk.CorrectnessProof(partyID.Bytes())
	if err != nil {
		return nil, err
	}

	zkRNG, err := crypto.SeededReader(tagZkSetup, partyID.AsInt(), srk, sessionNonce)
	if err != nil {
		return nil, err
	}
	var setup *zkp.Setup
	var setupProof *zkp.Proof
	if unsafeSizes {
		setup, setupProof, err = zkp.NewSetupUnsafe(zkRNG, partyID.Bytes())
	} else {
		setup, setupProof, err = zkp.NewSetup(zkRNG, partyID.Bytes())
	}
	if err != nil {
		return nil, fmt.Errorf("keygen: generating zk setup: %w", err)
	}

	return &PartyKeygenData{
		EncryptionKey:      dk,
		EncryptionKeyProof: ekProof,
		ZkSetup:            setup,
		ZkSetupProof:       setupProof,
	}, nil
}

// DummySecretRecoveryKey returns the all-zero recovery key with the leading
// bytes set to the big-endian party index. For tests and local trusted-dealer
// key generation only.
func DummySecretRecoveryKey(partyID key.PartyID) *crypto.SecretRecoveryKey {
	var srk crypto.SecretRecoveryKey
	binary.BigEndian.PutUint64(srk[:8], uint64(partyID.AsInt()))
	return &srk
}
