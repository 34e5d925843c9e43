package keygen

import (
	"fmt"

	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/engine"
	"github.com/tessella/tessella/key"
	"github.com/tessella/tessella/sharing"
)

// bcast1 is the first-round broadcast: the dealer's Feldman commitment to its
// polynomial plus the party's encryption key and zk setup, each with its
// proof. Peers verify all of it before accepting any subshare.
type bcast1 struct {
	Commitments   [][]byte `json:"commitments"`
	PaillierN     []byte   `json:"paillier_n"`
	PaillierProof [][]byte `json:"paillier_proof"`
	ZkNTilde      []byte   `json:"zk_ntilde"`
	ZkH1          []byte   `json:"zk_h1"`
	ZkH2          []byte   `json:"zk_h2"`
	ZkProofA      []byte   `json:"zk_proof_a"`
	ZkProofZ      []byte   `json:"zk_proof_z"`
}

func start(
	info *Info,
	data *PartyKeygenData,
	srk *crypto.SecretRecoveryKey,
	sessionNonce []byte,
) (*Protocol, error) {
	rng, err := crypto.SeededReader(tagShareDeal, info.ShareID().AsInt(), srk, sessionNonce)
	if err != nil {
		return nil, err
	}
	poly, err := sharing.NewPolynomial(info.Threshold(), rng)
	if err != nil {
		return nil, err
	}

	commitments := poly.Commitments()
	commitmentBytes := make([][]byte, len(commitments))
	for i, c := range commitments {
		if commitmentBytes[i], err = c.Bytes(); err != nil {
			poly.Wipe()
			return nil, fmt.Errorf("keygen: encoding commitment %d: %w", i, err)
		}
	}

	bc := &bcast1{
		Commitments:   commitmentBytes,
		PaillierN:     data.EncryptionKey.PublicKey().Bytes(),
		PaillierProof: data.EncryptionKeyProof,
		ZkNTilde:      data.ZkSetup.NTilde.Bytes(),
		ZkH1:          data.ZkSetup.H1.Bytes(),
		ZkH2:          data.ZkSetup.H2.Bytes(),
		ZkProofA:      data.ZkSetupProof.A.Bytes(),
		ZkProofZ:      data.ZkSetupProof.Z.Bytes(),
	}

	exec := &round2{poly: poly, commitments: commitments, rng: rng, data: data}
	return engine.NextRound[*key.SecretKeyShare, key.PartySpace, key.ShareSpace](info, exec, bc, nil)
}
