package keygen

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/crypto/paillier"
	"github.com/tessella/tessella/crypto/zkp"
	"github.com/tessella/tessella/engine"
	"github.com/tessella/tessella/key"
	"github.com/tessella/tessella/sharing"
)

// p2p2 is the second-round peer message: the dealer's subshare for the
// recipient, encrypted to the recipient's encryption key.
type p2p2 struct {
	EncryptedSubshare []byte `json:"encrypted_subshare"`
}

// peerDeal is the verified first-round material of one peer share.
type peerDeal struct {
	commitments []*crypto.Point
	ek          *paillier.PublicKey
	zk          *zkp.Setup
}

type round2 struct {
	poly        *sharing.Polynomial
	commitments []*crypto.Point
	rng         io.Reader
	data        *PartyKeygenData
}

func (r *round2) ExpectedMsgs() (bool, bool) { return true, false }

func (r *round2) Execute(
	info *Info,
	bcastsIn, _ *collections.PeerMap[key.ShareSpace, []byte],
	faulters *Faulters,
) (*Protocol, error) {
	self := info.ShareID()
	deals := make([]*peerDeal, info.TotalShareCount())
	deals[self.AsInt()] = &peerDeal{
		commitments: r.commitments,
		ek:          r.data.EncryptionKey.PublicKey(),
		zk:          r.data.ZkSetup,
	}

	for _, from := range bcastsIn.IDs() {
		party, err := info.ShareCounts().ShareToPartyID(from)
		if err != nil {
			return nil, err
		}
		raw, err := bcastsIn.Get(from)
		if err != nil {
			return nil, err
		}
		deal, fault, reason := parseDeal(raw, info.Threshold(), party)
		if deal == nil {
			info.Logger().Warnw("accusing party", "party", party, "round", 1, "reason", reason)
			faulters.Accuse(party, fault)
			continue
		}
		deals[from.AsInt()] = deal
	}
	if !faulters.IsEmpty() {
		r.poly.Wipe()
		return engine.DoneFaulters[*key.SecretKeyShare, key.PartySpace, key.ShareSpace](faulters)
	}

	// deal one encrypted subshare to every peer share
	p2ps, err := collections.NewPeerMap[key.ShareSpace, any](self, info.TotalShareCount())
	if err != nil {
		return nil, err
	}
	for _, to := range p2ps.IDs() {
		u := r.poly.Evaluate(sharing.EvalPoint(to.AsInt()))
		m := new(big.Int).SetBytes(crypto.ScalarBytes(u))
		u.Zero()
		c, err := deals[to.AsInt()].ek.Encrypt(r.rng, m)
		m.SetInt64(0)
		if err != nil {
			r.poly.Wipe()
			return nil, fmt.Errorf("keygen: encrypting subshare for %s: %w", to, err)
		}
		if err := p2ps.Set(to, &p2p2{EncryptedSubshare: c.Bytes()}); err != nil {
			return nil, err
		}
	}

	ownSubshare := r.poly.Evaluate(sharing.EvalPoint(self.AsInt()))
	r.poly.Wipe()

	exec := &round3{deals: deals, ownSubshare: ownSubshare, dk: r.data.EncryptionKey}
	return engine.NextRound[*key.SecretKeyShare, key.PartySpace, key.ShareSpace](info, exec, nil, p2ps)
}

// parseDeal decodes and verifies one peer's first-round broadcast. A nil deal
// means the sender must be accused with the returned fault.
func parseDeal(raw []byte, threshold int, party key.PartyID) (*peerDeal, engine.Fault, string) {
	var bc bcast1
	if err := json.Unmarshal(raw, &bc); err != nil {
		return nil, engine.FaultCorruptedMessage, "undecodable broadcast"
	}
	if len(bc.Commitments) != threshold+1 {
		return nil, engine.FaultCorruptedMessage, "wrong commitment length"
	}
	commitments := make([]*crypto.Point, len(bc.Commitments))
	for i, b := range bc.Commitments {
		p, err := crypto.ParsePoint(b)
		if err != nil {
			return nil, engine.FaultCorruptedMessage, "invalid commitment point"
		}
		commitments[i] = p
	}

	ek, err := paillier.ParsePublicKey(bc.PaillierN)
	if err != nil {
		return nil, engine.FaultCorruptedMessage, "invalid encryption key"
	}
	if !ek.VerifyCorrectness(bc.PaillierProof, party.Bytes()) {
		return nil, engine.FaultProtocolViolation, "encryption key proof failed"
	}

	zk, err := zkp.ParseSetup(bc.ZkNTilde, bc.ZkH1, bc.ZkH2)
	if err != nil {
		return nil, engine.FaultCorruptedMessage, "invalid zk setup"
	}
	proof := &zkp.Proof{
		A: new(big.Int).SetBytes(bc.ZkProofA),
		Z: new(big.Int).SetBytes(bc.ZkProofZ),
	}
	if !zk.Verify(proof, party.Bytes()) {
		return nil, engine.FaultProtocolViolation, "zk setup proof failed"
	}

	return &peerDeal{commitments: commitments, ek: ek, zk: zk}, 0, ""
}
