package keygen

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/crypto/paillier"
	"github.com/tessella/tessella/engine"
	"github.com/tessella/tessella/key"
	"github.com/tessella/tessella/sharing"
)

type round3 struct {
	deals       []*peerDeal
	ownSubshare *secp256k1.ModNScalar
	dk          *paillier.PrivateKey
}

func (r *round3) ExpectedMsgs() (bool, bool) { return false, true }

func (r *round3) Execute(
	info *Info,
	_, p2psIn *collections.PeerMap[key.ShareSpace, []byte],
	faulters *Faulters,
) (*Protocol, error) {
	self := info.ShareID()
	xSelf := sharing.EvalPoint(self.AsInt())

	x := new(secp256k1.ModNScalar)
	x.Set(r.ownSubshare)
	r.ownSubshare.Zero()

	for _, from := range p2psIn.IDs() {
		party, err := info.ShareCounts().ShareToPartyID(from)
		if err != nil {
			return nil, err
		}
		raw, err := p2psIn.Get(from)
		if err != nil {
			return nil, err
		}
		u, fault, reason := r.openSubshare(raw, from, xSelf)
		if u == nil {
			info.Logger().Warnw("accusing party", "party", party, "round", 2, "reason", reason)
			faulters.Accuse(party, fault)
			continue
		}
		x.Add(u)
		u.Zero()
	}
	if !faulters.IsEmpty() {
		x.Zero()
		return engine.DoneFaulters[*key.SecretKeyShare, key.PartySpace, key.ShareSpace](faulters)
	}

	// group public key: sum of every dealer's constant term
	y := r.deals[0].commitments[0]
	for d := 1; d < len(r.deals); d++ {
		y = y.Add(r.deals[d].commitments[0])
	}

	// public commitment of every share: the summed polynomials evaluated in
	// the exponent at that share's point
	infos := make([]*key.SharePublicInfo, info.TotalShareCount())
	for k := range infos {
		xk := sharing.EvalPoint(k)
		Xk, err := sharing.EvalCommitments(r.deals[0].commitments, xk)
		if err != nil {
			return nil, err
		}
		for d := 1; d < len(r.deals); d++ {
			p, err := sharing.EvalCommitments(r.deals[d].commitments, xk)
			if err != nil {
				return nil, err
			}
			Xk = Xk.Add(p)
		}
		infos[k] = &key.SharePublicInfo{
			X:  Xk,
			Ek: r.deals[k].ek,
			Zk: r.deals[k].zk,
		}
	}

	if !crypto.BaseMult(x).Equals(infos[self.AsInt()].X) {
		x.Zero()
		return nil, fmt.Errorf("keygen: share scalar does not match the public commitment")
	}

	group, err := key.NewGroupPublicInfo(
		info.ShareCounts(),
		info.Threshold(),
		y,
		collections.NewIDMap[key.ShareSpace](infos),
	)
	if err != nil {
		return nil, err
	}
	secret := key.NewShareSecretInfo(self, x, r.dk)
	x.Zero()
	return engine.DoneResult[*key.SecretKeyShare, key.PartySpace, key.ShareSpace](key.NewSecretKeyShare(group, secret)), nil
}

// openSubshare decrypts and Feldman-checks one dealer's subshare. A nil
// scalar means the dealer must be accused with the returned fault.
func (r *round3) openSubshare(raw []byte, from key.ShareID, xSelf *secp256k1.ModNScalar) (*secp256k1.ModNScalar, engine.Fault, string) {
	var msg p2p2
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, engine.FaultCorruptedMessage, "undecodable subshare"
	}
	c := new(big.Int).SetBytes(msg.EncryptedSubshare)
	m, err := r.dk.Decrypt(c)
	if err != nil {
		return nil, engine.FaultCorruptedMessage, "undecryptable subshare"
	}
	if m.BitLen() > 256 {
		return nil, engine.FaultCorruptedMessage, "subshare out of range"
	}
	var buf [32]byte
	m.FillBytes(buf[:])
	m.SetInt64(0)

	u := new(secp256k1.ModNScalar)
	if overflow := u.SetBytes(&buf); overflow != 0 {
		return nil, engine.FaultCorruptedMessage, "subshare not a canonical scalar"
	}
	expected, err := sharing.EvalCommitments(r.deals[from.AsInt()].commitments, xSelf)
	if err != nil {
		return nil, engine.FaultCorruptedMessage, "missing dealer commitment"
	}
	if !crypto.BaseMult(u).Equals(expected) {
		u.Zero()
		return nil, engine.FaultProtocolViolation, "subshare fails the commitment check"
	}
	return u, 0, ""
}
