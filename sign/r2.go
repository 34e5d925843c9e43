package sign

import (
	"encoding/json"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/engine"
	"github.com/tessella/tessella/key"
)

// verifyRound checks every peer's signature against that share's public
// commitment from keygen, then terminates with this share's own signature.
type verifyRound struct {
	group     *key.GroupPublicInfo
	keygenIDs []key.ShareID
	digest    crypto.MessageDigest
	ownSig    []byte
}

func (r *verifyRound) ExpectedMsgs() (bool, bool) { return true, false }

func (r *verifyRound) Execute(
	info *Info,
	bcastsIn, _ *collections.PeerMap[ShareSpace, []byte],
	faulters *Faulters,
) (*Protocol, error) {
	for _, from := range bcastsIn.IDs() {
		party, err := info.ShareCounts().ShareToPartyID(from)
		if err != nil {
			return nil, err
		}
		raw, err := bcastsIn.Get(from)
		if err != nil {
			return nil, err
		}
		fault, reason := r.checkSignature(raw, from)
		if reason != "" {
			info.Logger().Warnw("accusing party", "party", party, "round", 1, "reason", reason)
			faulters.Accuse(party, fault)
		}
	}
	if !faulters.IsEmpty() {
		return engine.DoneFaulters[[]byte, PartySpace, ShareSpace](faulters)
	}
	return engine.DoneResult[[]byte, PartySpace, ShareSpace](r.ownSig), nil
}

func (r *verifyRound) checkSignature(raw []byte, from ShareID) (engine.Fault, string) {
	var bc bcast1
	if err := json.Unmarshal(raw, &bc); err != nil {
		return engine.FaultCorruptedMessage, "undecodable broadcast"
	}
	sig, err := ecdsa.ParseDERSignature(bc.Signature)
	if err != nil {
		return engine.FaultCorruptedMessage, "malformed signature"
	}
	pubInfo, err := r.group.SharePublicInfo(r.keygenIDs[from.AsInt()])
	if err != nil {
		return engine.FaultCorruptedMessage, "unknown signer share"
	}
	pk, err := pubInfo.X.PubKey()
	if err != nil {
		return engine.FaultCorruptedMessage, "invalid signer commitment"
	}
	if !sig.Verify(r.digest[:], pk) {
		return engine.FaultProtocolViolation, "signature fails verification"
	}
	return 0, ""
}
