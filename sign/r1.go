package sign

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/engine"
	"github.com/tessella/tessella/key"
)

// bcast1 is the only broadcast of the session: this share's DER-encoded
// signature over the message digest.
type bcast1 struct {
	Signature []byte `json:"signature"`
}

func start(
	info *Info,
	share *key.SecretKeyShare,
	keygenIDs []key.ShareID,
	digest *crypto.MessageDigest,
) (*Protocol, error) {
	// RFC 6979 nonces make the signature a pure function of key and digest,
	// so re-running a session yields identical bytes
	priv := secp256k1.NewPrivateKey(share.Share().Scalar())
	sig := ecdsa.Sign(priv, digest[:]).Serialize()
	priv.Zero()

	exec := &verifyRound{
		group:     share.Group(),
		keygenIDs: keygenIDs,
		digest:    *digest,
		ownSig:    sig,
	}
	return engine.NextRound[[]byte, PartySpace, ShareSpace](info, exec, &bcast1{Signature: sig}, nil)
}
