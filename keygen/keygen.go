// Package keygen implements distributed key generation as rounds over the
// protocol engine: every share deals a random polynomial, commits to it
// publicly, distributes encrypted subshares, and verifies what it receives.
// No party ever holds the full private key. The package also provides a
// trusted-dealer redistribution mode for migrating an existing key into the
// threshold scheme.
package keygen

import (
	"fmt"

	"github.com/tessella/tessella/common/log"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/engine"
	"github.com/tessella/tessella/key"
)

// Domain-separation tags for the per-party seeded randomness.
const (
	tagKeypair   = 0x10
	tagZkSetup   = 0x11
	tagShareDeal = 0x12
)

type (
	// Protocol is one share's running keygen instance.
	Protocol = engine.Protocol[*key.SecretKeyShare, key.PartySpace, key.ShareSpace]
	// Round is one share's current keygen round.
	Round = engine.Round[*key.SecretKeyShare, key.PartySpace, key.ShareSpace]
	// Info is the keygen instance context.
	Info = engine.Info[key.PartySpace, key.ShareSpace]
	// Faulters is the keygen accusation set, keyed by keygen party id.
	Faulters = engine.Faulters[key.PartySpace]
)

// New starts one share's keygen instance. Every subshare of a party runs its
// own instance but shares the party's keypair/zk-setup material, which is
// expensive to generate. All randomness is derived from the secret recovery
// key and session nonce, so identical seeds reproduce an identical run.
func New(
	counts *key.PartyShareCounts,
	threshold int,
	partyID key.PartyID,
	subshare int,
	data *PartyKeygenData,
	srk *crypto.SecretRecoveryKey,
	sessionNonce []byte,
	logger log.Logger,
) (*Protocol, error) {
	if data == nil {
		return nil, fmt.Errorf("keygen: missing party keygen data")
	}
	shareID, err := counts.PartyToShareID(partyID, subshare)
	if err != nil {
		return nil, err
	}
	info, err := engine.NewInfo(counts, shareID, threshold, engine.DefaultMaxMsgLen, logger)
	if err != nil {
		return nil, err
	}
	return start(info, data, srk, sessionNonce)
}
