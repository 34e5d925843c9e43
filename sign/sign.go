// Package sign implements threshold signing as rounds over the protocol
// engine. Each participating share independently produces a deterministic
// ECDSA signature with its share scalar and broadcasts it; every instance
// verifies the peers' signatures against the public share commitments from
// keygen before terminating. Assembling the per-share signatures into a
// single group signature is the caller's concern.
package sign

import (
	"fmt"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/common/log"
	"github.com/tessella/tessella/crypto"
	"github.com/tessella/tessella/engine"
	"github.com/tessella/tessella/key"
	"github.com/tessella/tessella/sharing"
)

// PartySpace and ShareSpace are the index-space markers of one signing
// session. Participants are renumbered densely from the keygen spaces; ids
// never cross between sessions or back into keygen.
type (
	PartySpace struct{}
	ShareSpace struct{}
)

type (
	PartyID = collections.TypedID[PartySpace]
	ShareID = collections.TypedID[ShareSpace]

	// Protocol is one share's running sign instance; its result is the
	// share's DER-encoded signature.
	Protocol = engine.Protocol[[]byte, PartySpace, ShareSpace]
	// Round is one share's current sign round.
	Round = engine.Round[[]byte, PartySpace, ShareSpace]
	// Info is the sign instance context.
	Info = engine.Info[PartySpace, ShareSpace]
	// Faulters is the sign accusation set, keyed by session party id.
	Faulters = engine.Faulters[PartySpace]
)

// New starts one share's sign instance over the prehashed message. The
// selected parties must together hold strictly more shares than the keygen
// threshold, and the given key share must belong to a selected party; both
// are rejected before any round runs.
func New(
	share *key.SecretKeyShare,
	parties *collections.Subset[key.PartySpace],
	digest *crypto.MessageDigest,
	logger log.Logger,
) (*Protocol, error) {
	group := share.Group()
	keygenIDs, err := group.Counts().ShareIDSubset(parties)
	if err != nil {
		return nil, err
	}
	if len(keygenIDs) <= group.Threshold() {
		return nil, fmt.Errorf(
			"sign: selected parties hold %d shares, need more than the threshold %d",
			len(keygenIDs), group.Threshold(),
		)
	}

	// renumber the selected parties and their shares into dense session ids
	counts := make([]int, 0, parties.Count())
	for _, p := range parties.IDs() {
		c, err := group.Counts().PartyShareCount(p)
		if err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	signCounts, err := sharing.NewPartyShareCounts[PartySpace, ShareSpace](counts)
	if err != nil {
		return nil, err
	}

	selfIdx := -1
	for i, kid := range keygenIDs {
		if kid == share.Share().ID() {
			selfIdx = i
			break
		}
	}
	if selfIdx < 0 {
		return nil, fmt.Errorf("sign: share %s does not belong to a selected party", share.Share().ID())
	}

	info, err := engine.NewInfo(
		signCounts,
		collections.IDFromInt[ShareSpace](selfIdx),
		group.Threshold(),
		engine.DefaultMaxMsgLen,
		logger,
	)
	if err != nil {
		return nil, err
	}
	return start(info, share, keygenIDs, digest)
}
