package engine

import (
	"fmt"

	"github.com/tessella/tessella/collections"
)

// Round is one party's current protocol round: it exposes the round's
// outgoing messages, buffers incoming ones by sender, and advances once the
// expected set is complete. Delivery order within a round is irrelevant.
type Round[F, P, S any] struct {
	info *Info[P, S]
	exec Executer[F, P, S]

	bcastOut []byte
	p2psOut  *collections.PeerMap[S, []byte]

	expectBcast bool
	expectP2P   bool
	bcastsIn    *collections.PeerMap[S, []byte]
	p2psIn      *collections.PeerMap[S, []byte]

	faulters *Faulters[P]
}

// Info returns the instance context this round runs under.
func (r *Round[F, P, S]) Info() *Info[P, S] {
	return r.info
}

// BcastOut returns the wire-encoded broadcast for this round, nil if the
// round has none.
func (r *Round[F, P, S]) BcastOut() []byte {
	return r.bcastOut
}

// P2PsOut returns the wire-encoded per-recipient messages for this round,
// nil if the round has none. The map excludes the sender itself.
func (r *Round[F, P, S]) P2PsOut() *collections.PeerMap[S, []byte] {
	return r.p2psOut
}

// MsgIn buffers an incoming message from the given party. Structural
// violations (oversize, undecodable envelope, spoofed sender, duplicate)
// accuse the sender without disturbing any other buffered state and without
// returning an error; an error is returned only for conditions that can
// never be attributed to a remote party, such as an out-of-range sender id
// supplied by the caller.
func (r *Round[F, P, S]) MsgIn(from collections.TypedID[P], bytes []byte) error {
	if from.AsInt() < 0 || from.AsInt() >= r.info.ShareCounts().PartyCount() {
		return fmt.Errorf("engine: sender party id %s out of range [0,%d)", from, r.info.ShareCounts().PartyCount())
	}

	if len(bytes) > r.info.MaxMsgLen() {
		r.info.Logger().Warnw("oversized message", "from", from.AsInt(), "len", len(bytes), "max", r.info.MaxMsgLen())
		r.faulters.Accuse(from, FaultOversizedMessage)
		return nil
	}

	msg, err := decodeWire(bytes)
	if err != nil {
		r.info.Logger().Warnw("undecodable message", "from", from.AsInt(), "err", err)
		r.faulters.Accuse(from, FaultCorruptedMessage)
		return nil
	}

	// the claimed share id must belong to the party that delivered the bytes
	fromShare := collections.IDFromInt[S](msg.From)
	claimedParty, err := r.info.ShareCounts().ShareToPartyID(fromShare)
	if err != nil || claimedParty != from || fromShare == r.info.ShareID() {
		r.info.Logger().Warnw("spoofed sender share id", "from", from.AsInt(), "claimed_share", msg.From)
		r.faulters.Accuse(from, FaultCorruptedMessage)
		return nil
	}

	switch msg.Kind {
	case msgKindBcast:
		if !r.expectBcast {
			r.faulters.Accuse(from, FaultCorruptedMessage)
			return nil
		}
		if r.bcastsIn.Has(fromShare) {
			r.info.Logger().Warnw("duplicate broadcast", "from", from.AsInt(), "share", msg.From)
			r.faulters.Accuse(from, FaultDuplicateMessage)
			return nil
		}
		if err := r.bcastsIn.Set(fromShare, msg.Payload); err != nil {
			return err
		}
	case msgKindP2P:
		if !r.expectP2P || msg.To != r.info.ShareID().AsInt() {
			r.faulters.Accuse(from, FaultCorruptedMessage)
			return nil
		}
		if r.p2psIn.Has(fromShare) {
			r.info.Logger().Warnw("duplicate p2p", "from", from.AsInt(), "share", msg.From)
			r.faulters.Accuse(from, FaultDuplicateMessage)
			return nil
		}
		if err := r.p2psIn.Set(fromShare, msg.Payload); err != nil {
			return err
		}
	}
	return nil
}

// ExpectingMoreMsgsThisRound is true until every message the round requires
// from every non-accused sender has been buffered.
func (r *Round[F, P, S]) ExpectingMoreMsgsThisRound() bool {
	return len(r.missingSenders()) > 0
}

func (r *Round[F, P, S]) missingSenders() []collections.TypedID[S] {
	var missing []collections.TypedID[S]
	for _, share := range r.peerShareIDs() {
		party, err := r.info.ShareCounts().ShareToPartyID(share)
		if err != nil || r.faulters.Has(party) {
			continue
		}
		if r.expectBcast && !r.bcastsIn.Has(share) {
			missing = append(missing, share)
			continue
		}
		if r.expectP2P && !r.p2psIn.Has(share) {
			missing = append(missing, share)
		}
	}
	return missing
}

func (r *Round[F, P, S]) peerShareIDs() []collections.TypedID[S] {
	total := r.info.TotalShareCount()
	ids := make([]collections.TypedID[S], 0, total-1)
	for i := 0; i < total; i++ {
		id := collections.IDFromInt[S](i)
		if id != r.info.ShareID() {
			ids = append(ids, id)
		}
	}
	return ids
}

// ExecuteNextRound consumes the round and advances the protocol. Missing
// messages from non-accused senders become accusations; any accusation
// accumulated so far short-circuits to the terminal state without running
// the round's computation. Otherwise the round executes over the buffered
// inputs, where semantic faults (failed proofs, bad signatures) may still
// produce a terminal accusation.
func (r *Round[F, P, S]) ExecuteNextRound() (*Protocol[F, P, S], error) {
	for _, share := range r.missingSenders() {
		party, err := r.info.ShareCounts().ShareToPartyID(share)
		if err != nil {
			return nil, err
		}
		r.info.Logger().Warnw("message missing at round execution", "share", share.AsInt())
		r.faulters.Accuse(party, FaultMissingMessage)
	}
	if !r.faulters.IsEmpty() {
		return DoneFaulters[F, P, S](r.faulters)
	}
	return r.exec.Execute(r.info, r.bcastsIn, r.p2psIn, r.faulters)
}
