package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/common/log"
	"github.com/tessella/tessella/sharing"
)

type (
	tParty struct{}
	tShare struct{}
)

type sumPayload struct {
	Val int `json:"val"`
}

// sumRound is a toy second round: it adds up the values received from every
// peer, by broadcast and p2p, plus its own.
type sumRound struct {
	own int
}

func (r *sumRound) ExpectedMsgs() (bool, bool) { return true, true }

func (r *sumRound) Execute(
	info *Info[tParty, tShare],
	bcastsIn, p2psIn *collections.PeerMap[tShare, []byte],
	faulters *Faulters[tParty],
) (*Protocol[int, tParty, tShare], error) {
	total := r.own
	for _, from := range bcastsIn.IDs() {
		raw, err := bcastsIn.Get(from)
		if err != nil {
			return nil, err
		}
		var p sumPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		total += p.Val
	}
	for _, from := range p2psIn.IDs() {
		raw, err := p2psIn.Get(from)
		if err != nil {
			return nil, err
		}
		var p sumPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		total += p.Val
	}
	return DoneResult[int, tParty, tShare](total), nil
}

func testLogger() log.Logger {
	return log.New(nil, log.DebugLevel, false)
}

func testCounts(t *testing.T) *sharing.PartyShareCounts[tParty, tShare] {
	t.Helper()
	counts, err := sharing.NewPartyShareCounts[tParty, tShare]([]int{1, 2})
	require.NoError(t, err)
	return counts
}

// newSumProtocol starts a toy instance: broadcast the share id, send
// 100*own+to to each peer, then sum everything received.
func newSumProtocol(t *testing.T, counts *sharing.PartyShareCounts[tParty, tShare], share int) *Protocol[int, tParty, tShare] {
	t.Helper()
	self := collections.IDFromInt[tShare](share)
	info, err := NewInfo(counts, self, 1, DefaultMaxMsgLen, testLogger())
	require.NoError(t, err)

	p2ps, err := collections.NewPeerMap[tShare, any](self, counts.TotalShareCount())
	require.NoError(t, err)
	for _, to := range p2ps.IDs() {
		require.NoError(t, p2ps.Set(to, &sumPayload{Val: 100*share + to.AsInt()}))
	}

	p, err := NextRound[int, tParty, tShare](info, &sumRound{own: share}, &sumPayload{Val: share}, p2ps)
	require.NoError(t, err)
	return p
}

func TestDriverRunsToCompletion(t *testing.T) {
	counts := testCounts(t)
	protocols := make([]*Protocol[int, tParty, tShare], counts.TotalShareCount())
	for i := range protocols {
		protocols[i] = newSumProtocol(t, counts, i)
	}

	parties := collections.NewIDMap[tShare](protocols)
	require.NoError(t, ExecuteProtocol(testLogger(), parties))

	// every instance sums the same values: all share ids plus all p2ps it
	// received
	for _, id := range parties.IDs() {
		p, err := parties.Get(id)
		require.NoError(t, err)
		require.True(t, p.Done())

		want := 0 + 1 + 2
		for from := 0; from < counts.TotalShareCount(); from++ {
			if from == id.AsInt() {
				continue
			}
			want += 100*from + id.AsInt()
		}
		got, err := p.Output().Result()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestOversizedMessageAccusesWithoutCorruptingState(t *testing.T) {
	// one share per party, so share ids and party ids coincide
	counts, err := sharing.NewPartyShareCounts[tParty, tShare]([]int{1, 1, 1})
	require.NoError(t, err)
	p := newSumProtocol(t, counts, 0)
	sender := newSumProtocol(t, counts, 1)

	// a valid broadcast first, then an oversized blob from the other party
	require.NoError(t, p.Round().MsgIn(collections.IDFromInt[tParty](1), sender.Round().BcastOut()))
	require.NoError(t, p.Round().MsgIn(collections.IDFromInt[tParty](2), make([]byte, DefaultMaxMsgLen+1)))

	faulters := p.Round().faulters
	fault, ok := faulters.Get(collections.IDFromInt[tParty](2))
	require.True(t, ok)
	require.Equal(t, FaultOversizedMessage, fault)

	// the earlier broadcast is still buffered
	require.True(t, p.Round().bcastsIn.Has(collections.IDFromInt[tShare](1)))

	next, err := p.Round().ExecuteNextRound()
	require.NoError(t, err)
	require.True(t, next.Done())
	require.False(t, next.Output().Ok())
	fault, ok = next.Output().Faulters().Get(collections.IDFromInt[tParty](2))
	require.True(t, ok)
	require.Equal(t, FaultOversizedMessage, fault)
}

func TestUndecodableMessageAccuses(t *testing.T) {
	counts := testCounts(t)
	p := newSumProtocol(t, counts, 0)

	require.NoError(t, p.Round().MsgIn(collections.IDFromInt[tParty](1), []byte("not an envelope")))
	fault, ok := p.Round().faulters.Get(collections.IDFromInt[tParty](1))
	require.True(t, ok)
	require.Equal(t, FaultCorruptedMessage, fault)
}

func TestSpoofedSenderAccuses(t *testing.T) {
	counts := testCounts(t)
	p := newSumProtocol(t, counts, 0)

	// party 1 claims share 0, which belongs to party 0
	spoofed, err := encodeBcast(0, &sumPayload{Val: 9})
	require.NoError(t, err)
	require.NoError(t, p.Round().MsgIn(collections.IDFromInt[tParty](1), spoofed))

	fault, ok := p.Round().faulters.Get(collections.IDFromInt[tParty](1))
	require.True(t, ok)
	require.Equal(t, FaultCorruptedMessage, fault)
}

func TestDuplicateMessageAccuses(t *testing.T) {
	counts := testCounts(t)
	p := newSumProtocol(t, counts, 0)
	sender := newSumProtocol(t, counts, 1)

	from := collections.IDFromInt[tParty](1)
	require.NoError(t, p.Round().MsgIn(from, sender.Round().BcastOut()))
	require.NoError(t, p.Round().MsgIn(from, sender.Round().BcastOut()))

	fault, ok := p.Round().faulters.Get(from)
	require.True(t, ok)
	require.Equal(t, FaultDuplicateMessage, fault)
}

func TestMisaddressedP2PAccuses(t *testing.T) {
	counts := testCounts(t)
	p := newSumProtocol(t, counts, 0)

	// a p2p from share 1 addressed to share 2, delivered to share 0
	misaddressed, err := encodeP2P(1, 2, &sumPayload{Val: 9})
	require.NoError(t, err)
	require.NoError(t, p.Round().MsgIn(collections.IDFromInt[tParty](1), misaddressed))

	fault, ok := p.Round().faulters.Get(collections.IDFromInt[tParty](1))
	require.True(t, ok)
	require.Equal(t, FaultCorruptedMessage, fault)
}

func TestMissingMessageFaultsAtExecution(t *testing.T) {
	counts := testCounts(t)
	p := newSumProtocol(t, counts, 0)
	sender := newSumProtocol(t, counts, 1)

	// deliver everything share 1 sends, nothing from share 2
	from := collections.IDFromInt[tParty](1)
	require.NoError(t, p.Round().MsgIn(from, sender.Round().BcastOut()))
	p2p, err := sender.Round().P2PsOut().Get(collections.IDFromInt[tShare](0))
	require.NoError(t, err)
	require.NoError(t, p.Round().MsgIn(from, p2p))

	require.True(t, p.Round().ExpectingMoreMsgsThisRound())

	next, err := p.Round().ExecuteNextRound()
	require.NoError(t, err)
	require.True(t, next.Done())
	fault, ok := next.Output().Faulters().Get(from)
	require.True(t, ok)
	require.Equal(t, FaultMissingMessage, fault, "share 2 belongs to party 1 as well")
}

func TestOutOfRangeSenderIsAnError(t *testing.T) {
	counts := testCounts(t)
	p := newSumProtocol(t, counts, 0)

	require.Error(t, p.Round().MsgIn(collections.IDFromInt[tParty](2), []byte("x")))
	require.Error(t, p.Round().MsgIn(collections.IDFromInt[tParty](-1), []byte("x")))
}

func TestDoneFaultersRequiresAccusations(t *testing.T) {
	_, err := DoneFaulters[int, tParty, tShare](NewFaulters[tParty]())
	require.Error(t, err)

	f := NewFaulters[tParty]()
	f.Accuse(collections.IDFromInt[tParty](0), FaultProtocolViolation)
	p, err := DoneFaulters[int, tParty, tShare](f)
	require.NoError(t, err)
	require.True(t, p.Done())
	require.False(t, p.Output().Ok())
	_, err = p.Output().Result()
	require.Error(t, err)
}
