package engine

import (
	"fmt"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/common/log"
	"github.com/tessella/tessella/sharing"
)

// DefaultMaxMsgLen is the maximum byte length of incoming wire messages in
// the reference configuration. The sender of a longer message is accused.
const DefaultMaxMsgLen = 5500

// Info is the immutable per-instance context shared by every round of one
// party's protocol run: who participates with how many shares, which share
// this instance is, and the message-size bound.
type Info[P, S any] struct {
	counts    *sharing.PartyShareCounts[P, S]
	shareID   collections.TypedID[S]
	partyID   collections.TypedID[P]
	threshold int
	maxMsgLen int
	logger    log.Logger
}

// NewInfo validates and builds the instance context. The threshold must be
// smaller than the total share count.
func NewInfo[P, S any](
	counts *sharing.PartyShareCounts[P, S],
	shareID collections.TypedID[S],
	threshold int,
	maxMsgLen int,
	logger log.Logger,
) (*Info[P, S], error) {
	if threshold < 0 || threshold >= counts.TotalShareCount() {
		return nil, fmt.Errorf("engine: threshold %d out of range [0,%d)", threshold, counts.TotalShareCount())
	}
	partyID, err := counts.ShareToPartyID(shareID)
	if err != nil {
		return nil, err
	}
	if maxMsgLen <= 0 {
		maxMsgLen = DefaultMaxMsgLen
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Info[P, S]{
		counts:    counts,
		shareID:   shareID,
		partyID:   partyID,
		threshold: threshold,
		maxMsgLen: maxMsgLen,
		logger:    logger.With("share", shareID.AsInt()),
	}, nil
}

func (i *Info[P, S]) ShareCounts() *sharing.PartyShareCounts[P, S] { return i.counts }
func (i *Info[P, S]) ShareID() collections.TypedID[S]             { return i.shareID }
func (i *Info[P, S]) PartyID() collections.TypedID[P]             { return i.partyID }
func (i *Info[P, S]) Threshold() int                              { return i.threshold }
func (i *Info[P, S]) TotalShareCount() int                        { return i.counts.TotalShareCount() }
func (i *Info[P, S]) MaxMsgLen() int                              { return i.maxMsgLen }
func (i *Info[P, S]) Logger() log.Logger                          { return i.logger }
