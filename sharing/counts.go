// Package sharing implements party/share accounting and polynomial secret
// sharing over the secp256k1 scalar field.
package sharing

import (
	"fmt"

	"github.com/tessella/tessella/collections"
)

const (
	// MaxTotalShareCount bounds the total number of shares across all parties.
	MaxTotalShareCount = 1000
	// MaxPartyShareCount bounds the number of shares a single party may hold.
	MaxPartyShareCount = MaxTotalShareCount
)

// PartyShareCounts maps each party of space P to the number of shares it
// controls in share space S. A party holding several shares participates in a
// protocol once per share; the counts define the bidirectional conversion
// between party ids and global share ids. Built once at keygen time and
// immutable afterwards.
type PartyShareCounts[P, S any] struct {
	counts []int
	total  int
}

// NewPartyShareCounts validates per-party share counts: every party must hold
// at least one share, no party may exceed MaxPartyShareCount, and the total
// may not exceed MaxTotalShareCount.
func NewPartyShareCounts[P, S any](counts []int) (*PartyShareCounts[P, S], error) {
	if len(counts) == 0 {
		return nil, fmt.Errorf("sharing: no parties")
	}
	total := 0
	for party, c := range counts {
		if c < 1 {
			return nil, fmt.Errorf("sharing: party %d has no shares", party)
		}
		if c > MaxPartyShareCount {
			return nil, fmt.Errorf("sharing: party %d share count %d exceeds cap %d", party, c, MaxPartyShareCount)
		}
		total += c
	}
	if total > MaxTotalShareCount {
		return nil, fmt.Errorf("sharing: total share count %d exceeds cap %d", total, MaxTotalShareCount)
	}
	cp := make([]int, len(counts))
	copy(cp, counts)
	return &PartyShareCounts[P, S]{counts: cp, total: total}, nil
}

func (c *PartyShareCounts[P, S]) PartyCount() int {
	return len(c.counts)
}

func (c *PartyShareCounts[P, S]) TotalShareCount() int {
	return c.total
}

// Counts returns a copy of the per-party share counts in party-id order.
func (c *PartyShareCounts[P, S]) Counts() []int {
	cp := make([]int, len(c.counts))
	copy(cp, c.counts)
	return cp
}

// PartyShareCount returns the number of shares held by one party.
func (c *PartyShareCounts[P, S]) PartyShareCount(party collections.TypedID[P]) (int, error) {
	if party.AsInt() < 0 || party.AsInt() >= len(c.counts) {
		return 0, fmt.Errorf("sharing: party id %s out of range [0,%d)", party, len(c.counts))
	}
	return c.counts[party.AsInt()], nil
}

// ShareToPartyID returns the party owning a global share id.
func (c *PartyShareCounts[P, S]) ShareToPartyID(share collections.TypedID[S]) (collections.TypedID[P], error) {
	if share.AsInt() < 0 || share.AsInt() >= c.total {
		return 0, fmt.Errorf("sharing: share id %s out of range [0,%d)", share, c.total)
	}
	remaining := share.AsInt()
	for party, count := range c.counts {
		if remaining < count {
			return collections.IDFromInt[P](party), nil
		}
		remaining -= count
	}
	// unreachable: total is the sum of counts
	return 0, fmt.Errorf("sharing: share id %s not covered by counts", share)
}

// PartyToShareID converts a party id plus a local subshare offset into the
// global share id.
func (c *PartyShareCounts[P, S]) PartyToShareID(party collections.TypedID[P], subshare int) (collections.TypedID[S], error) {
	if party.AsInt() < 0 || party.AsInt() >= len(c.counts) {
		return 0, fmt.Errorf("sharing: party id %s out of range [0,%d)", party, len(c.counts))
	}
	if subshare < 0 || subshare >= c.counts[party.AsInt()] {
		return 0, fmt.Errorf("sharing: subshare %d out of range [0,%d) for party %s", subshare, c.counts[party.AsInt()], party)
	}
	base := 0
	for p := 0; p < party.AsInt(); p++ {
		base += c.counts[p]
	}
	return collections.IDFromInt[S](base + subshare), nil
}

// ShareIDSubset returns, in ascending share-id order, every share belonging
// to a party in the selection.
func (c *PartyShareCounts[P, S]) ShareIDSubset(parties *collections.Subset[P]) ([]collections.TypedID[S], error) {
	for _, party := range parties.IDs() {
		if party.AsInt() >= len(c.counts) {
			return nil, fmt.Errorf("sharing: selected party id %s out of range [0,%d)", party, len(c.counts))
		}
	}
	var shares []collections.TypedID[S]
	base := 0
	for party, count := range c.counts {
		if parties.Contains(collections.IDFromInt[P](party)) {
			for k := 0; k < count; k++ {
				shares = append(shares, collections.IDFromInt[S](base+k))
			}
		}
		base += count
	}
	return shares, nil
}
