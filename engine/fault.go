// Package engine is the generic round-based state machine every protocol
// instance (keygen, signing) is built on. Each party drives its own
// exclusively-owned instance by feeding it the byte messages of the current
// round and advancing it; the instance terminates with either the protocol
// output or a non-empty accusation set naming the parties that misbehaved.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tessella/tessella/collections"
)

// Fault is the reason a remote party was accused.
type Fault int

const (
	// FaultOversizedMessage: the party sent a message above the configured
	// maximum length.
	FaultOversizedMessage Fault = iota
	// FaultCorruptedMessage: the message failed to decode, claimed a sender
	// it cannot claim, or was addressed wrongly.
	FaultCorruptedMessage
	// FaultDuplicateMessage: the party delivered more than one message of
	// the same kind this round.
	FaultDuplicateMessage
	// FaultMissingMessage: the round was advanced without a required
	// message from the party.
	FaultMissingMessage
	// FaultProtocolViolation: a message decoded fine but failed
	// cryptographic validation when the round consumed it.
	FaultProtocolViolation
)

func (f Fault) String() string {
	switch f {
	case FaultOversizedMessage:
		return "oversized message"
	case FaultCorruptedMessage:
		return "corrupted message"
	case FaultDuplicateMessage:
		return "duplicate message"
	case FaultMissingMessage:
		return "missing message"
	case FaultProtocolViolation:
		return "protocol violation"
	default:
		return fmt.Sprintf("unknown fault %d", int(f))
	}
}

// Faulters is the accusation set of a protocol instance, keyed by party id in
// space P. Only the first fault per party is kept.
type Faulters[P any] struct {
	faults map[collections.TypedID[P]]Fault
}

func NewFaulters[P any]() *Faulters[P] {
	return &Faulters[P]{faults: make(map[collections.TypedID[P]]Fault)}
}

// Accuse records a fault against a party. Repeated accusations of the same
// party keep the original fault.
func (f *Faulters[P]) Accuse(party collections.TypedID[P], fault Fault) {
	if _, ok := f.faults[party]; !ok {
		f.faults[party] = fault
	}
}

func (f *Faulters[P]) Has(party collections.TypedID[P]) bool {
	_, ok := f.faults[party]
	return ok
}

func (f *Faulters[P]) Get(party collections.TypedID[P]) (Fault, bool) {
	fault, ok := f.faults[party]
	return fault, ok
}

func (f *Faulters[P]) IsEmpty() bool {
	return len(f.faults) == 0
}

func (f *Faulters[P]) Len() int {
	return len(f.faults)
}

// Parties returns the accused party ids in ascending order.
func (f *Faulters[P]) Parties() []collections.TypedID[P] {
	out := make([]collections.TypedID[P], 0, len(f.faults))
	for p := range f.faults {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (f *Faulters[P]) String() string {
	if f.IsEmpty() {
		return "no faulters"
	}
	var b strings.Builder
	for i, p := range f.Parties() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "party %s: %s", p, f.faults[p])
	}
	return b.String()
}
