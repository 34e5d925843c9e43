package engine

import (
	"fmt"

	"github.com/tessella/tessella/collections"
)

// Executer is the round-specific computation plugged into the engine. The
// concrete keygen/signing rounds implement it: declare which message kinds
// the round expects, then consume the buffered peer messages and produce the
// next protocol state.
type Executer[F, P, S any] interface {
	// ExpectedMsgs declares which message kinds this round requires from
	// every peer before it can advance.
	ExpectedMsgs() (bcast, p2p bool)
	// Execute runs the round over the buffered inputs. Cryptographic
	// failures are recorded in faulters (short-circuiting to a terminal
	// accusation), never returned as errors; a returned error is a fatal
	// internal defect of this instance, not attributable to a peer.
	Execute(
		info *Info[P, S],
		bcastsIn, p2psIn *collections.PeerMap[S, []byte],
		faulters *Faulters[P],
	) (*Protocol[F, P, S], error)
}

// Output is the terminal result of a protocol instance: either a final
// result, or a non-empty accusation set and no result.
type Output[F, P any] struct {
	result   F
	faulters *Faulters[P]
}

// Ok reports whether the protocol produced a result rather than accusations.
func (o *Output[F, P]) Ok() bool {
	return o.faulters == nil || o.faulters.IsEmpty()
}

// Result returns the protocol output, failing if the instance terminated
// with accusations instead.
func (o *Output[F, P]) Result() (F, error) {
	var zero F
	if !o.Ok() {
		return zero, fmt.Errorf("engine: protocol terminated with faulters: %s", o.faulters)
	}
	return o.result, nil
}

// Faulters returns the accusation set; it is empty when Ok.
func (o *Output[F, P]) Faulters() *Faulters[P] {
	if o.faulters == nil {
		return NewFaulters[P]()
	}
	return o.faulters
}

// Protocol is one party's running protocol instance: in progress with a
// current round, or terminated with an Output.
type Protocol[F, P, S any] struct {
	round  *Round[F, P, S]
	output *Output[F, P]
}

// Done reports whether the instance reached its terminal state.
func (p *Protocol[F, P, S]) Done() bool {
	return p.output != nil
}

// Round returns the current round, nil once Done.
func (p *Protocol[F, P, S]) Round() *Round[F, P, S] {
	return p.round
}

// Output returns the terminal output, nil while in progress.
func (p *Protocol[F, P, S]) Output() *Output[F, P] {
	return p.output
}

// NextRound builds an in-progress protocol state around exec, wrapping the
// optional outgoing broadcast payload and per-recipient payloads into wire
// envelopes. Incoming-message buffers are allocated according to
// exec.ExpectedMsgs.
func NextRound[F, P, S any](
	info *Info[P, S],
	exec Executer[F, P, S],
	bcastPayload any,
	p2pPayloads *collections.PeerMap[S, any],
) (*Protocol[F, P, S], error) {
	r := &Round[F, P, S]{
		info:     info,
		exec:     exec,
		faulters: NewFaulters[P](),
	}
	r.expectBcast, r.expectP2P = exec.ExpectedMsgs()

	self := info.ShareID().AsInt()
	if bcastPayload != nil {
		b, err := encodeBcast(self, bcastPayload)
		if err != nil {
			return nil, err
		}
		r.bcastOut = b
	}
	if p2pPayloads != nil {
		out, err := collections.NewPeerMap[S, []byte](info.ShareID(), info.TotalShareCount())
		if err != nil {
			return nil, err
		}
		for _, to := range p2pPayloads.IDs() {
			payload, err := p2pPayloads.Get(to)
			if err != nil {
				return nil, fmt.Errorf("engine: missing p2p payload for share %s: %w", to, err)
			}
			b, err := encodeP2P(self, to.AsInt(), payload)
			if err != nil {
				return nil, err
			}
			if err := out.Set(to, b); err != nil {
				return nil, err
			}
		}
		r.p2psOut = out
	}

	var err error
	if r.expectBcast {
		if r.bcastsIn, err = collections.NewPeerMap[S, []byte](info.ShareID(), info.TotalShareCount()); err != nil {
			return nil, err
		}
	}
	if r.expectP2P {
		if r.p2psIn, err = collections.NewPeerMap[S, []byte](info.ShareID(), info.TotalShareCount()); err != nil {
			return nil, err
		}
	}

	return &Protocol[F, P, S]{round: r}, nil
}

// DoneResult builds the terminal state carrying a final output.
func DoneResult[F, P, S any](result F) *Protocol[F, P, S] {
	return &Protocol[F, P, S]{output: &Output[F, P]{result: result}}
}

// DoneFaulters builds the terminal state carrying a non-empty accusation set.
func DoneFaulters[F, P, S any](faulters *Faulters[P]) (*Protocol[F, P, S], error) {
	if faulters == nil || faulters.IsEmpty() {
		return nil, fmt.Errorf("engine: terminal accusation state requires a non-empty faulter set")
	}
	return &Protocol[F, P, S]{output: &Output[F, P]{faulters: faulters}}, nil
}
