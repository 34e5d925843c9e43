package engine

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/tessella/tessella/collections"
	"github.com/tessella/tessella/common/log"
)

// ExecuteProtocol runs a full set of protocol instances to completion in a
// single process by cross-delivering their messages round by round. It is the
// reference orchestrator for tests and simulation; its delivery algorithm is
// the normative definition of a completed round, but any transport delivering
// the same bytes with the same per-round completeness serves in production.
func ExecuteProtocol[F, P, S any](
	logger log.Logger,
	parties *collections.IDMap[S, *Protocol[F, P, S]],
) error {
	if logger == nil {
		logger = log.DefaultLogger()
	}
	currentRound := 0
	for !allDone(logger, parties) {
		currentRound++
		if err := nextRound(logger, parties, currentRound); err != nil {
			return fmt.Errorf("engine: driver round %d: %w", currentRound, err)
		}
	}
	return nil
}

// allDone reports whether every instance reached its terminal state. A mix
// of done and not-done instances cannot happen under honest execution, so it
// is surfaced loudly rather than resolved silently.
func allDone[F, P, S any](logger log.Logger, parties *collections.IDMap[S, *Protocol[F, P, S]]) bool {
	var done, notDone []int
	for _, id := range parties.IDs() {
		party, err := parties.Get(id)
		if err != nil {
			continue
		}
		if party.Done() {
			done = append(done, id.AsInt())
		} else {
			notDone = append(notDone, id.AsInt())
		}
	}
	if len(done) > 0 && len(notDone) > 0 {
		logger.Warnw("termination disagreement", "done", done, "not_done", notDone)
	}
	return len(notDone) == 0
}

func nextRound[F, P, S any](logger log.Logger, parties *collections.IDMap[S, *Protocol[F, P, S]], currentRound int) error {
	rounds := collections.NewIDMapSized[S, *Round[F, P, S]](parties.Len())
	for _, id := range parties.IDs() {
		party, err := parties.Get(id)
		if err != nil {
			return err
		}
		if party.Done() {
			return fmt.Errorf("party %s already done before round %d", id, currentRound)
		}
		if err := rounds.Set(id, party.Round()); err != nil {
			return err
		}
	}

	var errs *multierror.Error

	// deliver each sender's broadcast to every other party
	for _, from := range rounds.IDs() {
		sender, _ := rounds.Get(from)
		bcast := sender.BcastOut()
		if bcast == nil {
			continue
		}
		fromParty, err := sender.Info().ShareCounts().ShareToPartyID(from)
		if err != nil {
			return err
		}
		if from.AsInt() == 0 {
			logger.Debugw("broadcast", "round", currentRound, "bytes", len(bcast))
		}
		for _, to := range rounds.IDs() {
			if to == from {
				continue
			}
			receiver, _ := rounds.Get(to)
			if err := receiver.MsgIn(fromParty, bcast); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("bcast %s->%s: %w", from, to, err))
			}
		}
	}

	// deliver each per-recipient message to its addressed recipient
	for _, from := range rounds.IDs() {
		sender, _ := rounds.Get(from)
		p2ps := sender.P2PsOut()
		if p2ps == nil {
			continue
		}
		fromParty, err := sender.Info().ShareCounts().ShareToPartyID(from)
		if err != nil {
			return err
		}
		for _, to := range p2ps.IDs() {
			bytes, err := p2ps.Get(to)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("p2p %s->%s: %w", from, to, err))
				continue
			}
			if from.AsInt() == 0 && to.AsInt() == 1 {
				logger.Debugw("p2p", "round", currentRound, "bytes", len(bytes))
			}
			receiver, _ := rounds.Get(to)
			if err := receiver.MsgIn(fromParty, bytes); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("p2p %s->%s: %w", from, to, err))
			}
		}
	}

	// advance every party
	for _, id := range rounds.IDs() {
		round, _ := rounds.Get(id)
		if round.ExpectingMoreMsgsThisRound() {
			logger.Warnw("all messages delivered but party still expecting more", "share", id.AsInt(), "round", currentRound)
		}
		next, err := round.ExecuteNextRound()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("executing share %s: %w", id, err))
			continue
		}
		if err := parties.Set(id, next); err != nil {
			return err
		}
	}

	return errs.ErrorOrNil()
}
