package tendermint

import (
	log "github.com/sirupsen/logrus"

	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/message"
)

// Logic closes the pure transitions in this package over a fixed Config, in
// the shape package harness expects: ReceiveMessage/FireTimeoutEvent/
// ShouldReplace/InitialMessage. Grounded on process.Process, which closes
// handlePropose/handlePrevote/handlePrecommit over a *rand.Rand and a set of
// collaborators fixed at construction; here the only fixed collaborator is
// Config.
type Logic struct {
	Cfg    config.Config
	Logger *log.Logger
}

// NewLogic builds a Logic over cfg. A nil logger falls back to logrus's
// package-level standard logger, matching the teacher's use of the bare
// package-level logrus functions where no per-instance logger was wired.
func NewLogic(cfg config.Config, logger *log.Logger) Logic {
	return Logic{Cfg: cfg, Logger: logger}
}

func (l Logic) log() *log.Entry {
	if l.Logger != nil {
		return log.NewEntry(l.Logger)
	}
	return log.NewEntry(log.StandardLogger())
}

// Init builds the initial LocalState for id.
func (l Logic) Init(id message.Node) LocalState {
	return InitLocalState(id)
}

// ReceiveMessage matches the harness hook signature
// func(LocalState, message.Message) (LocalState, []Output).
func (l Logic) ReceiveMessage(s LocalState, m message.Message) (LocalState, []Output) {
	next, outs := ReceiveMessage(l.Cfg, s, m)
	if len(outs) > 0 {
		l.log().WithFields(log.Fields{
			"process": s.ID,
			"round":   s.Round,
			"message": m,
		}).Debug("tendermint: transition fired")
	}
	return next, outs
}

// FireTimeoutEvent matches the harness hook signature
// func(LocalState, message.TimeoutEvent) (LocalState, []Output).
func (l Logic) FireTimeoutEvent(s LocalState, t message.TimeoutEvent) (LocalState, []Output) {
	next, outs := FireTimeoutEvent(l.Cfg, s, t)
	if len(outs) > 0 {
		l.log().WithFields(log.Fields{
			"process": s.ID,
			"round":   s.Round,
			"timeout": t,
		}).Debug("tendermint: timeout transition fired")
	}
	return next, outs
}

// ShouldReplace is the timeout replacement policy applied by the harness
// when a StartTimeout output is emitted while a timeout is already active.
//
// This is deliberately NOT "replace iff new is in a later phase for the same
// round": a later round always replaces, but within the same round the rule
// below replaces on an EARLIER phase. That is the literal, preserved
// behavior; it reads backwards from the phase ordering Propose < PreVote <
// PreCommit and is flagged, not fixed.
func (l Logic) ShouldReplace(old, newTimeout message.TimeoutEvent) bool {
	if newTimeout.Round != old.Round {
		return newTimeout.Round > old.Round
	}
	return newTimeout.Kind < old.Kind
}

// InitialMessage is the single Propose fanned out to every buffer at init:
// src = PROPOSER(0), proposal = VALUES(0), valid_round = -1.
func (l Logic) InitialMessage() message.Message {
	v, ok := l.Cfg.Values(0)
	if !ok {
		panic("tendermint: no value configured for round 0")
	}
	return message.Propose{
		Src:        l.Cfg.Proposer(0),
		Rnd:        0,
		Proposal:   v,
		ValidRound: message.InvalidRound,
	}
}
