// Package accountability implements the evidence-folding bookkeeping and the
// safety/accountability properties checked against it: agreement, validity,
// equivocation, and amnesia.
//
// Grounded on process.Catcher (DidReceiveMessageConflict/CatchAndIgnore),
// generalized from "catch and ignore a conflicting message as it arrives"
// to "fold every examined message into an evidence set and analyze the set
// after the fact" — evidence here never feeds back into a transition's
// decision, only into post-hoc property checks.
package accountability

import (
	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/message"
	"github.com/renproject/tendersim/output"
)

// Bookkeeping accumulates the messages examined while firing quorum-
// dependent rules, one set per message kind, plus a breakpoint latch used
// for interactive debugging, plus a count of rounds observed to have an f+1
// nil-Prevote quorum.
type Bookkeeping struct {
	EvidenceProposals  []message.Propose
	EvidencePrevotes   []message.Prevote
	EvidencePrecommits []message.Precommit
	Breakpoint         bool
	NilPrevoteQuorum   int
}

// FoldBookkeeping applies a transition's outputs to bk, extracting every
// CollectEvidence and Breakpoint output and ignoring Broadcast/StartTimeout
// (those are applied to the environment by package harness, not here). The
// evidence sets are monotone: re-examining a message already on file is a
// no-op. cfg is consulted only for its fault bound, to recompute
// NilPrevoteQuorum.
//
// Grounded on process.Process.handlePrevote's "upon f+1 nil Prevotes: notify
// observer" rule — modelled as a bookkeeping counter rather than a new
// Output variant, since EvidencePrevotes already carries every distinct
// Prevote a transition has examined and recomputing from it needs no new
// wiring into package tendermint.
func FoldBookkeeping(cfg config.Config, bk Bookkeeping, outs []output.Output) Bookkeeping {
	next := bk
	for _, out := range outs {
		switch o := out.(type) {
		case output.CollectEvidence[message.Message]:
			next = withEvidence(next, o.Message)
		case output.Breakpoint:
			next.Breakpoint = true
		}
	}
	next.NilPrevoteQuorum = nilPrevoteQuorumRounds(cfg, next.EvidencePrevotes)
	return next
}

// nilPrevoteQuorumRounds counts the distinct rounds at which f+1 distinct
// sources are on file with a nil-ID Prevote.
func nilPrevoteQuorumRounds(cfg config.Config, prevotes []message.Prevote) int {
	bySource := map[message.Round]map[message.Node]bool{}
	for _, pv := range prevotes {
		if pv.ID.Ok {
			continue
		}
		srcs, ok := bySource[pv.Rnd]
		if !ok {
			srcs = map[message.Node]bool{}
			bySource[pv.Rnd] = srcs
		}
		srcs[pv.Src] = true
	}
	quorums := 0
	for _, srcs := range bySource {
		if len(srcs) >= cfg.FaultTolerance() {
			quorums++
		}
	}
	return quorums
}

func withEvidence(bk Bookkeeping, m message.Message) Bookkeeping {
	switch typed := m.(type) {
	case message.Propose:
		for _, existing := range bk.EvidenceProposals {
			if existing == typed {
				return bk
			}
		}
		bk.EvidenceProposals = append(append([]message.Propose{}, bk.EvidenceProposals...), typed)
	case message.Prevote:
		for _, existing := range bk.EvidencePrevotes {
			if existing == typed {
				return bk
			}
		}
		bk.EvidencePrevotes = append(append([]message.Prevote{}, bk.EvidencePrevotes...), typed)
	case message.Precommit:
		for _, existing := range bk.EvidencePrecommits {
			if existing == typed {
				return bk
			}
		}
		bk.EvidencePrecommits = append(append([]message.Precommit{}, bk.EvidencePrecommits...), typed)
	}
	return bk
}
