package accountability

import (
	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/message"
	"github.com/renproject/tendersim/tendermint"
)

// Agreement holds iff no two correct processes hold conflicting Some
// decisions.
func Agreement(states []tendermint.LocalState) bool {
	var decided message.OptValue
	have := false
	for _, s := range states {
		if !s.Decision.Ok {
			continue
		}
		if !have {
			decided = s.Decision
			have = true
			continue
		}
		if !decided.Equal(s.Decision) {
			return false
		}
	}
	return true
}

// Validity holds iff every correct process's decision, if any, is a valid
// value: one a correct proposer could have produced.
func Validity(states []tendermint.LocalState, validValues map[message.Value]bool) bool {
	for _, s := range states {
		if !s.Decision.Ok {
			continue
		}
		if !validValues[s.Decision.Value] {
			return false
		}
	}
	return true
}

func distinctNodes(nodes []message.Node) int {
	seen := make(map[message.Node]struct{}, len(nodes))
	for _, n := range nodes {
		seen[n] = struct{}{}
	}
	return len(seen)
}

// EquivocationBy reports whether n's evidence contains two distinct messages
// of the same kind, for the same round.
func EquivocationBy(bk Bookkeeping, n message.Node) bool {
	for i, a := range bk.EvidenceProposals {
		if a.Src != n {
			continue
		}
		for j, b := range bk.EvidenceProposals {
			if i == j || b.Src != n || b.Rnd != a.Rnd {
				continue
			}
			if a != b {
				return true
			}
		}
	}
	for i, a := range bk.EvidencePrevotes {
		if a.Src != n {
			continue
		}
		for j, b := range bk.EvidencePrevotes {
			if i == j || b.Src != n || b.Rnd != a.Rnd {
				continue
			}
			if a != b {
				return true
			}
		}
	}
	for i, a := range bk.EvidencePrecommits {
		if a.Src != n {
			continue
		}
		for j, b := range bk.EvidencePrecommits {
			if i == j || b.Src != n || b.Rnd != a.Rnd {
				continue
			}
			if a != b {
				return true
			}
		}
	}
	return false
}

// AmnesiaBy reports whether n's evidence exhibits amnesia: a proposal for v1
// "at round r1" (valid_round = r1, matching the source's exact predicate,
// not Tendermint's usual valid_round < r1) followed by a later proposal for
// a distinct v2 "at round r2", with a prevote quorum for id(v2) in evidence
// at every intermediate round.
func AmnesiaBy(cfg config.Config, bk Bookkeeping, n message.Node) bool {
	var proposals []message.Propose
	for _, p := range bk.EvidenceProposals {
		if p.Src == n {
			proposals = append(proposals, p)
		}
	}
	for _, p1 := range proposals {
		if p1.ValidRound != p1.Rnd {
			continue
		}
		for _, p2 := range proposals {
			if p2.ValidRound != p2.Rnd {
				continue
			}
			if p1.Rnd >= p2.Rnd {
				continue
			}
			if p1.Proposal == p2.Proposal {
				continue
			}
			if amnesiaGapCovered(cfg, bk, p1.Rnd, p2.Rnd, p2.Proposal) {
				return true
			}
		}
	}
	return false
}

func amnesiaGapCovered(cfg config.Config, bk Bookkeeping, r1, r2 message.Round, v2 message.Value) bool {
	id := message.SomeID(message.ID(v2))
	for r := r1; r < r2; r++ {
		var sources []message.Node
		for _, pv := range bk.EvidencePrevotes {
			if pv.Rnd == r && pv.ID.Equal(id) {
				sources = append(sources, pv.Src)
			}
		}
		if distinctNodes(sources) < cfg.Quorum() {
			return false
		}
	}
	return true
}

// Accountability holds iff agreement holds, or at least F+1 faulty nodes
// each individually exhibit equivocation or amnesia.
func Accountability(cfg config.Config, states []tendermint.LocalState, bk Bookkeeping) bool {
	if Agreement(states) {
		return true
	}
	culprits := 0
	for _, n := range cfg.Faulty {
		if EquivocationBy(bk, n) || AmnesiaBy(cfg, bk, n) {
			culprits++
		}
	}
	return culprits >= cfg.FaultTolerance()
}

// Report summarizes the properties of a run for inspection: which faulty
// nodes were caught, and whether each of the three safety properties holds.
type Report struct {
	Agreement     bool
	Validity      bool
	Accountable   bool
	Equivocators  []message.Node
	AmnesiacNodes []message.Node
}

// BuildReport evaluates every property against states and bk, using
// validValues as the valid-value set for the Validity check.
func BuildReport(cfg config.Config, states []tendermint.LocalState, bk Bookkeeping, validValues map[message.Value]bool) Report {
	report := Report{
		Agreement:   Agreement(states),
		Validity:    Validity(states, validValues),
		Accountable: Accountability(cfg, states, bk),
	}
	for _, n := range append(append([]message.Node{}, cfg.Correct...), cfg.Faulty...) {
		if EquivocationBy(bk, n) {
			report.Equivocators = append(report.Equivocators, n)
		}
		if AmnesiaBy(cfg, bk, n) {
			report.AmnesiacNodes = append(report.AmnesiacNodes, n)
		}
	}
	return report
}
