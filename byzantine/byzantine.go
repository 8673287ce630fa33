// Package byzantine enumerates the messages a faulty process could send:
// every Propose over FAULTY × VALUES × (ROUNDS ∪ {-1}), and every PreVote
// and PreCommit over FAULTY × VALUES, for each round under observation.
//
// Grounded on testutils.NewFaultyLeader, the teacher's single hand-scripted
// Byzantine leader that emits a fixed Propose/Prevote/Precommit sequence;
// generalized here from one scripted strategy to exhaustive enumeration, the
// harness's candidate set for its Byzantine injection branch.
package byzantine

import (
	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/message"
)

// Generate returns every candidate Byzantine message reachable from cfg for
// the given rounds (ROUNDS, the key set of cfg.Values) and the rounds
// currently observed across correct processes. The nil-id Prevote/Precommit
// variants are included alongside the Some(id(v)) ones: Option[ValueId]
// ranges over both, and a faulty process sending a nil vote is as legitimate
// a candidate as one voting for a value.
func Generate(cfg config.Config, rounds []message.Round, observedRounds []message.Round) []message.Message {
	values := make([]message.Value, 0, len(rounds))
	for _, r := range rounds {
		if v, ok := cfg.Values(r); ok {
			values = append(values, v)
		}
	}
	validRounds := make([]message.Round, 0, len(rounds)+1)
	validRounds = append(validRounds, message.InvalidRound)
	validRounds = append(validRounds, rounds...)

	var out []message.Message
	for _, r := range observedRounds {
		for _, f := range cfg.Faulty {
			for _, v := range values {
				for _, vr := range validRounds {
					out = append(out, message.Propose{Src: f, Rnd: r, Proposal: v, ValidRound: vr})
				}
				out = append(out, message.Prevote{Src: f, Rnd: r, ID: message.SomeID(message.ID(v))})
				out = append(out, message.Precommit{Src: f, Rnd: r, ID: message.SomeID(message.ID(v))})
			}
			out = append(out, message.Prevote{Src: f, Rnd: r, ID: message.NoID})
			out = append(out, message.Precommit{Src: f, Rnd: r, ID: message.NoID})
		}
	}
	return out
}

// ObservedRounds collects the distinct rounds visible across a set of
// per-process rounds, deduplicated, for use as Generate's observedRounds
// argument.
func ObservedRounds(rounds []message.Round) []message.Round {
	seen := make(map[message.Round]struct{}, len(rounds))
	out := make([]message.Round, 0, len(rounds))
	for _, r := range rounds {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
