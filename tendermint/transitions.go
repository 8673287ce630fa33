package tendermint

import (
	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/message"
)

// ReceiveMessage dispatches an inbound message to its per-kind handler. An
// unrecognised message kind returns state unchanged with no output, matching
// the "offered a message it did not expect" no-op clause.
func ReceiveMessage(cfg config.Config, s LocalState, m message.Message) (LocalState, []Output) {
	switch typed := m.(type) {
	case message.Propose:
		return ReceivePropose(cfg, s, typed)
	case message.Prevote:
		return ReceivePrevote(cfg, s, typed)
	case message.Precommit:
		return ReceivePrecommit(cfg, s, typed)
	default:
		return s, nil
	}
}

// ReceivePropose folds m into ReceivedProposals then evaluates, in order,
// the propose-stage rule (line 22), the quorum-at-propose-stage rule
// (line 28), the quorum-after-prevote-stage-for-the-first-time rule
// (line 36), and the future-round catch-up rule.
func ReceivePropose(cfg config.Config, s LocalState, m message.Propose) (LocalState, []Output) {
	s = s.withProposal(m)
	var outputs []Output

	var outs []Output
	s, outs = rulePropose1(cfg, s, m)
	outputs = append(outputs, outs...)
	s, outs = rulePropose2(cfg, s, m)
	outputs = append(outputs, outs...)
	s, outs = rulePropose3(cfg, s, m)
	outputs = append(outputs, outs...)

	if r, ok := futureRoundCatchUp(cfg, s); ok {
		ns, outs := StartRound(cfg, s, r)
		s = ns
		outputs = append(outputs, outs...)
	}

	return s, outputs
}

// applyProposeVote is the shared propose-to-prevote transition used by
// rules 1 and 2 (line 22 and line 28): they differ only in the boolean
// locking condition guarding a non-nil vote.
func applyProposeVote(s LocalState, proposal message.Value, valid, lockCond bool) (LocalState, []Output) {
	ns := s
	ns.Stage = StagePreVote
	ns.AfterPrevoteForFirstTime = true

	id := message.NoID
	if valid && lockCond {
		id = message.SomeID(message.ID(proposal))
	}
	pv := message.Prevote{Src: s.ID, Rnd: s.Round, ID: id}
	return ns, []Output{broadcast(pv)}
}

// rulePropose1 is the propose-at-propose-stage rule (line 22).
func rulePropose1(cfg config.Config, s LocalState, m message.Propose) (LocalState, []Output) {
	if m.ValidRound != message.InvalidRound {
		return s, nil
	}
	if m.Src != cfg.Proposer(s.Round) || s.Stage != StagePropose {
		return s, nil
	}
	lockCond := s.LockedRound == message.InvalidRound || s.LockedValue.Equal(message.SomeValue(m.Proposal))
	ns, outs := applyProposeVote(s, m.Proposal, cfg.Validator(m.Proposal), lockCond)
	outs = append(outs, collectEvidence(m))
	return ns, outs
}

// rulePropose2 is the propose-plus-quorum-at-propose-stage rule (line 28).
func rulePropose2(cfg config.Config, s LocalState, m message.Propose) (LocalState, []Output) {
	if m.Src != cfg.Proposer(s.Round) || s.Stage != StagePropose {
		return s, nil
	}
	if !(m.ValidRound >= 0 && m.ValidRound < s.Round) {
		return s, nil
	}
	contributing := prevotesAtRoundForID(s.ReceivedPrevotes, m.ValidRound, message.SomeID(message.ID(m.Proposal)))
	if !hasQuorum(cfg.F, distinctSources(prevoteSources(contributing))) {
		return s, nil
	}
	lockCond := s.LockedRound <= m.ValidRound || s.LockedValue.Equal(message.SomeValue(m.Proposal))
	ns, outs := applyProposeVote(s, m.Proposal, cfg.Validator(m.Proposal), lockCond)
	outs = append(outs, collectEvidence(m))
	for _, pv := range contributing {
		outs = append(outs, collectEvidence(pv))
	}
	outs = append(outs, breakpoint())
	return ns, outs
}

// rulePropose3 is the propose-plus-quorum-after-prevote-stage-for-the-first-
// time rule (line 36). It is also re-run for every already-received proposal
// whenever a new prevote arrives (see ReceivePrevote).
func rulePropose3(cfg config.Config, s LocalState, m message.Propose) (LocalState, []Output) {
	if m.Src != cfg.Proposer(s.Round) {
		return s, nil
	}
	if s.Stage != StagePreVote && s.Stage != StagePreCommit {
		return s, nil
	}
	if !s.AfterPrevoteForFirstTime {
		return s, nil
	}
	contributing := prevotesAtRoundForID(s.ReceivedPrevotes, s.Round, message.SomeID(message.ID(m.Proposal)))
	if !hasQuorum(cfg.F, distinctSources(prevoteSources(contributing))) {
		return s, nil
	}

	ns := s
	ns.ValidValue = message.SomeValue(m.Proposal)
	ns.ValidRound = s.Round

	outs := []Output{collectEvidence(m)}
	for _, pv := range contributing {
		outs = append(outs, collectEvidence(pv))
	}

	if s.Stage == StagePreVote {
		ns.LockedValue = message.SomeValue(m.Proposal)
		ns.LockedRound = m.Rnd
		ns.Stage = StagePreCommit
		pc := message.Precommit{Src: s.ID, Rnd: s.Round, ID: message.SomeID(message.ID(m.Proposal))}
		outs = append(outs, broadcast(pc))
	}

	return ns, outs
}

// ReceivePrevote folds m into ReceivedPrevotes, re-runs rules 4.1.(2) and
// 4.1.(3) for every already-received proposal, then evaluates the prevote-
// quorum-for-first-time rule (line 34), then checks the future-round catch-up
// rule. The re-run comes first so that a prevote completing a quorum for a
// proposal moves the process to PreCommit before line 34 can clear
// AfterPrevoteForFirstTime.
func ReceivePrevote(cfg config.Config, s LocalState, m message.Prevote) (LocalState, []Output) {
	s = s.withPrevote(m)
	var outputs []Output

	for _, p := range s.ReceivedProposals {
		var outs []Output
		s, outs = rulePropose2(cfg, s, p)
		outputs = append(outputs, outs...)
		s, outs = rulePropose3(cfg, s, p)
		outputs = append(outputs, outs...)
	}

	if s.Stage == StagePreVote && s.AfterPrevoteForFirstTime {
		atRound := prevotesAtRound(s.ReceivedPrevotes, s.Round)
		if hasQuorum(cfg.F, distinctSources(prevoteSources(atRound))) {
			s.AfterPrevoteForFirstTime = false
			outputs = append(outputs, startTimeout(message.TimeoutEvent{Kind: message.PreVoteTimeout, Round: m.Rnd}))
			for _, pv := range atRound {
				outputs = append(outputs, collectEvidence(pv))
			}
		}
	}

	if r, ok := futureRoundCatchUp(cfg, s); ok {
		ns, outs := StartRound(cfg, s, r)
		s = ns
		outputs = append(outputs, outs...)
	}

	return s, outputs
}

// PrevoteQuorumForNilAtPrevoteStage is the prevote-quorum-for-nil-at-
// prevote-stage rule (line 44). It is intentionally not called from
// ReceivePrevote: preserved as an unwired rule.
func PrevoteQuorumForNilAtPrevoteStage(cfg config.Config, s LocalState, m message.Prevote) (LocalState, []Output) {
	if s.Stage != StagePreVote {
		return s, nil
	}
	contributing := prevotesAtRoundForID(s.ReceivedPrevotes, s.Round, message.NoID)
	if !hasQuorum(cfg.F, distinctSources(prevoteSources(contributing))) {
		return s, nil
	}
	ns := s
	ns.Stage = StagePreCommit
	pc := message.Precommit{Src: s.ID, Rnd: s.Round, ID: message.NoID}
	outs := []Output{broadcast(pc)}
	for _, pv := range contributing {
		outs = append(outs, collectEvidence(pv))
	}
	return ns, outs
}

// futureRoundCatchUp implements the future-round catch-up rule: when F+1
// distinct sources, counted across Propose/Prevote/Precommit messages
// together, are observed at a round strictly ahead of the current one, a
// correct process jumps directly to the earliest such round rather than
// waiting for its own timeouts to elapse one round at a time.
func futureRoundCatchUp(cfg config.Config, s LocalState) (message.Round, bool) {
	bySources := map[message.Round][]message.Node{}
	for _, p := range s.ReceivedProposals {
		if p.Rnd > s.Round {
			bySources[p.Rnd] = append(bySources[p.Rnd], p.Src)
		}
	}
	for _, p := range s.ReceivedPrevotes {
		if p.Rnd > s.Round {
			bySources[p.Rnd] = append(bySources[p.Rnd], p.Src)
		}
	}
	for _, p := range s.ReceivedPrecommits {
		if p.Rnd > s.Round {
			bySources[p.Rnd] = append(bySources[p.Rnd], p.Src)
		}
	}
	best := message.Round(-1)
	for r, srcs := range bySources {
		if distinctSources(srcs) < cfg.FaultTolerance() {
			continue
		}
		if best == -1 || r < best {
			best = r
		}
	}
	return best, best != message.InvalidRound
}

// ReceivePrecommit folds m into ReceivedPrecommits, evaluates the precommit-
// quorum-for-the-first-time rule (line 47), evaluates the decision rule
// (line 49) for every already-received proposal, then checks the
// future-round catch-up rule.
func ReceivePrecommit(cfg config.Config, s LocalState, m message.Precommit) (LocalState, []Output) {
	s = s.withPrecommit(m)
	var outputs []Output

	if !s.PrecommitQuorum {
		atRound := precommitsAtRound(s.ReceivedPrecommits, s.Round)
		if hasQuorum(cfg.F, distinctSources(precommitSources(atRound))) {
			s.PrecommitQuorum = true
			outputs = append(outputs, startTimeout(message.TimeoutEvent{Kind: message.PreCommitTimeout, Round: m.Rnd}))
			for _, pc := range atRound {
				outputs = append(outputs, collectEvidence(pc))
			}
		}
	}

	for _, p := range s.ReceivedProposals {
		var outs []Output
		s, outs = ruleDecision(cfg, s, p)
		outputs = append(outputs, outs...)
	}

	if r, ok := futureRoundCatchUp(cfg, s); ok {
		ns, outs := StartRound(cfg, s, r)
		s = ns
		outputs = append(outputs, outs...)
	}

	return s, outputs
}

// ruleDecision is the decision rule (line 49).
func ruleDecision(cfg config.Config, s LocalState, p message.Propose) (LocalState, []Output) {
	if p.Src != cfg.Proposer(p.Rnd) {
		return s, nil
	}
	if s.Decision.Ok {
		return s, nil
	}
	contributing := precommitsAtRoundForID(s.ReceivedPrecommits, p.Rnd, message.SomeID(message.ID(p.Proposal)))
	if !hasQuorum(cfg.F, distinctSources(precommitSources(contributing))) {
		return s, nil
	}
	if !cfg.Validator(p.Proposal) {
		return s, nil
	}
	ns := s
	ns.Decision = message.SomeValue(p.Proposal)
	ns.Stage = StageDecided
	outs := []Output{collectEvidence(p)}
	for _, pc := range contributing {
		outs = append(outs, collectEvidence(pc))
	}
	return ns, outs
}

// FireTimeoutEvent dispatches an expired timeout to its handler. A timeout
// this process did not expect returns state unchanged with no output.
func FireTimeoutEvent(cfg config.Config, s LocalState, t message.TimeoutEvent) (LocalState, []Output) {
	switch t.Kind {
	case message.ProposeTimeout:
		return fireProposeTimeout(s, t)
	case message.PreVoteTimeout:
		return firePrevoteTimeout(s, t)
	case message.PreCommitTimeout:
		return firePrecommitTimeout(cfg, s, t)
	default:
		return s, nil
	}
}

// fireProposeTimeout is the ProposeTimeout handler (line 55).
func fireProposeTimeout(s LocalState, t message.TimeoutEvent) (LocalState, []Output) {
	if s.Round != t.Round || s.Stage != StagePropose {
		return s, nil
	}
	ns := s
	ns.Stage = StagePreVote
	pv := message.Prevote{Src: s.ID, Rnd: s.Round, ID: message.NoID}
	return ns, []Output{broadcast(pv)}
}

// firePrevoteTimeout is the PreVoteTimeout handler (line 61).
func firePrevoteTimeout(s LocalState, t message.TimeoutEvent) (LocalState, []Output) {
	if s.Round != t.Round || s.Stage != StagePreVote {
		return s, nil
	}
	ns := s
	ns.Stage = StagePreCommit
	pc := message.Precommit{Src: s.ID, Rnd: s.Round, ID: message.NoID}
	return ns, []Output{broadcast(pc)}
}

// firePrecommitTimeout is the PreCommitTimeout handler (line 65). It has no
// stage guard: a precommit timeout advances the round regardless of stage.
func firePrecommitTimeout(cfg config.Config, s LocalState, t message.TimeoutEvent) (LocalState, []Output) {
	if s.Round != t.Round {
		return s, nil
	}
	return StartRound(cfg, s, s.Round+1)
}

// StartRound implements start_round(r): it does not clear
// after_prevote_for_first_time, the received sets, or the locked/valid
// fields. The round's proposer broadcasts immediately; every other process
// arms a ProposeTimeout.
func StartRound(cfg config.Config, s LocalState, r message.Round) (LocalState, []Output) {
	ns := s
	ns.Round = r
	ns.Stage = StagePropose
	ns.PrecommitQuorum = false

	if cfg.Proposer(r) != s.ID {
		return ns, []Output{startTimeout(message.TimeoutEvent{Kind: message.ProposeTimeout, Round: r})}
	}

	proposal := ns.ValidValue.Value
	if !ns.ValidValue.Ok {
		v, ok := cfg.Values(r)
		if !ok {
			panic("start_round: no value configured for round and no valid_value to reuse")
		}
		proposal = v
	}
	p := message.Propose{Src: s.ID, Rnd: r, Proposal: proposal, ValidRound: ns.ValidRound}
	return ns, []Output{broadcast(p)}
}
