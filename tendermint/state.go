// Package tendermint implements the per-process Tendermint consensus logic:
// the eleven "upon" rules and three timeout handlers described for a single
// height, as a set of pure transitions over LocalState. It is grounded on
// the teacher's process.Process (handlePropose/handlePrevote/handlePrecommit,
// timeoutPropose/timeoutPrevote/timeoutPrecommit, startRound), generalized
// from block.Block/id.Signatory to the abstract message.Value/message.Node
// model used here.
package tendermint

import (
	"fmt"

	"github.com/renproject/tendersim/message"
)

// Stage is one of the four phases a process passes through in a round.
// Grounded on process.Step (Propose/Prevote/Precommit/Commit), renamed to
// match this model's Decided terminal stage.
type Stage uint8

// The four stages.
const (
	StagePropose Stage = iota
	StagePreVote
	StagePreCommit
	StageDecided
)

func (s Stage) String() string {
	switch s {
	case StagePropose:
		return "Propose"
	case StagePreVote:
		return "PreVote"
	case StagePreCommit:
		return "PreCommit"
	case StageDecided:
		return "Decided"
	default:
		return "Unknown"
	}
}

// LocalState is the per-process view of a single-height consensus run.
// Grounded on process.State, trimmed of height/block-hash fields (this model
// has no multi-height chaining) and extended with after_prevote_for_first_time
// and precommit_quorum, the two latches the distilled "upon" rules depend on.
type LocalState struct {
	ID    message.Node
	Round message.Round
	Stage Stage

	Decision    message.OptValue
	LockedValue message.OptValue
	LockedRound message.Round
	ValidValue  message.OptValue
	ValidRound  message.Round

	ReceivedProposals  []message.Propose
	ReceivedPrevotes   []message.Prevote
	ReceivedPrecommits []message.Precommit

	AfterPrevoteForFirstTime bool
	PrecommitQuorum          bool
}

// InitLocalState builds the LocalState a process holds before any step runs.
// No start_round(0) output is emitted for it; per the model, the defaults
// below already correspond to the post-start_round(0) non-proposer state.
func InitLocalState(id message.Node) LocalState {
	return LocalState{
		ID:          id,
		Round:       0,
		Stage:       StagePropose,
		Decision:    message.NoValue,
		LockedValue: message.NoValue,
		LockedRound: message.InvalidRound,
		ValidValue:  message.NoValue,
		ValidRound:  message.InvalidRound,
	}
}

func (s LocalState) String() string {
	return fmt.Sprintf(
		"LocalState{id=%v,round=%v,stage=%v,decision=%v,locked=%v@%v,valid=%v@%v}",
		s.ID, s.Round, s.Stage, s.Decision, s.LockedValue, s.LockedRound, s.ValidValue, s.ValidRound,
	)
}

// withProposal returns a copy of s with p appended to ReceivedProposals, or s
// unchanged if p (by value) is already present. ReceivedProposals is a set:
// insert-only, idempotent.
func (s LocalState) withProposal(p message.Propose) LocalState {
	for _, existing := range s.ReceivedProposals {
		if existing == p {
			return s
		}
	}
	next := s
	next.ReceivedProposals = append(append([]message.Propose{}, s.ReceivedProposals...), p)
	return next
}

func (s LocalState) withPrevote(p message.Prevote) LocalState {
	for _, existing := range s.ReceivedPrevotes {
		if existing == p {
			return s
		}
	}
	next := s
	next.ReceivedPrevotes = append(append([]message.Prevote{}, s.ReceivedPrevotes...), p)
	return next
}

func (s LocalState) withPrecommit(p message.Precommit) LocalState {
	for _, existing := range s.ReceivedPrecommits {
		if existing == p {
			return s
		}
	}
	next := s
	next.ReceivedPrecommits = append(append([]message.Precommit{}, s.ReceivedPrecommits...), p)
	return next
}
