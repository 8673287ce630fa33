// Package message defines the wire vocabulary of the Tendermint model: the
// three message kinds exchanged by processes, timeout events, and the value
// universe they vote on. Hashing is modelled as the identity function, so a
// Value and its ValueID are the same representation.
package message

import "fmt"

// A Node is the opaque name of a process. It carries no cryptographic
// meaning; equality is name equality.
type Node string

// A Round is a non-negative integer. InvalidRound is the "no round"
// sentinel used by locked_round and valid_round.
type Round int64

// InvalidRound denotes the absence of a round.
const InvalidRound Round = -1

// A Value is an opaque symbol proposed for consensus.
type Value string

// A ValueID is an injective abstraction of a Value. Since cryptographic
// hashing is out of scope, the abstraction is the identity function.
type ValueID = Value

// ID returns the abstract identifier of v.
func ID(v Value) ValueID { return ValueID(v) }

// OptValue is an optional Value, used for decision/locked/valid fields.
type OptValue struct {
	Ok    bool
	Value Value
}

// SomeValue wraps v as a present OptValue.
func SomeValue(v Value) OptValue { return OptValue{Ok: true, Value: v} }

// NoValue is the absent OptValue.
var NoValue = OptValue{}

// Equal reports whether two OptValues carry the same presence and value.
func (o OptValue) Equal(other OptValue) bool {
	return o.Ok == other.Ok && (!o.Ok || o.Value == other.Value)
}

func (o OptValue) String() string {
	if !o.Ok {
		return "<nil>"
	}
	return string(o.Value)
}

// OptValueID is an optional ValueID, carried by Prevote and Precommit.
type OptValueID struct {
	Ok bool
	ID ValueID
}

// SomeID wraps id as a present OptValueID.
func SomeID(id ValueID) OptValueID { return OptValueID{Ok: true, ID: id} }

// NoID is the absent OptValueID (the "nil" vote).
var NoID = OptValueID{}

// Equal reports whether two OptValueIDs carry the same presence and id.
func (o OptValueID) Equal(other OptValueID) bool {
	return o.Ok == other.Ok && (!o.Ok || o.ID == other.ID)
}

func (o OptValueID) String() string {
	if !o.Ok {
		return "<nil>"
	}
	return string(o.ID)
}

// Kind distinguishes the three message variants.
type Kind uint8

// The three message kinds.
const (
	KindPropose Kind = iota
	KindPrevote
	KindPrecommit
)

func (k Kind) String() string {
	switch k {
	case KindPropose:
		return "Propose"
	case KindPrevote:
		return "Prevote"
	case KindPrecommit:
		return "Precommit"
	default:
		return "Unknown"
	}
}

// A Message is one of Propose, Prevote or Precommit. The concrete types are
// comparable structs, so Messages (stored behind this interface) support ==
// and can be de-duplicated without a hashing step.
type Message interface {
	isMessage()
	Source() Node
	Round() Round
	Kind() Kind
}

// Propose carries a proposed Value for a round, together with the round in
// which the proposer believes the value became valid (or InvalidRound if it
// is a fresh proposal).
type Propose struct {
	Src        Node
	Rnd        Round
	Proposal   Value
	ValidRound Round
}

func (Propose) isMessage()     {}
func (p Propose) Source() Node { return p.Src }
func (p Propose) Round() Round { return p.Rnd }
func (p Propose) Kind() Kind   { return KindPropose }
func (p Propose) String() string {
	return fmt.Sprintf("Propose{src=%v,round=%v,value=%v,validRound=%v}", p.Src, p.Rnd, p.Proposal, p.ValidRound)
}

// Prevote is a vote for (or against, via NoID) a ValueID in a round.
type Prevote struct {
	Src Node
	Rnd Round
	ID  OptValueID
}

func (Prevote) isMessage()     {}
func (p Prevote) Source() Node { return p.Src }
func (p Prevote) Round() Round { return p.Rnd }
func (p Prevote) Kind() Kind   { return KindPrevote }
func (p Prevote) String() string {
	return fmt.Sprintf("Prevote{src=%v,round=%v,id=%v}", p.Src, p.Rnd, p.ID)
}

// Precommit is a commit vote for (or against, via NoID) a ValueID in a round.
type Precommit struct {
	Src Node
	Rnd Round
	ID  OptValueID
}

func (Precommit) isMessage()     {}
func (p Precommit) Source() Node { return p.Src }
func (p Precommit) Round() Round { return p.Rnd }
func (p Precommit) Kind() Kind   { return KindPrecommit }
func (p Precommit) String() string {
	return fmt.Sprintf("Precommit{src=%v,round=%v,id=%v}", p.Src, p.Rnd, p.ID)
}

// TimeoutKind distinguishes the three timeout events.
type TimeoutKind uint8

// The three timeout kinds, ordered Propose < PreVote < PreCommit, the
// ordering compared by the timeout replacement policy (Logic.ShouldReplace in
// package tendermint, which package harness calls as its ShouldReplace hook).
const (
	ProposeTimeout TimeoutKind = iota
	PreVoteTimeout
	PreCommitTimeout
)

func (k TimeoutKind) String() string {
	switch k {
	case ProposeTimeout:
		return "ProposeTimeout"
	case PreVoteTimeout:
		return "PreVoteTimeout"
	case PreCommitTimeout:
		return "PreCommitTimeout"
	default:
		return "UnknownTimeout"
	}
}

// A TimeoutEvent is at most one per process at any time.
type TimeoutEvent struct {
	Kind  TimeoutKind
	Round Round
}

func (t TimeoutEvent) String() string {
	return fmt.Sprintf("Timeout{kind=%v,round=%v}", t.Kind, t.Round)
}
