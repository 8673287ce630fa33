// Package config defines the per-run configuration surface consumed by both
// package tendermint (the consensus logic) and package byzantine (the
// faulty-message generator): the node partition, the fault bound F, and the
// proposer/value schedules.
//
// This mirrors the teacher's split between process.Process (which is handed
// a Blockchain/Validator/Proposer/Scheduler at construction) and
// scheduler.RoundRobin (one concrete Schedule implementation) — generalized
// here to the abstract Value/Round model instead of block.Block/block.Height,
// since cryptographic blocks and multi-height chaining are out of scope.
package config

import "github.com/renproject/tendersim/message"

// Validator decides whether a Value is acceptable. It stands in for the
// external application-value validity predicate named in the spec's scope
// as an out-of-scope collaborator; only its interface is fixed here.
type Validator func(message.Value) bool

// Proposer returns the Node expected to propose at the given round. It must
// be total over every round that can be reached in a run, deterministic, and
// agreed upon by every process without communication.
type Proposer func(message.Round) message.Node

// Values returns the Value fixed for a given round and reports whether the
// round is in ROUNDS (the key set the configuration actually defines). A
// round outside ROUNDS has no fixed value; start_round must not be invoked
// for such a round by a correct proposer.
type Values func(message.Round) (message.Value, bool)

// Config bundles the fixed parameters of one run: the fault bound, the node
// partition, and the deterministic proposer/value/validity functions.
type Config struct {
	F         int
	Correct   []message.Node
	Faulty    []message.Node
	Proposer  Proposer
	Values    Values
	Validator Validator
}

// Quorum is the number of distinct sources required for a Tendermint
// quorum: 2F+1.
func (c Config) Quorum() int {
	return 2*c.F + 1
}

// FaultTolerance is the F+1 threshold of the f+1 rules: the number of
// distinct sources that triggers future-round catch-up or a nil-prevote
// quorum count, and the number of caught faulty nodes that satisfies the
// accountability check.
func (c Config) FaultTolerance() int {
	return c.F + 1
}

// Rounds returns the key set of Values observed by probing every round in
// [0, maxRound]. Callers that already know the configuration's round table
// should prefer to keep their own ROUNDS set; this helper is for callers
// that only have a Values function in hand (byzantine.Generate takes ROUNDS
// as an argument and does not call it).
func Rounds(values Values, maxRound message.Round) []message.Round {
	rounds := make([]message.Round, 0, maxRound+1)
	for r := message.Round(0); r <= maxRound; r++ {
		if _, ok := values(r); ok {
			rounds = append(rounds, r)
		}
	}
	return rounds
}

// RoundRobinProposer builds a Proposer that cycles through nodes in order,
// indexed by round modulo the size of nodes. Grounded on
// scheduler.RoundRobin's "Schedule" — adapted from (height, round) over
// id.Signatory to round-only over message.Node, since this model has no
// notion of height.
func RoundRobinProposer(nodes []message.Node) Proposer {
	copied := make([]message.Node, len(nodes))
	copy(copied, nodes)
	return func(round message.Round) message.Node {
		if len(copied) == 0 {
			panic("round-robin proposer: no nodes to schedule")
		}
		if round < 0 {
			panic("round-robin proposer: invalid round")
		}
		return copied[int64(round)%int64(len(copied))]
	}
}

// TableValues builds a Values function from an explicit, finite map. This is
// the form used by every literal scenario configuration in the spec.
func TableValues(table map[message.Round]message.Value) Values {
	copied := make(map[message.Round]message.Value, len(table))
	for r, v := range table {
		copied[r] = v
	}
	return func(round message.Round) (message.Value, bool) {
		v, ok := copied[round]
		return v, ok
	}
}

// TableProposer builds a Proposer from an explicit, finite map. Looking up a
// round outside the table panics, matching Proposer's "must be total over
// every round that can be reached" contract violation loudly rather than
// silently electing a zero-value Node.
func TableProposer(table map[message.Round]message.Node) Proposer {
	copied := make(map[message.Round]message.Node, len(table))
	for r, n := range table {
		copied[r] = n
	}
	return func(round message.Round) message.Node {
		n, ok := copied[round]
		if !ok {
			panic("table proposer: no proposer configured for round")
		}
		return n
	}
}

// ValidValues reports the set of values a correct proposer could have
// produced: { VALUES(r) | PROPOSER(r) in CORRECT }. Grounded directly on
// spec.md's definition of the valid-value set.
func ValidValues(cfg Config, maxRound message.Round) map[message.Value]bool {
	correct := make(map[message.Node]bool, len(cfg.Correct))
	for _, n := range cfg.Correct {
		correct[n] = true
	}
	valid := map[message.Value]bool{}
	for r := message.Round(0); r <= maxRound; r++ {
		v, ok := cfg.Values(r)
		if !ok {
			continue
		}
		if correct[cfg.Proposer(r)] {
			valid[v] = true
		}
	}
	return valid
}
