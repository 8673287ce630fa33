package scenario

import (
	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/message"
)

// The four process names and three values used by every literal end-to-end
// scenario in this module's test suites.
const (
	P1 message.Node = "p1"
	P2 message.Node = "p2"
	P3 message.Node = "p3"
	P4 message.Node = "p4"

	V0 message.Value = "v0"
	V1 message.Value = "v1"
	V2 message.Value = "v2"
)

// alwaysValid is the Validator used by every literal scenario: without a
// real application-value predicate (out of scope), every value proposed is
// treated as valid.
func alwaysValid(message.Value) bool { return true }

// StandardConfig is the F=1, CORRECT={p1,p2,p3}, FAULTY={p4} configuration,
// with PROPOSER = {0->p1, 1->p2, 2->p3, 3->p4, 4->p1} and
// VALUES = {0->v0, 1->v1, 2->v0, 3->v2, 4->v0}.
func StandardConfig() config.Config {
	proposer := config.TableProposer(map[message.Round]message.Node{
		0: P1, 1: P2, 2: P3, 3: P4, 4: P1,
	})
	values := config.TableValues(map[message.Round]message.Value{
		0: V0, 1: V1, 2: V0, 3: V2, 4: V0,
	})
	return config.Config{
		F:         1,
		Correct:   []message.Node{P1, P2, P3},
		Faulty:    []message.Node{P4},
		Proposer:  proposer,
		Values:    values,
		Validator: alwaysValid,
	}
}

// StandardNodes returns p1..p4 in canonical order.
func StandardNodes() []message.Node {
	return []message.Node{P1, P2, P3, P4}
}

// StandardRounds returns the key set of StandardConfig's VALUES table.
func StandardRounds() []message.Round {
	return []message.Round{0, 1, 2, 3, 4}
}

// DisagreementConfig is the F=1, CORRECT={p1,p2}, FAULTY={p3,p4},
// PROPOSER(0)=p3 configuration used by the disagreement-under->1/3-faulty
// scenario. Its two proposals (v0 to p1, v1 to p2) are delivered directly as
// Byzantine messages rather than through VALUES, since VALUES fixes one
// value per round.
func DisagreementConfig() config.Config {
	proposer := config.TableProposer(map[message.Round]message.Node{0: P3})
	values := config.TableValues(map[message.Round]message.Value{0: V0})
	return config.Config{
		F:         1,
		Correct:   []message.Node{P1, P2},
		Faulty:    []message.Node{P3, P4},
		Proposer:  proposer,
		Values:    values,
		Validator: alwaysValid,
	}
}

// DisagreementNodes returns p1..p4 in canonical order for DisagreementConfig.
func DisagreementNodes() []message.Node {
	return []message.Node{P1, P2, P3, P4}
}
