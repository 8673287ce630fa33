// Package scenario wires package tendermint, package harness, and package
// accountability together into one concrete Harness instantiation, and
// provides the deterministic named actions used to script regression tests
// against it: receive_proposal_from, receive_prevote_from,
// receive_precommit_from, receive_byzantine, expire_timeout.
//
// Grounded on hyperdrive_test.go's ginkgo/gomega scaffolding, which builds a
// fixed set of replicas and a mockDispatcher and then scripts message
// delivery by hand; generalized here into named, reusable helpers instead of
// one-off test-local closures.
package scenario

import (
	"fmt"

	"github.com/renproject/tendersim/accountability"
	"github.com/renproject/tendersim/byzantine"
	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/harness"
	"github.com/renproject/tendersim/message"
	"github.com/renproject/tendersim/output"
	"github.com/renproject/tendersim/tendermint"
)

// H is the concrete Harness instantiation shared by every scenario and test
// in this module.
type H = harness.Harness[message.Node, tendermint.LocalState, message.Message, message.TimeoutEvent, accountability.Bookkeeping]

// New builds a Harness wired to package tendermint's transitions and package
// accountability's evidence folding, with the single initial Propose fanned
// out to every node's buffer.
func New(cfg config.Config, nodes []message.Node, byzantineMessages []message.Message, timeoutChance int, oracle *harness.Oracle) *H {
	logic := tendermint.NewLogic(cfg, nil)
	hooks := harness.Hooks[tendermint.LocalState, message.Message, message.TimeoutEvent]{
		ReceiveMessage:   logic.ReceiveMessage,
		FireTimeoutEvent: logic.FireTimeoutEvent,
		ShouldReplace:    logic.ShouldReplace,
	}
	initial := []message.Message{logic.InitialMessage()}
	fold := func(bk accountability.Bookkeeping, outs []output.Output) accountability.Bookkeeping {
		return accountability.FoldBookkeeping(cfg, bk, outs)
	}
	return harness.Init[message.Node, tendermint.LocalState, message.Message, message.TimeoutEvent, accountability.Bookkeeping](
		nodes, hooks, fold, logic.Init, initial, accountability.Bookkeeping{}, byzantineMessages, timeoutChance, oracle,
	)
}

// ByzantineCandidates enumerates the Byzantine message set for cfg, for use
// as New's byzantineMessages argument.
func ByzantineCandidates(cfg config.Config, rounds, observedRounds []message.Round) []message.Message {
	return byzantine.Generate(cfg, rounds, observedRounds)
}

func receiveUnique(h *H, n message.Node, describe string, match func(message.Message) bool) error {
	buf := h.Buffer(n)
	var found []message.Message
	for _, m := range buf {
		if match(m) {
			found = append(found, m)
		}
	}
	if len(found) != 1 {
		return fmt.Errorf("scenario: expected exactly one %s pending for %v, found %d", describe, n, len(found))
	}
	return h.Consume(n, found[0])
}

// ReceiveProposalFrom delivers to n the unique pending Propose from src.
func ReceiveProposalFrom(h *H, n, src message.Node) error {
	return receiveUnique(h, n, "proposal", func(m message.Message) bool {
		p, ok := m.(message.Propose)
		return ok && p.Src == src
	})
}

// ReceivePrevoteFrom delivers to n the unique pending Prevote from src.
func ReceivePrevoteFrom(h *H, n, src message.Node) error {
	return receiveUnique(h, n, "prevote", func(m message.Message) bool {
		p, ok := m.(message.Prevote)
		return ok && p.Src == src
	})
}

// ReceivePrecommitFrom delivers to n the unique pending Precommit from src.
func ReceivePrecommitFrom(h *H, n, src message.Node) error {
	return receiveUnique(h, n, "precommit", func(m message.Message) bool {
		p, ok := m.(message.Precommit)
		return ok && p.Src == src
	})
}

// ReceiveByzantine delivers msg to n directly, bypassing the buffer.
func ReceiveByzantine(h *H, n message.Node, msg message.Message) error {
	h.DeliverByzantine(n, msg)
	return nil
}

// ExpireTimeout fires n's single active timeout. It is an error for n to
// have no active timeout.
func ExpireTimeout(h *H, n message.Node) error {
	if _, ok := h.ActiveTimeout(n); !ok {
		return fmt.Errorf("scenario: no active timeout for %v", n)
	}
	return h.Fire(n)
}
