package harness

import (
	"errors"
	"fmt"

	"github.com/renproject/tendersim/output"
)

// Hooks are the three pure functions a consensus logic supplies to the CSMI:
// receive_message, fire_timeout_event, and the should_replace timeout
// policy. apply_effect itself is split between the harness (Broadcast and
// StartTimeout, which are logic-agnostic environment mutations) and Fold
// (CollectEvidence/Breakpoint, which a logic-specific bookkeeping type must
// interpret) — see Harness.Fold below.
type Hooks[S any, M any, T any] struct {
	ReceiveMessage   func(S, M) (S, []output.Output)
	FireTimeoutEvent func(S, T) (S, []output.Output)
	ShouldReplace    func(old, new T) bool
}

// Harness is the reusable Consensus State Machine Interface: it owns the
// environment, dispatches exactly one message or one timeout per step, and
// applies outputs. Generic over process id (N), per-process state (S),
// message (M), timeout-event payload (T), and bookkeeping (B) — the five
// abstract types named for CSMI polymorphism.
//
// Grounded on replica.Replica (the teacher's own "drive one consensus
// instance from an external event loop" component) and on
// hyperdrive_test.go's mockDispatcher, generalized from one concrete
// Signatory/Action pairing to arbitrary instantiations.
type Harness[N comparable, S any, M comparable, T any, B any] struct {
	Hooks         Hooks[S, M, T]
	Fold          func(B, []output.Output) B
	Env           Environment[N, S, M, T]
	Bookkeeping   B
	Byzantine     []M
	TimeoutChance int
	Oracle        *Oracle
}

// Init builds a Harness whose environment holds, for every process in
// nodes, the state produced by initProcess and a buffer pre-loaded with
// initialMessages. No timeouts are active at init.
func Init[N comparable, S any, M comparable, T any, B any](
	nodes []N,
	hooks Hooks[S, M, T],
	fold func(B, []output.Output) B,
	initProcess func(N) S,
	initialMessages []M,
	initialBookkeeping B,
	byzantine []M,
	timeoutChance int,
	oracle *Oracle,
) *Harness[N, S, M, T, B] {
	env := newEnvironment[N, S, M, T](nodes)
	for _, n := range nodes {
		env.States[n] = initProcess(n)
		buf := make([]M, 0, len(initialMessages))
		for _, m := range initialMessages {
			buf = insertUnique(buf, m)
		}
		env.Buffers[n] = buf
	}
	return &Harness[N, S, M, T, B]{
		Hooks:         hooks,
		Fold:          fold,
		Env:           env,
		Bookkeeping:   initialBookkeeping,
		Byzantine:     append([]M{}, byzantine...),
		TimeoutChance: timeoutChance,
		Oracle:        oracle,
	}
}

// State returns the current LocalState of v.
func (h *Harness[N, S, M, T, B]) State(v N) S {
	return h.Env.States[v]
}

// ActiveTimeout reports the timeout currently armed for v, if any.
func (h *Harness[N, S, M, T, B]) ActiveTimeout(v N) (T, bool) {
	ot := h.Env.Timeouts[v]
	return ot.Timeout, ot.Ok
}

// Buffer returns v's pending inbound messages.
func (h *Harness[N, S, M, T, B]) Buffer(v N) []M {
	return append([]M{}, h.Env.Buffers[v]...)
}

// Consume delivers msg to v: msg must be present in v's buffer. It is
// removed from the buffer, the transition is run, and its outputs applied.
func (h *Harness[N, S, M, T, B]) Consume(v N, msg M) error {
	buf := h.Env.Buffers[v]
	idx := -1
	for i, m := range buf {
		if m == msg {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("harness: message %v not in buffer for %v", msg, v)
	}
	next := make([]M, 0, len(buf)-1)
	next = append(next, buf[:idx]...)
	next = append(next, buf[idx+1:]...)
	h.Env.Buffers[v] = next

	state, outs := h.Hooks.ReceiveMessage(h.Env.States[v], msg)
	h.Env.States[v] = state
	h.apply(v, outs)
	return nil
}

// Fire expires v's active timeout: it must have exactly one.
func (h *Harness[N, S, M, T, B]) Fire(v N) error {
	ot := h.Env.Timeouts[v]
	if !ot.Ok {
		return fmt.Errorf("harness: no active timeout for %v", v)
	}
	h.Env.Timeouts[v] = optTimeout[T]{}

	state, outs := h.Hooks.FireTimeoutEvent(h.Env.States[v], ot.Timeout)
	h.Env.States[v] = state
	h.apply(v, outs)
	return nil
}

// DeliverByzantine applies msg to v directly, bypassing the buffer
// precondition entirely, per the Byzantine branch's "deliver it directly"
// semantics.
func (h *Harness[N, S, M, T, B]) DeliverByzantine(v N, msg M) {
	state, outs := h.Hooks.ReceiveMessage(h.Env.States[v], msg)
	h.Env.States[v] = state
	h.apply(v, outs)
}

// apply folds outs into the bookkeeping and, for Broadcast/StartTimeout,
// mutates the environment. v is the process whose transition produced outs:
// StartTimeout always arms a timeout for v, never for another process.
func (h *Harness[N, S, M, T, B]) apply(v N, outs []output.Output) {
	h.Bookkeeping = h.Fold(h.Bookkeeping, outs)
	for _, out := range outs {
		switch o := out.(type) {
		case output.Broadcast[M]:
			for _, n := range h.Env.Nodes {
				h.Env.Buffers[n] = insertUnique(h.Env.Buffers[n], o.Message)
			}
		case output.StartTimeout[T]:
			h.armTimeout(v, o.Timeout)
		}
	}
}

// armTimeout applies the should_replace policy when a timeout is already
// active for v, else arms newTimeout unconditionally.
func (h *Harness[N, S, M, T, B]) armTimeout(v N, newTimeout T) {
	existing := h.Env.Timeouts[v]
	if !existing.Ok {
		h.Env.Timeouts[v] = optTimeout[T]{Ok: true, Timeout: newTimeout}
		return
	}
	if h.Hooks.ShouldReplace(existing.Timeout, newTimeout) {
		h.Env.Timeouts[v] = optTimeout[T]{Ok: true, Timeout: newTimeout}
	}
}

func (h *Harness[N, S, M, T, B]) nodesWithActiveTimeout() []N {
	var out []N
	for _, n := range h.Env.Nodes {
		if h.Env.Timeouts[n].Ok {
			out = append(out, n)
		}
	}
	return out
}

func (h *Harness[N, S, M, T, B]) nodesWithPendingMessage() []N {
	var out []N
	for _, n := range h.Env.Nodes {
		if len(h.Env.Buffers[n]) > 0 {
			out = append(out, n)
		}
	}
	return out
}

// Step performs one interleaved CSMI step: it nondeterministically picks
// exactly one of the three enabled branches (timeout, message, Byzantine)
// and executes it.
func (h *Harness[N, S, M, T, B]) Step() error {
	timeoutEnabled := len(h.nodesWithActiveTimeout()) > 0 && h.Oracle.Chance(h.TimeoutChance)
	messageEnabled := len(h.nodesWithPendingMessage()) > 0
	byzantineEnabled := len(h.Byzantine) > 0

	var branches []int
	if timeoutEnabled {
		branches = append(branches, 0)
	}
	if messageEnabled {
		branches = append(branches, 1)
	}
	if byzantineEnabled {
		branches = append(branches, 2)
	}
	if len(branches) == 0 {
		return errors.New("harness: no enabled branch")
	}
	switch branches[h.Oracle.Pick(len(branches))] {
	case 0:
		return h.fireRandomTimeout()
	case 1:
		return h.consumeRandomMessage()
	default:
		return h.injectRandomByzantine()
	}
}

// StepNoTimeout is the message branch alone.
func (h *Harness[N, S, M, T, B]) StepNoTimeout() error {
	return h.consumeRandomMessage()
}

// StepAccelerated is Step without the Byzantine branch.
func (h *Harness[N, S, M, T, B]) StepAccelerated() error {
	timeoutEnabled := len(h.nodesWithActiveTimeout()) > 0 && h.Oracle.Chance(h.TimeoutChance)
	messageEnabled := len(h.nodesWithPendingMessage()) > 0

	var branches []int
	if timeoutEnabled {
		branches = append(branches, 0)
	}
	if messageEnabled {
		branches = append(branches, 1)
	}
	if len(branches) == 0 {
		return errors.New("harness: no enabled branch")
	}
	if branches[h.Oracle.Pick(len(branches))] == 0 {
		return h.fireRandomTimeout()
	}
	return h.consumeRandomMessage()
}

func (h *Harness[N, S, M, T, B]) fireRandomTimeout() error {
	candidates := h.nodesWithActiveTimeout()
	if len(candidates) == 0 {
		return errors.New("harness: no active timeout")
	}
	return h.Fire(candidates[h.Oracle.Pick(len(candidates))])
}

func (h *Harness[N, S, M, T, B]) consumeRandomMessage() error {
	candidates := h.nodesWithPendingMessage()
	if len(candidates) == 0 {
		return errors.New("harness: no pending message")
	}
	v := candidates[h.Oracle.Pick(len(candidates))]
	buf := h.Env.Buffers[v]
	msg := buf[h.Oracle.Pick(len(buf))]
	return h.Consume(v, msg)
}

func (h *Harness[N, S, M, T, B]) injectRandomByzantine() error {
	if len(h.Byzantine) == 0 {
		return errors.New("harness: no byzantine candidates")
	}
	if len(h.Env.Nodes) == 0 {
		return errors.New("harness: no recipients")
	}
	msg := h.Byzantine[h.Oracle.Pick(len(h.Byzantine))]
	v := h.Env.Nodes[h.Oracle.Pick(len(h.Env.Nodes))]
	h.DeliverByzantine(v, msg)
	return nil
}

// ReceiveBatchAccelerated nondeterministically chooses a subset of one
// process's buffered messages and delivers them in sequence as one action.
func (h *Harness[N, S, M, T, B]) ReceiveBatchAccelerated() error {
	candidates := h.nodesWithPendingMessage()
	if len(candidates) == 0 {
		return errors.New("harness: no pending message")
	}
	v := candidates[h.Oracle.Pick(len(candidates))]
	buf := append([]M{}, h.Env.Buffers[v]...)
	for _, i := range h.Oracle.Subset(len(buf)) {
		if err := h.Consume(v, buf[i]); err != nil {
			return err
		}
	}
	return nil
}

// FireBatchAccelerated fires timeouts for a nondeterministically chosen
// non-empty subset of processes that currently have one active.
func (h *Harness[N, S, M, T, B]) FireBatchAccelerated() error {
	candidates := h.nodesWithActiveTimeout()
	if len(candidates) == 0 {
		return errors.New("harness: no active timeout")
	}
	for _, i := range h.Oracle.NonEmptySubset(len(candidates)) {
		if err := h.Fire(candidates[i]); err != nil {
			return err
		}
	}
	return nil
}
