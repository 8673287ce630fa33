package accountability_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/renproject/tendersim/accountability"
	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/message"
	"github.com/renproject/tendersim/output"
	"github.com/renproject/tendersim/tendermint"
)

func decided(id message.Node, v message.Value) tendermint.LocalState {
	s := tendermint.InitLocalState(id)
	s.Decision = message.SomeValue(v)
	s.Stage = tendermint.StageDecided
	return s
}

var _ = Describe("Agreement", func() {
	It("should hold when no correct process has decided", func() {
		Expect(accountability.Agreement([]tendermint.LocalState{
			tendermint.InitLocalState("p1"),
			tendermint.InitLocalState("p2"),
		})).To(BeTrue())
	})

	It("should hold when every decided process agrees", func() {
		Expect(accountability.Agreement([]tendermint.LocalState{
			decided("p1", "v0"),
			decided("p2", "v0"),
		})).To(BeTrue())
	})

	It("should fail when two processes decide differently", func() {
		Expect(accountability.Agreement([]tendermint.LocalState{
			decided("p1", "v0"),
			decided("p2", "v1"),
		})).To(BeFalse())
	})
})

var _ = Describe("Validity", func() {
	It("should hold when every decision is in the valid set", func() {
		valid := map[message.Value]bool{"v0": true}
		Expect(accountability.Validity([]tendermint.LocalState{decided("p1", "v0")}, valid)).To(BeTrue())
	})

	It("should fail when a decision is outside the valid set", func() {
		valid := map[message.Value]bool{"v0": true}
		Expect(accountability.Validity([]tendermint.LocalState{decided("p1", "v1")}, valid)).To(BeFalse())
	})
})

var _ = Describe("EquivocationBy", func() {
	It("should detect two distinct prevotes from the same source and round", func() {
		bk := accountability.Bookkeeping{
			EvidencePrevotes: []message.Prevote{
				{Src: "p4", Rnd: 0, ID: message.SomeID("v0")},
				{Src: "p4", Rnd: 0, ID: message.SomeID("v1")},
			},
		}
		Expect(accountability.EquivocationBy(bk, "p4")).To(BeTrue())
	})

	It("should not flag a single message", func() {
		bk := accountability.Bookkeeping{
			EvidencePrevotes: []message.Prevote{
				{Src: "p4", Rnd: 0, ID: message.SomeID("v0")},
			},
		}
		Expect(accountability.EquivocationBy(bk, "p4")).To(BeFalse())
	})
})

var _ = Describe("AmnesiaBy", func() {
	cfg := config.Config{F: 1}

	It("should detect a later proposal for a distinct value covered by a prevote quorum at every intermediate round", func() {
		bk := accountability.Bookkeeping{
			EvidenceProposals: []message.Propose{
				{Src: "p4", Rnd: 0, Proposal: "v0", ValidRound: 0},
				{Src: "p4", Rnd: 2, Proposal: "v1", ValidRound: 2},
			},
			EvidencePrevotes: []message.Prevote{
				{Src: "p1", Rnd: 0, ID: message.SomeID("v1")},
				{Src: "p2", Rnd: 0, ID: message.SomeID("v1")},
				{Src: "p3", Rnd: 0, ID: message.SomeID("v1")},
				{Src: "p1", Rnd: 1, ID: message.SomeID("v1")},
				{Src: "p2", Rnd: 1, ID: message.SomeID("v1")},
				{Src: "p3", Rnd: 1, ID: message.SomeID("v1")},
			},
		}
		Expect(accountability.AmnesiaBy(cfg, bk, "p4")).To(BeTrue())
	})

	It("should not flag when the quorum gap is not fully covered", func() {
		bk := accountability.Bookkeeping{
			EvidenceProposals: []message.Propose{
				{Src: "p4", Rnd: 0, Proposal: "v0", ValidRound: 0},
				{Src: "p4", Rnd: 2, Proposal: "v1", ValidRound: 2},
			},
			EvidencePrevotes: []message.Prevote{
				{Src: "p1", Rnd: 0, ID: message.SomeID("v1")},
				{Src: "p2", Rnd: 0, ID: message.SomeID("v1")},
			},
		}
		Expect(accountability.AmnesiaBy(cfg, bk, "p4")).To(BeFalse())
	})
})

var _ = Describe("FoldBookkeeping", func() {
	cfg := config.Config{F: 1}

	It("should collect evidence and latch the breakpoint flag", func() {
		bk := accountability.Bookkeeping{}
		outs := []output.Output{
			output.CollectEvidence[message.Message]{Message: message.Propose{Src: "p1", Rnd: 0, Proposal: "v0", ValidRound: message.InvalidRound}},
			output.Breakpoint{},
		}
		bk = accountability.FoldBookkeeping(cfg, bk, outs)
		Expect(bk.EvidenceProposals).To(HaveLen(1))
		Expect(bk.Breakpoint).To(BeTrue())
	})

	It("should not duplicate the same evidence message twice", func() {
		bk := accountability.Bookkeeping{}
		p := message.Propose{Src: "p1", Rnd: 0, Proposal: "v0", ValidRound: message.InvalidRound}
		bk = accountability.FoldBookkeeping(cfg, bk, []output.Output{output.CollectEvidence[message.Message]{Message: p}})
		bk = accountability.FoldBookkeeping(cfg, bk, []output.Output{output.CollectEvidence[message.Message]{Message: p}})
		Expect(bk.EvidenceProposals).To(HaveLen(1))
	})

	It("should count a round once f+1 distinct sources are on file with a nil Prevote", func() {
		bk := accountability.Bookkeeping{}
		outs := []output.Output{
			output.CollectEvidence[message.Message]{Message: message.Prevote{Src: "p1", Rnd: 0, ID: message.NoID}},
		}
		bk = accountability.FoldBookkeeping(cfg, bk, outs)
		Expect(bk.NilPrevoteQuorum).To(Equal(0))

		bk = accountability.FoldBookkeeping(cfg, bk, []output.Output{
			output.CollectEvidence[message.Message]{Message: message.Prevote{Src: "p2", Rnd: 0, ID: message.NoID}},
		})
		Expect(bk.NilPrevoteQuorum).To(Equal(1))
	})

	It("should not count a non-nil Prevote toward the nil quorum", func() {
		bk := accountability.Bookkeeping{}
		bk = accountability.FoldBookkeeping(cfg, bk, []output.Output{
			output.CollectEvidence[message.Message]{Message: message.Prevote{Src: "p1", Rnd: 0, ID: message.NoID}},
		})
		bk = accountability.FoldBookkeeping(cfg, bk, []output.Output{
			output.CollectEvidence[message.Message]{Message: message.Prevote{Src: "p2", Rnd: 0, ID: message.SomeID("v0")}},
		})
		Expect(bk.NilPrevoteQuorum).To(Equal(0))
	})
})

var _ = Describe("Accountability", func() {
	It("should hold when agreement holds even with no evidence", func() {
		cfg := config.Config{F: 1, Faulty: []message.Node{"p4"}}
		Expect(accountability.Accountability(cfg, []tendermint.LocalState{decided("p1", "v0")}, accountability.Bookkeeping{})).To(BeTrue())
	})

	It("should fail when agreement fails and fewer than F+1 faulty nodes are caught", func() {
		cfg := config.Config{F: 1, Faulty: []message.Node{"p3", "p4"}}
		states := []tendermint.LocalState{decided("p1", "v0"), decided("p2", "v1")}
		Expect(accountability.Accountability(cfg, states, accountability.Bookkeeping{})).To(BeFalse())
	})
})
