package message_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/renproject/tendersim/message"
)

var _ = Describe("Message", func() {
	Context("ID", func() {
		It("should be injective: equal values yield equal ids", func() {
			Expect(message.ID(message.Value("v0"))).To(Equal(message.ID(message.Value("v0"))))
		})

		It("should distinguish distinct values", func() {
			Expect(message.ID(message.Value("v0"))).ToNot(Equal(message.ID(message.Value("v1"))))
		})
	})

	Context("OptValue", func() {
		It("should report None as not equal to Some", func() {
			Expect(message.NoValue.Equal(message.SomeValue("v0"))).To(BeFalse())
		})

		It("should report two Somes of the same value as equal", func() {
			Expect(message.SomeValue("v0").Equal(message.SomeValue("v0"))).To(BeTrue())
		})

		It("should report two Somes of distinct values as not equal", func() {
			Expect(message.SomeValue("v0").Equal(message.SomeValue("v1"))).To(BeFalse())
		})
	})

	Context("OptValueID", func() {
		It("should report NoID as equal to itself", func() {
			Expect(message.NoID.Equal(message.NoID)).To(BeTrue())
		})

		It("should report Some(id) as not equal to NoID", func() {
			Expect(message.SomeID(message.ID("v0")).Equal(message.NoID)).To(BeFalse())
		})
	})

	Context("Kind", func() {
		It("should stringify each variant distinctly", func() {
			Expect(message.KindPropose.String()).To(Equal("Propose"))
			Expect(message.KindPrevote.String()).To(Equal("Prevote"))
			Expect(message.KindPrecommit.String()).To(Equal("Precommit"))
		})
	})

	Context("Message accessors", func() {
		It("should expose src/round/kind for Propose", func() {
			p := message.Propose{Src: "p1", Rnd: 2, Proposal: "v0", ValidRound: message.InvalidRound}
			var m message.Message = p
			Expect(m.Source()).To(Equal(message.Node("p1")))
			Expect(m.Round()).To(Equal(message.Round(2)))
			Expect(m.Kind()).To(Equal(message.KindPropose))
		})

		It("should expose src/round/kind for Prevote", func() {
			p := message.Prevote{Src: "p2", Rnd: 1, ID: message.SomeID("v0")}
			var m message.Message = p
			Expect(m.Source()).To(Equal(message.Node("p2")))
			Expect(m.Round()).To(Equal(message.Round(1)))
			Expect(m.Kind()).To(Equal(message.KindPrevote))
		})

		It("should expose src/round/kind for Precommit", func() {
			p := message.Precommit{Src: "p3", Rnd: 0, ID: message.NoID}
			var m message.Message = p
			Expect(m.Source()).To(Equal(message.Node("p3")))
			Expect(m.Round()).To(Equal(message.Round(0)))
			Expect(m.Kind()).To(Equal(message.KindPrecommit))
		})
	})

	Context("equality", func() {
		It("should let two identical Proposes compare equal, supporting set de-duplication", func() {
			a := message.Propose{Src: "p1", Rnd: 0, Proposal: "v0", ValidRound: message.InvalidRound}
			b := message.Propose{Src: "p1", Rnd: 0, Proposal: "v0", ValidRound: message.InvalidRound}
			Expect(a).To(Equal(b))
		})
	})
})
