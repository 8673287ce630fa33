package byzantine_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/renproject/tendersim/byzantine"
	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/message"
)

var _ = Describe("Byzantine message generation", func() {
	cfg := config.Config{
		F:       1,
		Correct: []message.Node{"p1", "p2", "p3"},
		Faulty:  []message.Node{"p4"},
		Proposer: config.TableProposer(map[message.Round]message.Node{
			0: "p1", 1: "p2",
		}),
		Values: config.TableValues(map[message.Round]message.Value{
			0: "v0", 1: "v1",
		}),
	}
	rounds := []message.Round{0, 1}

	It("should only generate messages from faulty sources", func() {
		msgs := byzantine.Generate(cfg, rounds, []message.Round{0})
		for _, m := range msgs {
			Expect(m.Source()).To(Equal(message.Node("p4")))
		}
	})

	It("should enumerate a Propose for every value and valid_round, including -1", func() {
		msgs := byzantine.Generate(cfg, rounds, []message.Round{0})
		found := map[message.Round]bool{}
		for _, m := range msgs {
			if p, ok := m.(message.Propose); ok && p.Proposal == "v0" {
				found[p.ValidRound] = true
			}
		}
		Expect(found).To(HaveKey(message.InvalidRound))
		Expect(found).To(HaveKey(message.Round(0)))
		Expect(found).To(HaveKey(message.Round(1)))
	})

	It("should enumerate both Some(id(v)) and nil PreVote/PreCommit", func() {
		msgs := byzantine.Generate(cfg, rounds, []message.Round{0})
		sawSome, sawNil := false, false
		for _, m := range msgs {
			if p, ok := m.(message.Prevote); ok {
				if p.ID.Ok {
					sawSome = true
				} else {
					sawNil = true
				}
			}
		}
		Expect(sawSome).To(BeTrue())
		Expect(sawNil).To(BeTrue())
	})

	It("should only generate messages for observed rounds", func() {
		msgs := byzantine.Generate(cfg, rounds, []message.Round{1})
		for _, m := range msgs {
			Expect(m.Round()).To(Equal(message.Round(1)))
		}
	})
})

var _ = Describe("ObservedRounds", func() {
	It("should deduplicate", func() {
		rounds := byzantine.ObservedRounds([]message.Round{0, 1, 0, 2, 1})
		Expect(rounds).To(ConsistOf(message.Round(0), message.Round(1), message.Round(2)))
	})
})
