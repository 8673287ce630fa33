package config_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/renproject/tendersim/config"
	"github.com/renproject/tendersim/message"
)

var _ = Describe("Config", func() {
	nodes := []message.Node{"p1", "p2", "p3", "p4"}

	Context("RoundRobinProposer", func() {
		It("should cycle through nodes in order", func() {
			proposer := config.RoundRobinProposer(nodes)
			Expect(proposer(0)).To(Equal(message.Node("p1")))
			Expect(proposer(1)).To(Equal(message.Node("p2")))
			Expect(proposer(4)).To(Equal(message.Node("p1")))
		})

		It("should panic on a negative round", func() {
			proposer := config.RoundRobinProposer(nodes)
			Expect(func() { proposer(-1) }).To(Panic())
		})
	})

	Context("TableProposer", func() {
		It("should look up the configured node for a round", func() {
			proposer := config.TableProposer(map[message.Round]message.Node{0: "p1", 1: "p2"})
			Expect(proposer(0)).To(Equal(message.Node("p1")))
		})

		It("should panic on a round outside the table", func() {
			proposer := config.TableProposer(map[message.Round]message.Node{0: "p1"})
			Expect(func() { proposer(1) }).To(Panic())
		})
	})

	Context("TableValues", func() {
		It("should report ok=false for a round outside the table", func() {
			values := config.TableValues(map[message.Round]message.Value{0: "v0"})
			_, ok := values(1)
			Expect(ok).To(BeFalse())
		})
	})

	Context("Quorum and FaultTolerance", func() {
		It("should compute 2F+1 and F+1", func() {
			cfg := config.Config{F: 1}
			Expect(cfg.Quorum()).To(Equal(3))
			Expect(cfg.FaultTolerance()).To(Equal(2))
		})
	})

	Context("ValidValues", func() {
		It("should only include values proposed by correct proposers", func() {
			cfg := config.Config{
				Correct:  []message.Node{"p1", "p2"},
				Faulty:   []message.Node{"p3"},
				Proposer: config.TableProposer(map[message.Round]message.Node{0: "p1", 1: "p3"}),
				Values:   config.TableValues(map[message.Round]message.Value{0: "v0", 1: "v1"}),
			}
			valid := config.ValidValues(cfg, 1)
			Expect(valid).To(HaveKey(message.Value("v0")))
			Expect(valid).ToNot(HaveKey(message.Value("v1")))
		})
	})
})
