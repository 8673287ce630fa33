package tendermint

import "github.com/renproject/tendersim/message"

// distinctSources counts the number of distinct Src values among nodes,
// de-duplicating equivocating duplicates. Grounded on
// numberOfMessagesAtCurrentHeight's distinct-signatory counting in the
// teacher, generalized from a running tally to a slice-of-sources helper
// shared by every quorum check below.
func distinctSources(nodes []message.Node) int {
	seen := make(map[message.Node]struct{}, len(nodes))
	for _, n := range nodes {
		seen[n] = struct{}{}
	}
	return len(seen)
}

// hasQuorum reports whether count distinct sources meets the 2F+1 bound.
func hasQuorum(f, count int) bool {
	return count >= 2*f+1
}

// prevotesAtRound returns every received prevote at the given round,
// regardless of id.
func prevotesAtRound(received []message.Prevote, round message.Round) []message.Prevote {
	var out []message.Prevote
	for _, p := range received {
		if p.Rnd == round {
			out = append(out, p)
		}
	}
	return out
}

// prevotesAtRoundForID returns every received prevote at the given round
// carrying exactly the given optional id (Some or None, matched by Equal).
func prevotesAtRoundForID(received []message.Prevote, round message.Round, id message.OptValueID) []message.Prevote {
	var out []message.Prevote
	for _, p := range received {
		if p.Rnd == round && p.ID.Equal(id) {
			out = append(out, p)
		}
	}
	return out
}

func precommitsAtRoundForID(received []message.Precommit, round message.Round, id message.OptValueID) []message.Precommit {
	var out []message.Precommit
	for _, p := range received {
		if p.Rnd == round && p.ID.Equal(id) {
			out = append(out, p)
		}
	}
	return out
}

func precommitsAtRound(received []message.Precommit, round message.Round) []message.Precommit {
	var out []message.Precommit
	for _, p := range received {
		if p.Rnd == round {
			out = append(out, p)
		}
	}
	return out
}

func prevoteSources(prevotes []message.Prevote) []message.Node {
	out := make([]message.Node, len(prevotes))
	for i, p := range prevotes {
		out[i] = p.Src
	}
	return out
}

func precommitSources(precommits []message.Precommit) []message.Node {
	out := make([]message.Node, len(precommits))
	for i, p := range precommits {
		out[i] = p.Src
	}
	return out
}
