package tendermint

import (
	"github.com/renproject/tendersim/message"
	"github.com/renproject/tendersim/output"
)

// Output is the concrete ConsensusOutput instantiation used throughout this
// package: message.Message for the message payload, message.TimeoutEvent for
// the timeout payload.
type Output = output.Output

func broadcast(m message.Message) Output {
	return output.Broadcast[message.Message]{Message: m}
}

func startTimeout(t message.TimeoutEvent) Output {
	return output.StartTimeout[message.TimeoutEvent]{Timeout: t}
}

func collectEvidence(m message.Message) Output {
	return output.CollectEvidence[message.Message]{Message: m}
}

func breakpoint() Output {
	return output.Breakpoint{}
}
