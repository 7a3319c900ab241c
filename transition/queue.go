package transition

import (
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// handleReceiveProcessed and handleReceiveDelivered both dequeue the
// acknowledged entry from every outbound queue addressed to the
// acknowledging peer (spec §4.1 "Outbound message queue": "Incoming
// Processed or Delivered removes the acknowledged entry").
func handleReceiveProcessed(chainState *state.ChainState, c *state.ReceiveProcessed) (*state.ChainState, []state.Event) {
	return dequeueAcknowledged(chainState, c.Sender, c.MessageIdentifier)
}

func handleReceiveDelivered(chainState *state.ChainState, c *state.ReceiveDelivered) (*state.ChainState, []state.Event) {
	return dequeueAcknowledged(chainState, c.Sender, c.MessageIdentifier)
}

func dequeueAcknowledged(chainState *state.ChainState, sender primitives.Address, messageIdentifier primitives.MessageIdentifier) (*state.ChainState, []state.Event) {
	next := chainState.Clone()
	removed := false
	for qid := range next.QueueIDsToQueues {
		if qid.Recipient != sender {
			continue
		}
		if next.DequeueByMessageIdentifier(qid, messageIdentifier) {
			removed = true
		}
	}
	if !removed {
		return chainState, nil
	}
	return next, nil
}
