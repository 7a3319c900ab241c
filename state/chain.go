package state

import "github.com/raiden-network/raiden-go/primitives"

// ChainState is the root, singleton state tree the reducer owns in full
// (spec §3.2). ChainState is the single owner of the entire tree;
// sub-reducers operate on moved-in sub-trees and return rebuilt sub-trees
// (spec §9) — callers must treat a *ChainState returned from
// transition.Transition as the new canonical state and drop any reference
// to the one passed in.
type ChainState struct {
	ChainID     primitives.ChainID
	BlockNumber primitives.BlockNumber
	BlockHash   primitives.BlockHash
	OurAddress  primitives.Address

	TokenNetworkRegistries map[primitives.Address]*TokenNetworkRegistry

	QueueIDsToQueues map[primitives.QueueIdentifier][]SendMessageEvent

	PaymentMapping PaymentMapping

	PseudoRandom *primitives.Random
}

// NewChainState constructs the initial ChainState an ActionInitChain
// bootstraps (spec §4.4 recovery algorithm, "no snapshot" branch).
func NewChainState(chainID primitives.ChainID, blockNumber primitives.BlockNumber, blockHash primitives.BlockHash, ourAddress primitives.Address, randomSeed int64) *ChainState {
	return &ChainState{
		ChainID:                chainID,
		BlockNumber:            blockNumber,
		BlockHash:              blockHash,
		OurAddress:             ourAddress,
		TokenNetworkRegistries: make(map[primitives.Address]*TokenNetworkRegistry),
		QueueIDsToQueues:       make(map[primitives.QueueIdentifier][]SendMessageEvent),
		PaymentMapping:         NewPaymentMapping(),
		PseudoRandom:           primitives.NewRandom(randomSeed),
	}
}

// Clone returns a shallow-per-registry copy suitable as the starting point
// for a reducer call: top-level maps are copied so a sub-reducer can
// replace an entry without the caller's previous ChainState value
// observing the change (spec §9's "no graph cycles, sub-reducers return
// rebuilt sub-trees" rule applied at the root).
func (c *ChainState) Clone() *ChainState {
	out := *c
	out.TokenNetworkRegistries = make(map[primitives.Address]*TokenNetworkRegistry, len(c.TokenNetworkRegistries))
	for k, v := range c.TokenNetworkRegistries {
		out.TokenNetworkRegistries[k] = v
	}
	out.QueueIDsToQueues = make(map[primitives.QueueIdentifier][]SendMessageEvent, len(c.QueueIDsToQueues))
	for k, v := range c.QueueIDsToQueues {
		cp := make([]SendMessageEvent, len(v))
		copy(cp, v)
		out.QueueIDsToQueues[k] = cp
	}
	secretHashesToTask := make(map[primitives.SecretHash]*TransferTask, len(c.PaymentMapping.SecretHashesToTask))
	for k, v := range c.PaymentMapping.SecretHashesToTask {
		secretHashesToTask[k] = v
	}
	out.PaymentMapping = PaymentMapping{SecretHashesToTask: secretHashesToTask}
	out.PseudoRandom = c.PseudoRandom.Clone()
	return &out
}

// TokenNetworkByAddress searches every registry for a token network with
// the given address. Chain-observed state-changes carry a
// CanonicalIdentifier whose TokenNetworkAddress is looked up this way when
// the registry address isn't separately known (spec §4.1 dispatch rule).
func (c *ChainState) TokenNetworkByAddress(address primitives.Address) (*TokenNetwork, bool) {
	for _, registry := range c.TokenNetworkRegistries {
		if tn, ok := registry.TokenNetwork(address); ok {
			return tn, true
		}
	}
	return nil, false
}

// ChannelByCanonicalIdentifier descends registry -> token network -> channel
// along a CanonicalIdentifier (spec §4.1).
func (c *ChainState) ChannelByCanonicalIdentifier(id primitives.CanonicalIdentifier) (*Channel, bool) {
	tn, ok := c.TokenNetworkByAddress(id.TokenNetworkAddress)
	if !ok {
		return nil, false
	}
	return tn.Channel(id.ChannelIdentifier)
}

// EnqueueSendMessage appends a SendMessageEvent to its queue, in FIFO order
// (spec §4.1 "Outbound message queue").
func (c *ChainState) EnqueueSendMessage(event SendMessageEvent) {
	qid := event.QueueIdentifier()
	c.QueueIDsToQueues[qid] = append(c.QueueIDsToQueues[qid], event)
}

// DequeueByMessageIdentifier removes the first queued entry matching
// messageIdentifier from the queue identified by qid (spec §4.1,
// "Incoming Processed or Delivered removes the acknowledged entry").
func (c *ChainState) DequeueByMessageIdentifier(qid primitives.QueueIdentifier, messageIdentifier primitives.MessageIdentifier) bool {
	queue := c.QueueIDsToQueues[qid]
	for i, event := range queue {
		if event.MessageID() == messageIdentifier {
			c.QueueIDsToQueues[qid] = append(queue[:i:i], queue[i+1:]...)
			return true
		}
	}
	return false
}

// ClearQueuesForChannel drops every queued message addressed on the given
// canonical identifier (spec §3.6 lifecycle table: "channel settled clears
// queue").
func (c *ChainState) ClearQueuesForChannel(id primitives.CanonicalIdentifier) {
	for qid := range c.QueueIDsToQueues {
		if qid.CanonicalIdentifier == id {
			delete(c.QueueIDsToQueues, qid)
		}
	}
}
