package primitives

import "fmt"

// CanonicalIdentifier uniquely names a channel across forks and token
// networks (spec §3.1). Every balance proof, withdraw, and settle message
// carries one.
type CanonicalIdentifier struct {
	ChainID             ChainID
	TokenNetworkAddress Address
	ChannelIdentifier   uint64
}

func (c CanonicalIdentifier) String() string {
	return fmt.Sprintf("%d/%s/%d", c.ChainID, c.TokenNetworkAddress.Hex(), c.ChannelIdentifier)
}

// QueueIdentifier is the retry-FIFO key for outbound messages (spec
// glossary): the recipient plus the channel the message concerns.
type QueueIdentifier struct {
	Recipient          Address
	CanonicalIdentifier CanonicalIdentifier
}

func (q QueueIdentifier) String() string {
	return fmt.Sprintf("%s@%s", q.Recipient.Hex(), q.CanonicalIdentifier)
}
