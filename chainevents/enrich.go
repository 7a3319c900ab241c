package chainevents

import (
	"context"
	"fmt"

	"github.com/raiden-network/raiden-go/chainproxy"
	"github.com/raiden-network/raiden-go/primitives"
)

// TokenNetworkEnricher implements LocksrootEnricher against a set of live
// chainproxy.TokenNetwork proxies, one per token network this node tracks.
// Grounded on spec §4.2 ("before emitting the state-change, the decoder
// queries the token-network proxy for the two locksroot values at the
// settling block-hash") and
// original_source/src/blockchain/proxies/token_network.rs.
type TokenNetworkEnricher struct {
	Proxies map[primitives.Address]chainproxy.TokenNetwork
}

// ParticipantsLocksroot looks up the proxy for the channel's token network
// and queries it for both sides' on-chain locksroot at blockHash. A missing
// proxy is a decoder error, not a skip: a ChannelSettled event for a token
// network the node isn't tracking indicates a topic-matching bug upstream.
func (e *TokenNetworkEnricher) ParticipantsLocksroot(canonicalIdentifier primitives.CanonicalIdentifier, blockHash primitives.BlockHash) (primitives.Hash, primitives.Hash, error) {
	proxy, ok := e.Proxies[canonicalIdentifier.TokenNetworkAddress]
	if !ok {
		return primitives.Hash{}, primitives.Hash{}, fmt.Errorf("chainevents: no token-network proxy for %s", canonicalIdentifier.TokenNetworkAddress.Hex())
	}
	return proxy.ParticipantsLocksroot(context.Background(), canonicalIdentifier, blockHash)
}
