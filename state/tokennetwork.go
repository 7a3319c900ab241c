package state

import "github.com/raiden-network/raiden-go/primitives"

// TokenNetwork owns a mapping channel_identifier -> Channel plus an
// inverted partner index (spec §3.3).
type TokenNetwork struct {
	Address                       primitives.Address
	TokenAddress                  primitives.Address
	ChannelIdentifiersToChannels  map[uint64]*Channel
	PartnerAddressesToChannelIDs  map[primitives.Address][]uint64
}

// NewTokenNetwork returns an empty token network.
func NewTokenNetwork(address, tokenAddress primitives.Address) *TokenNetwork {
	return &TokenNetwork{
		Address:                      address,
		TokenAddress:                 tokenAddress,
		ChannelIdentifiersToChannels: make(map[uint64]*Channel),
		PartnerAddressesToChannelIDs: make(map[primitives.Address][]uint64),
	}
}

// AddChannel registers a channel and updates the partner index.
func (t *TokenNetwork) AddChannel(ch *Channel, ourAddress primitives.Address) {
	id := ch.CanonicalIdentifier.ChannelIdentifier
	t.ChannelIdentifiersToChannels[id] = ch
	partner := ch.PartnerState.Address
	for _, existing := range t.PartnerAddressesToChannelIDs[partner] {
		if existing == id {
			return
		}
	}
	t.PartnerAddressesToChannelIDs[partner] = append(t.PartnerAddressesToChannelIDs[partner], id)
}

// Channel looks up a channel by id.
func (t *TokenNetwork) Channel(id uint64) (*Channel, bool) {
	ch, ok := t.ChannelIdentifiersToChannels[id]
	return ch, ok
}

// PartnerChannels returns the channel ids the node has with partner,
// supporting ActionInitInitiator route selection (SPEC_FULL.md §4).
func (t *TokenNetwork) PartnerChannels(partner primitives.Address) []uint64 {
	return t.PartnerAddressesToChannelIDs[partner]
}

// Clone returns a token network whose channel map is a shallow copy (the
// map itself is new, so ReplaceChannel on the clone never affects the
// original), used by sub-reducers honoring spec §9's copy-on-write rule.
func (t *TokenNetwork) Clone() *TokenNetwork {
	out := *t
	out.ChannelIdentifiersToChannels = make(map[uint64]*Channel, len(t.ChannelIdentifiersToChannels))
	for k, v := range t.ChannelIdentifiersToChannels {
		out.ChannelIdentifiersToChannels[k] = v
	}
	out.PartnerAddressesToChannelIDs = make(map[primitives.Address][]uint64, len(t.PartnerAddressesToChannelIDs))
	for k, v := range t.PartnerAddressesToChannelIDs {
		cp := make([]uint64, len(v))
		copy(cp, v)
		out.PartnerAddressesToChannelIDs[k] = cp
	}
	return &out
}

// ReplaceChannel swaps in a rebuilt channel value under its own id.
func (t *TokenNetwork) ReplaceChannel(ch *Channel) {
	t.ChannelIdentifiersToChannels[ch.CanonicalIdentifier.ChannelIdentifier] = ch
}
