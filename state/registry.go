package state

import "github.com/raiden-network/raiden-go/primitives"

// TokenNetworkRegistry owns every TokenNetwork deployed against a single
// registry contract (spec §3.3).
type TokenNetworkRegistry struct {
	Address                             primitives.Address
	TokenNetworkAddressesToTokenNetworks map[primitives.Address]*TokenNetwork
	TokenAddressesToTokenNetworkAddresses map[primitives.Address]primitives.Address
}

// NewTokenNetworkRegistry returns an empty registry.
func NewTokenNetworkRegistry(address primitives.Address) *TokenNetworkRegistry {
	return &TokenNetworkRegistry{
		Address:                               address,
		TokenNetworkAddressesToTokenNetworks:   make(map[primitives.Address]*TokenNetwork),
		TokenAddressesToTokenNetworkAddresses: make(map[primitives.Address]primitives.Address),
	}
}

// AddTokenNetwork registers a token network under the registry.
func (r *TokenNetworkRegistry) AddTokenNetwork(tn *TokenNetwork) {
	r.TokenNetworkAddressesToTokenNetworks[tn.Address] = tn
	r.TokenAddressesToTokenNetworkAddresses[tn.TokenAddress] = tn.Address
}

// TokenNetwork looks up a token network by its own address.
func (r *TokenNetworkRegistry) TokenNetwork(address primitives.Address) (*TokenNetwork, bool) {
	tn, ok := r.TokenNetworkAddressesToTokenNetworks[address]
	return tn, ok
}

// Clone returns a registry whose token-network map is a shallow copy,
// mirroring TokenNetwork.Clone (spec §9 copy-on-write).
func (r *TokenNetworkRegistry) Clone() *TokenNetworkRegistry {
	out := *r
	out.TokenNetworkAddressesToTokenNetworks = make(map[primitives.Address]*TokenNetwork, len(r.TokenNetworkAddressesToTokenNetworks))
	for k, v := range r.TokenNetworkAddressesToTokenNetworks {
		out.TokenNetworkAddressesToTokenNetworks[k] = v
	}
	out.TokenAddressesToTokenNetworkAddresses = make(map[primitives.Address]primitives.Address, len(r.TokenAddressesToTokenNetworkAddresses))
	for k, v := range r.TokenAddressesToTokenNetworkAddresses {
		out.TokenAddressesToTokenNetworkAddresses[k] = v
	}
	return &out
}

// ReplaceTokenNetwork swaps in a rebuilt token network under its own address.
func (r *TokenNetworkRegistry) ReplaceTokenNetwork(tn *TokenNetwork) {
	r.TokenNetworkAddressesToTokenNetworks[tn.Address] = tn
}
