package state

import "github.com/raiden-network/raiden-go/primitives"

// Hop names one link of a candidate route: the next node and the channel
// used to reach it (spec's original_source state.rs HopState,
// SPEC_FULL.md §3).
type Hop struct {
	NodeAddress       primitives.Address
	ChannelIdentifier uint64
}

// Route is a candidate path for a locked transfer, as supplied by
// ActionInitInitiator (SPEC_FULL.md §3). Full pathfinding is out of scope
// (spec §1 Non-goals); Route is just the ordered address list plus an
// estimated fee the caller computed externally.
type Route struct {
	Addresses     []primitives.Address
	EstimatedFee  primitives.Amount
}

// FirstHop returns the first address on the route, or false if empty.
func (r Route) FirstHop() (primitives.Address, bool) {
	if len(r.Addresses) == 0 {
		return primitives.Address{}, false
	}
	return r.Addresses[0], true
}
