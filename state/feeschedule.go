package state

import "github.com/raiden-network/raiden-go/primitives"

// FeePoint is one knot of a piecewise-linear imbalance-penalty table.
type FeePoint struct {
	Capacity primitives.Amount
	Penalty  primitives.Amount
}

// FeeSchedule records a channel's mediation-fee configuration. Per spec §1
// Non-goals, the economics of mediation beyond recording this schedule are
// out of scope: nothing in this module computes a mediation fee from it,
// it is bookkeeping carried on the channel and surfaced to callers that
// do their own fee accounting (SPEC_FULL.md §3).
type FeeSchedule struct {
	CapFees          bool
	Flat             primitives.Amount
	Proportional     primitives.Amount
	ImbalancePenalty []FeePoint
}

// DefaultFeeSchedule is the zero-fee schedule assigned to a channel that
// didn't specify one.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{CapFees: true}
}
