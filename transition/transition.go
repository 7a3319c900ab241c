// Package transition implements C3, the reducer: a pure, total,
// deterministic function (state, state-change) -> (state', events)
// (spec §4.1). No I/O, no clocks, no randomness beyond the seeded PRNG
// carried in state.ChainState.PseudoRandom.
package transition

import (
	"github.com/raiden-network/raiden-go/state"
)

// Transition is the reducer's single public entry point (spec §4.1).
// Dispatch is by state-change variant, then sub-dispatched to the owning
// entity by descending the canonical identifier when the state-change
// carries one (registry -> token network -> channel), matching
// htlcswitch.Switch's single-entry-point, switch-over-message-kind shape.
//
// Transition never panics on well-typed input (spec §4.1 Failure
// semantics): every branch either returns a rebuilt state or the
// unmodified input state plus an error event.
func Transition(chainState *state.ChainState, change state.StateChange) (*state.ChainState, []state.Event) {
	next, events := transitionByType(chainState, change)
	for _, event := range events {
		if sendEvent, ok := event.(state.SendMessageEvent); ok {
			next.EnqueueSendMessage(sendEvent)
		}
	}
	return next, events
}

// transitionByType is the per-variant switch Transition wraps. Every
// branch below that returns a SendMessageEvent alongside state also
// returns a freshly cloned ChainState (via withChannel or an explicit
// Clone), never the input pointer unchanged, so appending to
// next.QueueIDsToQueues above never mutates a state some other caller
// still holds a reference to (spec §9 copy-on-write).
func transitionByType(chainState *state.ChainState, change state.StateChange) (*state.ChainState, []state.Event) {
	switch c := change.(type) {
	case *state.ActionInitChain:
		return handleActionInitChain(chainState, c)
	case *state.Block:
		return handleBlock(chainState, c)

	case *state.ContractReceiveTokenNetworkRegistry:
		return handleContractReceiveTokenNetworkRegistry(chainState, c)
	case *state.ContractReceiveTokenNetworkCreated:
		return handleContractReceiveTokenNetworkCreated(chainState, c)
	case *state.ContractReceiveChannelOpened:
		return handleContractReceiveChannelOpened(chainState, c)
	case *state.ContractReceiveChannelClosed:
		return handleContractReceiveChannelClosed(chainState, c)
	case *state.ContractReceiveChannelSettled:
		return handleContractReceiveChannelSettled(chainState, c)
	case *state.ContractReceiveChannelDeposit:
		return handleContractReceiveChannelDeposit(chainState, c)
	case *state.ContractReceiveChannelWithdraw:
		return handleContractReceiveChannelWithdraw(chainState, c)
	case *state.ContractReceiveChannelBatchUnlock:
		return handleContractReceiveChannelBatchUnlock(chainState, c)
	case *state.ContractReceiveSecretReveal:
		return handleContractReceiveSecretReveal(chainState, c)
	case *state.ContractReceiveRouteNew:
		return handleContractReceiveRouteNew(chainState, c)
	case *state.ContractReceiveUpdateTransfer:
		return handleContractReceiveUpdateTransfer(chainState, c)

	case *state.ReceiveLockedTransfer:
		return handleReceiveLockedTransfer(chainState, c)
	case *state.ReceiveTransferRefund:
		return handleReceiveTransferRefund(chainState, c)
	case *state.ReceiveSecretRequest:
		return handleReceiveSecretRequest(chainState, c)
	case *state.ReceiveSecretReveal:
		return handleReceiveSecretReveal(chainState, c)
	case *state.ReceiveUnlock:
		return handleReceiveUnlock(chainState, c)
	case *state.ReceiveLockExpired:
		return handleReceiveLockExpired(chainState, c)
	case *state.ReceiveWithdrawRequest:
		return handleReceiveWithdrawRequest(chainState, c)
	case *state.ReceiveWithdrawConfirmation:
		return handleReceiveWithdrawConfirmation(chainState, c)
	case *state.ReceiveWithdrawExpired:
		return handleReceiveWithdrawExpired(chainState, c)
	case *state.ReceiveProcessed:
		return handleReceiveProcessed(chainState, c)
	case *state.ReceiveDelivered:
		return handleReceiveDelivered(chainState, c)

	case *state.ActionChannelSetRevealTimeout:
		return handleActionChannelSetRevealTimeout(chainState, c)
	case *state.ActionChannelWithdraw:
		return handleActionChannelWithdraw(chainState, c)
	case *state.ActionInitInitiator:
		return handleActionInitInitiator(chainState, c)
	case *state.ActionTransferReroute:
		return handleActionTransferReroute(chainState, c)
	case *state.ActionCancelPayment:
		return handleActionCancelPayment(chainState, c)
	}

	// Unknown/unrecognized state-change variants are a no-op: the reducer
	// is total, so any input not matched above simply leaves state
	// untouched (spec §4.1, "Unknown channels for a chain event return no
	// state change" generalized to unknown change types).
	log.Warnf("transition: no handler for state-change %T, ignoring", change)
	return chainState, nil
}
