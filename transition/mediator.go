package transition

import (
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// handleReceiveTransferRefund accepts a refund only when its balance proof
// correctly extends the refunding partner's side (same nonce/locked_amount
// rules as a fresh locked transfer), then tries the next candidate route on
// the originating task; exhausting task.Routes yields ErrorPaymentSentFailed
// (SPEC_FULL.md §3, resolving Open Question #2).
func handleReceiveTransferRefund(chainState *state.ChainState, c *state.ReceiveTransferRefund) (*state.ChainState, []state.Event) {
	task, ok := chainState.PaymentMapping.SecretHashesToTask[c.Lock.SecretHash]
	if !ok || task.Role != state.TransferRoleInitiator {
		return chainState, nil
	}
	ch, ok := chainState.ChannelByCanonicalIdentifier(c.CanonicalIdentifier)
	if !ok || c.Sender != ch.PartnerState.Address {
		return chainState, nil
	}

	expectedNonce := ch.PartnerState.NextNonce()
	expectedLocked := lockedAmount(ch.PartnerState).Add(c.Lock.Amount)
	if c.BalanceProof.Nonce != expectedNonce || c.BalanceProof.LockedAmount.Cmp(expectedLocked) != 0 {
		return chainState, []state.Event{&state.ErrorInvalidReceivedTransferRefund{Reason: "balance proof does not match the expected refund"}}
	}

	next, _ := withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		partner := ch.PartnerState
		partner.SecretHashesToLocked[c.Lock.SecretHash] = c.Lock
		partner.PendingLocks = partner.PendingLocks.With(c.Lock)
		partner.Nonce = c.BalanceProof.Nonce
		bp := c.BalanceProof
		partner.BalanceProof = &bp
		ch.PartnerState = partner
		return ch, nil
	})

	return rerouteOrFail(next, task, c.Lock.SecretHash)
}

// rerouteOrFail tries each remaining candidate route, in order, after
// task.RouteIndex. The first route whose first hop has a usable direct
// channel wins; exhausting the list drops the task and emits
// ErrorPaymentSentFailed (spec §4.1 payment lifecycle).
func rerouteOrFail(chainState *state.ChainState, task *state.TransferTask, secretHash primitives.SecretHash) (*state.ChainState, []state.Event) {
	for idx := task.RouteIndex + 1; idx < len(task.Routes); idx++ {
		firstHop, ok := task.Routes[idx].FirstHop()
		if !ok {
			continue
		}
		tn, ok := chainState.TokenNetworkByAddress(task.CanonicalIdentifier.TokenNetworkAddress)
		if !ok {
			continue
		}
		channelID, found := firstChannelWithPartner(tn, firstHop)
		if !found {
			continue
		}
		ch, ok := tn.Channel(channelID)
		if !ok {
			continue
		}
		event, next, ok := sendLockedTransferOnChannel(chainState, ch, task.Amount, secretHash, task.Initiator, task.Target, task.PaymentIdentifier)
		if !ok {
			continue
		}

		newTask := *task
		newTask.CanonicalIdentifier = ch.CanonicalIdentifier
		newTask.RouteIndex = idx
		next.PaymentMapping.SecretHashesToTask[secretHash] = &newTask
		return next, []state.Event{event}
	}

	next := chainState.Clone()
	delete(next.PaymentMapping.SecretHashesToTask, secretHash)
	return next, []state.Event{&state.ErrorPaymentSentFailed{PaymentIdentifier: task.PaymentIdentifier, Reason: "no remaining routes after refund"}}
}

// handleActionTransferReroute swaps in a freshly generated secret for a
// payment task ahead of a retry attempt (SPEC_FULL.md §3 supplemented
// feature, mirroring original_source's mediator "change secret on reroute"
// behavior).
func handleActionTransferReroute(chainState *state.ChainState, c *state.ActionTransferReroute) (*state.ChainState, []state.Event) {
	task, ok := chainState.PaymentMapping.SecretHashesToTask[c.SecretHash]
	if !ok {
		return chainState, nil
	}
	next := chainState.Clone()
	newTask := *task
	secret := c.NewSecret
	newTask.Secret = &secret
	next.PaymentMapping.SecretHashesToTask[c.SecretHash] = &newTask
	return next, nil
}
