package transition

import (
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// firstChannelWithPartner returns the first channel id the node has with
// partner in tn, or false. Full pathfinding across third-party channels is
// out of scope (spec §1 Non-goals); callers only ever need the node's own
// direct channels.
func firstChannelWithPartner(tn *state.TokenNetwork, partner primitives.Address) (uint64, bool) {
	ids := tn.PartnerChannels(partner)
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// sendLockedTransferOnChannel composes and applies a LockedTransfer on ch's
// our_state (spec §4.1 "Locked-transfer send"): channel status and capacity
// checked, nonce advanced, lock appended, balance proof recomputed. The
// channel's reveal timeout only sets the lock expiration (block +
// 2*reveal_timeout); it is not checked against anything. Returns ok=false
// without mutating anything when the channel can't carry the transfer.
func sendLockedTransferOnChannel(chainState *state.ChainState, ch *state.Channel, amount primitives.Amount, secretHash primitives.SecretHash, initiator, target primitives.Address, paymentIdentifier primitives.PaymentIdentifier) (*state.SendLockedTransfer, *state.ChainState, bool) {
	if ch.Status() != state.ChannelStatusOpened {
		return nil, nil, false
	}
	capacity, err := ch.Capacity()
	if err != nil {
		return nil, nil, false
	}
	available, err := capacity.Sub(lockedAmount(ch.OurState))
	if err != nil || available.Cmp(amount) < 0 {
		return nil, nil, false
	}

	expiration := primitives.BlockExpiration(chainState.BlockNumber) + primitives.BlockExpiration(2*uint64(ch.RevealTimeout))
	lock := state.HashTimeLock{Amount: amount, Expiration: expiration, SecretHash: secretHash}
	canonicalIdentifier := ch.CanonicalIdentifier

	seeded := chainState.Clone()
	messageIdentifier := seeded.PseudoRandom.Next()

	next, _ := withChannel(seeded, canonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		our := ch.OurState
		our.SecretHashesToLocked[secretHash] = lock
		our.PendingLocks = our.PendingLocks.With(lock)
		transferred := transferredAmount(our)
		locked := lockedAmount(our).Add(amount)
		advanceBalanceProof(&our, canonicalIdentifier, transferred, locked)
		ch.OurState = our
		return ch, nil
	})

	outgoing, _ := next.ChannelByCanonicalIdentifier(canonicalIdentifier)
	event := state.NewSendLockedTransfer(ch.PartnerState.Address, canonicalIdentifier, messageIdentifier, *outgoing.OurState.BalanceProof, lock, initiator, target, paymentIdentifier)
	return event, next, true
}

// handleActionInitInitiator picks the first candidate route whose first hop
// has an open channel with sufficient capacity (spec §4.1); on
// exhaustion it emits ErrorPaymentSentFailed and leaves state untouched.
func handleActionInitInitiator(chainState *state.ChainState, c *state.ActionInitInitiator) (*state.ChainState, []state.Event) {
	tn, ok := chainState.TokenNetworkByAddress(c.TokenNetworkAddress)
	if !ok {
		return chainState, []state.Event{&state.ErrorPaymentSentFailed{PaymentIdentifier: c.PaymentIdentifier, Reason: "unknown token network"}}
	}

	for routeIndex, route := range c.Routes {
		firstHop, ok := route.FirstHop()
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
		event, next, ok := sendLockedTransferOnChannel(chainState, ch, c.Amount, c.SecretHash, c.Initiator, c.Target, c.PaymentIdentifier)
		if !ok {
			continue
		}

		secret := c.Secret
		task := &state.TransferTask{
			Role:                state.TransferRoleInitiator,
			CanonicalIdentifier: ch.CanonicalIdentifier,
			PaymentIdentifier:   c.PaymentIdentifier,
			Initiator:           c.Initiator,
			Target:              c.Target,
			Amount:              c.Amount,
			Secret:              &secret,
			Routes:              c.Routes,
			RouteIndex:          routeIndex,
		}
		next.PaymentMapping.SecretHashesToTask[c.SecretHash] = task
		return next, []state.Event{event}
	}

	return chainState, []state.Event{&state.ErrorPaymentSentFailed{PaymentIdentifier: c.PaymentIdentifier, Reason: "no route with sufficient capacity"}}
}

// handleActionCancelPayment drops the initiator task for the payment and
// reports ErrorPaymentSentFailed (SPEC_FULL.md §4 supplemented feature).
// An initiator task exists only once its LockedTransfer has been sent; that
// lock stays in our_state, and with the task gone a later SecretRequest is
// refused, so the lock runs to expiry through handleBlock.
func handleActionCancelPayment(chainState *state.ChainState, c *state.ActionCancelPayment) (*state.ChainState, []state.Event) {
	for secretHash, task := range chainState.PaymentMapping.SecretHashesToTask {
		if task.PaymentIdentifier != c.PaymentIdentifier || task.Role != state.TransferRoleInitiator {
			continue
		}
		next := chainState.Clone()
		delete(next.PaymentMapping.SecretHashesToTask, secretHash)
		return next, []state.Event{&state.ErrorPaymentSentFailed{PaymentIdentifier: c.PaymentIdentifier, Reason: "cancelled"}}
	}
	return chainState, nil
}

// handleReceiveSecretRequest replies with the secret once the target's
// requested amount and payment identifier match the initiator's own task
// (spec §4.1 secret reveal/unlock flow).
func handleReceiveSecretRequest(chainState *state.ChainState, c *state.ReceiveSecretRequest) (*state.ChainState, []state.Event) {
	task, ok := chainState.PaymentMapping.SecretHashesToTask[c.SecretHash]
	if !ok || task.Role != state.TransferRoleInitiator || task.Secret == nil {
		return chainState, []state.Event{&state.ErrorInvalidSecretRequest{Reason: "no matching initiator task for secrethash"}}
	}
	if task.PaymentIdentifier != c.PaymentIdentifier || task.Amount.Cmp(c.Amount) != 0 {
		return chainState, []state.Event{&state.ErrorInvalidSecretRequest{Reason: "payment identifier or amount mismatch"}}
	}

	seeded := chainState.Clone()
	messageIdentifier := seeded.PseudoRandom.Next()
	event := state.NewSendSecretReveal(c.Sender, task.CanonicalIdentifier, messageIdentifier, *task.Secret, c.SecretHash)
	return seeded, []state.Event{event}
}
