package transition

import (
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// handleActionChannelWithdraw starts the three-message withdraw protocol
// (spec §4.1): SendWithdrawRequest(expiration = block + 2*reveal_timeout,
// nonce = next, total_withdraw).
func handleActionChannelWithdraw(chainState *state.ChainState, c *state.ActionChannelWithdraw) (*state.ChainState, []state.Event) {
	ch, ok := chainState.ChannelByCanonicalIdentifier(c.CanonicalIdentifier)
	if !ok {
		return chainState, []state.Event{&state.ErrorInvalidActionWithdraw{Reason: "unknown channel"}}
	}
	if c.TotalWithdraw.Cmp(ch.OurState.TotalWithdraw()) <= 0 {
		return chainState, []state.Event{&state.ErrorInvalidActionWithdraw{Reason: "total_withdraw must increase over the current total"}}
	}

	seeded := chainState.Clone()
	messageIdentifier := seeded.PseudoRandom.Next()
	expiration := primitives.BlockExpiration(seeded.BlockNumber) + primitives.BlockExpiration(2*uint64(ch.RevealTimeout))
	nonce := ch.OurState.NextNonce()

	next, _ := withChannel(seeded, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		our := ch.OurState
		our.Nonce = nonce
		our.WithdrawsPending[c.TotalWithdraw] = state.PendingWithdrawState{
			TotalWithdraw: c.TotalWithdraw,
			Expiration:    expiration,
			Nonce:         nonce,
		}
		ch.OurState = our
		return ch, nil
	})

	event := state.NewSendWithdrawRequest(ch.PartnerState.Address, c.CanonicalIdentifier, messageIdentifier, chainState.OurAddress, expiration, nonce, c.TotalWithdraw)
	return next, []state.Event{event}
}

// handleReceiveWithdrawRequest validates a partner-initiated withdraw
// request and replies with a SendWithdrawConfirmation (spec §4.1).
func handleReceiveWithdrawRequest(chainState *state.ChainState, c *state.ReceiveWithdrawRequest) (*state.ChainState, []state.Event) {
	ch, ok := chainState.ChannelByCanonicalIdentifier(c.CanonicalIdentifier)
	if !ok {
		return chainState, nil
	}
	if c.Sender != ch.PartnerState.Address {
		return chainState, nil
	}
	if c.TotalWithdraw.Cmp(ch.PartnerState.TotalWithdraw()) <= 0 {
		return chainState, []state.Event{&state.ErrorInvalidActionWithdraw{Reason: "withdraw request total_withdraw must increase"}}
	}

	next, _ := withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		partner := ch.PartnerState
		partner.WithdrawsPending[c.TotalWithdraw] = state.PendingWithdrawState{
			TotalWithdraw: c.TotalWithdraw,
			Expiration:    c.Expiration,
			Nonce:         c.Nonce,
		}
		ch.PartnerState = partner
		return ch, nil
	})

	event := state.NewSendWithdrawConfirmation(ch.PartnerState.Address, c.CanonicalIdentifier, c.MessageIdentifier, chainState.OurAddress, c.TotalWithdraw, c.Nonce, c.Expiration)
	return next, []state.Event{event}
}

// handleReceiveWithdrawConfirmation accepts the partner's countersignature
// on a withdraw we requested and schedules the on-chain submission (spec
// §4.1: "Peer reply ReceiveWithdrawConfirmation unlocks emitting a
// ContractSendChannelWithdraw"). The pending entry stays on our_state until
// ContractReceiveChannelWithdraw observes the transaction mined.
func handleReceiveWithdrawConfirmation(chainState *state.ChainState, c *state.ReceiveWithdrawConfirmation) (*state.ChainState, []state.Event) {
	ch, ok := chainState.ChannelByCanonicalIdentifier(c.CanonicalIdentifier)
	if !ok {
		return chainState, nil
	}
	if c.Sender != ch.PartnerState.Address {
		return chainState, nil
	}
	pending, ok := ch.OurState.WithdrawsPending[c.TotalWithdraw]
	if !ok || pending.Nonce != c.Nonce {
		return chainState, []state.Event{&state.ErrorInvalidActionWithdraw{Reason: "withdraw confirmation does not match a pending request"}}
	}
	event := state.NewContractSendChannelWithdraw(c.CanonicalIdentifier, c.TotalWithdraw, c.Expiration, c.Signature)
	return chainState, []state.Event{event}
}

// handleReceiveWithdrawExpired drops the corresponding pending entry on the
// partner's side once the partner itself reports the request timed out
// unanswered.
func handleReceiveWithdrawExpired(chainState *state.ChainState, c *state.ReceiveWithdrawExpired) (*state.ChainState, []state.Event) {
	return withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		if c.Sender != ch.PartnerState.Address {
			return ch, nil
		}
		partner := ch.PartnerState
		pending, ok := partner.WithdrawsPending[c.TotalWithdraw]
		if !ok || pending.Nonce != c.Nonce {
			return ch, nil
		}
		delete(partner.WithdrawsPending, c.TotalWithdraw)
		partner.WithdrawsExpired = append(partner.WithdrawsExpired, state.ExpiredWithdrawState{
			TotalWithdraw: pending.TotalWithdraw,
			Expiration:    pending.Expiration,
			Nonce:         pending.Nonce,
		})
		ch.PartnerState = partner
		return ch, nil
	})
}
