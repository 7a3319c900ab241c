package coordinator

import (
	"context"
	"fmt"

	"github.com/raiden-network/raiden-go/messages"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// dispatch routes one reducer-emitted event to its sink: transport for
// Send*, a chain proxy for ContractSend*, the notification channel for
// everything else (spec §4.5). Events are dispatched strictly in the
// order the reducer returned them (spec §8 "Queue-FIFO").
func (c *Coordinator) dispatch(ctx context.Context, ev state.Event) error {
	switch e := ev.(type) {
	case *state.SendWithdrawRequest:
		m := &messages.WithdrawRequest{}
		m.FromEvent(e)
		return c.signAndSend(ctx, e.Recipient, m, func(sig primitives.Signature) { m.Signature = sig })
	case *state.SendWithdrawConfirmation:
		m := &messages.WithdrawConfirmation{}
		m.FromEvent(e)
		return c.signAndSend(ctx, e.Recipient, m, func(sig primitives.Signature) { m.Signature = sig })
	case *state.SendWithdrawExpired:
		m := &messages.WithdrawExpired{}
		m.FromEvent(e)
		return c.signAndSend(ctx, e.Recipient, m, func(sig primitives.Signature) { m.Signature = sig })
	case *state.SendLockedTransfer:
		// The registered event taxonomy has no separate "SendRefundTransfer"
		// variant (state/event.go): a mediator handing a payment back would
		// reuse this same event. This repository's reducer never produces a
		// refund (a mediator that cannot forward emits ErrorRouteFailed, see
		// transition/target.go), so every SendLockedTransfer is dispatched
		// as a forward LockedTransfer; messages.RefundTransfer exists only
		// to decode one arriving from a peer (see inbound.go).
		token := c.tokenAddressFor(e.CanonicalIdentifier)
		m := &messages.LockedTransfer{}
		m.FromEvent(e, token)
		return c.signAndSend(ctx, e.Recipient, m, func(sig primitives.Signature) { m.Signature = sig })
	case *state.SendSecretRequest:
		m := &messages.SecretRequest{}
		m.FromEvent(e)
		return c.signAndSend(ctx, e.Recipient, m, func(sig primitives.Signature) { m.Signature = sig })
	case *state.SendSecretReveal:
		m := &messages.SecretReveal{}
		m.FromEvent(e)
		return c.signAndSend(ctx, e.Recipient, m, func(sig primitives.Signature) { m.Signature = sig })
	case *state.SendLockExpired:
		m := &messages.LockExpired{}
		m.FromEvent(e)
		return c.signAndSend(ctx, e.Recipient, m, func(sig primitives.Signature) { m.Signature = sig })
	case *state.SendUnlock:
		m := &messages.Unlock{}
		m.FromEvent(e)
		return c.signAndSend(ctx, e.Recipient, m, func(sig primitives.Signature) { m.Signature = sig })
	case *state.SendProcessed:
		m := &messages.Processed{}
		m.FromEvent(e)
		return c.signAndSend(ctx, e.Recipient, m, func(sig primitives.Signature) { m.Signature = sig })

	case *state.ContractSendChannelClose:
		return c.dispatchChannelClose(ctx, e)
	case *state.ContractSendChannelWithdraw:
		return c.dispatchChannelWithdraw(ctx, e)
	case *state.ContractSendChannelSettle:
		return c.dispatchChannelSettle(ctx, e)
	case *state.ContractSendChannelUpdateTransfer:
		return c.dispatchUpdateTransfer(ctx, e)
	case *state.ContractSendChannelBatchUnlock:
		return c.dispatchBatchUnlock(ctx, e)
	case *state.ContractSendSecretReveal:
		return c.dispatchRegisterSecret(ctx, e)

	case *state.PaymentSentSuccess, *state.PaymentReceivedSuccess, *state.UnlockSuccess,
		*state.ErrorInvalidActionWithdraw, *state.ErrorInvalidActionSetRevealTimeout,
		*state.ErrorPaymentSentFailed, *state.ErrorRouteFailed, *state.ErrorUnlockFailed,
		*state.ErrorInvalidSecretRequest, *state.ErrorInvalidReceivedLockedTransfer,
		*state.ErrorInvalidReceivedLockExpired, *state.ErrorInvalidReceivedTransferRefund,
		*state.ErrorInvalidReceivedUnlock, *state.ErrorUnexpectedReveal:
		return c.notify(ev)

	default:
		log.Warnf("coordinator: no dispatch sink for event %T, dropping", ev)
		return nil
	}
}

func (c *Coordinator) notify(ev state.Event) error {
	select {
	case c.notifications <- ev:
		return nil
	default:
		return fmt.Errorf("notification channel full, dropping %T", ev)
	}
}

// signAndSend signs msg's signing payload with the node's key, encodes the
// envelope, and hands it to the transport keyed by recipient (spec §6
// "Wire protocol", §4.3 signing discipline).
func (c *Coordinator) signAndSend(ctx context.Context, recipient primitives.Address, msg messages.Signable, setSignature func(primitives.Signature)) error {
	if err := messages.SignMessage(c.signer, msg, setSignature); err != nil {
		return fmt.Errorf("signing %T: %w", msg, err)
	}
	payload, err := messages.Encode(msg)
	if err != nil {
		return fmt.Errorf("encoding %T: %w", msg, err)
	}
	return c.transport.Send(ctx, recipient, payload)
}

// tokenAddressFor resolves the ERC20 token address backing a channel, used
// to populate LockedTransfer.Token (the SendLockedTransfer event itself
// doesn't carry it — only the channel does).
func (c *Coordinator) tokenAddressFor(id primitives.CanonicalIdentifier) primitives.Address {
	var token primitives.Address
	c.View(func(cs *state.ChainState) {
		if ch, ok := cs.ChannelByCanonicalIdentifier(id); ok {
			token = ch.TokenAddress
		}
	})
	return token
}
