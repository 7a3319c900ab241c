package coordinator

import (
	"context"
	"fmt"

	"github.com/raiden-network/raiden-go/messages"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
	"github.com/raiden-network/raiden-go/transport"
)

// InboundProcessor is the coordinator's third producer (spec §4.5 item
// 3): it decodes transport envelopes, verifies the sender's signature via
// C5, maps the message to its Receive* state-change, and feeds the
// reducer. Every accepted envelope is acknowledged with a Delivered
// message sent straight back to the sender, bypassing the reducer
// entirely (see messages.NewDelivered).
//
// transport.Envelope.Recipient doubles as the sender address on inbound
// envelopes (WebsocketTransport.readPump populates it from the relay
// frame's "from" field) — there is no separate inbound/outbound envelope
// shape.
type InboundProcessor struct {
	transport   transport.Transport
	coordinator *Coordinator
}

// NewInboundProcessor builds a processor reading from tr.Receive().
func NewInboundProcessor(tr transport.Transport, c *Coordinator) *InboundProcessor {
	return &InboundProcessor{transport: tr, coordinator: c}
}

// Run consumes envelopes until the transport's Receive channel closes or
// ctx is canceled.
func (p *InboundProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-p.transport.Receive():
			if !ok {
				return nil
			}
			if err := p.handle(ctx, env); err != nil {
				log.Errorf("coordinator: inbound message from %s: %v", env.Recipient.Hex(), err)
			}
		}
	}
}

func (p *InboundProcessor) handle(ctx context.Context, env transport.Envelope) error {
	sender := env.Recipient

	msg, err := messages.Decode(env.Payload)
	if err != nil {
		// Spec §7 item 3: an undecodable or unrecognized message is
		// dropped before the reducer, not fatal to the processor.
		return fmt.Errorf("decoding: %w", err)
	}

	change, messageIdentifier, err := toReceiveStateChange(msg, sender)
	if err != nil {
		return err
	}

	if err := p.coordinator.Apply(ctx, change); err != nil {
		return err
	}

	ack := messages.NewDelivered(messageIdentifier)
	return p.coordinator.signAndSend(ctx, sender, ack, func(sig primitives.Signature) { ack.Signature = sig })
}

// toReceiveStateChange verifies msg's signature against the sender the
// transport claims delivered it, then maps it onto its Receive* reducer
// input (spec §4.1 "Peer-observed" state-changes, §4.5 item 3).
func toReceiveStateChange(msg messages.Message, sender primitives.Address) (state.StateChange, primitives.MessageIdentifier, error) {
	switch m := msg.(type) {
	case *messages.LockedTransfer:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		canonicalIdentifier := primitives.CanonicalIdentifier{
			ChainID:             m.ChainID,
			TokenNetworkAddress: m.TokenNetworkAddress,
			ChannelIdentifier:   m.ChannelIdentifier,
		}
		return &state.ReceiveLockedTransfer{
			Sender:              sender,
			CanonicalIdentifier: canonicalIdentifier,
			BalanceProof:        balanceProofFrom(m.Nonce, m.TransferredAmount, m.LockedAmount, m.Locksroot, canonicalIdentifier, m.Signature, sender),
			Lock:                state.HashTimeLock{Amount: m.Lock.Amount, Expiration: m.Lock.Expiration, SecretHash: m.Lock.SecretHash},
			Initiator:           m.Initiator,
			Target:              m.Target,
			PaymentIdentifier:   m.PaymentIdentifier,
			MessageIdentifier:   m.MessageIdentifier,
		}, m.MessageIdentifier, nil

	case *messages.RefundTransfer:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		canonicalIdentifier := primitives.CanonicalIdentifier{
			ChainID:             m.ChainID,
			TokenNetworkAddress: m.TokenNetworkAddress,
			ChannelIdentifier:   m.ChannelIdentifier,
		}
		return &state.ReceiveTransferRefund{
			Sender:              sender,
			CanonicalIdentifier: canonicalIdentifier,
			BalanceProof:        balanceProofFrom(m.Nonce, m.TransferredAmount, m.LockedAmount, m.Locksroot, canonicalIdentifier, m.Signature, sender),
			Lock:                state.HashTimeLock{Amount: m.Lock.Amount, Expiration: m.Lock.Expiration, SecretHash: m.Lock.SecretHash},
			PaymentIdentifier:   m.PaymentIdentifier,
			MessageIdentifier:   m.MessageIdentifier,
		}, m.MessageIdentifier, nil

	case *messages.LockExpired:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		canonicalIdentifier := primitives.CanonicalIdentifier{
			ChainID:             m.ChainID,
			TokenNetworkAddress: m.TokenNetworkAddress,
			ChannelIdentifier:   m.ChannelIdentifier,
		}
		return &state.ReceiveLockExpired{
			Sender:              sender,
			CanonicalIdentifier: canonicalIdentifier,
			BalanceProof:        balanceProofFrom(m.Nonce, m.TransferredAmount, m.LockedAmount, m.Locksroot, canonicalIdentifier, m.Signature, sender),
			SecretHash:          m.SecretHash,
			MessageIdentifier:   m.MessageIdentifier,
		}, m.MessageIdentifier, nil

	case *messages.SecretRequest:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		return &state.ReceiveSecretRequest{
			Sender:            sender,
			PaymentIdentifier: m.PaymentIdentifier,
			Amount:            m.Amount,
			Expiration:        m.Expiration,
			SecretHash:        m.SecretHash,
		}, m.MessageIdentifier, nil

	case *messages.SecretReveal:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		return &state.ReceiveSecretReveal{
			Sender:     sender,
			Secret:     m.Secret,
			SecretHash: primitives.SecretHashFor(m.Secret),
		}, m.MessageIdentifier, nil

	case *messages.Unlock:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		canonicalIdentifier := primitives.CanonicalIdentifier{
			ChainID:             m.ChainID,
			TokenNetworkAddress: m.TokenNetworkAddress,
			ChannelIdentifier:   m.ChannelIdentifier,
		}
		return &state.ReceiveUnlock{
			Sender:              sender,
			CanonicalIdentifier: canonicalIdentifier,
			BalanceProof:        balanceProofFrom(m.Nonce, m.TransferredAmount, m.LockedAmount, m.Locksroot, canonicalIdentifier, m.Signature, sender),
			Secret:              m.Secret,
			SecretHash:          primitives.SecretHashFor(m.Secret),
			MessageIdentifier:   m.MessageIdentifier,
		}, m.MessageIdentifier, nil

	case *messages.WithdrawRequest:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		return &state.ReceiveWithdrawRequest{
			Sender: sender,
			CanonicalIdentifier: primitives.CanonicalIdentifier{
				ChainID:             m.ChainID,
				TokenNetworkAddress: m.TokenNetworkAddress,
				ChannelIdentifier:   m.ChannelIdentifier,
			},
			TotalWithdraw:     m.TotalWithdraw,
			Nonce:             m.Nonce,
			Expiration:        m.Expiration,
			MessageIdentifier: m.MessageIdentifier,
		}, m.MessageIdentifier, nil

	case *messages.WithdrawConfirmation:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		return &state.ReceiveWithdrawConfirmation{
			Sender: sender,
			CanonicalIdentifier: primitives.CanonicalIdentifier{
				ChainID:             m.ChainID,
				TokenNetworkAddress: m.TokenNetworkAddress,
				ChannelIdentifier:   m.ChannelIdentifier,
			},
			TotalWithdraw:     m.TotalWithdraw,
			Nonce:             m.Nonce,
			Expiration:        m.Expiration,
			MessageIdentifier: m.MessageIdentifier,
			Signature:         m.Signature,
		}, m.MessageIdentifier, nil

	case *messages.WithdrawExpired:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		return &state.ReceiveWithdrawExpired{
			Sender: sender,
			CanonicalIdentifier: primitives.CanonicalIdentifier{
				ChainID:             m.ChainID,
				TokenNetworkAddress: m.TokenNetworkAddress,
				ChannelIdentifier:   m.ChannelIdentifier,
			},
			TotalWithdraw:     m.TotalWithdraw,
			Nonce:             m.Nonce,
			Expiration:        m.Expiration,
			MessageIdentifier: m.MessageIdentifier,
		}, m.MessageIdentifier, nil

	case *messages.Processed:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		return &state.ReceiveProcessed{
			Sender:            sender,
			MessageIdentifier: m.MessageIdentifier,
		}, m.MessageIdentifier, nil

	case *messages.Delivered:
		if err := verify(m, m.Signature, sender); err != nil {
			return nil, 0, err
		}
		return &state.ReceiveDelivered{
			Sender:            sender,
			MessageIdentifier: m.DeliveredMessageIdentifier,
		}, m.DeliveredMessageIdentifier, nil

	default:
		return nil, 0, fmt.Errorf("coordinator: no Receive* mapping for %T", msg)
	}
}

// verify checks that signature recovers to sender, the address the
// transport claims delivered this envelope (spec §7 item 3, "signature
// verification failures on inbound messages: message dropped before
// reducer").
func verify(msg messages.Signable, signature primitives.Signature, sender primitives.Address) error {
	ok, err := messages.VerifySender(msg, signature, sender)
	if err != nil {
		return fmt.Errorf("recovering signer: %w", err)
	}
	if !ok {
		return fmt.Errorf("signature does not match claimed sender %s", sender.Hex())
	}
	return nil
}

// balanceProofFrom reconstructs the state.BalanceProof a transfer-shaped
// message carries, computing BalanceHash the same way the reducer does
// (spec §3.5) and recording the already-verified sender and signature.
func balanceProofFrom(nonce primitives.Nonce, transferred, locked primitives.Amount, locksroot primitives.Hash, canonicalIdentifier primitives.CanonicalIdentifier, signature primitives.Signature, sender primitives.Address) state.BalanceProof {
	sig := signature
	snd := sender
	return state.BalanceProof{
		Nonce:               nonce,
		TransferredAmount:   transferred,
		LockedAmount:        locked,
		Locksroot:           locksroot,
		CanonicalIdentifier: canonicalIdentifier,
		BalanceHash:         primitives.BalanceHash(transferred, locked, locksroot),
		Signature:           &sig,
		Sender:              &snd,
	}
}
