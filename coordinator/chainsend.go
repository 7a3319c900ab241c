package coordinator

import (
	"context"
	"fmt"

	"github.com/raiden-network/raiden-go/chainproxy"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// tokenNetworkFor resolves the chain proxy for the token network a
// ContractSend* event names, or an error if this node doesn't recognise it
// (spec §6 "the core depends only on emitting transactions... through
// these [proxies]"). It waits on the coordinator's chain-RPC rate limiter
// first, so a burst of ContractSend* events replayed after a restart (or
// emitted for many channels at once) doesn't submit transactions to the
// RPC endpoint faster than chainRPCLimiter allows.
func (c *Coordinator) tokenNetworkFor(ctx context.Context, address primitives.Address) (chainproxy.TokenNetwork, error) {
	if err := c.chainRPCLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.chains.TokenNetworkByAddress == nil {
		return nil, fmt.Errorf("coordinator: no token network proxies configured")
	}
	tn, ok := c.chains.TokenNetworkByAddress(address)
	if !ok {
		return nil, fmt.Errorf("coordinator: unknown token network %s", address.Hex())
	}
	return tn, nil
}

func (c *Coordinator) dispatchChannelClose(ctx context.Context, e *state.ContractSendChannelClose) error {
	tn, err := c.tokenNetworkFor(ctx, e.CanonicalIdentifier.TokenNetworkAddress)
	if err != nil {
		return err
	}
	if e.BalanceProof == nil {
		// Closing without ever having received a balance proof from the
		// partner: nothing to submit alongside the close itself.
		_, err := tn.CloseChannel(ctx, e.CanonicalIdentifier, primitives.Hash{}, 0, primitives.Hash{}, primitives.Signature{}, primitives.Signature{})
		return err
	}
	var sig primitives.Signature
	if e.BalanceProof.Signature != nil {
		sig = *e.BalanceProof.Signature
	}
	_, err = tn.CloseChannel(ctx, e.CanonicalIdentifier, e.BalanceProof.BalanceHash, e.BalanceProof.Nonce, hashOrZero(e.BalanceProof.MessageHash), sig, primitives.Signature{})
	return err
}

func (c *Coordinator) dispatchChannelWithdraw(ctx context.Context, e *state.ContractSendChannelWithdraw) error {
	tn, err := c.tokenNetworkFor(ctx, e.CanonicalIdentifier.TokenNetworkAddress)
	if err != nil {
		return err
	}
	_, err = tn.SetTotalWithdraw(ctx, e.CanonicalIdentifier, e.TotalWithdraw, e.Expiration, e.Signature, primitives.Signature{})
	return err
}

// dispatchChannelSettle reads the channel's current balance-proof fields
// out of ChainState (the ContractSendChannelSettle event itself carries
// only the canonical identifier) to build the settle call's arguments.
func (c *Coordinator) dispatchChannelSettle(ctx context.Context, e *state.ContractSendChannelSettle) error {
	tn, err := c.tokenNetworkFor(ctx, e.CanonicalIdentifier.TokenNetworkAddress)
	if err != nil {
		return err
	}

	var ourTransferred, ourLocked, partnerTransferred, partnerLocked primitives.Amount
	var ourLocksroot, partnerLocksroot primitives.Hash
	found := false
	c.View(func(cs *state.ChainState) {
		ch, ok := cs.ChannelByCanonicalIdentifier(e.CanonicalIdentifier)
		if !ok {
			return
		}
		found = true
		our, partner := ch.Our(), ch.Partner()
		if our.BalanceProof != nil {
			ourTransferred = our.BalanceProof.TransferredAmount
			ourLocked = our.BalanceProof.LockedAmount
		}
		ourLocksroot = our.PendingLocks.Locksroot()
		if partner.BalanceProof != nil {
			partnerTransferred = partner.BalanceProof.TransferredAmount
			partnerLocked = partner.BalanceProof.LockedAmount
		}
		partnerLocksroot = partner.PendingLocks.Locksroot()
	})
	if !found {
		return fmt.Errorf("coordinator: settle on unknown channel %s", e.CanonicalIdentifier)
	}

	_, err = tn.SettleChannel(ctx, e.CanonicalIdentifier, ourTransferred, ourLocked, ourLocksroot, partnerTransferred, partnerLocked, partnerLocksroot)
	return err
}

func (c *Coordinator) dispatchUpdateTransfer(ctx context.Context, e *state.ContractSendChannelUpdateTransfer) error {
	tn, err := c.tokenNetworkFor(ctx, e.CanonicalIdentifier.TokenNetworkAddress)
	if err != nil {
		return err
	}
	bp := e.BalanceProof
	var closingParticipant, nonClosingParticipant primitives.Address
	if bp.Sender != nil {
		closingParticipant = *bp.Sender
	}
	c.View(func(cs *state.ChainState) {
		if ch, ok := cs.ChannelByCanonicalIdentifier(e.CanonicalIdentifier); ok {
			nonClosingParticipant = ch.OurState.Address
		}
	})
	var sig primitives.Signature
	if bp.Signature != nil {
		sig = *bp.Signature
	}
	_, err = tn.UpdateNonClosingBalanceProof(ctx, e.CanonicalIdentifier, closingParticipant, nonClosingParticipant, bp.BalanceHash, bp.Nonce, hashOrZero(bp.MessageHash), sig, primitives.Signature{})
	return err
}

func (c *Coordinator) dispatchBatchUnlock(ctx context.Context, e *state.ContractSendChannelBatchUnlock) error {
	tn, err := c.tokenNetworkFor(ctx, e.CanonicalIdentifier.TokenNetworkAddress)
	if err != nil {
		return err
	}

	var locks [][96]byte
	var receiver primitives.Address
	c.View(func(cs *state.ChainState) {
		ch, ok := cs.ChannelByCanonicalIdentifier(e.CanonicalIdentifier)
		if !ok {
			return
		}
		receiver = ch.OurState.Address
		locks = ch.Partner().PendingLocks.Locks
	})
	_, err = tn.Unlock(ctx, e.CanonicalIdentifier, e.Sender, receiver, locks)
	return err
}

func (c *Coordinator) dispatchRegisterSecret(ctx context.Context, e *state.ContractSendSecretReveal) error {
	if c.chains.SecretRegistry == nil {
		return fmt.Errorf("coordinator: no secret registry proxy configured")
	}
	if err := c.chainRPCLimiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.chains.SecretRegistry.RegisterSecret(ctx, e.Secret)
	return err
}

func hashOrZero(h *primitives.Hash) primitives.Hash {
	if h == nil {
		return primitives.Hash{}
	}
	return *h
}
