package transition

import (
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// handleReceiveLockedTransfer validates an incoming LockedTransfer's balance
// proof against the sending side's current state (spec §4.1 nonce &
// locksroot invariants), applies it to partner_state, and either registers
// the node as the payment's target (requesting the secret) or attempts to
// mediate it onward (mediateLockedTransfer).
func handleReceiveLockedTransfer(chainState *state.ChainState, c *state.ReceiveLockedTransfer) (*state.ChainState, []state.Event) {
	ch, ok := chainState.ChannelByCanonicalIdentifier(c.CanonicalIdentifier)
	if !ok {
		return chainState, nil
	}
	if c.Sender != ch.PartnerState.Address {
		return chainState, nil
	}
	if _, exists := ch.PartnerState.SecretHashesToLocked[c.Lock.SecretHash]; exists {
		return chainState, nil
	}

	expectedNonce := ch.PartnerState.NextNonce()
	expectedLocked := lockedAmount(ch.PartnerState).Add(c.Lock.Amount)
	if c.BalanceProof.Nonce != expectedNonce || c.BalanceProof.LockedAmount.Cmp(expectedLocked) != 0 {
		return chainState, []state.Event{&state.ErrorInvalidReceivedLockedTransfer{Reason: "nonce or locked_amount does not match expected balance proof"}}
	}
	if c.BalanceProof.TransferredAmount.Cmp(transferredAmount(ch.PartnerState)) != 0 {
		return chainState, []state.Event{&state.ErrorInvalidReceivedLockedTransfer{Reason: "transferred_amount must be unchanged on a locked transfer"}}
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

	if c.Target == next.OurAddress {
		task := &state.TransferTask{
			Role:                state.TransferRoleTarget,
			CanonicalIdentifier: c.CanonicalIdentifier,
			PaymentIdentifier:   c.PaymentIdentifier,
			Initiator:           c.Initiator,
			Target:              c.Target,
			Amount:              c.Lock.Amount,
		}
		next.PaymentMapping.SecretHashesToTask[c.Lock.SecretHash] = task
		messageIdentifier := next.PseudoRandom.Next()
		event := state.NewSendSecretRequest(c.Initiator, c.CanonicalIdentifier, messageIdentifier, c.PaymentIdentifier, c.Lock.Amount, c.Lock.Expiration, c.Lock.SecretHash)
		return next, []state.Event{event}
	}

	return mediateLockedTransfer(next, c)
}

// mediateLockedTransfer forwards an incoming transfer on the first direct
// channel the node has with the target. Full multi-hop pathfinding is out
// of scope (spec §1 Non-goals), so mediation is bounded to this single-hop
// heuristic; no viable channel yields ErrorRouteFailed, leaving the already
// applied incoming balance proof in place (the peer's side of the channel
// is correctly accounted regardless of whether forwarding succeeds).
func mediateLockedTransfer(chainState *state.ChainState, c *state.ReceiveLockedTransfer) (*state.ChainState, []state.Event) {
	tn, ok := chainState.TokenNetworkByAddress(c.CanonicalIdentifier.TokenNetworkAddress)
	if !ok {
		return chainState, []state.Event{&state.ErrorRouteFailed{SecretHash: c.Lock.SecretHash, Reason: "unknown token network"}}
	}
	channelID, found := firstChannelWithPartner(tn, c.Target)
	if !found {
		return chainState, []state.Event{&state.ErrorRouteFailed{SecretHash: c.Lock.SecretHash, Reason: "no direct channel to target"}}
	}
	outgoing, ok := tn.Channel(channelID)
	if !ok {
		return chainState, []state.Event{&state.ErrorRouteFailed{SecretHash: c.Lock.SecretHash, Reason: "no direct channel to target"}}
	}

	event, next, ok := sendLockedTransferOnChannel(chainState, outgoing, c.Lock.Amount, c.Lock.SecretHash, c.Initiator, c.Target, c.PaymentIdentifier)
	if !ok {
		return chainState, []state.Event{&state.ErrorRouteFailed{SecretHash: c.Lock.SecretHash, Reason: "insufficient capacity on the channel to target"}}
	}

	task := &state.TransferTask{
		Role:                state.TransferRoleMediator,
		CanonicalIdentifier: outgoing.CanonicalIdentifier,
		PaymentIdentifier:   c.PaymentIdentifier,
		Initiator:           c.Initiator,
		Target:              c.Target,
		Amount:              c.Lock.Amount,
	}
	next.PaymentMapping.SecretHashesToTask[c.Lock.SecretHash] = task
	return next, []state.Event{event}
}

// handleReceiveSecretReveal moves a lock from locked to unlocked on whichever
// side currently holds it and records the secret against its payment task
// (spec §4.1 secret reveal/unlock flow). If the node itself is the lock's
// original sender it immediately settles by advancing its own balance proof
// and emitting SendUnlock; otherwise it just marks the partner's lock as
// unlocked, awaiting the partner's own SendUnlock (handled by
// handleReceiveUnlock).
func handleReceiveSecretReveal(chainState *state.ChainState, c *state.ReceiveSecretReveal) (*state.ChainState, []state.Event) {
	task, ok := chainState.PaymentMapping.SecretHashesToTask[c.SecretHash]
	if !ok {
		return chainState, nil
	}
	ch, ok := chainState.ChannelByCanonicalIdentifier(task.CanonicalIdentifier)
	if !ok {
		return chainState, nil
	}

	if lock, ok := ch.OurState.SecretHashesToLocked[c.SecretHash]; ok {
		seeded := chainState.Clone()
		messageIdentifier := seeded.PseudoRandom.Next()
		canonicalIdentifier := task.CanonicalIdentifier

		next, _ := withChannel(seeded, canonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
			our := ch.OurState
			delete(our.SecretHashesToLocked, c.SecretHash)
			our.PendingLocks = our.PendingLocks.Without(lock)
			transferred := transferredAmount(our).Add(lock.Amount)
			locked, err := lockedAmount(our).Sub(lock.Amount)
			if err != nil {
				log.Errorf("handleReceiveSecretReveal: %v", err)
				return ch, nil
			}
			advanceBalanceProof(&our, canonicalIdentifier, transferred, locked)
			ch.OurState = our
			return ch, nil
		})

		outgoing, _ := next.ChannelByCanonicalIdentifier(canonicalIdentifier)
		events := []state.Event{state.NewSendUnlock(ch.PartnerState.Address, canonicalIdentifier, messageIdentifier, task.PaymentIdentifier, ch.TokenAddress, *outgoing.OurState.BalanceProof, c.Secret, c.SecretHash)}
		if task.Role == state.TransferRoleInitiator {
			events = append(events, &state.PaymentSentSuccess{TokenNetworkAddress: canonicalIdentifier.TokenNetworkAddress, PaymentIdentifier: task.PaymentIdentifier, Amount: task.Amount, Target: task.Target, Secret: c.Secret})
		}
		return next, events
	}

	if lock, ok := ch.PartnerState.SecretHashesToLocked[c.SecretHash]; ok {
		next, _ := withChannel(chainState, task.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
			partner := ch.PartnerState
			delete(partner.SecretHashesToLocked, c.SecretHash)
			partner.SecretHashesToUnlocked[c.SecretHash] = state.UnlockPartialProof{Lock: lock, Secret: c.Secret, SecretHash: c.SecretHash}
			ch.PartnerState = partner
			return ch, nil
		})
		var events []state.Event
		if task.Role == state.TransferRoleTarget {
			events = append(events, &state.PaymentReceivedSuccess{TokenNetworkAddress: task.CanonicalIdentifier.TokenNetworkAddress, PaymentIdentifier: task.PaymentIdentifier, Amount: task.Amount, Initiator: task.Initiator})
		}
		return next, events
	}

	return chainState, nil
}

// handleReceiveUnlock validates the partner's new balance proof against the
// lock it claims to settle (spec §4.1: nonce = old+1, transferred_amount_new
// = old + lock.amount, locked_amount_new = old - lock.amount) and, on match,
// removes the lock from both of the partner's maps and applies the proof.
func handleReceiveUnlock(chainState *state.ChainState, c *state.ReceiveUnlock) (*state.ChainState, []state.Event) {
	ch, ok := chainState.ChannelByCanonicalIdentifier(c.CanonicalIdentifier)
	if !ok {
		return chainState, nil
	}
	if c.Sender != ch.PartnerState.Address {
		return chainState, nil
	}

	lock, locked := ch.PartnerState.SecretHashesToLocked[c.SecretHash]
	if proof, unlocked := ch.PartnerState.SecretHashesToUnlocked[c.SecretHash]; unlocked {
		lock = proof.Lock
		locked = true
	}
	if !locked {
		return chainState, []state.Event{&state.ErrorInvalidReceivedUnlock{Reason: "unknown lock for secrethash"}}
	}

	expectedNonce := ch.PartnerState.NextNonce()
	expectedTransferred := transferredAmount(ch.PartnerState).Add(lock.Amount)
	expectedLocked, err := lockedAmount(ch.PartnerState).Sub(lock.Amount)
	if err != nil || c.BalanceProof.Nonce != expectedNonce ||
		c.BalanceProof.TransferredAmount.Cmp(expectedTransferred) != 0 ||
		c.BalanceProof.LockedAmount.Cmp(expectedLocked) != 0 {
		return chainState, []state.Event{&state.ErrorInvalidReceivedUnlock{Reason: "balance proof does not match the expected unlock"}}
	}

	next, _ := withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		partner := ch.PartnerState
		delete(partner.SecretHashesToLocked, c.SecretHash)
		delete(partner.SecretHashesToUnlocked, c.SecretHash)
		partner.PendingLocks = partner.PendingLocks.Without(lock)
		partner.Nonce = c.BalanceProof.Nonce
		bp := c.BalanceProof
		partner.BalanceProof = &bp
		ch.PartnerState = partner
		return ch, nil
	})
	return next, []state.Event{&state.UnlockSuccess{SecretHash: c.SecretHash}}
}

// handleReceiveLockExpired accepts a peer's LockExpired only once the lock's
// own confirmation threshold has actually passed (spec §4.1: expiration +
// confirmations <= current_block), validating the accompanying balance
// proof the same way as an unlock, minus the transferred_amount change.
func handleReceiveLockExpired(chainState *state.ChainState, c *state.ReceiveLockExpired) (*state.ChainState, []state.Event) {
	ch, ok := chainState.ChannelByCanonicalIdentifier(c.CanonicalIdentifier)
	if !ok {
		return chainState, nil
	}
	if c.Sender != ch.PartnerState.Address {
		return chainState, nil
	}
	lock, ok := ch.PartnerState.SecretHashesToLocked[c.SecretHash]
	if !ok {
		return chainState, []state.Event{&state.ErrorInvalidReceivedLockExpired{Reason: "unknown lock for secrethash"}}
	}
	if primitives.BlockNumber(lock.Expiration)+state.DefaultNumberOfBlockConfirmations > chainState.BlockNumber {
		return chainState, []state.Event{&state.ErrorInvalidReceivedLockExpired{Reason: "lock has not yet reached its expiration confirmation threshold"}}
	}

	expectedNonce := ch.PartnerState.NextNonce()
	expectedLocked, err := lockedAmount(ch.PartnerState).Sub(lock.Amount)
	if err != nil || c.BalanceProof.Nonce != expectedNonce || c.BalanceProof.LockedAmount.Cmp(expectedLocked) != 0 {
		return chainState, []state.Event{&state.ErrorInvalidReceivedLockExpired{Reason: "balance proof does not match the expected lock expiry"}}
	}

	next, _ := withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		partner := ch.PartnerState
		delete(partner.SecretHashesToLocked, c.SecretHash)
		partner.PendingLocks = partner.PendingLocks.Without(lock)
		partner.Nonce = c.BalanceProof.Nonce
		bp := c.BalanceProof
		partner.BalanceProof = &bp
		ch.PartnerState = partner
		return ch, nil
	})
	return next, nil
}
