package transition

import (
	"bytes"

	"golang.org/x/exp/slices"

	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

func handleActionInitChain(chainState *state.ChainState, c *state.ActionInitChain) (*state.ChainState, []state.Event) {
	return state.NewChainState(c.ChainID, c.BlockNumber, c.BlockHash, c.OurAddress, c.RandomSeed), nil
}

// handleBlock implements spec §4.1's block-progression algorithm:
// chain_state.block_number advances, then every channel in every token
// network is checked for expired pending withdraws and pending locks.
// block_number is monotonically non-decreasing (spec §3.2 invariant); a
// stale or duplicate Block is a no-op, which also gives expiration
// idempotence (spec §8) for free — re-delivering the same block number
// never re-walks the tree.
func handleBlock(chainState *state.ChainState, c *state.Block) (*state.ChainState, []state.Event) {
	if c.BlockNumber <= chainState.BlockNumber {
		return chainState, nil
	}
	next := chainState.Clone()
	next.BlockNumber = c.BlockNumber
	next.BlockHash = c.BlockHash

	var events []state.Event
	registryAddresses := make([]primitives.Address, 0, len(next.TokenNetworkRegistries))
	for addr := range next.TokenNetworkRegistries {
		registryAddresses = append(registryAddresses, addr)
	}
	slices.SortFunc(registryAddresses, func(a, b primitives.Address) bool { return bytes.Compare(a[:], b[:]) < 0 })

	for _, registryAddr := range registryAddresses {
		registry := next.TokenNetworkRegistries[registryAddr]
		newRegistry := registry.Clone()
		registryChanged := false

		tnAddresses := make([]primitives.Address, 0, len(newRegistry.TokenNetworkAddressesToTokenNetworks))
		for addr := range newRegistry.TokenNetworkAddressesToTokenNetworks {
			tnAddresses = append(tnAddresses, addr)
		}
		slices.SortFunc(tnAddresses, func(a, b primitives.Address) bool { return bytes.Compare(a[:], b[:]) < 0 })

		for _, tnAddr := range tnAddresses {
			tn := newRegistry.TokenNetworkAddressesToTokenNetworks[tnAddr]
			newTN := tn.Clone()
			tnChanged := false

			ids := make([]uint64, 0, len(newTN.ChannelIdentifiersToChannels))
			for id := range newTN.ChannelIdentifiersToChannels {
				ids = append(ids, id)
			}
			slices.Sort(ids)

			for _, id := range ids {
				ch := newTN.ChannelIdentifiersToChannels[id]
				updated, chEvents := expireChannelAtBlock(*ch, next.BlockNumber, next.PseudoRandom)
				if len(chEvents) > 0 {
					newTN.ReplaceChannel(&updated)
					tnChanged = true
					events = append(events, chEvents...)
				}
			}

			if tnChanged {
				newRegistry.ReplaceTokenNetwork(newTN)
				registryChanged = true
			}
		}

		if registryChanged {
			next.TokenNetworkRegistries[registryAddr] = newRegistry
		}
	}

	return next, events
}

// expireChannelAtBlock checks our_state for withdraws and locks whose
// confirmation threshold has been crossed (spec §4.1: "expiration +
// 2*confirmations <= block" for withdraws; "expiration + confirmations <=
// block" for locks), moving expired withdraws into our_state's
// expired collection and expired locks out of pending_locks with the
// balance-proof invariants re-applied (spec §4.1 "Nonce & locksroot
// invariants"). Only the side that originated a lock or withdraw may
// proactively expire it and advance its own balance proof; the partner's
// side is expired by the partner and arrives here as
// ReceiveLockExpired/ReceiveWithdrawExpired instead.
func expireChannelAtBlock(ch state.Channel, blockNumber primitives.BlockNumber, random *primitives.Random) (state.Channel, []state.Event) {
	events := expireEndAtBlock(&ch.OurState, ch.PartnerState.Address, ch.CanonicalIdentifier, blockNumber, random)
	return ch, events
}

// expireEndAtBlock mutates a copy-on-write-cloned channel end in place (the
// clone itself is the copy; callers already hold distinct End values from
// Channel-by-value) and returns the SendWithdrawExpired/SendLockExpired
// events generated, addressed to recipient. Message identifiers are drawn
// from random, the reducer's seeded deterministic stream (spec §9).
func expireEndAtBlock(end *state.ChannelEndState, recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, blockNumber primitives.BlockNumber, random *primitives.Random) []state.Event {
	var events []state.Event
	cloned := end.Clone()
	changed := false

	pendingAmounts := make([]primitives.Amount, 0, len(cloned.WithdrawsPending))
	for amount := range cloned.WithdrawsPending {
		pendingAmounts = append(pendingAmounts, amount)
	}
	slices.SortFunc(pendingAmounts, func(a, b primitives.Amount) bool { return a.Cmp(b) < 0 })
	for _, amount := range pendingAmounts {
		pending := cloned.WithdrawsPending[amount]
		if !pending.HasExpired(blockNumber) {
			continue
		}
		delete(cloned.WithdrawsPending, amount)
		cloned.WithdrawsExpired = append(cloned.WithdrawsExpired, state.ExpiredWithdrawState{
			TotalWithdraw: pending.TotalWithdraw,
			Expiration:    pending.Expiration,
			Nonce:         pending.Nonce,
		})
		changed = true
		events = append(events, state.NewSendWithdrawExpired(
			recipient, canonicalIdentifier, random.Next(),
			end.Address, pending.TotalWithdraw, pending.Nonce, pending.Expiration,
		))
	}

	secretHashes := make([]primitives.SecretHash, 0, len(cloned.SecretHashesToLocked))
	for secretHash := range cloned.SecretHashesToLocked {
		secretHashes = append(secretHashes, secretHash)
	}
	slices.SortFunc(secretHashes, func(a, b primitives.SecretHash) bool { return bytes.Compare(a[:], b[:]) < 0 })
	for _, secretHash := range secretHashes {
		lock := cloned.SecretHashesToLocked[secretHash]
		if primitives.BlockNumber(lock.Expiration)+state.DefaultNumberOfBlockConfirmations > blockNumber {
			continue
		}
		delete(cloned.SecretHashesToLocked, secretHash)
		cloned.PendingLocks = cloned.PendingLocks.Without(lock)
		transferred := primitives.ZeroAmount
		if cloned.BalanceProof != nil {
			transferred = cloned.BalanceProof.TransferredAmount
		}
		locked := primitives.ZeroAmount
		if cloned.BalanceProof != nil {
			var err error
			locked, err = cloned.BalanceProof.LockedAmount.Sub(lock.Amount)
			if err != nil {
				log.Errorf("expireEndAtBlock: %v", err)
				continue
			}
		}
		advanceBalanceProof(&cloned, canonicalIdentifier, transferred, locked)
		changed = true
		events = append(events, state.NewSendLockExpired(recipient, canonicalIdentifier, random.Next(), *cloned.BalanceProof, secretHash))
	}

	if changed {
		*end = cloned
	}
	return events
}
