package transition

import (
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// DefaultRevealTimeout is assigned to every channel opened on-chain; spec
// §4.1 names it DEFAULT_REVEAL_TIMEOUT without fixing a value, so the node
// picks a conservative default an operator can override via
// ActionChannelSetRevealTimeout.
const DefaultRevealTimeout = primitives.BlockNumber(50)

// withChannel locates the channel named by id, runs fn on a copy of it, and
// threads the rebuilt channel back up through a freshly cloned token
// network, registry, and chain state (spec §9 copy-on-write: sub-reducers
// take and return sub-trees, never mutate in place). When the channel isn't
// found it returns chainState unchanged — callers can detect "nothing
// happened" with a pointer-identity check, matching spec §4.1's rule that
// an unknown channel for a chain event is a silent no-op.
func withChannel(chainState *state.ChainState, id primitives.CanonicalIdentifier, fn func(state.Channel) (state.Channel, []state.Event)) (*state.ChainState, []state.Event) {
	tn, ok := chainState.TokenNetworkByAddress(id.TokenNetworkAddress)
	if !ok {
		return chainState, nil
	}
	ch, ok := tn.Channel(id.ChannelIdentifier)
	if !ok {
		return chainState, nil
	}
	registry := registryOwning(chainState, tn.Address)
	if registry == nil {
		return chainState, nil
	}

	newCh, events := fn(*ch)

	newTN := tn.Clone()
	newTN.ReplaceChannel(&newCh)
	newRegistry := registry.Clone()
	newRegistry.ReplaceTokenNetwork(newTN)
	next := chainState.Clone()
	next.TokenNetworkRegistries[registry.Address] = newRegistry
	return next, events
}

func registryOwning(chainState *state.ChainState, tokenNetworkAddress primitives.Address) *state.TokenNetworkRegistry {
	for _, registry := range chainState.TokenNetworkRegistries {
		if _, ok := registry.TokenNetwork(tokenNetworkAddress); ok {
			return registry
		}
	}
	return nil
}

// advanceBalanceProof stamps end with the next nonce and a freshly computed
// balance proof over transferredAmount/lockedAmount and the end's current
// pending locks, enforcing the nonce & locksroot invariants of spec §4.1.
func advanceBalanceProof(end *state.ChannelEndState, canonicalIdentifier primitives.CanonicalIdentifier, transferredAmount, lockedAmount primitives.Amount) {
	end.Nonce = end.NextNonce()
	bp := state.NewBalanceProof(end.Nonce, transferredAmount, lockedAmount, end.PendingLocks.Locksroot(), canonicalIdentifier)
	end.BalanceProof = &bp
}

// transferredAmount and lockedAmount read an end's current balance proof
// fields, defaulting to zero before any balance proof has been signed.
func transferredAmount(end state.ChannelEndState) primitives.Amount {
	if end.BalanceProof == nil {
		return primitives.ZeroAmount
	}
	return end.BalanceProof.TransferredAmount
}

func lockedAmount(end state.ChannelEndState) primitives.Amount {
	if end.BalanceProof == nil {
		return primitives.ZeroAmount
	}
	return end.BalanceProof.LockedAmount
}

func handleContractReceiveTokenNetworkRegistry(chainState *state.ChainState, c *state.ContractReceiveTokenNetworkRegistry) (*state.ChainState, []state.Event) {
	if _, ok := chainState.TokenNetworkRegistries[c.RegistryAddress]; ok {
		return chainState, nil
	}
	next := chainState.Clone()
	next.TokenNetworkRegistries[c.RegistryAddress] = state.NewTokenNetworkRegistry(c.RegistryAddress)
	return next, nil
}

func handleContractReceiveTokenNetworkCreated(chainState *state.ChainState, c *state.ContractReceiveTokenNetworkCreated) (*state.ChainState, []state.Event) {
	registry, ok := chainState.TokenNetworkRegistries[c.TokenNetworkRegistryAddress]
	if !ok {
		log.Warnf("ContractReceiveTokenNetworkCreated for unknown registry %s, ignoring", c.TokenNetworkRegistryAddress.Hex())
		return chainState, nil
	}
	if _, exists := registry.TokenNetwork(c.TokenNetworkAddress); exists {
		return chainState, nil
	}
	next := chainState.Clone()
	newRegistry := registry.Clone()
	newRegistry.AddTokenNetwork(state.NewTokenNetwork(c.TokenNetworkAddress, c.TokenAddress))
	next.TokenNetworkRegistries[registry.Address] = newRegistry
	return next, nil
}

// handleContractReceiveChannelOpened implements spec §4.1's ChannelOpened
// algorithm: accept only if our_address is a participant (the third Open
// Question, resolved in SPEC_FULL.md §3 by ignoring the event otherwise),
// idempotent on a duplicate canonical identifier.
func handleContractReceiveChannelOpened(chainState *state.ChainState, c *state.ContractReceiveChannelOpened) (*state.ChainState, []state.Event) {
	if c.Participant1 != chainState.OurAddress && c.Participant2 != chainState.OurAddress {
		return chainState, nil
	}
	registry, ok := chainState.TokenNetworkRegistries[c.RegistryAddress]
	if !ok {
		return chainState, nil
	}
	tn, ok := registry.TokenNetwork(c.CanonicalIdentifier.TokenNetworkAddress)
	if !ok {
		return chainState, nil
	}
	if _, exists := tn.Channel(c.CanonicalIdentifier.ChannelIdentifier); exists {
		return chainState, nil
	}

	partner := c.Participant2
	if chainState.OurAddress == c.Participant2 {
		partner = c.Participant1
	}

	openTransaction := state.TransactionExecutionStatus{
		StartedBlockNumber:  c.BlockNumber,
		FinishedBlockNumber: &c.BlockNumber,
		Result:              state.TransactionResultSuccess,
	}
	ch, err := state.NewChannel(
		c.CanonicalIdentifier,
		c.TokenAddress,
		c.RegistryAddress,
		chainState.OurAddress,
		partner,
		DefaultRevealTimeout,
		c.SettleTimeout,
		openTransaction,
		state.DefaultFeeSchedule(),
	)
	if err != nil {
		log.Errorf("ContractReceiveChannelOpened: %v, ignoring", err)
		return chainState, nil
	}

	next := chainState.Clone()
	newRegistry := registry.Clone()
	newTN := tn.Clone()
	newTN.AddChannel(ch, chainState.OurAddress)
	newRegistry.ReplaceTokenNetwork(newTN)
	next.TokenNetworkRegistries[registry.Address] = newRegistry
	return next, nil
}

func handleContractReceiveChannelClosed(chainState *state.ChainState, c *state.ContractReceiveChannelClosed) (*state.ChainState, []state.Event) {
	return withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		if ch.CloseTransaction != nil {
			return ch, nil
		}
		finished := c.BlockNumber
		ch.CloseTransaction = &state.TransactionExecutionStatus{
			FinishedBlockNumber: &finished,
			Result:              state.TransactionResultSuccess,
		}
		return ch, nil
	})
}

// handleContractReceiveChannelSettled moves every off-chain-unlocked lock on
// each side into its onchain-unlocked map (spec §4.1 "the reducer consults
// the on-chain locksroot ... and moves locks whose preimages were
// registered on-chain"); per-leaf merkle membership proofs against the
// on-chain locksroot aren't modeled (the state tree only carries the
// 32-byte root, not a proof structure), so every already-revealed lock on a
// side is treated as claimable once that side's locksroot is observed
// settled. Queues addressed to the channel are cleared per the lifecycle
// table in spec §3.6.
func handleContractReceiveChannelSettled(chainState *state.ChainState, c *state.ContractReceiveChannelSettled) (*state.ChainState, []state.Event) {
	next, events := withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		if ch.SettleTransaction != nil {
			return ch, nil
		}
		finished := c.BlockNumber
		ch.SettleTransaction = &state.TransactionExecutionStatus{
			FinishedBlockNumber: &finished,
			Result:              state.TransactionResultSuccess,
		}

		our := ch.OurState.Clone()
		our.OnchainLocksroot = c.OurOnchainLocksroot
		for secretHash, proof := range our.SecretHashesToUnlocked {
			our.SecretHashesToOnchainUnlocked[secretHash] = proof
			delete(our.SecretHashesToUnlocked, secretHash)
		}

		partner := ch.PartnerState.Clone()
		partner.OnchainLocksroot = c.PartnerOnchainLocksroot
		for secretHash, proof := range partner.SecretHashesToUnlocked {
			partner.SecretHashesToOnchainUnlocked[secretHash] = proof
			delete(partner.SecretHashesToUnlocked, secretHash)
		}

		ch.OurState = our
		ch.PartnerState = partner
		return ch, nil
	})
	if next != chainState {
		next.ClearQueuesForChannel(c.CanonicalIdentifier)
	}
	return next, events
}

func handleContractReceiveChannelDeposit(chainState *state.ChainState, c *state.ContractReceiveChannelDeposit) (*state.ChainState, []state.Event) {
	return withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		if c.Participant == ch.OurState.Address {
			our := ch.OurState
			our.ContractBalance = c.TotalDeposit
			ch.OurState = our
		} else if c.Participant == ch.PartnerState.Address {
			partner := ch.PartnerState
			partner.ContractBalance = c.TotalDeposit
			ch.PartnerState = partner
		}
		return ch, nil
	})
}

func handleContractReceiveChannelWithdraw(chainState *state.ChainState, c *state.ContractReceiveChannelWithdraw) (*state.ChainState, []state.Event) {
	return withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		isOur := c.Participant == ch.OurState.Address
		if !isOur && c.Participant != ch.PartnerState.Address {
			return ch, nil
		}
		end := ch.OurState
		if !isOur {
			end = ch.PartnerState
		}
		end = end.Clone()
		end.OnchainTotalWithdraw = c.TotalWithdraw
		for amount, pending := range end.WithdrawsPending {
			if pending.TotalWithdraw.Cmp(c.TotalWithdraw) == 0 {
				delete(end.WithdrawsPending, amount)
			}
		}
		if isOur {
			ch.OurState = end
		} else {
			ch.PartnerState = end
		}
		return ch, nil
	})
}

func handleContractReceiveChannelBatchUnlock(chainState *state.ChainState, c *state.ContractReceiveChannelBatchUnlock) (*state.ChainState, []state.Event) {
	return withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		isOur := c.Sender == ch.OurState.Address
		if !isOur && c.Sender != ch.PartnerState.Address {
			return ch, nil
		}
		end := ch.OurState
		if !isOur {
			end = ch.PartnerState
		}
		end = end.Clone()
		end.SecretHashesToOnchainUnlocked = make(map[primitives.SecretHash]state.UnlockPartialProof)
		if isOur {
			ch.OurState = end
		} else {
			ch.PartnerState = end
		}
		return ch, nil
	})
}

func handleContractReceiveUpdateTransfer(chainState *state.ChainState, c *state.ContractReceiveUpdateTransfer) (*state.ChainState, []state.Event) {
	return withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		finished := c.BlockNumber
		ch.UpdateTransaction = &state.TransactionExecutionStatus{
			FinishedBlockNumber: &finished,
			Result:              state.TransactionResultSuccess,
		}
		return ch, nil
	})
}

// handleContractReceiveSecretReveal records a secret observed on-chain (via
// the SecretRegistry contract) against its payment task, so a mediator or
// initiator sub-reducer that hasn't yet seen the secret off-chain can still
// claim/forward the unlock (SPEC_FULL.md §3 PaymentMappingState).
func handleContractReceiveSecretReveal(chainState *state.ChainState, c *state.ContractReceiveSecretReveal) (*state.ChainState, []state.Event) {
	task, ok := chainState.PaymentMapping.SecretHashesToTask[c.SecretHash]
	if !ok || task.Secret != nil {
		return chainState, nil
	}
	next := chainState.Clone()
	newTask := *task
	secret := c.Secret
	newTask.Secret = &secret
	next.PaymentMapping.SecretHashesToTask[c.SecretHash] = &newTask
	return next, nil
}

// handleContractReceiveRouteNew is a deliberate no-op: full pathfinding
// across third-party channels is out of scope (spec §1 Non-goals), and the
// state tree only models channels the local node is a participant of, so
// there is no sub-tree to record a foreign edge into (SPEC_FULL.md §4).
func handleContractReceiveRouteNew(chainState *state.ChainState, c *state.ContractReceiveRouteNew) (*state.ChainState, []state.Event) {
	return chainState, nil
}

func handleActionChannelSetRevealTimeout(chainState *state.ChainState, c *state.ActionChannelSetRevealTimeout) (*state.ChainState, []state.Event) {
	ch, ok := chainState.ChannelByCanonicalIdentifier(c.CanonicalIdentifier)
	if !ok {
		return chainState, nil
	}
	if c.RevealTimeout >= ch.SettleTimeout {
		return chainState, []state.Event{&state.ErrorInvalidActionSetRevealTimeout{
			Reason: "reveal_timeout must be smaller than settle_timeout",
		}}
	}
	return withChannel(chainState, c.CanonicalIdentifier, func(ch state.Channel) (state.Channel, []state.Event) {
		ch.RevealTimeout = c.RevealTimeout
		return ch, nil
	})
}
