package state

import "github.com/raiden-network/raiden-go/primitives"

// HashTimeLock is an amount bound to a secrethash and expiration, claimable
// by presenting the preimage before expiration (spec glossary).
type HashTimeLock struct {
	Amount     primitives.Amount
	Expiration primitives.BlockExpiration
	SecretHash primitives.SecretHash
}

// Encoded returns the 96-byte wire encoding used as a locksroot leaf
// (spec §3.6).
func (l HashTimeLock) Encoded() [96]byte {
	return primitives.PackLock(l.Expiration, l.Amount, l.SecretHash)
}

// UnlockPartialProof is a lock whose secret is known off-chain (moved from
// the locked to the unlocked map on ReceiveSecretReveal/SecretReveal).
type UnlockPartialProof struct {
	Lock       HashTimeLock
	Secret     primitives.Secret
	SecretHash primitives.SecretHash
}

// PendingLocksState is the insertion-ordered list of encoded locks whose
// Keccak-256 equals the channel end's locksroot (spec §3.4, §3.6).
type PendingLocksState struct {
	Locks [][96]byte
}

// Locksroot recomputes Keccak(concat(locks)).
func (p PendingLocksState) Locksroot() primitives.Hash {
	return primitives.Locksroot(p.Locks)
}

// With returns a new PendingLocksState with the given lock appended. The
// state tree is copy-on-write (spec §9 "tree of entities without
// pointers"): sub-reducers never mutate a PendingLocksState in place.
func (p PendingLocksState) With(lock HashTimeLock) PendingLocksState {
	out := make([][96]byte, len(p.Locks)+1)
	copy(out, p.Locks)
	out[len(p.Locks)] = lock.Encoded()
	return PendingLocksState{Locks: out}
}

// Without returns a new PendingLocksState with the given lock's encoding
// removed (first match only; a lock's encoding is unique per secrethash so
// there is never more than one match in a well-formed state).
func (p PendingLocksState) Without(lock HashTimeLock) PendingLocksState {
	enc := lock.Encoded()
	out := make([][96]byte, 0, len(p.Locks))
	removed := false
	for _, l := range p.Locks {
		if !removed && l == enc {
			removed = true
			continue
		}
		out = append(out, l)
	}
	return PendingLocksState{Locks: out}
}
