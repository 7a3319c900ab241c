package state

import "github.com/raiden-network/raiden-go/primitives"

// BalanceProof is a signed tuple representing a participant's cumulative
// claim on a channel at a given nonce (spec §3.5, glossary). MessageHash,
// Signature, and Sender stay nil/zero on every proof the node builds for
// its own side (the signature is carried only on the outgoing wire
// message); coordinator/inbound.go fills Signature and Sender on proofs
// received from a partner, and MessageHash is never filled in.
type BalanceProof struct {
	Nonce               primitives.Nonce
	TransferredAmount   primitives.Amount
	LockedAmount        primitives.Amount
	Locksroot           primitives.Hash
	CanonicalIdentifier primitives.CanonicalIdentifier
	BalanceHash         primitives.Hash
	MessageHash         *primitives.Hash
	Signature           *primitives.Signature
	Sender              *primitives.Address
}

// NewBalanceProof computes BalanceHash from its constituent fields
// (spec §3.5: balance_hash = Keccak(transferred ‖ locked ‖ locksroot)).
func NewBalanceProof(
	nonce primitives.Nonce,
	transferred, locked primitives.Amount,
	locksroot primitives.Hash,
	canonicalIdentifier primitives.CanonicalIdentifier,
) BalanceProof {
	return BalanceProof{
		Nonce:               nonce,
		TransferredAmount:   transferred,
		LockedAmount:        locked,
		Locksroot:           locksroot,
		CanonicalIdentifier: canonicalIdentifier,
		BalanceHash:         primitives.BalanceHash(transferred, locked, locksroot),
	}
}
