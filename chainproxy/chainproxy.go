// Package chainproxy declares the thin chain-interface contracts spec §6
// names (TokenNetworkRegistry, TokenNetwork, SecretRegistry, ServiceRegistry,
// UserDeposit, OneToN). The core depends only on emitting transactions and
// querying point-in-time on-chain state through these interfaces — it never
// touches an RPC client directly. Grounded on
// `lnwallet.WalletController`/`lnwallet.Signer`'s pattern of narrow,
// capability-scoped interfaces standing between the core and a concrete
// chain backend.
package chainproxy

import (
	"context"

	"github.com/raiden-network/raiden-go/primitives"
)

// ParticipantDetails is a point-in-time view of one side of a channel, as
// read from chain state rather than derived from the reducer's own model
// (used to reconcile after a restart or to validate an incoming message
// against on-chain truth).
type ParticipantDetails struct {
	Address            primitives.Address
	Deposit            primitives.Amount
	Withdrawn          primitives.Amount
	IsCloser           bool
	BalanceHash        primitives.Hash
	Nonce              primitives.Nonce
	Locksroot          primitives.Hash
	LockedAmount       primitives.Amount
}

// TokenNetworkRegistry creates new token networks on demand (spec §6).
type TokenNetworkRegistry interface {
	Address() primitives.Address
	TokenNetworkByToken(ctx context.Context, token primitives.Address) (primitives.Address, error)
	CreateTokenNetwork(ctx context.Context, token primitives.Address) (primitives.TransactionHash, error)
}

// TokenNetwork is the per-token-network contract proxy: channel lifecycle
// transactions plus point-in-time queries (spec §6).
type TokenNetwork interface {
	Address() primitives.Address

	OpenChannel(ctx context.Context, partner primitives.Address, settleTimeout primitives.BlockNumber) (primitives.TransactionHash, error)
	SetTotalDeposit(ctx context.Context, canonicalIdentifier primitives.CanonicalIdentifier, totalDeposit primitives.Amount, partner primitives.Address) (primitives.TransactionHash, error)
	SetTotalWithdraw(ctx context.Context, canonicalIdentifier primitives.CanonicalIdentifier, totalWithdraw primitives.Amount, expiration primitives.BlockExpiration, signature, partnerSignature primitives.Signature) (primitives.TransactionHash, error)
	CloseChannel(ctx context.Context, canonicalIdentifier primitives.CanonicalIdentifier, balanceHash primitives.Hash, nonce primitives.Nonce, additionalHash primitives.Hash, signature, partnerSignature primitives.Signature) (primitives.TransactionHash, error)
	UpdateNonClosingBalanceProof(ctx context.Context, canonicalIdentifier primitives.CanonicalIdentifier, closingParticipant, nonClosingParticipant primitives.Address, balanceHash primitives.Hash, nonce primitives.Nonce, additionalHash primitives.Hash, closingSignature, nonClosingSignature primitives.Signature) (primitives.TransactionHash, error)
	SettleChannel(ctx context.Context, canonicalIdentifier primitives.CanonicalIdentifier, ourTransferred, ourLocked primitives.Amount, ourLocksroot primitives.Hash, partnerTransferred, partnerLocked primitives.Amount, partnerLocksroot primitives.Hash) (primitives.TransactionHash, error)
	Unlock(ctx context.Context, canonicalIdentifier primitives.CanonicalIdentifier, sender, receiver primitives.Address, lockedEncoded [][96]byte) (primitives.TransactionHash, error)

	ParticipantDetails(ctx context.Context, canonicalIdentifier primitives.CanonicalIdentifier, participant, partner primitives.Address, blockHash primitives.BlockHash) (ParticipantDetails, error)
	ParticipantsLocksroot(ctx context.Context, canonicalIdentifier primitives.CanonicalIdentifier, blockHash primitives.BlockHash) (ours, partner primitives.Hash, err error)
}

// SecretRegistry exposes on-chain secret registration (spec §6).
type SecretRegistry interface {
	Address() primitives.Address
	RegisterSecret(ctx context.Context, secret primitives.Secret) (primitives.TransactionHash, error)
	SecretRevealBlockNumber(ctx context.Context, secretHash primitives.SecretHash, blockHash primitives.BlockHash) (primitives.BlockNumber, bool, error)
}

// ServiceRegistry is retained from the chain-level service discovery
// surface (monitoring/path-finding services register here); the core only
// needs to read the current set of registered service addresses (spec §6,
// SPEC_FULL.md's supplemented UpdatedServicesAddresses handling).
type ServiceRegistry interface {
	Address() primitives.Address
	ServiceAddresses(ctx context.Context, blockHash primitives.BlockHash) ([]primitives.Address, error)
}

// UserDeposit exposes the on-chain deposit pool backing monitoring-service
// and pathfinding-service rewards (spec §6 "the core depends only on
// emitting transactions... and querying balances").
type UserDeposit interface {
	Address() primitives.Address
	EffectiveBalance(ctx context.Context, owner primitives.Address, blockHash primitives.BlockHash) (primitives.Amount, error)
}

// OneToN is the one-to-n payment contract proxy backing monitoring-service
// rewards (spec §6).
type OneToN interface {
	Address() primitives.Address
	Deposit(ctx context.Context, amount primitives.Amount) (primitives.TransactionHash, error)
}
