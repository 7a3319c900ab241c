package messages

import (
	"bytes"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// LockedTransfer is the wire form of state.SendLockedTransfer /
// state.ReceiveLockedTransfer (spec §4.3).
type LockedTransfer struct {
	Type                string                     `json:"type"`
	ChainID             primitives.ChainID         `json:"chain_id"`
	MessageIdentifier   primitives.MessageIdentifier `json:"message_identifier"`
	PaymentIdentifier   primitives.PaymentIdentifier `json:"payment_identifier"`
	TokenNetworkAddress primitives.Address         `json:"token_network_address"`
	ChannelIdentifier   uint64                     `json:"channel_identifier"`
	Nonce               primitives.Nonce          `json:"nonce"`
	TransferredAmount   primitives.Amount          `json:"transferred_amount"`
	LockedAmount        primitives.Amount          `json:"locked_amount"`
	Locksroot           primitives.Hash            `json:"locksroot"`
	Token               primitives.Address         `json:"token"`
	Recipient           primitives.Address         `json:"recipient"`
	Target              primitives.Address         `json:"target"`
	Initiator           primitives.Address         `json:"initiator"`
	Lock                LockPart                   `json:"lock"`
	Signature           primitives.Signature       `json:"signature"`
}

// LockPart is the JSON shape of a state.HashTimeLock inside a transfer
// message envelope.
type LockPart struct {
	Amount     primitives.Amount           `json:"amount"`
	Expiration primitives.BlockExpiration `json:"expiration"`
	SecretHash primitives.SecretHash      `json:"secrethash"`
}

func (m *LockedTransfer) CmdID() CmdId      { return CmdIdLockedTransfer }
func (m *LockedTransfer) TypeName() string  { return "LockedTransfer" }

// additionalHash computes the message_hash component of pack_balance_proof
// for transfer-shaped messages (spec §4.3's pack_balance_proof takes an
// opaque additional_hash alongside balance_hash). The reference Rust
// preimage for this field was not present in the retrieved corpus
// (transfer.rs wasn't included in original_source), so this hashes every
// field the balance proof itself doesn't already bind — token, recipient,
// target, initiator, and the lock triple — which is the set of fields
// pack_balance_proof's own covered columns (nonce, balance_hash, channel,
// msg_type) leave unauthenticated. Documented in DESIGN.md as an
// implementation decision rather than a transcription from the original.
func transferAdditionalHash(token, recipient, target, initiator primitives.Address, lock LockPart) primitives.Hash {
	var buf bytes.Buffer
	buf.Write(token.Bytes())
	buf.Write(recipient.Bytes())
	buf.Write(target.Bytes())
	buf.Write(initiator.Bytes())
	enc := primitives.PackLock(lock.Expiration, lock.Amount, lock.SecretHash)
	buf.Write(enc[:])
	return primitives.Hash(crypto.Keccak256Hash(buf.Bytes()))
}

// SigningPayload implements Signable: pack_balance_proof over this
// transfer's balance-proof fields (spec §4.3).
func (m *LockedTransfer) SigningPayload() []byte {
	canonicalIdentifier := primitives.CanonicalIdentifier{
		ChainID:             m.ChainID,
		TokenNetworkAddress: m.TokenNetworkAddress,
		ChannelIdentifier:   m.ChannelIdentifier,
	}
	balanceHash := primitives.BalanceHash(m.TransferredAmount, m.LockedAmount, m.Locksroot)
	additionalHash := transferAdditionalHash(m.Token, m.Recipient, m.Target, m.Initiator, m.Lock)
	return primitives.PackBalanceProof(m.Nonce, balanceHash, additionalHash, canonicalIdentifier, primitives.MessageTypeIdBalanceProof)
}

// FromEvent populates a LockedTransfer wire message from the reducer's
// SendLockedTransfer event.
func (m *LockedTransfer) FromEvent(e *state.SendLockedTransfer, token primitives.Address) {
	m.Type = "LockedTransfer"
	m.ChainID = e.CanonicalIdentifier.ChainID
	m.MessageIdentifier = e.MessageID()
	m.PaymentIdentifier = e.PaymentIdentifier
	m.TokenNetworkAddress = e.CanonicalIdentifier.TokenNetworkAddress
	m.ChannelIdentifier = e.CanonicalIdentifier.ChannelIdentifier
	m.Nonce = e.BalanceProof.Nonce
	m.TransferredAmount = e.BalanceProof.TransferredAmount
	m.LockedAmount = e.BalanceProof.LockedAmount
	m.Locksroot = e.BalanceProof.Locksroot
	m.Token = token
	m.Recipient = e.Recipient
	m.Target = e.Target
	m.Initiator = e.Initiator
	m.Lock = LockPart{Amount: e.Lock.Amount, Expiration: e.Lock.Expiration, SecretHash: e.Lock.SecretHash}
}

// RefundTransfer mirrors LockedTransfer's shape (spec §4.3), sent by a
// mediator handing a payment back to its predecessor when it cannot find
// a viable next hop.
type RefundTransfer struct {
	Type                string                       `json:"type"`
	ChainID             primitives.ChainID           `json:"chain_id"`
	MessageIdentifier   primitives.MessageIdentifier `json:"message_identifier"`
	PaymentIdentifier   primitives.PaymentIdentifier `json:"payment_identifier"`
	TokenNetworkAddress primitives.Address           `json:"token_network_address"`
	ChannelIdentifier   uint64                       `json:"channel_identifier"`
	Nonce               primitives.Nonce             `json:"nonce"`
	TransferredAmount   primitives.Amount            `json:"transferred_amount"`
	LockedAmount        primitives.Amount            `json:"locked_amount"`
	Locksroot           primitives.Hash              `json:"locksroot"`
	Token               primitives.Address           `json:"token"`
	Recipient           primitives.Address           `json:"recipient"`
	Target              primitives.Address           `json:"target"`
	Initiator           primitives.Address           `json:"initiator"`
	Lock                LockPart                     `json:"lock"`
	Signature           primitives.Signature         `json:"signature"`
}

func (m *RefundTransfer) CmdID() CmdId     { return CmdIdRefundTransfer }
func (m *RefundTransfer) TypeName() string { return "RefundTransfer" }

// FromEvent populates a RefundTransfer wire message from a
// state.SendLockedTransfer event carrying a refund (spec §4.3: same wire
// shape as LockedTransfer).
func (m *RefundTransfer) FromEvent(e *state.SendLockedTransfer, token primitives.Address) {
	m.Type = "RefundTransfer"
	m.ChainID = e.CanonicalIdentifier.ChainID
	m.MessageIdentifier = e.MessageID()
	m.PaymentIdentifier = e.PaymentIdentifier
	m.TokenNetworkAddress = e.CanonicalIdentifier.TokenNetworkAddress
	m.ChannelIdentifier = e.CanonicalIdentifier.ChannelIdentifier
	m.Nonce = e.BalanceProof.Nonce
	m.TransferredAmount = e.BalanceProof.TransferredAmount
	m.LockedAmount = e.BalanceProof.LockedAmount
	m.Locksroot = e.BalanceProof.Locksroot
	m.Token = token
	m.Recipient = e.Recipient
	m.Target = e.Target
	m.Initiator = e.Initiator
	m.Lock = LockPart{Amount: e.Lock.Amount, Expiration: e.Lock.Expiration, SecretHash: e.Lock.SecretHash}
}

func (m *RefundTransfer) SigningPayload() []byte {
	canonicalIdentifier := primitives.CanonicalIdentifier{
		ChainID:             m.ChainID,
		TokenNetworkAddress: m.TokenNetworkAddress,
		ChannelIdentifier:   m.ChannelIdentifier,
	}
	balanceHash := primitives.BalanceHash(m.TransferredAmount, m.LockedAmount, m.Locksroot)
	additionalHash := transferAdditionalHash(m.Token, m.Recipient, m.Target, m.Initiator, m.Lock)
	return primitives.PackBalanceProof(m.Nonce, balanceHash, additionalHash, canonicalIdentifier, primitives.MessageTypeIdBalanceProof)
}

// LockExpired is sent to remove an expired lock from the recipient's
// locksroot (spec §4.1 "LockExpired").
type LockExpired struct {
	Type                string                       `json:"type"`
	ChainID             primitives.ChainID           `json:"chain_id"`
	MessageIdentifier   primitives.MessageIdentifier `json:"message_identifier"`
	TokenNetworkAddress primitives.Address           `json:"token_network_address"`
	ChannelIdentifier   uint64                       `json:"channel_identifier"`
	Nonce               primitives.Nonce             `json:"nonce"`
	TransferredAmount   primitives.Amount            `json:"transferred_amount"`
	LockedAmount        primitives.Amount            `json:"locked_amount"`
	Locksroot           primitives.Hash              `json:"locksroot"`
	Recipient           primitives.Address           `json:"recipient"`
	SecretHash          primitives.SecretHash        `json:"secrethash"`
	Signature           primitives.Signature         `json:"signature"`
}

func (m *LockExpired) CmdID() CmdId     { return CmdIdLockExpired }
func (m *LockExpired) TypeName() string { return "LockExpired" }

// SigningPayload's additional_hash covers only recipient and secrethash,
// since a LockExpired message carries no initiator/target/lock-amount
// fields to bind (the lock itself is gone from the locksroot already).
func (m *LockExpired) SigningPayload() []byte {
	canonicalIdentifier := primitives.CanonicalIdentifier{
		ChainID:             m.ChainID,
		TokenNetworkAddress: m.TokenNetworkAddress,
		ChannelIdentifier:   m.ChannelIdentifier,
	}
	balanceHash := primitives.BalanceHash(m.TransferredAmount, m.LockedAmount, m.Locksroot)
	var buf bytes.Buffer
	buf.Write(m.Recipient.Bytes())
	buf.Write(m.SecretHash.Bytes())
	additionalHash := primitives.Hash(crypto.Keccak256Hash(buf.Bytes()))
	return primitives.PackBalanceProof(m.Nonce, balanceHash, additionalHash, canonicalIdentifier, primitives.MessageTypeIdBalanceProof)
}

// FromEvent populates a LockExpired wire message from the reducer's
// SendLockExpired event.
func (m *LockExpired) FromEvent(e *state.SendLockExpired) {
	m.Type = "LockExpired"
	m.ChainID = e.CanonicalIdentifier.ChainID
	m.MessageIdentifier = e.MessageID()
	m.TokenNetworkAddress = e.CanonicalIdentifier.TokenNetworkAddress
	m.ChannelIdentifier = e.CanonicalIdentifier.ChannelIdentifier
	m.Nonce = e.BalanceProof.Nonce
	m.TransferredAmount = e.BalanceProof.TransferredAmount
	m.LockedAmount = e.BalanceProof.LockedAmount
	m.Locksroot = e.BalanceProof.Locksroot
	m.Recipient = e.Recipient
	m.SecretHash = e.SecretHash
}

// SecretRequest is the target's request for the initiator to reveal the
// secret (spec §4.1 "Locked-transfer send").
type SecretRequest struct {
	Type              string                       `json:"type"`
	MessageIdentifier primitives.MessageIdentifier `json:"message_identifier"`
	PaymentIdentifier primitives.PaymentIdentifier `json:"payment_identifier"`
	SecretHash        primitives.SecretHash        `json:"secrethash"`
	Amount            primitives.Amount            `json:"amount"`
	Expiration        primitives.BlockExpiration   `json:"expiration"`
	Signature         primitives.Signature         `json:"signature"`
}

func (m *SecretRequest) CmdID() CmdId     { return CmdIdSecretRequest }
func (m *SecretRequest) TypeName() string { return "SecretRequest" }

func (m *SecretRequest) SigningPayload() []byte {
	return primitives.PackSecretRequest(byte(CmdIdSecretRequest), m.MessageIdentifier, m.PaymentIdentifier, m.SecretHash, m.Amount, m.Expiration)
}

// FromEvent populates a SecretRequest wire message from the reducer's
// SendSecretRequest event.
func (m *SecretRequest) FromEvent(e *state.SendSecretRequest) {
	m.Type = "SecretRequest"
	m.MessageIdentifier = e.MessageID()
	m.PaymentIdentifier = e.PaymentIdentifier
	m.SecretHash = e.SecretHash
	m.Amount = e.Amount
	m.Expiration = e.Expiration
}

// SecretReveal carries the HTLC preimage back along the route (spec §4.1
// "Secret reveal / unlock").
type SecretReveal struct {
	Type              string                       `json:"type"`
	MessageIdentifier primitives.MessageIdentifier `json:"message_identifier"`
	Secret            primitives.Secret            `json:"secret"`
	Signature         primitives.Signature         `json:"signature"`
}

func (m *SecretReveal) CmdID() CmdId     { return CmdIdSecretReveal }
func (m *SecretReveal) TypeName() string { return "SecretReveal" }

func (m *SecretReveal) SigningPayload() []byte {
	return primitives.PackSecretReveal(byte(CmdIdSecretReveal), m.MessageIdentifier, m.Secret)
}

// FromEvent populates a SecretReveal wire message from the reducer's
// SendSecretReveal event.
func (m *SecretReveal) FromEvent(e *state.SendSecretReveal) {
	m.Type = "SecretReveal"
	m.MessageIdentifier = e.MessageID()
	m.Secret = e.Secret
}

// Unlock is the settling balance-proof update once the secret is known
// (spec §4.1).
type Unlock struct {
	Type                string                       `json:"type"`
	ChainID             primitives.ChainID           `json:"chain_id"`
	MessageIdentifier   primitives.MessageIdentifier `json:"message_identifier"`
	PaymentIdentifier   primitives.PaymentIdentifier `json:"payment_identifier"`
	TokenNetworkAddress primitives.Address           `json:"token_network_address"`
	ChannelIdentifier   uint64                       `json:"channel_identifier"`
	Nonce               primitives.Nonce             `json:"nonce"`
	TransferredAmount   primitives.Amount            `json:"transferred_amount"`
	LockedAmount        primitives.Amount            `json:"locked_amount"`
	Locksroot           primitives.Hash              `json:"locksroot"`
	Secret              primitives.Secret            `json:"secret"`
	Signature           primitives.Signature         `json:"signature"`
}

func (m *Unlock) CmdID() CmdId     { return CmdIdUnlock }
func (m *Unlock) TypeName() string { return "Unlock" }

// SigningPayload's additional_hash covers the secret itself, binding the
// revealed preimage into the balance-proof signature.
func (m *Unlock) SigningPayload() []byte {
	canonicalIdentifier := primitives.CanonicalIdentifier{
		ChainID:             m.ChainID,
		TokenNetworkAddress: m.TokenNetworkAddress,
		ChannelIdentifier:   m.ChannelIdentifier,
	}
	balanceHash := primitives.BalanceHash(m.TransferredAmount, m.LockedAmount, m.Locksroot)
	additionalHash := primitives.Hash(crypto.Keccak256Hash(m.Secret[:]))
	return primitives.PackBalanceProof(m.Nonce, balanceHash, additionalHash, canonicalIdentifier, primitives.MessageTypeIdBalanceProof)
}

// FromEvent populates an Unlock wire message from the reducer's
// SendUnlock event.
func (m *Unlock) FromEvent(e *state.SendUnlock) {
	m.Type = "Unlock"
	m.ChainID = e.CanonicalIdentifier.ChainID
	m.MessageIdentifier = e.MessageID()
	m.PaymentIdentifier = e.PaymentIdentifier
	m.TokenNetworkAddress = e.CanonicalIdentifier.TokenNetworkAddress
	m.ChannelIdentifier = e.CanonicalIdentifier.ChannelIdentifier
	m.Nonce = e.BalanceProof.Nonce
	m.TransferredAmount = e.BalanceProof.TransferredAmount
	m.LockedAmount = e.BalanceProof.LockedAmount
	m.Locksroot = e.BalanceProof.Locksroot
	m.Secret = e.Secret
}
