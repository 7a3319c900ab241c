package state

import "github.com/raiden-network/raiden-go/primitives"

// Event is a reducer output: an instruction to the outside world or a
// notification (spec glossary, §4.1).
type Event interface {
	isEvent()
}

type baseEvent struct{}

func (baseEvent) isEvent() {}

// SendMessageEvent is the subset of events that enqueue an outbound wire
// message (spec §4.1 "Outbound message queue"). It narrows Event the same
// way the reference client's SendMessageEvent sub-union does
// (original_source event.rs).
type SendMessageEvent interface {
	Event
	QueueIdentifier() primitives.QueueIdentifier
	MessageID() primitives.MessageIdentifier
}

type sendMessageEventBase struct {
	baseEvent
	Recipient           primitives.Address
	CanonicalIdentifier primitives.CanonicalIdentifier
	MessageIdentifier   primitives.MessageIdentifier
}

func (s sendMessageEventBase) QueueIdentifier() primitives.QueueIdentifier {
	return primitives.QueueIdentifier{Recipient: s.Recipient, CanonicalIdentifier: s.CanonicalIdentifier}
}

func (s sendMessageEventBase) MessageID() primitives.MessageIdentifier {
	return s.MessageIdentifier
}

// ContractSendEvent is the subset of events that ask a chain proxy to
// submit a transaction (spec §4.1, §6).
type ContractSendEvent interface {
	Event
	isContractSendEvent()
}

type contractSendEventBase struct {
	baseEvent
	CanonicalIdentifier primitives.CanonicalIdentifier
}

func (contractSendEventBase) isContractSendEvent() {}

// --- Send* (outbound wire messages) ---

type SendWithdrawRequest struct {
	sendMessageEventBase
	Participant   primitives.Address
	Expiration    primitives.BlockExpiration
	Nonce         primitives.Nonce
	TotalWithdraw primitives.Amount
}

type SendWithdrawConfirmation struct {
	sendMessageEventBase
	Participant   primitives.Address
	TotalWithdraw primitives.Amount
	Nonce         primitives.Nonce
	Expiration    primitives.BlockExpiration
}

type SendWithdrawExpired struct {
	sendMessageEventBase
	Participant   primitives.Address
	TotalWithdraw primitives.Amount
	Nonce         primitives.Nonce
	Expiration    primitives.BlockExpiration
}

type SendLockedTransfer struct {
	sendMessageEventBase
	BalanceProof      BalanceProof
	Lock              HashTimeLock
	Initiator         primitives.Address
	Target            primitives.Address
	PaymentIdentifier primitives.PaymentIdentifier
}

type SendSecretRequest struct {
	sendMessageEventBase
	PaymentIdentifier primitives.PaymentIdentifier
	Amount            primitives.Amount
	Expiration        primitives.BlockExpiration
	SecretHash        primitives.SecretHash
}

type SendSecretReveal struct {
	sendMessageEventBase
	Secret     primitives.Secret
	SecretHash primitives.SecretHash
}

type SendLockExpired struct {
	sendMessageEventBase
	BalanceProof BalanceProof
	SecretHash   primitives.SecretHash
}

type SendUnlock struct {
	sendMessageEventBase
	PaymentIdentifier primitives.PaymentIdentifier
	TokenAddress      primitives.Address
	BalanceProof      BalanceProof
	Secret            primitives.Secret
	SecretHash        primitives.SecretHash
}

type SendProcessed struct {
	sendMessageEventBase
}

// Constructors below exist because sendMessageEventBase/contractSendEventBase
// are unexported embedded fields: a struct literal outside this package
// cannot set their promoted fields (Recipient, CanonicalIdentifier,
// MessageIdentifier) directly, so transition builds every Send*/ContractSend*
// event through these.

func NewSendWithdrawRequest(recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, messageIdentifier primitives.MessageIdentifier, participant primitives.Address, expiration primitives.BlockExpiration, nonce primitives.Nonce, totalWithdraw primitives.Amount) *SendWithdrawRequest {
	return &SendWithdrawRequest{
		sendMessageEventBase: sendMessageEventBase{Recipient: recipient, CanonicalIdentifier: canonicalIdentifier, MessageIdentifier: messageIdentifier},
		Participant:          participant,
		Expiration:           expiration,
		Nonce:                nonce,
		TotalWithdraw:        totalWithdraw,
	}
}

func NewSendWithdrawConfirmation(recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, messageIdentifier primitives.MessageIdentifier, participant primitives.Address, totalWithdraw primitives.Amount, nonce primitives.Nonce, expiration primitives.BlockExpiration) *SendWithdrawConfirmation {
	return &SendWithdrawConfirmation{
		sendMessageEventBase: sendMessageEventBase{Recipient: recipient, CanonicalIdentifier: canonicalIdentifier, MessageIdentifier: messageIdentifier},
		Participant:          participant,
		TotalWithdraw:        totalWithdraw,
		Nonce:                nonce,
		Expiration:           expiration,
	}
}

func NewSendWithdrawExpired(recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, messageIdentifier primitives.MessageIdentifier, participant primitives.Address, totalWithdraw primitives.Amount, nonce primitives.Nonce, expiration primitives.BlockExpiration) *SendWithdrawExpired {
	return &SendWithdrawExpired{
		sendMessageEventBase: sendMessageEventBase{Recipient: recipient, CanonicalIdentifier: canonicalIdentifier, MessageIdentifier: messageIdentifier},
		Participant:          participant,
		TotalWithdraw:        totalWithdraw,
		Nonce:                nonce,
		Expiration:           expiration,
	}
}

func NewSendLockedTransfer(recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, messageIdentifier primitives.MessageIdentifier, balanceProof BalanceProof, lock HashTimeLock, initiator, target primitives.Address, paymentIdentifier primitives.PaymentIdentifier) *SendLockedTransfer {
	return &SendLockedTransfer{
		sendMessageEventBase: sendMessageEventBase{Recipient: recipient, CanonicalIdentifier: canonicalIdentifier, MessageIdentifier: messageIdentifier},
		BalanceProof:         balanceProof,
		Lock:                 lock,
		Initiator:            initiator,
		Target:               target,
		PaymentIdentifier:    paymentIdentifier,
	}
}

func NewSendSecretRequest(recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, messageIdentifier primitives.MessageIdentifier, paymentIdentifier primitives.PaymentIdentifier, amount primitives.Amount, expiration primitives.BlockExpiration, secretHash primitives.SecretHash) *SendSecretRequest {
	return &SendSecretRequest{
		sendMessageEventBase: sendMessageEventBase{Recipient: recipient, CanonicalIdentifier: canonicalIdentifier, MessageIdentifier: messageIdentifier},
		PaymentIdentifier:    paymentIdentifier,
		Amount:               amount,
		Expiration:           expiration,
		SecretHash:           secretHash,
	}
}

func NewSendSecretReveal(recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, messageIdentifier primitives.MessageIdentifier, secret primitives.Secret, secretHash primitives.SecretHash) *SendSecretReveal {
	return &SendSecretReveal{
		sendMessageEventBase: sendMessageEventBase{Recipient: recipient, CanonicalIdentifier: canonicalIdentifier, MessageIdentifier: messageIdentifier},
		Secret:               secret,
		SecretHash:           secretHash,
	}
}

func NewSendLockExpired(recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, messageIdentifier primitives.MessageIdentifier, balanceProof BalanceProof, secretHash primitives.SecretHash) *SendLockExpired {
	return &SendLockExpired{
		sendMessageEventBase: sendMessageEventBase{Recipient: recipient, CanonicalIdentifier: canonicalIdentifier, MessageIdentifier: messageIdentifier},
		BalanceProof:         balanceProof,
		SecretHash:           secretHash,
	}
}

func NewSendUnlock(recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, messageIdentifier primitives.MessageIdentifier, paymentIdentifier primitives.PaymentIdentifier, tokenAddress primitives.Address, balanceProof BalanceProof, secret primitives.Secret, secretHash primitives.SecretHash) *SendUnlock {
	return &SendUnlock{
		sendMessageEventBase: sendMessageEventBase{Recipient: recipient, CanonicalIdentifier: canonicalIdentifier, MessageIdentifier: messageIdentifier},
		PaymentIdentifier:    paymentIdentifier,
		TokenAddress:         tokenAddress,
		BalanceProof:         balanceProof,
		Secret:               secret,
		SecretHash:           secretHash,
	}
}

func NewSendProcessed(recipient primitives.Address, canonicalIdentifier primitives.CanonicalIdentifier, messageIdentifier primitives.MessageIdentifier) *SendProcessed {
	return &SendProcessed{
		sendMessageEventBase: sendMessageEventBase{Recipient: recipient, CanonicalIdentifier: canonicalIdentifier, MessageIdentifier: messageIdentifier},
	}
}

func NewContractSendChannelClose(canonicalIdentifier primitives.CanonicalIdentifier, balanceProof *BalanceProof) *ContractSendChannelClose {
	return &ContractSendChannelClose{
		contractSendEventBase: contractSendEventBase{CanonicalIdentifier: canonicalIdentifier},
		BalanceProof:          balanceProof,
	}
}

func NewContractSendChannelWithdraw(canonicalIdentifier primitives.CanonicalIdentifier, totalWithdraw primitives.Amount, expiration primitives.BlockExpiration, signature primitives.Signature) *ContractSendChannelWithdraw {
	return &ContractSendChannelWithdraw{
		contractSendEventBase: contractSendEventBase{CanonicalIdentifier: canonicalIdentifier},
		TotalWithdraw:         totalWithdraw,
		Expiration:            expiration,
		Signature:             signature,
	}
}

func NewContractSendChannelSettle(canonicalIdentifier primitives.CanonicalIdentifier) *ContractSendChannelSettle {
	return &ContractSendChannelSettle{
		contractSendEventBase: contractSendEventBase{CanonicalIdentifier: canonicalIdentifier},
	}
}

func NewContractSendChannelUpdateTransfer(canonicalIdentifier primitives.CanonicalIdentifier, balanceProof BalanceProof) *ContractSendChannelUpdateTransfer {
	return &ContractSendChannelUpdateTransfer{
		contractSendEventBase: contractSendEventBase{CanonicalIdentifier: canonicalIdentifier},
		BalanceProof:          balanceProof,
	}
}

func NewContractSendChannelBatchUnlock(canonicalIdentifier primitives.CanonicalIdentifier, sender primitives.Address) *ContractSendChannelBatchUnlock {
	return &ContractSendChannelBatchUnlock{
		contractSendEventBase: contractSendEventBase{CanonicalIdentifier: canonicalIdentifier},
		Sender:                sender,
	}
}

// --- ContractSend* ---

type ContractSendChannelClose struct {
	contractSendEventBase
	BalanceProof *BalanceProof
}

type ContractSendChannelWithdraw struct {
	contractSendEventBase
	TotalWithdraw primitives.Amount
	Expiration    primitives.BlockExpiration
	Signature     primitives.Signature
}

type ContractSendChannelSettle struct {
	contractSendEventBase
}

type ContractSendChannelUpdateTransfer struct {
	contractSendEventBase
	BalanceProof BalanceProof
}

type ContractSendChannelBatchUnlock struct {
	contractSendEventBase
	Sender primitives.Address
}

type ContractSendSecretReveal struct {
	baseEvent
	Secret primitives.Secret
}

func (ContractSendSecretReveal) isContractSendEvent() {}

// --- Payment lifecycle notifications ---

type PaymentSentSuccess struct {
	baseEvent
	TokenNetworkAddress primitives.Address
	PaymentIdentifier   primitives.PaymentIdentifier
	Amount              primitives.Amount
	Target              primitives.Address
	Secret              primitives.Secret
}

type PaymentReceivedSuccess struct {
	baseEvent
	TokenNetworkAddress primitives.Address
	PaymentIdentifier   primitives.PaymentIdentifier
	Amount              primitives.Amount
	Initiator           primitives.Address
}

type UnlockSuccess struct {
	baseEvent
	SecretHash primitives.SecretHash
}

// --- Errors (state preserved, spec §4.1 Failure semantics / §7) ---

type ErrorInvalidActionWithdraw struct {
	baseEvent
	Reason string
}

type ErrorInvalidActionSetRevealTimeout struct {
	baseEvent
	Reason string
}

type ErrorPaymentSentFailed struct {
	baseEvent
	PaymentIdentifier primitives.PaymentIdentifier
	Reason            string
}

type ErrorRouteFailed struct {
	baseEvent
	SecretHash primitives.SecretHash
	Reason     string
}

type ErrorUnlockFailed struct {
	baseEvent
	SecretHash primitives.SecretHash
	Reason     string
}

type ErrorInvalidSecretRequest struct {
	baseEvent
	Reason string
}

type ErrorInvalidReceivedLockedTransfer struct {
	baseEvent
	Reason string
}

type ErrorInvalidReceivedLockExpired struct {
	baseEvent
	Reason string
}

type ErrorInvalidReceivedTransferRefund struct {
	baseEvent
	Reason string
}

type ErrorInvalidReceivedUnlock struct {
	baseEvent
	Reason string
}

type ErrorUnexpectedReveal struct {
	baseEvent
	SecretHash primitives.SecretHash
	Reason     string
}
