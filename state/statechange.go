package state

import "github.com/raiden-network/raiden-go/primitives"

// StateChange is the sole means of mutating ChainState (spec glossary,
// §4.1). Each concrete type below implements it with an unexported marker
// method, giving a closed union the reducer can exhaustively switch over —
// the same shape lnwire.Message's interface + makeEmptyMessage switch give
// wire messages, applied here to reducer inputs instead.
type StateChange interface {
	isStateChange()
}

type baseStateChange struct{}

func (baseStateChange) isStateChange() {}

// --- Lifecycle ---

// Block is emitted once per confirmed block (spec §4.1 "Block progression").
type Block struct {
	baseStateChange
	BlockNumber primitives.BlockNumber
	BlockHash   primitives.BlockHash
	GasLimit    uint64
}

// ActionInitChain bootstraps ChainState on first boot (spec §4.4 recovery,
// "no snapshot" branch).
type ActionInitChain struct {
	baseStateChange
	ChainID     primitives.ChainID
	BlockNumber primitives.BlockNumber
	BlockHash   primitives.BlockHash
	OurAddress  primitives.Address
	RandomSeed  int64
}

// --- Chain-observed ---

type ContractReceiveTokenNetworkRegistry struct {
	baseStateChange
	TransactionHash      *primitives.TransactionHash
	RegistryAddress      primitives.Address
	BlockNumber          primitives.BlockNumber
	BlockHash            primitives.BlockHash
}

type ContractReceiveTokenNetworkCreated struct {
	baseStateChange
	TransactionHash             *primitives.TransactionHash
	TokenNetworkRegistryAddress primitives.Address
	TokenNetworkAddress         primitives.Address
	TokenAddress                primitives.Address
	BlockNumber                 primitives.BlockNumber
	BlockHash                   primitives.BlockHash
}

type ContractReceiveChannelOpened struct {
	baseStateChange
	TransactionHash     *primitives.TransactionHash
	BlockNumber         primitives.BlockNumber
	BlockHash           primitives.BlockHash
	CanonicalIdentifier primitives.CanonicalIdentifier
	TokenAddress        primitives.Address
	RegistryAddress     primitives.Address
	Participant1        primitives.Address
	Participant2        primitives.Address
	SettleTimeout       primitives.BlockNumber
}

type ContractReceiveChannelClosed struct {
	baseStateChange
	TransactionHash     *primitives.TransactionHash
	BlockNumber         primitives.BlockNumber
	BlockHash           primitives.BlockHash
	TransactionFrom     primitives.Address
	CanonicalIdentifier primitives.CanonicalIdentifier
}

type ContractReceiveChannelSettled struct {
	baseStateChange
	TransactionHash          *primitives.TransactionHash
	BlockNumber              primitives.BlockNumber
	BlockHash                primitives.BlockHash
	CanonicalIdentifier      primitives.CanonicalIdentifier
	OurOnchainLocksroot      primitives.Hash
	PartnerOnchainLocksroot  primitives.Hash
}

type ContractReceiveChannelDeposit struct {
	baseStateChange
	TransactionHash      *primitives.TransactionHash
	BlockNumber          primitives.BlockNumber
	BlockHash            primitives.BlockHash
	CanonicalIdentifier  primitives.CanonicalIdentifier
	Participant          primitives.Address
	TotalDeposit         primitives.Amount
	DepositBlockNumber   primitives.BlockNumber
}

type ContractReceiveChannelWithdraw struct {
	baseStateChange
	TransactionHash     *primitives.TransactionHash
	BlockNumber         primitives.BlockNumber
	BlockHash           primitives.BlockHash
	CanonicalIdentifier primitives.CanonicalIdentifier
	Participant         primitives.Address
	TotalWithdraw        primitives.Amount
}

type ContractReceiveChannelBatchUnlock struct {
	baseStateChange
	TransactionHash     *primitives.TransactionHash
	BlockNumber         primitives.BlockNumber
	BlockHash           primitives.BlockHash
	CanonicalIdentifier primitives.CanonicalIdentifier
	Receiver            primitives.Address
	Sender               primitives.Address
	Locksroot            primitives.Hash
	UnlockedAmount       primitives.Amount
	ReturnedTokens       primitives.Amount
}

type ContractReceiveSecretReveal struct {
	baseStateChange
	TransactionHash      *primitives.TransactionHash
	BlockNumber          primitives.BlockNumber
	BlockHash            primitives.BlockHash
	SecretRegistryAddress primitives.Address
	SecretHash            primitives.SecretHash
	Secret                primitives.Secret
}

type ContractReceiveRouteNew struct {
	baseStateChange
	TransactionHash     *primitives.TransactionHash
	BlockNumber         primitives.BlockNumber
	BlockHash           primitives.BlockHash
	CanonicalIdentifier primitives.CanonicalIdentifier
	Participant1        primitives.Address
	Participant2        primitives.Address
}

type ContractReceiveUpdateTransfer struct {
	baseStateChange
	TransactionHash     *primitives.TransactionHash
	BlockNumber         primitives.BlockNumber
	BlockHash           primitives.BlockHash
	CanonicalIdentifier primitives.CanonicalIdentifier
	Nonce               primitives.Nonce
}

// --- Peer-observed ---

type ReceiveLockedTransfer struct {
	baseStateChange
	Sender              primitives.Address
	CanonicalIdentifier primitives.CanonicalIdentifier
	BalanceProof        BalanceProof
	Lock                HashTimeLock
	Initiator           primitives.Address
	Target              primitives.Address
	PaymentIdentifier   primitives.PaymentIdentifier
	MessageIdentifier   primitives.MessageIdentifier
}

type ReceiveTransferRefund struct {
	baseStateChange
	Sender              primitives.Address
	CanonicalIdentifier primitives.CanonicalIdentifier
	BalanceProof        BalanceProof
	Lock                HashTimeLock
	PaymentIdentifier   primitives.PaymentIdentifier
	MessageIdentifier   primitives.MessageIdentifier
}

type ReceiveSecretRequest struct {
	baseStateChange
	Sender            primitives.Address
	PaymentIdentifier primitives.PaymentIdentifier
	Amount            primitives.Amount
	Expiration        primitives.BlockExpiration
	SecretHash        primitives.SecretHash
}

type ReceiveSecretReveal struct {
	baseStateChange
	Sender     primitives.Address
	Secret     primitives.Secret
	SecretHash primitives.SecretHash
}

type ReceiveUnlock struct {
	baseStateChange
	Sender              primitives.Address
	CanonicalIdentifier primitives.CanonicalIdentifier
	BalanceProof        BalanceProof
	Secret              primitives.Secret
	SecretHash          primitives.SecretHash
	MessageIdentifier   primitives.MessageIdentifier
}

type ReceiveLockExpired struct {
	baseStateChange
	Sender              primitives.Address
	CanonicalIdentifier primitives.CanonicalIdentifier
	BalanceProof        BalanceProof
	SecretHash          primitives.SecretHash
	MessageIdentifier   primitives.MessageIdentifier
}

type ReceiveWithdrawRequest struct {
	baseStateChange
	Sender              primitives.Address
	CanonicalIdentifier primitives.CanonicalIdentifier
	TotalWithdraw        primitives.Amount
	Nonce                primitives.Nonce
	Expiration           primitives.BlockExpiration
	MessageIdentifier    primitives.MessageIdentifier
}

type ReceiveWithdrawConfirmation struct {
	baseStateChange
	Sender              primitives.Address
	CanonicalIdentifier primitives.CanonicalIdentifier
	TotalWithdraw        primitives.Amount
	Nonce                primitives.Nonce
	Expiration           primitives.BlockExpiration
	MessageIdentifier    primitives.MessageIdentifier
	// Signature is the partner's withdraw-confirmation signature, forwarded
	// on-chain alongside our own when submitting ContractSendChannelWithdraw.
	Signature primitives.Signature
}

type ReceiveWithdrawExpired struct {
	baseStateChange
	Sender              primitives.Address
	CanonicalIdentifier primitives.CanonicalIdentifier
	TotalWithdraw        primitives.Amount
	Nonce                primitives.Nonce
	Expiration           primitives.BlockExpiration
	MessageIdentifier    primitives.MessageIdentifier
}

type ReceiveProcessed struct {
	baseStateChange
	Sender            primitives.Address
	MessageIdentifier primitives.MessageIdentifier
}

type ReceiveDelivered struct {
	baseStateChange
	Sender            primitives.Address
	MessageIdentifier primitives.MessageIdentifier
}

// --- Local actions ---

type ActionChannelSetRevealTimeout struct {
	baseStateChange
	CanonicalIdentifier primitives.CanonicalIdentifier
	RevealTimeout        primitives.BlockNumber
}

type ActionChannelWithdraw struct {
	baseStateChange
	CanonicalIdentifier primitives.CanonicalIdentifier
	TotalWithdraw        primitives.Amount
}

type ActionInitInitiator struct {
	baseStateChange
	PaymentIdentifier   primitives.PaymentIdentifier
	TokenNetworkAddress primitives.Address
	Amount              primitives.Amount
	Initiator           primitives.Address
	Target              primitives.Address
	Secret               primitives.Secret
	SecretHash           primitives.SecretHash
	Routes               []Route
}

type ActionTransferReroute struct {
	baseStateChange
	SecretHash  primitives.SecretHash
	NewSecret   primitives.Secret
}

type ActionCancelPayment struct {
	baseStateChange
	PaymentIdentifier primitives.PaymentIdentifier
}
