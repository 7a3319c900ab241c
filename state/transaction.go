package state

import "github.com/raiden-network/raiden-go/primitives"

// TransactionResult is the outcome of an on-chain transaction the node
// submitted (open/close/settle/update).
type TransactionResult int

const (
	TransactionResultUnknown TransactionResult = iota
	TransactionResultSuccess
	TransactionResultFailure
)

// TransactionExecutionStatus tracks the lifecycle of a single on-chain
// transaction the node submitted for a channel (spec §3.3): when it was
// started, when (if ever) it finished, and with what result. A nil
// FinishedBlockNumber means the transaction is still pending.
type TransactionExecutionStatus struct {
	StartedBlockNumber  primitives.BlockNumber
	FinishedBlockNumber *primitives.BlockNumber
	Result              TransactionResult
}

// Running reports whether the transaction has not yet been observed
// confirmed or failed on-chain.
func (t *TransactionExecutionStatus) Running() bool {
	return t != nil && t.FinishedBlockNumber == nil
}

// Succeeded reports whether the transaction finished successfully.
func (t *TransactionExecutionStatus) Succeeded() bool {
	return t != nil && t.FinishedBlockNumber != nil && t.Result == TransactionResultSuccess
}

// Failed reports whether the transaction finished unsuccessfully.
func (t *TransactionExecutionStatus) Failed() bool {
	return t != nil && t.FinishedBlockNumber != nil && t.Result == TransactionResultFailure
}
