package state

import "github.com/raiden-network/raiden-go/primitives"

// DefaultNumberOfBlockConfirmations is the number of additional blocks the
// node waits past an event's own block before treating it as final. Used
// for withdraw/lock expiration thresholds (spec §4.1); the sync service's
// `to = latest - confirmations` window (spec §4.5) takes its value from
// config.Config.Confirmations instead.
const DefaultNumberOfBlockConfirmations = primitives.BlockNumber(6)

// PendingWithdrawState is an in-flight withdraw request awaiting the
// partner's confirmation (spec §3.4, "Withdraw protocol").
type PendingWithdrawState struct {
	TotalWithdraw primitives.Amount
	Expiration    primitives.BlockExpiration
	Nonce         primitives.Nonce
}

// ExpirationThreshold is the block at which an unanswered withdraw request
// is considered expired: expiration + 2*confirmations (spec §4.1).
func (p PendingWithdrawState) ExpirationThreshold() primitives.BlockNumber {
	return primitives.BlockNumber(p.Expiration) + 2*DefaultNumberOfBlockConfirmations
}

// HasExpired reports whether current_block has reached the threshold.
func (p PendingWithdrawState) HasExpired(currentBlock primitives.BlockNumber) bool {
	return currentBlock >= p.ExpirationThreshold()
}

// ExpiredWithdrawState records a withdraw request that timed out without a
// reply, moved out of ChannelEndState.WithdrawsPending (spec §3.4 lifecycle
// table).
type ExpiredWithdrawState struct {
	TotalWithdraw primitives.Amount
	Expiration    primitives.BlockExpiration
	Nonce         primitives.Nonce
}
