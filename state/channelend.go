package state

import (
	"github.com/raiden-network/raiden-go/primitives"
)

// ChannelEndState is the per-participant half of a channel (spec §3.4).
type ChannelEndState struct {
	Address              primitives.Address
	ContractBalance      primitives.Amount
	OnchainTotalWithdraw  primitives.Amount
	WithdrawsPending      map[primitives.Amount]PendingWithdrawState
	WithdrawsExpired      []ExpiredWithdrawState
	SecretHashesToLocked  map[primitives.SecretHash]HashTimeLock
	SecretHashesToUnlocked map[primitives.SecretHash]UnlockPartialProof
	SecretHashesToOnchainUnlocked map[primitives.SecretHash]UnlockPartialProof
	BalanceProof          *BalanceProof
	PendingLocks          PendingLocksState
	OnchainLocksroot      primitives.Hash
	Nonce                 primitives.Nonce
}

// NewChannelEndState returns a fresh, empty end state for address.
func NewChannelEndState(address primitives.Address) ChannelEndState {
	return ChannelEndState{
		Address:                       address,
		WithdrawsPending:              make(map[primitives.Amount]PendingWithdrawState),
		SecretHashesToLocked:          make(map[primitives.SecretHash]HashTimeLock),
		SecretHashesToUnlocked:        make(map[primitives.SecretHash]UnlockPartialProof),
		SecretHashesToOnchainUnlocked: make(map[primitives.SecretHash]UnlockPartialProof),
	}
}

// Clone returns a deep-enough copy of the end state for copy-on-write
// sub-reducer updates (spec §9: sub-reducers take and return sub-trees,
// never mutate in place).
func (c ChannelEndState) Clone() ChannelEndState {
	out := c
	out.WithdrawsPending = make(map[primitives.Amount]PendingWithdrawState, len(c.WithdrawsPending))
	for k, v := range c.WithdrawsPending {
		out.WithdrawsPending[k] = v
	}
	out.WithdrawsExpired = append([]ExpiredWithdrawState(nil), c.WithdrawsExpired...)
	out.SecretHashesToLocked = make(map[primitives.SecretHash]HashTimeLock, len(c.SecretHashesToLocked))
	for k, v := range c.SecretHashesToLocked {
		out.SecretHashesToLocked[k] = v
	}
	out.SecretHashesToUnlocked = make(map[primitives.SecretHash]UnlockPartialProof, len(c.SecretHashesToUnlocked))
	for k, v := range c.SecretHashesToUnlocked {
		out.SecretHashesToUnlocked[k] = v
	}
	out.SecretHashesToOnchainUnlocked = make(map[primitives.SecretHash]UnlockPartialProof, len(c.SecretHashesToOnchainUnlocked))
	for k, v := range c.SecretHashesToOnchainUnlocked {
		out.SecretHashesToOnchainUnlocked[k] = v
	}
	out.PendingLocks = PendingLocksState{Locks: append([][96]byte(nil), c.PendingLocks.Locks...)}
	if c.BalanceProof != nil {
		bp := *c.BalanceProof
		out.BalanceProof = &bp
	}
	return out
}

// OffchainTotalWithdraw is the maximum total_withdraw among pending
// withdraw requests (spec §3.4 derived accessors).
func (c ChannelEndState) OffchainTotalWithdraw() primitives.Amount {
	max := primitives.ZeroAmount
	for _, w := range c.WithdrawsPending {
		if w.TotalWithdraw.Cmp(max) > 0 {
			max = w.TotalWithdraw
		}
	}
	return max
}

// TotalWithdraw is max(onchain_total_withdraw, max pending.total_withdraw)
// (spec §3.4).
func (c ChannelEndState) TotalWithdraw() primitives.Amount {
	off := c.OffchainTotalWithdraw()
	if off.Cmp(c.OnchainTotalWithdraw) > 0 {
		return off
	}
	return c.OnchainTotalWithdraw
}

// NextNonce is nonce+1 (spec §3.4).
func (c ChannelEndState) NextNonce() primitives.Nonce {
	return c.Nonce.Next()
}
