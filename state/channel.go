package state

import (
	"fmt"

	"github.com/raiden-network/raiden-go/primitives"
)

// ChannelStatus is the derived (never stored) lifecycle state of a channel
// (spec §3.3).
type ChannelStatus string

const (
	ChannelStatusOpened   ChannelStatus = "Opened"
	ChannelStatusClosing  ChannelStatus = "Closing"
	ChannelStatusClosed   ChannelStatus = "Closed"
	ChannelStatusSettling ChannelStatus = "Settling"
	ChannelStatusSettled  ChannelStatus = "Settled"
	ChannelStatusUnusable ChannelStatus = "Unusable"
)

// Channel is a bilateral payment channel (spec §3.3).
type Channel struct {
	CanonicalIdentifier      primitives.CanonicalIdentifier
	TokenAddress             primitives.Address
	TokenNetworkRegistryAddr primitives.Address
	RevealTimeout            primitives.BlockNumber
	SettleTimeout            primitives.BlockNumber
	FeeSchedule              FeeSchedule

	OurState      ChannelEndState
	PartnerState  ChannelEndState

	OpenTransaction   TransactionExecutionStatus
	CloseTransaction  *TransactionExecutionStatus
	SettleTransaction *TransactionExecutionStatus
	UpdateTransaction *TransactionExecutionStatus
}

// ErrInvalidTimeouts is returned when reveal_timeout >= settle_timeout
// (spec §3.3 invariant, tested in spec §8 scenario 4).
type ErrInvalidTimeouts struct {
	RevealTimeout, SettleTimeout primitives.BlockNumber
}

func (e *ErrInvalidTimeouts) Error() string {
	return fmt.Sprintf("reveal_timeout(%d) must be smaller than settle_timeout(%d)",
		e.RevealTimeout, e.SettleTimeout)
}

// NewChannel constructs a channel, enforcing reveal_timeout < settle_timeout
// (spec §3.3). This is a "structural impossibility" per spec §4.1 and
// surfaces as a construction error rather than a reducer-level error event.
func NewChannel(
	canonicalIdentifier primitives.CanonicalIdentifier,
	tokenAddress, tokenNetworkRegistryAddr primitives.Address,
	ourAddress, partnerAddress primitives.Address,
	revealTimeout, settleTimeout primitives.BlockNumber,
	openTransaction TransactionExecutionStatus,
	feeSchedule FeeSchedule,
) (*Channel, error) {
	if revealTimeout >= settleTimeout {
		return nil, &ErrInvalidTimeouts{RevealTimeout: revealTimeout, SettleTimeout: settleTimeout}
	}
	return &Channel{
		CanonicalIdentifier:      canonicalIdentifier,
		TokenAddress:             tokenAddress,
		TokenNetworkRegistryAddr: tokenNetworkRegistryAddr,
		RevealTimeout:            revealTimeout,
		SettleTimeout:            settleTimeout,
		FeeSchedule:              feeSchedule,
		OurState:                 NewChannelEndState(ourAddress),
		PartnerState:             NewChannelEndState(partnerAddress),
		OpenTransaction:          openTransaction,
	}, nil
}

// Status derives the channel's lifecycle state from its transaction
// markers (spec §3.3):
//
//	settle_transaction success -> Settled; running -> Settling; failed -> Unusable.
//	else close_transaction success -> Closed; running -> Closing; failed -> Unusable.
//	else -> Opened.
func (c *Channel) Status() ChannelStatus {
	if c.SettleTransaction != nil {
		switch {
		case c.SettleTransaction.Succeeded():
			return ChannelStatusSettled
		case c.SettleTransaction.Running():
			return ChannelStatusSettling
		default:
			return ChannelStatusUnusable
		}
	}
	if c.CloseTransaction != nil {
		switch {
		case c.CloseTransaction.Succeeded():
			return ChannelStatusClosed
		case c.CloseTransaction.Running():
			return ChannelStatusClosing
		default:
			return ChannelStatusUnusable
		}
	}
	return ChannelStatusOpened
}

// Capacity is the usable balance of the channel from our side:
// our.contract_balance - our.total_withdraw + partner.contract_balance -
// partner.total_withdraw.
func (c *Channel) Capacity() (primitives.Amount, error) {
	ourWithdraw, err := c.OurState.ContractBalance.Sub(c.OurState.TotalWithdraw())
	if err != nil {
		return primitives.Amount{}, err
	}
	partnerWithdraw, err := c.PartnerState.ContractBalance.Sub(c.PartnerState.TotalWithdraw())
	if err != nil {
		return primitives.Amount{}, err
	}
	return ourWithdraw.Add(partnerWithdraw), nil
}

// End returns the ChannelEndState belonging to address, or nil.
func (c *Channel) End(address primitives.Address) *ChannelEndState {
	if c.OurState.Address == address {
		return &c.OurState
	}
	if c.PartnerState.Address == address {
		return &c.PartnerState
	}
	return nil
}

// Partner returns the other participant's ChannelEndState relative to us.
func (c *Channel) Partner() *ChannelEndState {
	return &c.PartnerState
}

// Our returns our own ChannelEndState.
func (c *Channel) Our() *ChannelEndState {
	return &c.OurState
}
