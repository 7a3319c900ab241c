package messages

import (
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// WithdrawRequest, WithdrawConfirmation, and WithdrawExpired implement the
// three-message withdraw protocol (spec §4.1 "Withdraw protocol"). Field
// names are grounded on
// original_source/raiden/network/messages/src/messages/withdraw.rs; the
// signing payload follows spec §4.3's withdraw-family layout
// (primitives.PackWithdraw) rather than withdraw.rs's own bytes() method,
// since that method serializes additional fields spec.md's normative
// layout omits (see DESIGN.md).
type WithdrawRequest struct {
	Type                string                       `json:"type"`
	MessageIdentifier   primitives.MessageIdentifier `json:"message_identifier"`
	ChainID             primitives.ChainID           `json:"chain_id"`
	TokenNetworkAddress primitives.Address           `json:"token_network_address"`
	ChannelIdentifier   uint64                       `json:"channel_identifier"`
	Participant         primitives.Address           `json:"participant"`
	TotalWithdraw       primitives.Amount            `json:"total_withdraw"`
	Expiration          primitives.BlockExpiration   `json:"expiration"`
	Nonce               primitives.Nonce             `json:"nonce"`
	Signature           primitives.Signature         `json:"signature"`
}

func (m *WithdrawRequest) CmdID() CmdId     { return CmdIdWithdrawRequest }
func (m *WithdrawRequest) TypeName() string { return "WithdrawRequest" }

func (m *WithdrawRequest) SigningPayload() []byte {
	canonicalIdentifier := primitives.CanonicalIdentifier{
		ChainID:             m.ChainID,
		TokenNetworkAddress: m.TokenNetworkAddress,
		ChannelIdentifier:   m.ChannelIdentifier,
	}
	return primitives.PackWithdraw(canonicalIdentifier, m.Participant, m.TotalWithdraw, m.Expiration)
}

// FromEvent populates a WithdrawRequest wire message from the reducer's
// SendWithdrawRequest event.
func (m *WithdrawRequest) FromEvent(e *state.SendWithdrawRequest) {
	m.Type = "WithdrawRequest"
	m.MessageIdentifier = e.MessageID()
	m.ChainID = e.CanonicalIdentifier.ChainID
	m.TokenNetworkAddress = e.CanonicalIdentifier.TokenNetworkAddress
	m.ChannelIdentifier = e.CanonicalIdentifier.ChannelIdentifier
	m.Participant = e.Participant
	m.TotalWithdraw = e.TotalWithdraw
	m.Expiration = e.Expiration
	m.Nonce = e.Nonce
}

type WithdrawConfirmation struct {
	Type                string                       `json:"type"`
	MessageIdentifier   primitives.MessageIdentifier `json:"message_identifier"`
	ChainID             primitives.ChainID           `json:"chain_id"`
	TokenNetworkAddress primitives.Address           `json:"token_network_address"`
	ChannelIdentifier   uint64                       `json:"channel_identifier"`
	Participant         primitives.Address           `json:"participant"`
	TotalWithdraw       primitives.Amount            `json:"total_withdraw"`
	Expiration          primitives.BlockExpiration   `json:"expiration"`
	Nonce               primitives.Nonce             `json:"nonce"`
	Signature           primitives.Signature         `json:"signature"`
}

func (m *WithdrawConfirmation) CmdID() CmdId     { return CmdIdWithdrawConfirmation }
func (m *WithdrawConfirmation) TypeName() string { return "WithdrawConfirmation" }

func (m *WithdrawConfirmation) SigningPayload() []byte {
	canonicalIdentifier := primitives.CanonicalIdentifier{
		ChainID:             m.ChainID,
		TokenNetworkAddress: m.TokenNetworkAddress,
		ChannelIdentifier:   m.ChannelIdentifier,
	}
	return primitives.PackWithdraw(canonicalIdentifier, m.Participant, m.TotalWithdraw, m.Expiration)
}

// FromEvent populates a WithdrawConfirmation wire message from the
// reducer's SendWithdrawConfirmation event.
func (m *WithdrawConfirmation) FromEvent(e *state.SendWithdrawConfirmation) {
	m.Type = "WithdrawConfirmation"
	m.MessageIdentifier = e.MessageID()
	m.ChainID = e.CanonicalIdentifier.ChainID
	m.TokenNetworkAddress = e.CanonicalIdentifier.TokenNetworkAddress
	m.ChannelIdentifier = e.CanonicalIdentifier.ChannelIdentifier
	m.Participant = e.Participant
	m.TotalWithdraw = e.TotalWithdraw
	m.Expiration = e.Expiration
	m.Nonce = e.Nonce
}

type WithdrawExpired struct {
	Type                string                       `json:"type"`
	MessageIdentifier   primitives.MessageIdentifier `json:"message_identifier"`
	ChainID             primitives.ChainID           `json:"chain_id"`
	TokenNetworkAddress primitives.Address           `json:"token_network_address"`
	ChannelIdentifier   uint64                       `json:"channel_identifier"`
	Participant         primitives.Address           `json:"participant"`
	TotalWithdraw       primitives.Amount            `json:"total_withdraw"`
	Expiration          primitives.BlockExpiration   `json:"expiration"`
	Nonce               primitives.Nonce             `json:"nonce"`
	Signature           primitives.Signature         `json:"signature"`
}

func (m *WithdrawExpired) CmdID() CmdId     { return CmdIdWithdrawExpired }
func (m *WithdrawExpired) TypeName() string { return "WithdrawExpired" }

func (m *WithdrawExpired) SigningPayload() []byte {
	canonicalIdentifier := primitives.CanonicalIdentifier{
		ChainID:             m.ChainID,
		TokenNetworkAddress: m.TokenNetworkAddress,
		ChannelIdentifier:   m.ChannelIdentifier,
	}
	return primitives.PackWithdraw(canonicalIdentifier, m.Participant, m.TotalWithdraw, m.Expiration)
}

// FromEvent populates a WithdrawExpired wire message from the reducer's
// SendWithdrawExpired event.
func (m *WithdrawExpired) FromEvent(e *state.SendWithdrawExpired) {
	m.Type = "WithdrawExpired"
	m.MessageIdentifier = e.MessageID()
	m.ChainID = e.CanonicalIdentifier.ChainID
	m.TokenNetworkAddress = e.CanonicalIdentifier.TokenNetworkAddress
	m.ChannelIdentifier = e.CanonicalIdentifier.ChannelIdentifier
	m.Participant = e.Participant
	m.TotalWithdraw = e.TotalWithdraw
	m.Expiration = e.Expiration
	m.Nonce = e.Nonce
}
