package messages

import (
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// Processed and Delivered acknowledge receipt of a prior message (spec
// §4.1 "Outbound message queue"). Grounded on
// original_source/raiden/network/messages/src/messages/synchronization.rs.
type Processed struct {
	Type              string                       `json:"type"`
	MessageIdentifier primitives.MessageIdentifier `json:"message_identifier"`
	Signature         primitives.Signature         `json:"signature"`
}

func (m *Processed) CmdID() CmdId     { return CmdIdProcessed }
func (m *Processed) TypeName() string { return "Processed" }

func (m *Processed) SigningPayload() []byte {
	return primitives.PackProcessedOrDelivered(byte(CmdIdProcessed), m.MessageIdentifier)
}

// FromEvent populates a Processed wire message from the reducer's
// SendProcessed event.
func (m *Processed) FromEvent(e *state.SendProcessed) {
	m.Type = "Processed"
	m.MessageIdentifier = e.MessageID()
}

type Delivered struct {
	Type                        string                       `json:"type"`
	DeliveredMessageIdentifier primitives.MessageIdentifier `json:"delivered_message_identifier"`
	Signature                   primitives.Signature         `json:"signature"`
}

func (m *Delivered) CmdID() CmdId     { return CmdIdDelivered }
func (m *Delivered) TypeName() string { return "Delivered" }

func (m *Delivered) SigningPayload() []byte {
	return primitives.PackProcessedOrDelivered(byte(CmdIdDelivered), m.DeliveredMessageIdentifier)
}

// NewDelivered builds a Delivered acknowledgment for an inbound message.
// Unlike the other wire messages, Delivered has no corresponding Send*
// reducer event (the registered event taxonomy in state/event.go never
// models an auto-ack) — the coordinator's transport producer constructs
// one directly for every inbound message it accepts, mirroring
// raiden's transport-layer (not state-machine) handling of Delivered.
func NewDelivered(messageIdentifier primitives.MessageIdentifier) *Delivered {
	return &Delivered{Type: "Delivered", DeliveredMessageIdentifier: messageIdentifier}
}
