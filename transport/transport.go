// Package transport implements C7's "Transport" producer input: an
// external-collaborator boundary that does nothing but move opaque JSON
// envelopes to and from peer addresses (spec §6, "Wire protocol" /
// "external matrix-style transport whose only contract with the core is:
// deliver opaque JSON envelopes to an address, and receive opaque
// envelopes addressed to us"). The core never imports a transport
// implementation directly — it depends on the Transport interface below,
// the same narrow-interface-at-the-boundary shape peer.go uses for the
// wire connection it reads/writes lnwire.Message over.
package transport

import (
	"context"

	"github.com/raiden-network/raiden-go/primitives"
)

// Envelope is one opaque signed message addressed to or from a peer. The
// coordinator's transport producer decodes Payload via messages.Decode
// before mapping it to a Receive* state-change; outbound envelopes are
// built the same way from a SendMessageEvent.
type Envelope struct {
	Recipient primitives.Address
	Payload   []byte
}

// Transport is the coordinator's only dependency on the delivery
// mechanism (spec §6). Send is best-effort per call; retry is the
// coordinator's responsibility, keyed by the outbound queue identifier
// (spec §4.5 item 3, "using each event's queue identifier as the retry
// key").
type Transport interface {
	// Send delivers payload to recipient. Implementations should not
	// block past ctx's deadline; a timed-out send is retried by the
	// coordinator on its next drain of the same queue.
	Send(ctx context.Context, recipient primitives.Address, payload []byte) error

	// Receive returns envelopes addressed to us as they arrive. The
	// channel is closed when the transport is stopped.
	Receive() <-chan Envelope

	// Start begins receiving. Start must be called before Receive
	// yields anything.
	Start(ctx context.Context) error

	// Stop shuts the transport down, closing the Receive channel.
	Stop() error
}
