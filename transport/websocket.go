package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raiden-network/raiden-go/primitives"
)

// reconnectBackoff bounds the exponential backoff used between dial
// attempts (spec §5, "websocket reconnections retry with exponential
// backoff").
const (
	reconnectMinBackoff = 500 * time.Millisecond
	reconnectMaxBackoff = 30 * time.Second
)

// frame is the wire shape exchanged with the matrix-style relay: outbound
// frames carry To, inbound frames carry From. Payload is the already-JSON
// encoded messages.Message envelope, passed through opaquely per spec §6.
type frame struct {
	To      primitives.Address `json:"to,omitempty"`
	From    primitives.Address `json:"from,omitempty"`
	Payload json.RawMessage    `json:"payload"`
}

// WebsocketTransport implements Transport over a single gorilla/websocket
// connection to a relay server, with a dedicated read pump, write pump,
// and outbound queue goroutine mirroring peer.go's
// readHandler/writeHandler/queueHandler split — adapted from
// lnwire.Message framing to opaque JSON envelopes.
type WebsocketTransport struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn

	outgoing chan frame
	incoming chan Envelope
	quit     chan struct{}
	wg       sync.WaitGroup
}

// NewWebsocketTransport constructs a transport that will dial url once
// Start is called.
func NewWebsocketTransport(url string) *WebsocketTransport {
	return &WebsocketTransport{
		url:      url,
		outgoing: make(chan frame, 256),
		incoming: make(chan Envelope, 256),
		quit:     make(chan struct{}),
	}
}

// Start dials the relay and launches the read/write pumps. Start returns
// once the first connection attempt succeeds; subsequent disconnects are
// retried internally and are not surfaced as errors to the caller.
func (t *WebsocketTransport) Start(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("transport: dialing %s: %w", t.url, err)
	}
	t.setConn(conn)

	t.wg.Add(2)
	go t.readPump()
	go t.writePump()
	return nil
}

// Stop closes the connection and the Receive channel, and waits for both
// pumps to exit.
func (t *WebsocketTransport) Stop() error {
	close(t.quit)
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	t.wg.Wait()
	close(t.incoming)
	return nil
}

// Receive returns the channel of envelopes addressed to us.
func (t *WebsocketTransport) Receive() <-chan Envelope {
	return t.incoming
}

// Send enqueues payload for recipient. It never blocks past ctx's
// deadline; on a full queue it returns ctx.Err() so the coordinator's
// retry-by-queue-identifier logic (spec §4.5 item 3) can resubmit later.
func (t *WebsocketTransport) Send(ctx context.Context, recipient primitives.Address, payload []byte) error {
	select {
	case t.outgoing <- frame{To: recipient, Payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.quit:
		return fmt.Errorf("transport: stopped")
	}
}

func (t *WebsocketTransport) setConn(conn *websocket.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
}

// readPump reads frames off the wire until the connection drops or Stop
// is called, reconnecting with exponential backoff in between (spec §5).
// NOTE: this method MUST be run as a goroutine.
func (t *WebsocketTransport) readPump() {
	defer t.wg.Done()

	backoff := reconnectMinBackoff
	for {
		t.mu.Lock()
		conn := t.conn
		t.mu.Unlock()

		var f frame
		err := conn.ReadJSON(&f)
		if err != nil {
			select {
			case <-t.quit:
				return
			default:
			}
			log.Errorf("transport: read error, reconnecting in %s: %v", backoff, err)
			if !t.sleepOrQuit(backoff) {
				return
			}
			if err := t.reconnect(); err != nil {
				backoff = nextBackoff(backoff)
				continue
			}
			backoff = reconnectMinBackoff
			continue
		}

		select {
		case t.incoming <- Envelope{Recipient: f.From, Payload: f.Payload}:
		case <-t.quit:
			return
		}
	}
}

// writePump drains the outgoing queue onto the wire, mirroring
// peer.go's writeHandler (one goroutine owns the socket write side).
// NOTE: this method MUST be run as a goroutine.
func (t *WebsocketTransport) writePump() {
	defer t.wg.Done()

	for {
		select {
		case f := <-t.outgoing:
			t.mu.Lock()
			conn := t.conn
			t.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteJSON(f); err != nil {
				log.Errorf("transport: write error: %v", err)
			}
		case <-t.quit:
			return
		}
	}
}

func (t *WebsocketTransport) reconnect() error {
	conn, _, err := websocket.DefaultDialer.Dial(t.url, nil)
	if err != nil {
		return err
	}
	t.setConn(conn)
	return nil
}

func (t *WebsocketTransport) sleepOrQuit(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-t.quit:
		return false
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > reconnectMaxBackoff {
		return reconnectMaxBackoff
	}
	return d
}
