package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// echoRelay is a minimal stand-in for a matrix-style relay: it upgrades
// the connection and echoes every frame back with To/From swapped, enough
// to exercise WebsocketTransport's read/write pumps end to end.
func echoRelay(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			f.From, f.To = f.To, f.From
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
	}))
}

func TestWebsocketTransportSendReceive(t *testing.T) {
	srv := echoRelay(t)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	tr := NewWebsocketTransport(url)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tr.Start(ctx))
	defer tr.Stop()

	recipient := common.HexToAddress("0xbeef")
	payload := json.RawMessage(`{"type":"Delivered"}`)
	require.NoError(t, tr.Send(ctx, recipient, payload))

	select {
	case env := <-tr.Receive():
		require.Equal(t, recipient, env.Recipient)
		require.JSONEq(t, string(payload), string(env.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed envelope")
	}
}
