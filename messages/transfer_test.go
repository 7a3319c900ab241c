package messages

import (
	"testing"

	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
	"github.com/stretchr/testify/require"
)

func TestLockedTransferFromEventAndSign(t *testing.T) {
	canonicalIdentifier := primitives.CanonicalIdentifier{
		ChainID:             1,
		TokenNetworkAddress: primitives.Address{0x10},
		ChannelIdentifier:   3,
	}
	bp := state.NewBalanceProof(1, primitives.NewAmount(0), primitives.NewAmount(50), primitives.Hash{0x01}, canonicalIdentifier)
	lock := state.HashTimeLock{Amount: primitives.NewAmount(50), Expiration: 1000, SecretHash: primitives.SecretHash{0x02}}
	event := state.NewSendLockedTransfer(
		primitives.Address{0x20},
		canonicalIdentifier,
		primitives.MessageIdentifier(9),
		bp,
		lock,
		primitives.Address{0x30},
		primitives.Address{0x40},
		primitives.PaymentIdentifier(5),
	)

	var msg LockedTransfer
	msg.FromEvent(event, primitives.Address{0x50})

	require.Equal(t, "LockedTransfer", msg.Type)
	require.Equal(t, primitives.Nonce(1), msg.Nonce)
	require.Equal(t, primitives.Address{0x40}, msg.Target)

	payload1 := msg.SigningPayload()
	payload2 := msg.SigningPayload()
	require.Equal(t, payload1, payload2)
	require.NotEmpty(t, payload1)
}
