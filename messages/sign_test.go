package messages

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/stretchr/testify/require"
)

func TestSignRecoverRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	payload := []byte("deterministic test payload")
	sig, err := Sign(key, payload)
	require.NoError(t, err)

	recovered, err := Recover(payload, sig)
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey), recovered)
}

func TestSignMessageAndVerifySender(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := crypto.PubkeyToAddress(key.PublicKey)

	msg := &SecretRequest{
		Type:              "SecretRequest",
		MessageIdentifier: 1,
		PaymentIdentifier: 2,
		SecretHash:        primitives.SecretHash{0xaa},
		Amount:            primitives.NewAmount(100),
		Expiration:        primitives.BlockExpiration(1000),
	}

	var stored primitives.Signature
	err = SignMessage(key, msg, func(s primitives.Signature) { stored = s })
	require.NoError(t, err)

	ok, err := VerifySender(msg, stored, sender)
	require.NoError(t, err)
	require.True(t, ok)

	other := primitives.Address{0x01}
	ok, err = VerifySender(msg, stored, other)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWithdrawRequestSigningPayloadDeterministic(t *testing.T) {
	msg := &WithdrawRequest{
		ChainID:             1,
		TokenNetworkAddress: primitives.Address{0x01},
		ChannelIdentifier:   5,
		Participant:         primitives.Address{0x02},
		TotalWithdraw:       primitives.NewAmount(40),
		Expiration:          primitives.BlockExpiration(2000),
	}

	a := msg.SigningPayload()
	b := msg.SigningPayload()
	require.Equal(t, a, b)
	require.Len(t, a, 20+32+32+20+32+32)
}
