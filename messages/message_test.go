package messages

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := &SecretReveal{
		Type:              "SecretReveal",
		MessageIdentifier: 7,
		Secret:            [32]byte{1, 2, 3},
	}

	data, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	got, ok := decoded.(*SecretReveal)
	require.True(t, ok)
	require.Equal(t, original.MessageIdentifier, got.MessageIdentifier)
	require.Equal(t, original.Secret, got.Secret)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"BogusMessage"}`))
	require.Error(t, err)

	var unknown *UnknownMessageType
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "BogusMessage", unknown.Type)
}

func TestDecodeEachKnownType(t *testing.T) {
	cases := []struct {
		typeName string
		cmdID    CmdId
	}{
		{"LockedTransfer", CmdIdLockedTransfer},
		{"RefundTransfer", CmdIdRefundTransfer},
		{"LockExpired", CmdIdLockExpired},
		{"SecretRequest", CmdIdSecretRequest},
		{"SecretReveal", CmdIdSecretReveal},
		{"Unlock", CmdIdUnlock},
		{"WithdrawRequest", CmdIdWithdrawRequest},
		{"WithdrawConfirmation", CmdIdWithdrawConfirmation},
		{"WithdrawExpired", CmdIdWithdrawExpired},
		{"Processed", CmdIdProcessed},
		{"Delivered", CmdIdDelivered},
	}

	for _, tc := range cases {
		msg, err := Decode([]byte(`{"type":"` + tc.typeName + `"}`))
		require.NoErrorf(t, err, "type %s", tc.typeName)
		require.Equal(t, tc.cmdID, msg.CmdID())
		require.Equal(t, tc.typeName, msg.TypeName())
	}
}
