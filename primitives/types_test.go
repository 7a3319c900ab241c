package primitives

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAmountArithmetic(t *testing.T) {
	a := NewAmount(100)
	b := NewAmount(40)

	sum := a.Add(b)
	require.Equal(t, "140", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	require.Equal(t, "60", diff.String())

	_, err = b.Sub(a)
	require.Error(t, err)

	require.True(t, ZeroAmount.IsZero())
	require.False(t, a.IsZero())
	require.Equal(t, 1, a.Cmp(b))
}

func TestAmountFromBigRejectsNegative(t *testing.T) {
	_, err := AmountFromBig(big.NewInt(-1))
	require.Error(t, err)

	a, err := AmountFromBig(big.NewInt(42))
	require.NoError(t, err)
	require.Equal(t, uint64(42), a.Uint64())
}

func TestAmountJSONRoundTrip(t *testing.T) {
	a := NewAmount(123456789)
	encoded, err := json.Marshal(a)
	require.NoError(t, err)
	require.Equal(t, `"123456789"`, string(encoded))

	var decoded Amount
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, 0, a.Cmp(decoded))
}

func TestAmountAsMapKey(t *testing.T) {
	m := map[Amount]string{NewAmount(1): "one"}
	encoded, err := json.Marshal(m)
	require.NoError(t, err)
	require.JSONEq(t, `{"1":"one"}`, string(encoded))
}

func TestNonceNext(t *testing.T) {
	n := Nonce(5)
	require.Equal(t, Nonce(6), n.Next())

	b := n.Bytes32()
	require.Equal(t, byte(5), b[31])
}

func TestBlockExpirationBytes32(t *testing.T) {
	b := BlockExpiration(300).Bytes32()
	require.Equal(t, byte(300>>8), b[30])
	require.Equal(t, byte(300&0xff), b[31])
}

func TestSecretJSONRoundTrip(t *testing.T) {
	var s Secret
	for i := range s {
		s[i] = byte(i)
	}
	encoded, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Secret
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, s, decoded)
}

func TestSecretUnmarshalWrongLength(t *testing.T) {
	var s Secret
	err := json.Unmarshal([]byte(`"0x1234"`), &s)
	require.Error(t, err)
}

func TestSignatureRecoveryID(t *testing.T) {
	var sig Signature
	sig[64] = 27
	require.Equal(t, byte(0), sig.RecoveryID())

	sig[64] = 28
	require.Equal(t, byte(1), sig.RecoveryID())

	sig[64] = 37
	require.Equal(t, byte(0), sig.RecoveryID())

	sig[64] = 0
	require.Equal(t, byte(0), sig.RecoveryID())
}

func TestSignatureJSONRoundTrip(t *testing.T) {
	var sig Signature
	for i := range sig {
		sig[i] = byte(i)
	}
	encoded, err := json.Marshal(sig)
	require.NoError(t, err)

	var decoded Signature
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.Equal(t, sig, decoded)
}
