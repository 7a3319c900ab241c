package chainevents

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
	"github.com/stretchr/testify/require"
)

func packArgs(t *testing.T, args abi.Arguments, values ...interface{}) []byte {
	t.Helper()
	data, err := args.Pack(values...)
	require.NoError(t, err)
	return data
}

func TestDecodeChannelOpened(t *testing.T) {
	tokenNetwork := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")
	participant1 := common.HexToAddress("0x1111000000000000000000000000000000aaaa")
	participant2 := common.HexToAddress("0x2222000000000000000000000000000000aaaa")

	data := packArgs(t, abi.Arguments{{Type: addressType}, {Type: uint256Type}}, participant2, big.NewInt(500))

	log := gethtypes.Log{
		Address: tokenNetwork,
		Topics: []common.Hash{
			topicChannelOpened,
			common.BigToHash(big.NewInt(7)),
			common.BytesToHash(participant1.Bytes()),
		},
		Data: data,
	}

	decoder := &Decoder{RegistryAddress: common.HexToAddress("0xbbbb000000000000000000000000000000bbbb")}
	sc, ok, err := decoder.Decode(log)
	require.NoError(t, err)
	require.True(t, ok)

	opened, ok := sc.(*state.ContractReceiveChannelOpened)
	require.True(t, ok)
	require.Equal(t, uint64(7), opened.CanonicalIdentifier.ChannelIdentifier)
	require.Equal(t, tokenNetwork, opened.CanonicalIdentifier.TokenNetworkAddress)
	require.Equal(t, participant1, opened.Participant1)
	require.Equal(t, participant2, opened.Participant2)
	require.Equal(t, primitives.BlockNumber(500), opened.SettleTimeout)
}

func TestDecodeUnknownTopicIsSkipped(t *testing.T) {
	log := gethtypes.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef")},
	}
	decoder := &Decoder{}
	sc, ok, err := decoder.Decode(log)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, sc)
}
