package transition

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
	"github.com/stretchr/testify/require"
)

func TestActionInitChainBootstrapsChainState(t *testing.T) {
	ourAddress := common.HexToAddress("0x1111111111111111111111111111111111111111")
	blockHash := common.HexToHash("0xdead")

	next, events := Transition(nil, &state.ActionInitChain{
		ChainID:     1,
		BlockNumber: 10,
		BlockHash:   blockHash,
		OurAddress:  ourAddress,
		RandomSeed:  42,
	})

	require.Nil(t, events)
	require.NotNil(t, next)
	require.Equal(t, primitives.ChainID(1), next.ChainID)
	require.Equal(t, primitives.BlockNumber(10), next.BlockNumber)
	require.Equal(t, blockHash, next.BlockHash)
	require.Equal(t, ourAddress, next.OurAddress)
	require.Empty(t, next.TokenNetworkRegistries)
}

func TestHandleBlockIsNoOpForStaleOrDuplicateBlockNumber(t *testing.T) {
	chainState := state.NewChainState(1, 10, common.HexToHash("0xaaaa"), common.Address{}, 1)

	sameBlock, events := Transition(chainState, &state.Block{BlockNumber: 10, BlockHash: common.HexToHash("0xbbbb")})
	require.Nil(t, events)
	require.Same(t, chainState, sameBlock)

	staleBlock, events := Transition(chainState, &state.Block{BlockNumber: 9, BlockHash: common.HexToHash("0xcccc")})
	require.Nil(t, events)
	require.Same(t, chainState, staleBlock)
}

func TestHandleBlockAdvancesBlockNumberAndHash(t *testing.T) {
	chainState := state.NewChainState(1, 10, common.HexToHash("0xaaaa"), common.Address{}, 1)
	newHash := common.HexToHash("0xbeef")

	next, events := Transition(chainState, &state.Block{BlockNumber: 11, BlockHash: newHash})

	require.Empty(t, events)
	require.Equal(t, primitives.BlockNumber(11), next.BlockNumber)
	require.Equal(t, newHash, next.BlockHash)
	require.Equal(t, primitives.BlockNumber(10), chainState.BlockNumber, "input state must not be mutated")
}

func TestTransitionUnknownStateChangeIsNoOp(t *testing.T) {
	chainState := state.NewChainState(1, 10, common.HexToHash("0xaaaa"), common.Address{}, 1)

	next, events := Transition(chainState, nil)

	require.Same(t, chainState, next)
	require.Nil(t, events)
}
