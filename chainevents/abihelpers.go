package chainevents

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/raiden-network/raiden-go/primitives"
)

// crypto_Keccak256Hash computes the topic[0] signature hash for an event
// declaration string, e.g. "ChannelOpened(uint256,address,address,uint256)"
// (spec §4.2: "matching topic[0] against the signature of every known
// contract event").
func crypto_Keccak256Hash(signature string) eventSignature {
	return eventSignature(crypto.Keccak256Hash([]byte(signature)))
}

func topicToAddress(topic common.Hash) common.Address {
	return common.BytesToAddress(topic.Bytes())
}

func unpackUint256Topic(topic common.Hash) (uint64, error) {
	return topic.Big().Uint64(), nil
}

func unpackUint256(data []byte) (*big.Int, error) {
	args := abi.Arguments{{Type: uint256Type}}
	values, err := args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("chainevents: unpacking uint256: %w", err)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("chainevents: expected *big.Int, got %T", values[0])
	}
	return v, nil
}

func unpackTwoAddresses(data []byte) (common.Address, common.Address, error) {
	args := abi.Arguments{{Type: addressType}, {Type: addressType}}
	values, err := args.Unpack(data)
	if err != nil {
		return common.Address{}, common.Address{}, fmt.Errorf("chainevents: unpacking addresses: %w", err)
	}
	return values[0].(common.Address), values[1].(common.Address), nil
}

func unpackAddressAndUint256(data []byte) (common.Address, uint64, error) {
	args := abi.Arguments{{Type: addressType}, {Type: uint256Type}}
	values, err := args.Unpack(data)
	if err != nil {
		return common.Address{}, 0, fmt.Errorf("chainevents: unpacking address+uint256: %w", err)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, 0, fmt.Errorf("chainevents: expected common.Address, got %T", values[0])
	}
	amount, ok := values[1].(*big.Int)
	if !ok {
		return common.Address{}, 0, fmt.Errorf("chainevents: expected *big.Int, got %T", values[1])
	}
	return addr, amount.Uint64(), nil
}

func unpackBatchUnlockData(data []byte) (common.Address, primitives.Amount, primitives.Amount, error) {
	args := abi.Arguments{{Type: addressType}, {Type: uint256Type}, {Type: uint256Type}}
	values, err := args.Unpack(data)
	if err != nil {
		return common.Address{}, primitives.Amount{}, primitives.Amount{}, fmt.Errorf("chainevents: unpacking ChannelBatchUnlock data: %w", err)
	}
	sender, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, primitives.Amount{}, primitives.Amount{}, fmt.Errorf("chainevents: expected common.Address, got %T", values[0])
	}
	unlockedBig, ok := values[1].(*big.Int)
	if !ok {
		return common.Address{}, primitives.Amount{}, primitives.Amount{}, fmt.Errorf("chainevents: expected *big.Int, got %T", values[1])
	}
	returnedBig, ok := values[2].(*big.Int)
	if !ok {
		return common.Address{}, primitives.Amount{}, primitives.Amount{}, fmt.Errorf("chainevents: expected *big.Int, got %T", values[2])
	}
	unlocked, err := primitives.AmountFromBig(unlockedBig)
	if err != nil {
		return common.Address{}, primitives.Amount{}, primitives.Amount{}, err
	}
	returned, err := primitives.AmountFromBig(returnedBig)
	if err != nil {
		return common.Address{}, primitives.Amount{}, primitives.Amount{}, err
	}
	return sender, unlocked, returned, nil
}
