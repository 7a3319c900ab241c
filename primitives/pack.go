package primitives

import (
	"bytes"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MessageTypeId is the channel-binding discriminator signed alongside a
// balance proof (spec §4.3), preventing cross-message-type signature reuse.
type MessageTypeId uint8

const (
	MessageTypeIdBalanceProof        MessageTypeId = 1
	MessageTypeIdWithdraw            MessageTypeId = 2
	MessageTypeIdCooperativeSettle   MessageTypeId = 3
	MessageTypeIdMSReward            MessageTypeId = 4
)

// PackBalanceProof reproduces pack_balance_proof from spec §4.3:
//
//	token_network_address(20) ‖ chain_id(32) ‖ msg_type(32) ‖ channel_id(32)
//	‖ balance_hash(32) ‖ nonce(32) ‖ additional_hash(32)
//
// All multi-byte integers are big-endian, left-padded to 32 bytes exactly as
// ethabi::encode(Token::Uint(..)) would produce them.
func PackBalanceProof(
	nonce Nonce,
	balanceHash Hash,
	additionalHash Hash,
	canonicalIdentifier CanonicalIdentifier,
	msgType MessageTypeId,
) []byte {
	var buf bytes.Buffer
	buf.Write(canonicalIdentifier.TokenNetworkAddress.Bytes())
	buf.Write(uint256From(uint64(canonicalIdentifier.ChainID)))
	buf.Write(uint256From(uint64(msgType)))
	buf.Write(uint256From(canonicalIdentifier.ChannelIdentifier))
	buf.Write(balanceHash.Bytes())
	nb := nonce.Bytes32()
	buf.Write(nb[:])
	buf.Write(additionalHash.Bytes())
	return buf.Bytes()
}

// PackWithdraw reproduces the withdraw-family signing layout from spec §4.3:
//
//	token_network_address(20) ‖ chain_id(32) ‖ channel_id(32) ‖ participant(20)
//	‖ total_withdraw(32) ‖ expiration(32)
func PackWithdraw(
	canonicalIdentifier CanonicalIdentifier,
	participant Address,
	totalWithdraw Amount,
	expiration BlockExpiration,
) []byte {
	var buf bytes.Buffer
	buf.Write(canonicalIdentifier.TokenNetworkAddress.Bytes())
	buf.Write(uint256From(uint64(canonicalIdentifier.ChainID)))
	buf.Write(uint256From(canonicalIdentifier.ChannelIdentifier))
	buf.Write(participant.Bytes())
	tw := totalWithdraw.Bytes32()
	buf.Write(tw[:])
	exp := expiration.Bytes32()
	buf.Write(exp[:])
	return buf.Bytes()
}

// PackProcessedOrDelivered reproduces the Processed/Delivered layout:
// cmd_id(1) ‖ 000 ‖ message_identifier(8).
func PackProcessedOrDelivered(cmdID byte, messageIdentifier MessageIdentifier) []byte {
	var buf bytes.Buffer
	buf.WriteByte(cmdID)
	buf.Write(make([]byte, 3))
	buf.Write(uint64BE(uint64(messageIdentifier)))
	return buf.Bytes()
}

// PackSecretRequest reproduces the SecretRequest layout:
// cmd_id(1) ‖ 000 ‖ message_identifier(8) ‖ payment_identifier(8) ‖
// secrethash(32) ‖ amount(32) ‖ expiration(32).
func PackSecretRequest(
	cmdID byte,
	messageIdentifier MessageIdentifier,
	paymentIdentifier PaymentIdentifier,
	secrethash SecretHash,
	amount Amount,
	expiration BlockExpiration,
) []byte {
	var buf bytes.Buffer
	buf.WriteByte(cmdID)
	buf.Write(make([]byte, 3))
	buf.Write(uint64BE(uint64(messageIdentifier)))
	buf.Write(uint64BE(uint64(paymentIdentifier)))
	buf.Write(secrethash.Bytes())
	a := amount.Bytes32()
	buf.Write(a[:])
	exp := expiration.Bytes32()
	buf.Write(exp[:])
	return buf.Bytes()
}

// SecretHashFor derives the lock's secrethash from its preimage (spec
// §3.6, glossary "secrethash = keccak256(secret)").
func SecretHashFor(secret Secret) SecretHash {
	return Hash(crypto.Keccak256Hash(secret[:]))
}

// PackSecretReveal reproduces the SecretReveal layout:
// cmd_id(1) ‖ 000 ‖ message_identifier(8) ‖ secret(32).
func PackSecretReveal(cmdID byte, messageIdentifier MessageIdentifier, secret Secret) []byte {
	var buf bytes.Buffer
	buf.WriteByte(cmdID)
	buf.Write(make([]byte, 3))
	buf.Write(uint64BE(uint64(messageIdentifier)))
	buf.Write(secret[:])
	return buf.Bytes()
}

// PackLock reproduces the 96-byte HashTimeLock encoding from spec §3.6:
// expiration(32) ‖ amount(32) ‖ secrethash(32).
func PackLock(expiration BlockExpiration, amount Amount, secrethash SecretHash) [96]byte {
	var out [96]byte
	exp := expiration.Bytes32()
	copy(out[0:32], exp[:])
	a := amount.Bytes32()
	copy(out[32:64], a[:])
	copy(out[64:96], secrethash.Bytes())
	return out
}

// Locksroot computes Keccak(concat(encoded_locks)) over insertion-ordered
// 96-byte encoded locks (spec §3.6).
func Locksroot(encodedLocks [][96]byte) Hash {
	var buf bytes.Buffer
	for _, l := range encodedLocks {
		buf.Write(l[:])
	}
	return Hash(crypto.Keccak256Hash(buf.Bytes()))
}

// BalanceHash computes Keccak(transferred ‖ locked ‖ locksroot), all
// 32-byte big-endian (spec §3.5).
func BalanceHash(transferred, locked Amount, locksroot Hash) Hash {
	var buf bytes.Buffer
	t := transferred.Bytes32()
	buf.Write(t[:])
	l := locked.Bytes32()
	buf.Write(l[:])
	buf.Write(locksroot.Bytes())
	return Hash(crypto.Keccak256Hash(buf.Bytes()))
}

// PersonalMessageHash applies the personal-message framing specified in
// spec §4.3: keccak("\x19Ethereum Signed Message:\n" ‖ len ‖ payload).
// accounts.TextHash implements exactly this framing.
func PersonalMessageHash(payload []byte) Hash {
	return common.BytesToHash(accounts.TextHash(payload))
}

func uint256From(v uint64) []byte {
	return uint64BEPadded(v)
}

func uint64BE(v uint64) []byte {
	out := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

func uint64BEPadded(v uint64) []byte {
	out := make([]byte, 32)
	small := uint64BE(v)
	copy(out[24:], small)
	return out
}
