// Package primitives defines the numeric wrappers, address/hash types, and
// byte-packing primitives shared by every other package in this module. Only
// this package is allowed to know about the big-endian wire encoding used
// for signature payloads (spec §4.3); everything above it works with typed
// values.
package primitives

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Address is a 20-byte chain account identifier.
type Address = common.Address

// Hash is a 32-byte digest, used both for block hashes and for the
// Keccak-256 outputs the reducer and codec compute (balance hashes,
// secrethashes, message hashes).
type Hash = common.Hash

// SecretHash is the Keccak-256 digest of a Secret.
type SecretHash = Hash

// Secret is a 32-byte HTLC preimage.
type Secret [32]byte

// MarshalJSON renders a secret as 0x-hex, matching the wire protocol's
// convention for fixed-size byte fields (spec §6).
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + hexutil.Encode(s[:]) + `"`), nil
}

// UnmarshalJSON parses a 0x-hex secret.
func (s *Secret) UnmarshalJSON(data []byte) error {
	b, err := hexutil.Decode(trimQuotes(data))
	if err != nil {
		return fmt.Errorf("primitives: invalid secret: %w", err)
	}
	if len(b) != len(s) {
		return fmt.Errorf("primitives: secret must be %d bytes, got %d", len(s), len(b))
	}
	copy(s[:], b)
	return nil
}

func trimQuotes(data []byte) string {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// TransactionHash identifies an on-chain transaction that produced a log
// the decoder turned into a state-change.
type TransactionHash = Hash

// Amount is an unsigned 256-bit token amount.
type Amount struct {
	v uint256.Int
}

// NewAmount wraps a uint64 token amount.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// AmountFromBig wraps a big.Int token amount. Negative values are rejected.
func AmountFromBig(v *big.Int) (Amount, error) {
	var a Amount
	if v.Sign() < 0 {
		return a, fmt.Errorf("primitives: negative amount %s", v)
	}
	overflow := a.v.SetFromBig(v)
	if overflow {
		return a, fmt.Errorf("primitives: amount %s overflows uint256", v)
	}
	return a, nil
}

// ZeroAmount is the additive identity.
var ZeroAmount = Amount{}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	var out Amount
	out.v.Add(&a.v, &b.v)
	return out
}

// Sub returns a-b. Callers must ensure a >= b; the reducer never produces a
// negative amount (spec §4.1 nonce/locksroot invariants), so underflow here
// indicates an invariant violation upstream and is reported rather than
// wrapped silently.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Cmp(b) < 0 {
		return Amount{}, fmt.Errorf("primitives: amount underflow %s - %s", a, b)
	}
	var out Amount
	out.v.Sub(&a.v, &b.v)
	return out, nil
}

// Cmp compares two amounts the same way bytes.Compare does.
func (a Amount) Cmp(b Amount) int {
	return a.v.Cmp(&b.v)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.v.IsZero()
}

// Big returns the amount as a *big.Int.
func (a Amount) Big() *big.Int {
	return a.v.ToBig()
}

// Uint64 returns the amount truncated to a uint64. Only safe for values the
// caller already knows fit (block numbers stored as amounts in tests, etc).
func (a Amount) Uint64() uint64 {
	return a.v.Uint64()
}

// Bytes32 returns the big-endian 32-byte encoding used in signature payloads.
func (a Amount) Bytes32() [32]byte {
	return a.v.Bytes32()
}

func (a Amount) String() string {
	return a.v.Dec()
}

// MarshalJSON renders the amount as a decimal string, matching the wire
// protocol's "stringified big-decimal for U256" rule (spec §6).
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.v.Dec() + `"`), nil
}

// UnmarshalJSON parses a decimal string amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := uint256.FromDecimal(s)
	if err != nil {
		return fmt.Errorf("primitives: invalid amount %q: %w", s, err)
	}
	a.v = *parsed
	return nil
}

// MarshalText renders the amount as a decimal string. Required so Amount
// can be used as a map key (ChannelEndState.WithdrawsPending is keyed by
// total_withdraw amount) — encoding/json only accepts struct-typed map
// keys that implement encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

// UnmarshalText parses a decimal string amount.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := uint256.FromDecimal(string(text))
	if err != nil {
		return fmt.Errorf("primitives: invalid amount %q: %w", text, err)
	}
	a.v = *parsed
	return nil
}

// Nonce is the strictly-increasing per-(channel,participant) balance-proof
// counter (spec §3.5).
type Nonce uint64

// Next returns nonce+1, matching ChannelEndState.next_nonce in spec §3.4.
func (n Nonce) Next() Nonce {
	return n + 1
}

// Bytes32 returns the big-endian 32-byte encoding used in pack_balance_proof.
func (n Nonce) Bytes32() [32]byte {
	var out [32]byte
	binary.BigEndian.PutUint64(out[24:], uint64(n))
	return out
}

// BlockNumber is the chain's current height, as tracked in ChainState.
type BlockNumber uint64

// BlockHash identifies a specific block.
type BlockHash = Hash

// BlockExpiration is a block height used as a deadline (lock/withdraw
// expiration).
type BlockExpiration uint64

// Bytes32 returns the big-endian 32-byte encoding.
func (b BlockExpiration) Bytes32() [32]byte {
	var out [32]byte
	binary.BigEndian.PutUint64(out[24:], uint64(b))
	return out
}

// ChainID identifies the target chain (EIP-155 style).
type ChainID uint64

// Signature is a 65-byte (r‖s‖v) ECDSA signature, v chain-replay-adjusted
// per spec §3.
type Signature [65]byte

// MarshalJSON renders a signature as 0x-hex.
func (s Signature) MarshalJSON() ([]byte, error) {
	return []byte(`"` + hexutil.Encode(s[:]) + `"`), nil
}

// UnmarshalJSON parses a 0x-hex signature.
func (s *Signature) UnmarshalJSON(data []byte) error {
	b, err := hexutil.Decode(trimQuotes(data))
	if err != nil {
		return fmt.Errorf("primitives: invalid signature: %w", err)
	}
	if len(b) != len(s) {
		return fmt.Errorf("primitives: signature must be %d bytes, got %d", len(s), len(b))
	}
	copy(s[:], b)
	return nil
}

// RecoveryID returns the raw recovery id (0/1) regardless of which v
// normalization scheme produced the stored byte.
func (s Signature) RecoveryID() byte {
	v := s[64]
	switch {
	case v == 27 || v == 28:
		return v - 27
	case v >= 35:
		return (v - 35) % 2
	default:
		return v
	}
}

// MessageIdentifier is a node-local correlation id for a queued message.
type MessageIdentifier uint64

// PaymentIdentifier is a node-local correlation id for a payment.
type PaymentIdentifier uint64
