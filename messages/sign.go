package messages

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/raiden-network/raiden-go/primitives"
)

// Sign applies the personal-message framing (spec §4.3) to payload and
// signs it with key, producing the 65-byte (r‖s‖v) signature the wire
// protocol expects. Grounded on
// original_source/raiden/blockchain/src/keys.rs's sign routine; uses
// go-ethereum/crypto for the secp256k1 operations themselves.
func Sign(key *ecdsa.PrivateKey, payload []byte) (primitives.Signature, error) {
	var out primitives.Signature
	hash := primitives.PersonalMessageHash(payload)
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return out, fmt.Errorf("messages: sign: %w", err)
	}
	copy(out[:], sig)
	// go-ethereum's crypto.Sign returns v in {0,1}; the wire format wants
	// the Ethereum convention {27,28} (spec §3 "v chain-replay-adjusted").
	out[64] = sig[64] + 27
	return out, nil
}

// Recover recovers the signer address from payload and its signature.
func Recover(payload []byte, sig primitives.Signature) (primitives.Address, error) {
	hash := primitives.PersonalMessageHash(payload)
	raw := make([]byte, 65)
	copy(raw, sig[:])
	raw[64] = sig.RecoveryID()
	pub, err := crypto.SigToPub(hash.Bytes(), raw)
	if err != nil {
		return primitives.Address{}, fmt.Errorf("messages: recover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SignMessage computes msg's SigningPayload, signs it, and writes the
// result into the message's Signature field via setSignature. Callers pass
// a closure because Signable's concrete types don't share a common
// settable field (Go has no field-by-interface access).
func SignMessage(key *ecdsa.PrivateKey, msg Signable, setSignature func(primitives.Signature)) error {
	sig, err := Sign(key, msg.SigningPayload())
	if err != nil {
		return err
	}
	setSignature(sig)
	return nil
}

// VerifySender recovers the signer of msg and reports whether it matches
// expected.
func VerifySender(msg Signable, signature primitives.Signature, expected primitives.Address) (bool, error) {
	sender, err := Recover(msg.SigningPayload(), signature)
	if err != nil {
		return false, err
	}
	return sender == expected, nil
}
