package state

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Codec persistence (spec §4.4): state_changes and events are stored as
// JSON blobs tagged with their Go type name, mirroring the same
// tag-dispatch shape messages.Decode uses for wire messages and
// statechange.go/event.go's own closed-union design — here the "closed
// union" member name doubles as the JSON discriminator instead of a
// hand-maintained CmdId.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var stateChangeTypes = map[string]reflect.Type{}
var eventTypes = map[string]reflect.Type{}

func registerStateChange(name string, sc StateChange) {
	stateChangeTypes[name] = reflect.TypeOf(sc).Elem()
}

func registerEvent(name string, e Event) {
	eventTypes[name] = reflect.TypeOf(e).Elem()
}

func init() {
	registerStateChange("Block", &Block{})
	registerStateChange("ActionInitChain", &ActionInitChain{})
	registerStateChange("ContractReceiveTokenNetworkRegistry", &ContractReceiveTokenNetworkRegistry{})
	registerStateChange("ContractReceiveTokenNetworkCreated", &ContractReceiveTokenNetworkCreated{})
	registerStateChange("ContractReceiveChannelOpened", &ContractReceiveChannelOpened{})
	registerStateChange("ContractReceiveChannelClosed", &ContractReceiveChannelClosed{})
	registerStateChange("ContractReceiveChannelSettled", &ContractReceiveChannelSettled{})
	registerStateChange("ContractReceiveChannelDeposit", &ContractReceiveChannelDeposit{})
	registerStateChange("ContractReceiveChannelWithdraw", &ContractReceiveChannelWithdraw{})
	registerStateChange("ContractReceiveChannelBatchUnlock", &ContractReceiveChannelBatchUnlock{})
	registerStateChange("ContractReceiveSecretReveal", &ContractReceiveSecretReveal{})
	registerStateChange("ContractReceiveRouteNew", &ContractReceiveRouteNew{})
	registerStateChange("ContractReceiveUpdateTransfer", &ContractReceiveUpdateTransfer{})
	registerStateChange("ReceiveLockedTransfer", &ReceiveLockedTransfer{})
	registerStateChange("ReceiveTransferRefund", &ReceiveTransferRefund{})
	registerStateChange("ReceiveSecretRequest", &ReceiveSecretRequest{})
	registerStateChange("ReceiveSecretReveal", &ReceiveSecretReveal{})
	registerStateChange("ReceiveUnlock", &ReceiveUnlock{})
	registerStateChange("ReceiveLockExpired", &ReceiveLockExpired{})
	registerStateChange("ReceiveWithdrawRequest", &ReceiveWithdrawRequest{})
	registerStateChange("ReceiveWithdrawConfirmation", &ReceiveWithdrawConfirmation{})
	registerStateChange("ReceiveWithdrawExpired", &ReceiveWithdrawExpired{})
	registerStateChange("ReceiveProcessed", &ReceiveProcessed{})
	registerStateChange("ReceiveDelivered", &ReceiveDelivered{})
	registerStateChange("ActionChannelSetRevealTimeout", &ActionChannelSetRevealTimeout{})
	registerStateChange("ActionChannelWithdraw", &ActionChannelWithdraw{})
	registerStateChange("ActionInitInitiator", &ActionInitInitiator{})
	registerStateChange("ActionTransferReroute", &ActionTransferReroute{})
	registerStateChange("ActionCancelPayment", &ActionCancelPayment{})

	registerEvent("SendWithdrawRequest", &SendWithdrawRequest{})
	registerEvent("SendWithdrawConfirmation", &SendWithdrawConfirmation{})
	registerEvent("SendWithdrawExpired", &SendWithdrawExpired{})
	registerEvent("SendLockedTransfer", &SendLockedTransfer{})
	registerEvent("SendSecretRequest", &SendSecretRequest{})
	registerEvent("SendSecretReveal", &SendSecretReveal{})
	registerEvent("SendLockExpired", &SendLockExpired{})
	registerEvent("SendUnlock", &SendUnlock{})
	registerEvent("SendProcessed", &SendProcessed{})
	registerEvent("ContractSendChannelClose", &ContractSendChannelClose{})
	registerEvent("ContractSendChannelWithdraw", &ContractSendChannelWithdraw{})
	registerEvent("ContractSendChannelSettle", &ContractSendChannelSettle{})
	registerEvent("ContractSendChannelUpdateTransfer", &ContractSendChannelUpdateTransfer{})
	registerEvent("ContractSendChannelBatchUnlock", &ContractSendChannelBatchUnlock{})
	registerEvent("ContractSendSecretReveal", &ContractSendSecretReveal{})
	registerEvent("PaymentSentSuccess", &PaymentSentSuccess{})
	registerEvent("PaymentReceivedSuccess", &PaymentReceivedSuccess{})
	registerEvent("UnlockSuccess", &UnlockSuccess{})
	registerEvent("ErrorInvalidActionWithdraw", &ErrorInvalidActionWithdraw{})
	registerEvent("ErrorInvalidActionSetRevealTimeout", &ErrorInvalidActionSetRevealTimeout{})
	registerEvent("ErrorPaymentSentFailed", &ErrorPaymentSentFailed{})
	registerEvent("ErrorRouteFailed", &ErrorRouteFailed{})
	registerEvent("ErrorUnlockFailed", &ErrorUnlockFailed{})
	registerEvent("ErrorInvalidSecretRequest", &ErrorInvalidSecretRequest{})
	registerEvent("ErrorInvalidReceivedLockedTransfer", &ErrorInvalidReceivedLockedTransfer{})
	registerEvent("ErrorInvalidReceivedLockExpired", &ErrorInvalidReceivedLockExpired{})
	registerEvent("ErrorInvalidReceivedTransferRefund", &ErrorInvalidReceivedTransferRefund{})
	registerEvent("ErrorInvalidReceivedUnlock", &ErrorInvalidReceivedUnlock{})
	registerEvent("ErrorUnexpectedReveal", &ErrorUnexpectedReveal{})
}

func typeName(v interface{}) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EncodeStateChange serializes a state-change into its tagged JSON form
// (spec §4.4 state_changes.data).
func EncodeStateChange(sc StateChange) ([]byte, error) {
	name := typeName(sc)
	data, err := json.Marshal(sc)
	if err != nil {
		return nil, fmt.Errorf("state: encoding %s: %w", name, err)
	}
	return json.Marshal(envelope{Type: name, Data: data})
}

// DecodeStateChange parses a tagged JSON state-change back into its
// concrete type.
func DecodeStateChange(raw []byte) (StateChange, error) {
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("state: invalid state-change envelope: %w", err)
	}
	rt, ok := stateChangeTypes[e.Type]
	if !ok {
		return nil, fmt.Errorf("state: unknown state-change type %q", e.Type)
	}
	ptr := reflect.New(rt)
	if err := json.Unmarshal(e.Data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("state: decoding %s: %w", e.Type, err)
	}
	sc, ok := ptr.Interface().(StateChange)
	if !ok {
		return nil, fmt.Errorf("state: %s does not implement StateChange", e.Type)
	}
	return sc, nil
}

// EncodeEvent serializes an event into its tagged JSON form (spec §4.4
// events.data).
func EncodeEvent(e Event) ([]byte, error) {
	name := typeName(e)
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("state: encoding %s: %w", name, err)
	}
	return json.Marshal(envelope{Type: name, Data: data})
}

// DecodeEvent parses a tagged JSON event back into its concrete type.
func DecodeEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("state: invalid event envelope: %w", err)
	}
	rt, ok := eventTypes[env.Type]
	if !ok {
		return nil, fmt.Errorf("state: unknown event type %q", env.Type)
	}
	ptr := reflect.New(rt)
	if err := json.Unmarshal(env.Data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("state: decoding %s: %w", env.Type, err)
	}
	ev, ok := ptr.Interface().(Event)
	if !ok {
		return nil, fmt.Errorf("state: %s does not implement Event", env.Type)
	}
	return ev, nil
}
