package state

import "github.com/raiden-network/raiden-go/primitives"

// TransferRole identifies which role the local node is playing for a given
// secrethash (SPEC_FULL.md §3, original_source state.rs PaymentMappingState).
type TransferRole int

const (
	TransferRoleInitiator TransferRole = iota
	TransferRoleMediator
	TransferRoleTarget
)

// TransferTask records enough context to route a Receive* state-change
// that only carries a secrethash back to the sub-reducer driving that
// payment.
type TransferTask struct {
	Role                TransferRole
	CanonicalIdentifier primitives.CanonicalIdentifier
	PaymentIdentifier   primitives.PaymentIdentifier
	Initiator           primitives.Address
	Target              primitives.Address
	Amount              primitives.Amount
	Secret              *primitives.Secret
	Routes              []Route
	RouteIndex          int
}

// PaymentMapping is secrethash -> TransferTask (spec §3.2).
type PaymentMapping struct {
	SecretHashesToTask map[primitives.SecretHash]*TransferTask
}

// NewPaymentMapping returns an empty mapping.
func NewPaymentMapping() PaymentMapping {
	return PaymentMapping{SecretHashesToTask: make(map[primitives.SecretHash]*TransferTask)}
}
