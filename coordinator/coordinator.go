// Package coordinator implements C7: the single-writer orchestrator that
// owns the in-memory ChainState, feeds every state-change through the
// reducer, persists the result, and dispatches the emitted events to their
// sinks (spec §4.5). Grounded on htlcswitch.Switch's shape: one struct
// behind a start/stop lifecycle that fans incoming work out to cooperating
// goroutines while serializing the operation that actually touches shared
// state.
package coordinator

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/raiden-network/raiden-go/chainproxy"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
	"github.com/raiden-network/raiden-go/storage"
	"github.com/raiden-network/raiden-go/transition"
	"github.com/raiden-network/raiden-go/transport"
)

// chainRPCRateLimit and chainRPCBurst bound how fast the dispatcher submits
// ContractSend* transactions to the configured chain RPC endpoint. A replay
// after restart, or a single block containing many ContractSend* events,
// would otherwise fire a burst of eth_sendTransaction calls at once.
const (
	chainRPCRateLimit = 5
	chainRPCBurst     = 5
)

// ChainProxies bundles the chain-interface contracts the dispatcher needs
// to carry out ContractSend* events (spec §6). TokenNetworkByAddress and
// the registry are looked up lazily since the set of token networks grows
// at runtime as ContractReceiveTokenNetworkCreated state-changes arrive.
type ChainProxies struct {
	Registry              chainproxy.TokenNetworkRegistry
	TokenNetworkByAddress func(address primitives.Address) (chainproxy.TokenNetwork, bool)
	SecretRegistry        chainproxy.SecretRegistry
}

// Coordinator is the single writer of ChainState (spec §5 "ChainState:
// writer + HTTP readers, mutator: coordinator only").
type Coordinator struct {
	mu    sync.RWMutex
	chain *state.ChainState

	db        *storage.DB
	chains    ChainProxies
	transport transport.Transport
	signer    *ecdsa.PrivateKey

	lastStateChangeID string

	openChannelLock *partnerMutex

	notifications chan state.Event

	chainRPCLimiter *rate.Limiter
	metrics         *metrics
}

// New constructs a Coordinator over an already-recovered ChainState (spec
// §4.4's boot-time recovery algorithm runs in storage.Recover before this
// is called).
func New(chain *state.ChainState, lastStateChangeID string, db *storage.DB, chains ChainProxies, tr transport.Transport, signer *ecdsa.PrivateKey) *Coordinator {
	return &Coordinator{
		chain:             chain,
		lastStateChangeID: lastStateChangeID,
		db:                db,
		chains:            chains,
		transport:         tr,
		signer:            signer,
		openChannelLock:   newPartnerMutex(),
		notifications:     make(chan state.Event, 256),
		chainRPCLimiter:   rate.NewLimiter(rate.Limit(chainRPCRateLimit), chainRPCBurst),
		metrics:           newMetrics(),
	}
}

// Notifications returns the channel of payment-lifecycle and error events
// the HTTP layer surfaces to operators (spec §4.5 "user notification").
func (c *Coordinator) Notifications() <-chan state.Event {
	return c.notifications
}

// View runs fn with a shared read lock held over ChainState, for HTTP
// handlers that only read (spec §5 "readers hold a shared read lock").
func (c *Coordinator) View(fn func(*state.ChainState)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.chain)
}

// Apply is the coordinator's single entry point: run one state-change
// through the reducer, persist atomically, then dispatch every emitted
// event in order (spec §4.5, §8 "Queue-FIFO"). The exclusive lock is held
// for the reducer call and the persistence write, matching spec §5's
// "writer exclusive during reducer+persist"; it is released before
// dispatch so a slow transport send never blocks a reader.
func (c *Coordinator) Apply(ctx context.Context, change state.StateChange) error {
	c.mu.Lock()
	newChain, events := transition.Transition(c.chain, change)
	stateChangeID, _, err := c.db.AppendTransition(newChain, change, events)
	if err != nil {
		c.mu.Unlock()
		// Persistence failures are fatal (spec §7 item 4): the caller is
		// expected to stop accepting new state-changes on this error.
		return fmt.Errorf("coordinator: persisting %T: %w", change, err)
	}
	c.chain = newChain
	c.lastStateChangeID = stateChangeID
	c.mu.Unlock()
	c.metrics.stateChangesProcessed.Inc()

	for _, ev := range events {
		if err := c.dispatch(ctx, ev); err != nil {
			c.metrics.dispatchErrors.Inc()
			log.Errorf("coordinator: dispatching %T: %v", ev, err)
		}
	}
	c.metrics.notificationQueueLen.Set(float64(len(c.notifications)))
	return nil
}

// TokenNetworkProxy looks up the chain-interface contract for a token
// network, for callers (the REST surface's open-channel/deposit
// handlers) that submit on-chain transactions directly rather than
// through a state-change (spec §6: opening and depositing are caller-
// initiated chain RPCs, not reducer-driven).
func (c *Coordinator) TokenNetworkProxy(address primitives.Address) (chainproxy.TokenNetwork, bool) {
	if c.chains.TokenNetworkByAddress == nil {
		return nil, false
	}
	return c.chains.TokenNetworkByAddress(address)
}

// ChannelOpenLock serialises openChannel RPCs to the same partner within
// the same token network (spec §5's channel-open lock row). Callers defer
// the returned unlock function.
func (c *Coordinator) ChannelOpenLock(tokenNetwork, partner primitives.Address) func() {
	return c.openChannelLock.Lock(tokenNetwork.Hex() + ":" + partner.Hex())
}
