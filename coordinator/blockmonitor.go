package coordinator

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
)

// HeaderSource is the narrow slice of ethclient.Client the block monitor
// needs: a live header subscription plus a fallback poll for the backends
// that don't support `eth_subscribe` (spec §4.5 item 1). Modeled on
// `ethereum.TransactionReader`/`bind.ContractBackend`'s narrow-interface
// style rather than depending on *ethclient.Client directly, so a fake
// can stand in for tests.
type HeaderSource interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// BlockMonitor is the coordinator's first producer: it turns the chain's
// head-of-chain notifications into ordered Block state-changes (spec §4.5
// item 1, §5 "Block(N) is applied strictly after all confirmed
// state-changes whose block <= N"). If the subscription drops, it falls
// back to polling HeaderByNumber until a new subscription succeeds,
// mirroring the websocket transport's reconnect-with-backoff idiom.
type BlockMonitor struct {
	client       HeaderSource
	coordinator  *Coordinator
	pollInterval time.Duration

	lastBlock primitives.BlockNumber
}

// NewBlockMonitor constructs a monitor that will not emit a Block at or
// below fromBlock (the block number recovered from the last persisted
// snapshot/state-change, spec §4.4).
func NewBlockMonitor(client HeaderSource, c *Coordinator, fromBlock primitives.BlockNumber) *BlockMonitor {
	return &BlockMonitor{
		client:       client,
		coordinator:  c,
		pollInterval: 15 * time.Second,
		lastBlock:    fromBlock,
	}
}

// Run feeds Block state-changes to the coordinator until ctx is canceled
// (spec §5 "shutdown signal causes each task to complete its current
// state-change... and exit").
func (m *BlockMonitor) Run(ctx context.Context) error {
	for {
		err := m.runSubscription(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Warnf("coordinator: block subscription failed, falling back to polling: %v", err)
		}
		if err := m.pollUntilResubscribe(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (m *BlockMonitor) runSubscription(ctx context.Context) error {
	headers := make(chan *types.Header, 16)
	sub, err := m.client.SubscribeNewHead(ctx, headers)
	if err != nil {
		return fmt.Errorf("subscribing to new heads: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case header := <-headers:
			if err := m.emit(ctx, header); err != nil {
				return err
			}
		}
	}
}

// pollUntilResubscribe polls HeaderByNumber on a timer until the caller
// decides to retry the live subscription (spec §5 "websocket
// reconnections retry with exponential backoff" applied here to the RPC
// head subscription).
func (m *BlockMonitor) pollUntilResubscribe(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		header, err := m.client.HeaderByNumber(ctx, nil)
		if err != nil {
			attempts++
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			if attempts >= 3 {
				return fmt.Errorf("polling latest header: %w", err)
			}
			continue
		}
		if err := m.emit(ctx, header); err != nil {
			return err
		}
		return nil
	}
}

func (m *BlockMonitor) emit(ctx context.Context, header *types.Header) error {
	number := primitives.BlockNumber(header.Number.Uint64())
	if number <= m.lastBlock {
		return nil
	}
	m.lastBlock = number
	change := &state.Block{
		BlockNumber: number,
		BlockHash:   primitives.BlockHash(header.Hash()),
		GasLimit:    header.GasLimit,
	}
	return m.coordinator.Apply(ctx, change)
}
