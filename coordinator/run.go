package coordinator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/raiden-network/raiden-go/chainevents"
	"github.com/raiden-network/raiden-go/primitives"
)

// Services bundles the three producer inputs spec §4.5 names, already
// wired to their chain/transport backends, plus the sync window's
// confirmation depth and watched addresses.
type Services struct {
	Headers          HeaderSource
	Logs             LogSource
	Decoder          *chainevents.Decoder
	WatchedAddresses []primitives.Address
	Confirmations    uint64
}

// Run launches the block monitor, sync service, and inbound processor on
// a shared errgroup (spec §5 "cooperative tasks on a shared worker pool
// with one logical single-threaded writer") and blocks until ctx is
// canceled or one of them returns a non-nil error, at which point the
// group cancels the others (spec §5 "a shutdown signal causes each task
// to complete its current state-change... and exit").
func Run(ctx context.Context, c *Coordinator, svc Services) error {
	g, ctx := errgroup.WithContext(ctx)

	if err := c.transport.Start(ctx); err != nil {
		return err
	}

	if svc.Headers != nil {
		monitor := NewBlockMonitor(svc.Headers, c, c.currentBlockNumber())
		g.Go(func() error { return monitor.Run(ctx) })
	}

	if svc.Logs != nil && svc.Decoder != nil {
		sync := NewSyncService(svc.Logs, svc.Decoder, c, svc.WatchedAddresses, svc.Confirmations, c.currentBlockNumber())
		g.Go(func() error { return sync.Run(ctx) })
	}

	inbound := NewInboundProcessor(c.transport, c)
	g.Go(func() error { return inbound.Run(ctx) })

	err := g.Wait()
	if stopErr := c.transport.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

func (c *Coordinator) currentBlockNumber() primitives.BlockNumber {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chain.BlockNumber
}
