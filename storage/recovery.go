package storage

import (
	"errors"
	"fmt"

	"github.com/raiden-network/raiden-go/primitives"
	"github.com/raiden-network/raiden-go/state"
	"github.com/raiden-network/raiden-go/transition"
)

// BootstrapConfig seeds a brand-new node's ChainState when no snapshot
// exists yet (spec §4.4 recovery, "no snapshot" branch: bootstrap via
// ActionInitChain + ContractReceiveTokenNetworkRegistry).
type BootstrapConfig struct {
	ChainID         primitives.ChainID
	BlockNumber     primitives.BlockNumber
	BlockHash       primitives.BlockHash
	OurAddress      primitives.Address
	RandomSeed      int64
	RegistryAddress primitives.Address
}

// Recover implements spec §4.4's boot-time recovery algorithm: load the
// latest snapshot, if any, then replay every state-change committed since
// it through transition.Transition, discarding the events each replay
// produces (they were already sent/acted on the first time). With no
// snapshot on record the node bootstraps from scratch instead of
// replaying an empty range against a nil state.
//
// The returned lastStateChangeID is the id recovery left off at, the
// starting point coordinator passes to the live AppendTransition calls
// that follow.
func Recover(db *DB, bootstrap BootstrapConfig) (chainState *state.ChainState, lastStateChangeID string, err error) {
	snap, err := db.GetSnapshotBefore()
	switch {
	case errors.Is(err, ErrNoSnapshot):
		chainState, lastStateChangeID, err = bootstrapChainState(db, bootstrap)
		if err != nil {
			return nil, "", err
		}
	case err != nil:
		return nil, "", err
	default:
		chainState = snap.ChainState
		lastStateChangeID = snap.StateChangeID
		log.Infof("storage: recovering from snapshot %s at state change %s", snap.ID, snap.StateChangeID)
	}

	replayed := 0
	it, err := db.StateChangesBetween(lastStateChangeID, "")
	if err != nil {
		return nil, "", fmt.Errorf("storage: recovery: %w", err)
	}
	defer it.Close()

	for {
		row, ok, err := it.Next()
		if err != nil {
			return nil, "", fmt.Errorf("storage: recovery: %w", err)
		}
		if !ok {
			break
		}
		chainState, _ = transition.Transition(chainState, row.StateChange)
		lastStateChangeID = row.ID
		replayed++
	}
	log.Infof("storage: recovery replayed %d state changes, now at block %d", replayed, chainState.BlockNumber)
	return chainState, lastStateChangeID, nil
}

// bootstrapChainState runs ActionInitChain followed by
// ContractReceiveTokenNetworkRegistry through the real reducer and
// persists both as the first two rows of the state-change log, so a
// second restart recovers from them like any other committed transition
// rather than re-bootstrapping.
func bootstrapChainState(db *DB, cfg BootstrapConfig) (*state.ChainState, string, error) {
	initChain := &state.ActionInitChain{
		ChainID:     cfg.ChainID,
		BlockNumber: cfg.BlockNumber,
		BlockHash:   cfg.BlockHash,
		OurAddress:  cfg.OurAddress,
		RandomSeed:  cfg.RandomSeed,
	}
	chainState, events := transition.Transition(nil, initChain)
	id, _, err := db.AppendTransition(chainState, initChain, events)
	if err != nil {
		return nil, "", fmt.Errorf("storage: bootstrapping ActionInitChain: %w", err)
	}

	registry := &state.ContractReceiveTokenNetworkRegistry{
		RegistryAddress: cfg.RegistryAddress,
		BlockNumber:     cfg.BlockNumber,
		BlockHash:       cfg.BlockHash,
	}
	chainState, events = transition.Transition(chainState, registry)
	id, _, err = db.AppendTransition(chainState, registry, events)
	if err != nil {
		return nil, "", fmt.Errorf("storage: bootstrapping ContractReceiveTokenNetworkRegistry: %w", err)
	}

	log.Infof("storage: bootstrapped chain state for %s at block %d", cfg.OurAddress.Hex(), cfg.BlockNumber)
	return chainState, id, nil
}
