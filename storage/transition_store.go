package storage

import (
	"fmt"

	"github.com/raiden-network/raiden-go/state"
)

// AppendTransition persists one reducer call's state-change and the
// events it produced as a single atomic commit (spec §4.4 "Consistency
// guarantee: store_state_change and store_events for the same transition
// commit in one database transaction"), then snapshots chainState if the
// configured cadence has been reached (spec §4.4 "Snapshotting").
//
// The coordinator is this method's only caller, under the same lock that
// serializes calls into transition.Transition (spec §4.5) — AppendTransition
// itself does no additional locking.
func (d *DB) AppendTransition(chainState *state.ChainState, sc state.StateChange, events []state.Event) (string, []string, error) {
	tx, err := d.Begin()
	if err != nil {
		return "", nil, fmt.Errorf("storage: starting transition commit: %w", err)
	}
	defer tx.Rollback()

	stateChangeID, err := d.storeStateChangeTx(tx, sc)
	if err != nil {
		return "", nil, err
	}
	eventIDs, err := storeEventsTx(tx, stateChangeID, events)
	if err != nil {
		return "", nil, err
	}
	if err := tx.Commit(); err != nil {
		return "", nil, fmt.Errorf("storage: committing transition: %w", err)
	}

	d.maybeSnapshot(stateChangeID, chainState)
	return stateChangeID, eventIDs, nil
}
