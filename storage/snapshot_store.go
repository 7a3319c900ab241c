package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/raiden-network/raiden-go/state"
)

// ErrNoSnapshot is returned by GetSnapshotBefore when the node has never
// taken one, which is the normal state on first boot (spec §4.4 recovery,
// "no snapshot" branch).
var ErrNoSnapshot = errors.New("storage: no snapshot recorded")

// Snapshot is one row read back from snapshots.
type Snapshot struct {
	ID            string
	StateChangeID string
	ChainState    *state.ChainState
	Timestamp     time.Time
}

// StoreSnapshot persists chainState tagged with the id of the last
// state-change it reflects (spec §4.4 store_snapshot).
func (d *DB) StoreSnapshot(stateChangeID string, chainState *state.ChainState) (string, error) {
	data, err := state.EncodeSnapshot(chainState)
	if err != nil {
		return "", fmt.Errorf("storage: encoding snapshot: %w", err)
	}
	id := newULID()
	_, err = d.Exec(
		`INSERT INTO snapshots(id, state_change_id, data, timestamp) VALUES (?, ?, ?, ?)`,
		id, stateChangeID, string(data), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("storage: inserting snapshot: %w", err)
	}
	log.Infof("storage: snapshot %s taken at state change %s", id, stateChangeID)
	return id, nil
}

// GetSnapshotBefore returns the most recently stored snapshot, or
// ErrNoSnapshot if none exists (spec §4.4 get_snapshot_before, recovery's
// starting point).
func (d *DB) GetSnapshotBefore() (Snapshot, error) {
	var id, stateChangeID, data string
	var ts int64
	err := d.QueryRow(
		`SELECT id, state_change_id, data, timestamp FROM snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&id, &stateChangeID, &data, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("storage: querying latest snapshot: %w", err)
	}

	chainState, err := state.DecodeSnapshot([]byte(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("storage: decoding snapshot %s: %w", id, err)
	}
	return Snapshot{ID: id, StateChangeID: stateChangeID, ChainState: chainState, Timestamp: time.Unix(ts, 0)}, nil
}

// countStateChangesSinceLastSnapshot seeds changesSinceSnapshot on Open so
// the snapshot cadence survives a restart instead of resetting to zero.
func (d *DB) countStateChangesSinceLastSnapshot() (int, error) {
	snap, err := d.GetSnapshotBefore()
	if errors.Is(err, ErrNoSnapshot) {
		var count int
		if err := d.QueryRow(`SELECT COUNT(*) FROM state_changes`).Scan(&count); err != nil {
			return 0, fmt.Errorf("storage: counting state changes: %w", err)
		}
		return count, nil
	}
	if err != nil {
		return 0, err
	}
	var count int
	err = d.QueryRow(`SELECT COUNT(*) FROM state_changes WHERE id > ?`, snap.StateChangeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("storage: counting state changes since snapshot: %w", err)
	}
	return count, nil
}

// maybeSnapshot takes a snapshot once snapshotInterval commits have
// accumulated since the last one (spec §4.4 "every N committed changes").
// stateChangeID anchors the new snapshot to the state-change that produced
// the chainState being saved.
func (d *DB) maybeSnapshot(stateChangeID string, chainState *state.ChainState) {
	if d.snapshotInterval <= 0 {
		return
	}
	d.changesSinceSnapshot++
	if d.changesSinceSnapshot < d.snapshotInterval {
		return
	}
	if _, err := d.StoreSnapshot(stateChangeID, chainState); err != nil {
		log.Errorf("storage: automatic snapshot failed: %v", err)
		return
	}
	d.changesSinceSnapshot = 0
}
