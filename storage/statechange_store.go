package storage

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/raiden-network/raiden-go/state"
)

// newULID mints a lexically-sortable, time-ordered id (spec §4.4: row ids
// are ULIDs so "between" scans are plain TEXT range queries). Monotonic
// entropy guarantees strictly increasing ids for state-changes committed
// within the same millisecond, which the single-writer coordinator
// relies on (spec §4.5) to produce a total order matching commit order.
var ulidEntropy = ulid.Monotonic(rand.Reader, 0)

func newULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

// StoreStateChange persists a single state-change and returns its id
// (spec §4.4 store_state_change).
func (d *DB) StoreStateChange(sc state.StateChange) (string, error) {
	return d.storeStateChangeTx(d.DB, sc)
}

func (d *DB) storeStateChangeTx(exec execer, sc state.StateChange) (string, error) {
	data, err := state.EncodeStateChange(sc)
	if err != nil {
		return "", fmt.Errorf("storage: encoding state change: %w", err)
	}
	id := newULID()
	_, err = exec.Exec(
		`INSERT INTO state_changes(id, data, timestamp) VALUES (?, ?, ?)`,
		id, string(data), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("storage: inserting state change: %w", err)
	}
	return id, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting
// storeStateChangeTx/storeEventsTx run standalone or as part of
// AppendTransition's single commit (spec §4.4 "Consistency guarantee").
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// StateChangeRow is one row read back from state_changes.
type StateChangeRow struct {
	ID          string
	StateChange state.StateChange
	Timestamp   time.Time
}

// StateChangeIterator streams rows from a state_changes_between scan
// without materializing the whole range in memory (spec §4.4
// state_changes_between returns an "iterator").
type StateChangeIterator struct {
	rows *sql.Rows
}

// Next advances the iterator. It returns (row, true, nil) while rows
// remain, (zero, false, nil) at exhaustion, and (zero, false, err) on a
// read or decode failure.
func (it *StateChangeIterator) Next() (StateChangeRow, bool, error) {
	if !it.rows.Next() {
		return StateChangeRow{}, false, it.rows.Err()
	}
	var id, data string
	var ts int64
	if err := it.rows.Scan(&id, &data, &ts); err != nil {
		return StateChangeRow{}, false, fmt.Errorf("storage: scanning state change row: %w", err)
	}
	sc, err := state.DecodeStateChange([]byte(data))
	if err != nil {
		return StateChangeRow{}, false, fmt.Errorf("storage: decoding state change %s: %w", id, err)
	}
	return StateChangeRow{ID: id, StateChange: sc, Timestamp: time.Unix(ts, 0)}, true, nil
}

// Close releases the underlying rows. Safe to call after Next returns
// ok=false.
func (it *StateChangeIterator) Close() error {
	return it.rows.Close()
}

// StateChangesBetween returns an iterator over state_changes with id in
// (from, to], ordered by id (spec §4.4 state_changes_between). An empty
// from scans from the beginning of the log; an empty to scans through
// the most recent row.
func (d *DB) StateChangesBetween(from, to string) (*StateChangeIterator, error) {
	query := `SELECT id, data, timestamp FROM state_changes WHERE id > ?`
	args := []interface{}{from}
	if to != "" {
		query += ` AND id <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY id ASC`

	rows, err := d.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: querying state changes: %w", err)
	}
	return &StateChangeIterator{rows: rows}, nil
}
