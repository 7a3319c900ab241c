package storage

import (
	"fmt"
	"time"

	"github.com/raiden-network/raiden-go/state"
)

// StoreEvents persists the events produced by applying a state-change,
// returning their ids in the same order (spec §4.4 store_events).
func (d *DB) StoreEvents(stateChangeID string, events []state.Event) ([]string, error) {
	return storeEventsTx(d.DB, stateChangeID, events)
}

func storeEventsTx(exec execer, stateChangeID string, events []state.Event) ([]string, error) {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		data, err := state.EncodeEvent(e)
		if err != nil {
			return nil, fmt.Errorf("storage: encoding event: %w", err)
		}
		id := newULID()
		_, err = exec.Exec(
			`INSERT INTO events(id, state_change_id, data, timestamp) VALUES (?, ?, ?, ?)`,
			id, stateChangeID, string(data), time.Now().Unix(),
		)
		if err != nil {
			return nil, fmt.Errorf("storage: inserting event: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// EventRow is one row read back from events.
type EventRow struct {
	ID            string
	StateChangeID string
	Event         state.Event
	Timestamp     time.Time
}

// EventsForStateChange returns every event recorded against stateChangeID,
// in insertion (id) order. Used by operator tooling to inspect what a
// given state-change produced; the recovery algorithm itself never reads
// events back (spec §4.4: "events are not replayed").
func (d *DB) EventsForStateChange(stateChangeID string) ([]EventRow, error) {
	rows, err := d.Query(
		`SELECT id, state_change_id, data, timestamp FROM events WHERE state_change_id = ? ORDER BY id ASC`,
		stateChangeID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: querying events: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var id, scID, data string
		var ts int64
		if err := rows.Scan(&id, &scID, &data, &ts); err != nil {
			return nil, fmt.Errorf("storage: scanning event row: %w", err)
		}
		ev, err := state.DecodeEvent([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("storage: decoding event %s: %w", id, err)
		}
		out = append(out, EventRow{ID: id, StateChangeID: scID, Event: ev, Timestamp: time.Unix(ts, 0)})
	}
	return out, rows.Err()
}
