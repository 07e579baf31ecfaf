package store

import (
	"database/sql"
	"time"
)

// EventKind tells hand events from body events.
type EventKind string

const (
	KindHand EventKind = "hand"
	KindBody EventKind = "body"
)

// BodySlot is the slot value stored for body events.
const BodySlot = -1

// PoseEvent records that a hand slot or the body changed label on a frame.
type PoseEvent struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Kind      EventKind `json:"kind"`
	Slot      int       `json:"slot"`
	Pose      string    `json:"pose"`
	At        time.Time `json:"at"`
}

// PoseCount is the number of events carrying one label.
type PoseCount struct {
	Kind  EventKind `json:"kind"`
	Pose  string    `json:"pose"`
	Count int64     `json:"count"`
}

// EventRepository provides access to pose events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Append inserts events in a single transaction and fills in their IDs.
func (r *EventRepository) Append(events []PoseEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO pose_events (session_id, seq, kind, slot, pose, at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range events {
		e := &events[i]
		result, err := stmt.Exec(e.SessionID, int64(e.Seq), string(e.Kind), e.Slot, e.Pose, e.At.UTC())
		if err != nil {
			return err
		}
		if e.ID, err = result.LastInsertId(); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListBySession returns a session's events in frame order. A limit of zero or
// less returns every event.
func (r *EventRepository) ListBySession(sessionID string, limit int) ([]PoseEvent, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, seq, kind, slot, pose, at
		 FROM pose_events WHERE session_id = ? ORDER BY seq, id LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []PoseEvent
	for rows.Next() {
		var e PoseEvent
		var seq int64
		var kind string
		if err := rows.Scan(&e.ID, &e.SessionID, &seq, &kind, &e.Slot, &e.Pose, &e.At); err != nil {
			return nil, err
		}
		e.Seq = uint64(seq)
		e.Kind = EventKind(kind)
		events = append(events, e)
	}

	return events, rows.Err()
}

// Summary counts a session's events per kind and label.
func (r *EventRepository) Summary(sessionID string) ([]PoseCount, error) {
	rows, err := r.db.Query(
		`SELECT kind, pose, COUNT(*) FROM pose_events
		 WHERE session_id = ? GROUP BY kind, pose ORDER BY kind, COUNT(*) DESC, pose`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []PoseCount
	for rows.Next() {
		var c PoseCount
		var kind string
		if err := rows.Scan(&kind, &c.Pose, &c.Count); err != nil {
			return nil, err
		}
		c.Kind = EventKind(kind)
		counts = append(counts, c)
	}

	return counts, rows.Err()
}
