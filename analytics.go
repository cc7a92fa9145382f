package main

import (
	"database/sql"
	"log"
	"sync"
	"time"
)

// Event types for the lifecycle log
const (
	EventRoomCreated = "room_created"
	EventRoomClosed  = "room_closed"
	EventGameStart   = "game_start"
	EventGameOver    = "game_over"
	EventEliminated  = "participant_eliminated"
	EventLoopFault   = "loop_fault"
)

const (
	eventQueueSize = 1024
	eventBatchSize = 50
	eventFlushRate = 5 * time.Second
)

// Event is a single lifecycle event
type Event struct {
	Type          string
	RoomID        string
	ParticipantID string
	Data          string // JSON metadata (optional)
	Timestamp     time.Time
}

// EventLog persists lifecycle events with batched background writes.
// A nil *EventLog drops everything.
type EventLog struct {
	db     *DB
	events chan Event
	stop   chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
	dropped int
}

// NewEventLog creates and starts the background writer
func NewEventLog(db *DB) *EventLog {
	l := &EventLog{
		db:     db,
		events: make(chan Event, eventQueueSize),
		stop:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.writer()
	return l
}

// Track enqueues an event for async persistence (non-blocking)
func (l *EventLog) Track(evtType, roomID, participantID, data string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	select {
	case l.events <- Event{
		Type:          evtType,
		RoomID:        roomID,
		ParticipantID: participantID,
		Data:          data,
		Timestamp:     time.Now().UTC(),
	}:
	default:
		// Queue full: drop rather than stall a room
		l.dropped++
	}
}

// Dropped returns how many events were discarded because the queue was full
func (l *EventLog) Dropped() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Stop flushes whatever is queued and shuts the writer down
func (l *EventLog) Stop() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.mu.Unlock()

	close(l.stop)
	l.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (l *EventLog) writer() {
	defer l.wg.Done()

	batch := make([]Event, 0, eventBatchSize)
	ticker := time.NewTicker(eventFlushRate)
	defer ticker.Stop()

	for {
		select {
		case evt := <-l.events:
			batch = append(batch, evt)
			if len(batch) >= eventBatchSize {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				l.flush(batch)
				batch = batch[:0]
			}
		case <-l.stop:
			// No sender can enqueue once stopped is set, so draining is bounded
			for {
				select {
				case evt := <-l.events:
					batch = append(batch, evt)
				default:
					l.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of events to the database
func (l *EventLog) flush(events []Event) {
	if l.db == nil || len(events) == 0 {
		return
	}
	tx, err := l.db.conn.Begin()
	if err != nil {
		log.Printf("events: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO events (event_type, room_id, participant_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("events: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		rid := sql.NullString{String: evt.RoomID, Valid: evt.RoomID != ""}
		pid := sql.NullString{String: evt.ParticipantID, Valid: evt.ParticipantID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, rid, pid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.Printf("events: insert error: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("events: commit error: %v", err)
	}
}

// EventCounts returns counts of each event type for the last N days
func (l *EventLog) EventCounts(days int) (map[string]int, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	rows, err := l.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM events
		WHERE created_at >= strftime('%Y-%m-%dT%H:%M:%SZ', 'now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}
