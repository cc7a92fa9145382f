package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection. A nil *DB is valid and stores nothing.
type DB struct {
	conn *sql.DB
}

// MatchParticipant is one participant's line in a finished match
type MatchParticipant struct {
	ParticipantID     string `json:"participantId"`
	Nickname          string `json:"nickname"`
	Index             int    `json:"index"`
	Color             string `json:"color"`
	LivesLeft         int    `json:"livesLeft"`
	BombsPlaced       int    `json:"bombsPlaced"`
	PowerupsCollected int    `json:"powerupsCollected"`
}

// MatchResult is a finished game as handed over by a room
type MatchResult struct {
	RoomID         string
	Duration       time.Duration
	Ticks          uint64
	WinnerID       string
	WinnerNickname string
	Participants   []MatchParticipant
}

// MatchRow represents a completed match
type MatchRow struct {
	ID             int64              `json:"id"`
	RoomID         string             `json:"roomId"`
	Duration       float64            `json:"duration"` // seconds
	Ticks          int64              `json:"ticks"`
	WinnerID       string             `json:"winnerId,omitempty"`
	WinnerNickname string             `json:"winnerNickname,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	Participants   []MatchParticipant `json:"participants"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// WAL lets the event writer and match inserts interleave
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		ticks INTEGER NOT NULL DEFAULT 0,
		participants INTEGER NOT NULL DEFAULT 0,
		winner_id TEXT NOT NULL DEFAULT '',
		winner_nickname TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS match_players (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		participant_id TEXT NOT NULL,
		nickname TEXT NOT NULL,
		display_index INTEGER NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		lives_left INTEGER NOT NULL DEFAULT 0,
		bombs_placed INTEGER NOT NULL DEFAULT 0,
		powerups_collected INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, participant_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		room_id TEXT,
		participant_id TEXT,
		data TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_created ON matches(created_at);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(event_type, created_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		log.Printf("db: migration error: %v", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// RecordMatch stores a finished match with its participants and returns its ID
func (db *DB) RecordMatch(m MatchResult) (int64, error) {
	if db == nil {
		return 0, nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO matches (room_id, duration, ticks, participants, winner_id, winner_nickname)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.RoomID, m.Duration.Seconds(), int64(m.Ticks), len(m.Participants), m.WinnerID, m.WinnerNickname,
	)
	if err != nil {
		return 0, fmt.Errorf("insert match: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, p := range m.Participants {
		_, err := tx.Exec(
			`INSERT INTO match_players (match_id, participant_id, nickname, display_index, color, lives_left, bombs_placed, powerups_collected)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.ParticipantID, p.Nickname, p.Index, p.Color, p.LivesLeft, p.BombsPlaced, p.PowerupsCollected,
		)
		if err != nil {
			return 0, fmt.Errorf("insert participant %s: %w", p.ParticipantID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// RecentMatches returns the newest finished matches, newest first
func (db *DB) RecentMatches(limit int) ([]MatchRow, error) {
	if db == nil {
		return nil, nil
	}
	rows, err := db.conn.Query(`
		SELECT id, room_id, duration, ticks, winner_id, winner_nickname, created_at
		FROM matches
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Duration, &m.Ticks, &m.WinnerID, &m.WinnerNickname, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		players, err := db.matchPlayers(result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Participants = players
	}
	return result, nil
}

func (db *DB) matchPlayers(matchID int64) ([]MatchParticipant, error) {
	rows, err := db.conn.Query(`
		SELECT participant_id, nickname, display_index, color, lives_left, bombs_placed, powerups_collected
		FROM match_players
		WHERE match_id = ?
		ORDER BY display_index`,
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchParticipant
	for rows.Next() {
		var p MatchParticipant
		if err := rows.Scan(&p.ParticipantID, &p.Nickname, &p.Index, &p.Color, &p.LivesLeft, &p.BombsPlaced, &p.PowerupsCollected); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// GetSetting reads a persisted setting. Missing keys return "".
func (db *DB) GetSetting(key string) (string, error) {
	if db == nil {
		return "", nil
	}
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSetting writes a persisted setting
func (db *DB) SetSetting(key, value string) error {
	if db == nil {
		return nil
	}
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
