// internal/store/store.go
// Package store persists schedules, countdowns, tracked flights, and the
// append-only message log in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database connection.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS scheduled_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    message_type TEXT NOT NULL,
    content TEXT,
    cron_expression TEXT NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT TRUE,
    last_run TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS message_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    message_type TEXT NOT NULL,
    content TEXT,
    sent_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    success BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS countdowns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    target_date TEXT NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS flights (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    flight_number TEXT NOT NULL,
    flight_date TEXT NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT
);

CREATE INDEX IF NOT EXISTS idx_scheduled_enabled ON scheduled_messages(enabled);
CREATE INDEX IF NOT EXISTS idx_log_sent ON message_log(sent_at);
CREATE INDEX IF NOT EXISTS idx_flights_date ON flights(flight_date);
`

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection serializes last_run updates and log appends, which
	// the scheduler's two loops and the web API share.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSchedule inserts the schedule, or updates it when ID is set.
// Returns the schedule ID. LastRun is never written here; only
// MarkFired advances it.
func (s *Store) SaveSchedule(sched *Schedule) (int64, error) {
	if sched.ID != 0 {
		_, err := s.db.Exec(`
			UPDATE scheduled_messages
			SET name = ?, message_type = ?, content = ?, cron_expression = ?, enabled = ?
			WHERE id = ?`,
			sched.Name, string(sched.Type), sched.Content, sched.CronExpr, sched.Enabled, sched.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("updating schedule: %w", err)
		}
		return sched.ID, nil
	}

	res, err := s.db.Exec(`
		INSERT INTO scheduled_messages (name, message_type, content, cron_expression, enabled)
		VALUES (?, ?, ?, ?, ?)`,
		sched.Name, string(sched.Type), sched.Content, sched.CronExpr, sched.Enabled,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting schedule: %w", err)
	}
	return res.LastInsertId()
}

// Schedules returns all schedules ordered by name, optionally only
// enabled ones.
func (s *Store) Schedules(enabledOnly bool) ([]Schedule, error) {
	query := "SELECT id, name, message_type, content, cron_expression, enabled, last_run, created_at FROM scheduled_messages"
	if enabledOnly {
		query += " WHERE enabled = TRUE"
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	var schedules []Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sched)
	}
	return schedules, rows.Err()
}

// Schedule returns one schedule by ID, or nil if it does not exist.
func (s *Store) Schedule(id int64) (*Schedule, error) {
	rows, err := s.db.Query(
		"SELECT id, name, message_type, content, cron_expression, enabled, last_run, created_at FROM scheduled_messages WHERE id = ?",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	sched, err := scanSchedule(rows)
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

func scanSchedule(rows *sql.Rows) (Schedule, error) {
	var sched Schedule
	var msgType string
	var content sql.NullString
	var lastRun, createdAt sql.NullTime
	if err := rows.Scan(&sched.ID, &sched.Name, &msgType, &content,
		&sched.CronExpr, &sched.Enabled, &lastRun, &createdAt); err != nil {
		return Schedule{}, fmt.Errorf("scanning schedule: %w", err)
	}
	sched.Type = ContentType(msgType)
	sched.Content = content.String
	if lastRun.Valid {
		t := lastRun.Time
		sched.LastRun = &t
	}
	sched.CreatedAt = createdAt.Time
	return sched, nil
}

// DeleteSchedule removes a schedule, reporting whether it existed.
func (s *Store) DeleteSchedule(id int64) (bool, error) {
	res, err := s.db.Exec("DELETE FROM scheduled_messages WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting schedule: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkFired atomically records a confirmed successful dispatch time.
func (s *Store) MarkFired(id int64, at time.Time) error {
	if _, err := s.db.Exec(
		"UPDATE scheduled_messages SET last_run = ? WHERE id = ?", at, id,
	); err != nil {
		return fmt.Errorf("marking schedule fired: %w", err)
	}
	return nil
}

// LogMessage appends a send attempt to the message log.
func (s *Store) LogMessage(msgType ContentType, content string, success bool) error {
	if _, err := s.db.Exec(
		"INSERT INTO message_log (message_type, content, success) VALUES (?, ?, ?)",
		string(msgType), content, success,
	); err != nil {
		return fmt.Errorf("logging message: %w", err)
	}
	return nil
}

// MessageLog returns the most recent log entries, newest first.
func (s *Store) MessageLog(limit int) ([]LogEntry, error) {
	rows, err := s.db.Query(
		"SELECT id, message_type, content, sent_at, success FROM message_log ORDER BY sent_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying message log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var msgType string
		var content sql.NullString
		if err := rows.Scan(&e.ID, &msgType, &content, &e.SentAt, &e.Success); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		e.Type = ContentType(msgType)
		e.Content = content.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveCountdown inserts the countdown, or updates it when ID is set.
func (s *Store) SaveCountdown(c *Countdown) (int64, error) {
	if c.ID != 0 {
		_, err := s.db.Exec(
			"UPDATE countdowns SET name = ?, target_date = ?, enabled = ? WHERE id = ?",
			c.Name, c.TargetDate, c.Enabled, c.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("updating countdown: %w", err)
		}
		return c.ID, nil
	}
	res, err := s.db.Exec(
		"INSERT INTO countdowns (name, target_date, enabled) VALUES (?, ?, ?)",
		c.Name, c.TargetDate, c.Enabled,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting countdown: %w", err)
	}
	return res.LastInsertId()
}

// Countdowns returns countdowns sorted by target date. With enabledOnly,
// disabled entries are skipped; with includePast false, dates before
// today are skipped.
func (s *Store) Countdowns(enabledOnly, includePast bool) ([]Countdown, error) {
	query := "SELECT id, name, target_date, enabled FROM countdowns WHERE 1=1"
	var args []any
	if enabledOnly {
		query += " AND enabled = TRUE"
	}
	if !includePast {
		query += " AND target_date >= ?"
		args = append(args, time.Now().Format("2006-01-02"))
	}
	query += " ORDER BY target_date"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying countdowns: %w", err)
	}
	defer rows.Close()

	var countdowns []Countdown
	for rows.Next() {
		var c Countdown
		if err := rows.Scan(&c.ID, &c.Name, &c.TargetDate, &c.Enabled); err != nil {
			return nil, fmt.Errorf("scanning countdown: %w", err)
		}
		countdowns = append(countdowns, c)
	}
	return countdowns, rows.Err()
}

// Countdown returns one countdown by ID, or nil if it does not exist.
func (s *Store) Countdown(id int64) (*Countdown, error) {
	var c Countdown
	err := s.db.QueryRow(
		"SELECT id, name, target_date, enabled FROM countdowns WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.TargetDate, &c.Enabled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying countdown: %w", err)
	}
	return &c, nil
}

// DeleteCountdown removes a countdown, reporting whether it existed.
func (s *Store) DeleteCountdown(id int64) (bool, error) {
	res, err := s.db.Exec("DELETE FROM countdowns WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting countdown: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SaveFlight inserts the flight, or updates it when ID is set.
func (s *Store) SaveFlight(f *Flight) (int64, error) {
	if f.ID != 0 {
		_, err := s.db.Exec(
			"UPDATE flights SET flight_number = ?, flight_date = ?, enabled = ? WHERE id = ?",
			f.Number, f.Date, f.Enabled, f.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("updating flight: %w", err)
		}
		return f.ID, nil
	}
	res, err := s.db.Exec(
		"INSERT INTO flights (flight_number, flight_date, enabled) VALUES (?, ?, ?)",
		f.Number, f.Date, f.Enabled,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting flight: %w", err)
	}
	return res.LastInsertId()
}

// Flights returns all tracked flights, optionally only enabled ones.
func (s *Store) Flights(enabledOnly bool) ([]Flight, error) {
	query := "SELECT id, flight_number, flight_date, enabled FROM flights"
	if enabledOnly {
		query += " WHERE enabled = TRUE"
	}
	query += " ORDER BY flight_date, flight_number"
	return s.queryFlights(query)
}

// FlightsForDate returns enabled flights departing on the given
// YYYY-MM-DD date.
func (s *Store) FlightsForDate(date string) ([]Flight, error) {
	return s.queryFlights(
		"SELECT id, flight_number, flight_date, enabled FROM flights WHERE enabled = TRUE AND flight_date = ? ORDER BY flight_number",
		date,
	)
}

func (s *Store) queryFlights(query string, args ...any) ([]Flight, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying flights: %w", err)
	}
	defer rows.Close()

	var flights []Flight
	for rows.Next() {
		var f Flight
		if err := rows.Scan(&f.ID, &f.Number, &f.Date, &f.Enabled); err != nil {
			return nil, fmt.Errorf("scanning flight: %w", err)
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

// DeleteFlight removes a tracked flight, reporting whether it existed.
func (s *Store) DeleteFlight(id int64) (bool, error) {
	res, err := s.db.Exec("DELETE FROM flights WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting flight: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Setting returns the stored value for key, or def when unset.
func (s *Store) Setting(key, def string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("querying setting: %w", err)
	}
	return value, nil
}

// SetSetting stores a key/value pair, replacing any existing value.
func (s *Store) SetSetting(key, value string) error {
	if _, err := s.db.Exec(
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value,
	); err != nil {
		return fmt.Errorf("storing setting: %w", err)
	}
	return nil
}
