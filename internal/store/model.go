// internal/store/model.go
package store

import "time"

// ContentType tags what a schedule or log entry displays. The set is
// closed; dispatch in the scheduler switches exhaustively over it.
type ContentType string

const (
	TypeText       ContentType = "text"
	TypeWeather    ContentType = "weather"
	TypeStocks     ContentType = "stocks"
	TypeCalendar   ContentType = "calendar"
	TypeNews       ContentType = "news"
	TypeCountdowns ContentType = "countdowns"
	TypeFlights    ContentType = "flights"
)

// ContentTypes lists every valid content type.
var ContentTypes = []ContentType{
	TypeText, TypeWeather, TypeStocks, TypeCalendar,
	TypeNews, TypeCountdowns, TypeFlights,
}

// Valid reports whether t is a member of the closed content-type set.
func (t ContentType) Valid() bool {
	for _, ct := range ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// Schedule is a recurring display job: a cron expression plus the
// content type to dispatch when due. LastRun moves forward only after a
// confirmed successful send.
type Schedule struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Type      ContentType `json:"type"`
	Content   string      `json:"content,omitempty"` // literal text payload, used only by TypeText
	CronExpr  string      `json:"cron"`
	Enabled   bool        `json:"enabled"`
	LastRun   *time.Time  `json:"last_run,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// LogEntry is one append-only record of a send attempt.
type LogEntry struct {
	ID      int64       `json:"id"`
	Type    ContentType `json:"type"`
	Content string      `json:"content"`
	SentAt  time.Time   `json:"sent_at"`
	Success bool        `json:"success"`
}

// Countdown is a named future date shown as days remaining.
type Countdown struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TargetDate string `json:"target_date"` // YYYY-MM-DD
	Enabled    bool   `json:"enabled"`
}

// Flight is a tracked flight. Status change detection lives in the
// scheduler's memory, not here; the store only persists identity.
type Flight struct {
	ID      int64  `json:"id"`
	Number  string `json:"number"` // IATA flight number, e.g. UA123
	Date    string `json:"date"`   // YYYY-MM-DD departure date
	Enabled bool   `json:"enabled"`
}

// Key identifies the flight for in-memory status tracking.
func (f Flight) Key() string {
	return f.Number + "|" + f.Date
}
