// internal/provider/calendar.go
package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// CalendarEvent is one event from the subscribed calendar.
type CalendarEvent struct {
	Title  string
	Start  time.Time
	AllDay bool
}

// CalendarProvider fetches an iCalendar feed and shows today's events.
type CalendarProvider struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

// NewCalendar creates a calendar provider for an ICS URL.
func NewCalendar(url string) *CalendarProvider {
	return &CalendarProvider{
		url:        url,
		httpClient: newHTTPClient(),
		now:        time.Now,
	}
}

// FetchToday retrieves the feed and returns today's events sorted by
// start time.
func (p *CalendarProvider) FetchToday(ctx context.Context) ([]CalendarEvent, error) {
	if p.url == "" {
		return nil, fmt.Errorf("calendar URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar feed returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading calendar feed: %w", err)
	}

	today := p.now().Format("2006-01-02")
	var todays []CalendarEvent
	for _, ev := range ParseICS(string(data)) {
		if ev.Start.Format("2006-01-02") == today {
			todays = append(todays, ev)
		}
	}
	sort.Slice(todays, func(i, j int) bool { return todays[i].Start.Before(todays[j].Start) })
	return todays, nil
}

// ParseICS extracts VEVENT summaries and start times from iCalendar
// text. Only DTSTART and SUMMARY are needed for the board; everything
// else is skipped.
func ParseICS(data string) []CalendarEvent {
	var events []CalendarEvent
	var current *CalendarEvent

	for _, line := range unfoldICS(data) {
		switch {
		case line == "BEGIN:VEVENT":
			current = &CalendarEvent{Title: "Event"}
		case line == "END:VEVENT":
			if current != nil && !current.Start.IsZero() {
				events = append(events, *current)
			}
			current = nil
		case current == nil:
			continue
		case strings.HasPrefix(line, "SUMMARY"):
			if _, value, ok := splitICSLine(line); ok {
				current.Title = unescapeICSText(value)
			}
		case strings.HasPrefix(line, "DTSTART"):
			name, value, ok := splitICSLine(line)
			if !ok {
				continue
			}
			start, allDay, err := parseICSTime(name, value)
			if err != nil {
				continue
			}
			current.Start = start
			current.AllDay = allDay
		}
	}
	return events
}

// unfoldICS splits ICS text into lines, joining folded continuation
// lines (which begin with a space or tab) to their predecessor.
func unfoldICS(data string) []string {
	raw := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	var lines []string
	for _, line := range raw {
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(lines) > 0 {
			lines[len(lines)-1] += line[1:]
			continue
		}
		lines = append(lines, strings.TrimRight(line, "\r"))
	}
	return lines
}

// splitICSLine splits "NAME;PARAM=X:VALUE" into the name-with-params
// and the value.
func splitICSLine(line string) (name, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	return line[:idx], line[idx+1:], true
}

// parseICSTime handles the DTSTART forms the board cares about:
// date-only values, UTC timestamps, and floating/zoned local times.
func parseICSTime(name, value string) (time.Time, bool, error) {
	if strings.Contains(name, "VALUE=DATE") || !strings.Contains(value, "T") {
		t, err := time.ParseInLocation("20060102", value, time.Local)
		return t, true, err
	}
	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		return t.Local(), false, err
	}
	t, err := time.ParseInLocation("20060102T150405", value, time.Local)
	return t, false, err
}

func unescapeICSText(s string) string {
	repl := strings.NewReplacer(
		"\\n", " ",
		"\\,", ",",
		"\\;", ";",
		"\\\\", "\\",
	)
	return repl.Replace(s)
}

// FormatForBoard renders today's events as board lines, at most three
// events.
func (p *CalendarProvider) FormatForBoard(events []CalendarEvent) []string {
	now := p.now()
	lines := []string{
		strings.ToUpper(now.Format("Monday")),
		strings.ToUpper(now.Format("January 02")),
		"",
	}

	if len(events) == 0 {
		return append(lines, "NO EVENTS TODAY")
	}

	for i, ev := range events {
		if i >= 3 {
			break
		}
		if ev.AllDay {
			lines = append(lines, truncate(strings.ToUpper(ev.Title), 22))
			continue
		}
		timeStr := strings.TrimPrefix(ev.Start.Format("3:04PM"), "0")
		lines = append(lines, timeStr+" "+truncate(strings.ToUpper(ev.Title), 15))
	}
	return lines
}

// Lines fetches and formats in one step.
func (p *CalendarProvider) Lines(ctx context.Context) ([]string, error) {
	events, err := p.FetchToday(ctx)
	if err != nil {
		return nil, err
	}
	return p.FormatForBoard(events), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
