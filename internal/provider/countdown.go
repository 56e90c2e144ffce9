// internal/provider/countdown.go
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/colebrumley/flapboard/internal/render"
	"github.com/colebrumley/flapboard/internal/store"
)

// CountdownLister is the store surface the countdown provider needs.
type CountdownLister interface {
	Countdowns(enabledOnly, includePast bool) ([]store.Countdown, error)
}

// CountdownEntry is a countdown with its days remaining resolved.
type CountdownEntry struct {
	Name string
	Days int
}

// CountdownProvider shows enabled countdowns as days remaining.
type CountdownProvider struct {
	store CountdownLister
	now   func() time.Time
}

// NewCountdowns creates a countdown provider backed by the store.
func NewCountdowns(lister CountdownLister) *CountdownProvider {
	return &CountdownProvider{store: lister, now: time.Now}
}

// Active returns enabled, unexpired countdowns sorted soonest first.
func (p *CountdownProvider) Active(ctx context.Context) ([]CountdownEntry, error) {
	countdowns, err := p.store.Countdowns(true, false)
	if err != nil {
		return nil, fmt.Errorf("loading countdowns: %w", err)
	}

	today := p.now()
	todayMidnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.Local)

	var entries []CountdownEntry
	for _, c := range countdowns {
		target, err := time.ParseInLocation("2006-01-02", c.TargetDate, time.Local)
		if err != nil {
			continue
		}
		days := int(target.Sub(todayMidnight).Hours() / 24)
		if days < 0 {
			continue
		}
		entries = append(entries, CountdownEntry{Name: c.Name, Days: days})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Days < entries[j].Days })
	return entries, nil
}

// FormatForBoard renders countdowns with days right-aligned, at most
// four entries.
func (p *CountdownProvider) FormatForBoard(entries []CountdownEntry) []string {
	if len(entries) == 0 {
		return []string{
			"COUNTDOWNS",
			"",
			"NO ACTIVE",
			"COUNTDOWNS",
			"",
			"ADD ONE IN THE APP",
		}
	}

	lines := []string{"COUNTDOWNS", ""}
	for i, e := range entries {
		if i >= 4 {
			break
		}
		var dayStr string
		switch e.Days {
		case 0:
			dayStr = "TODAY!"
		case 1:
			dayStr = "1 DAY"
		default:
			dayStr = fmt.Sprintf("%d DAYS", e.Days)
		}

		maxName := render.Cols - len(dayStr) - 1
		name := truncate(strings.ToUpper(e.Name), maxName)
		padding := render.Cols - len(name) - len(dayStr)
		lines = append(lines, name+strings.Repeat(" ", padding)+dayStr)
	}
	return lines
}

// Lines loads and formats in one step.
func (p *CountdownProvider) Lines(ctx context.Context) ([]string, error) {
	entries, err := p.Active(ctx)
	if err != nil {
		return nil, err
	}
	return p.FormatForBoard(entries), nil
}
