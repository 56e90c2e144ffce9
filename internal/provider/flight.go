// internal/provider/flight.go
package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/colebrumley/flapboard/internal/store"
)

const aviationStackBaseURL = "http://api.aviationstack.com/v1"

// terminalStatuses are flight states after which the status can no
// longer change, so polling may stop.
var terminalStatuses = map[string]bool{
	"landed":    true,
	"cancelled": true,
	"diverted":  true,
	"incident":  true,
}

// TerminalStatus reports whether a flight status is final.
func TerminalStatus(status string) bool {
	return terminalStatuses[strings.ToLower(status)]
}

// FlightStatus is one tracked flight's current state.
type FlightStatus struct {
	Number    string
	Status    string
	Departure string // IATA code
	Arrival   string // IATA code
}

// FlightLister is the store surface the flight provider needs.
type FlightLister interface {
	FlightsForDate(date string) ([]store.Flight, error)
}

// FlightProvider fetches flight status from AviationStack.
type FlightProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	store      FlightLister
	now        func() time.Time
}

// NewFlights creates a flight provider backed by the store of tracked
// flights.
func NewFlights(apiKey string, lister FlightLister) *FlightProvider {
	return &FlightProvider{
		apiKey:     apiKey,
		baseURL:    aviationStackBaseURL,
		httpClient: newHTTPClient(),
		store:      lister,
		now:        time.Now,
	}
}

// Fetch retrieves the current status of one tracked flight.
func (p *FlightProvider) Fetch(ctx context.Context, f store.Flight) (*FlightStatus, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("flight API key not configured")
	}

	q := url.Values{}
	q.Set("access_key", p.apiKey)
	q.Set("flight_iata", f.Number)
	q.Set("flight_date", f.Date)

	var body struct {
		Data []struct {
			FlightStatus string `json:"flight_status"`
			Departure    struct {
				IATA string `json:"iata"`
			} `json:"departure"`
			Arrival struct {
				IATA string `json:"iata"`
			} `json:"arrival"`
		} `json:"data"`
	}
	if err := getJSON(ctx, p.httpClient, p.baseURL+"/flights?"+q.Encode(), &body); err != nil {
		return nil, fmt.Errorf("fetching flight %s: %w", f.Number, err)
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("no data for flight %s on %s", f.Number, f.Date)
	}

	d := body.Data[0]
	return &FlightStatus{
		Number:    strings.ToUpper(f.Number),
		Status:    d.FlightStatus,
		Departure: strings.ToUpper(d.Departure.IATA),
		Arrival:   strings.ToUpper(d.Arrival.IATA),
	}, nil
}

// FormatForBoard renders one flight's status as board lines.
func (p *FlightProvider) FormatForBoard(fs *FlightStatus) []string {
	lines := []string{"FLIGHT " + fs.Number, ""}
	if fs.Departure != "" && fs.Arrival != "" {
		lines = append(lines, fs.Departure+" TO "+fs.Arrival, "")
	}
	return append(lines, "STATUS: "+strings.ToUpper(fs.Status))
}

// Lines summarizes all of today's tracked flights, one per line.
func (p *FlightProvider) Lines(ctx context.Context) ([]string, error) {
	flights, err := p.store.FlightsForDate(p.now().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("loading flights: %w", err)
	}
	if len(flights) == 0 {
		return []string{"FLIGHTS", "", "NO TRACKED", "FLIGHTS TODAY"}, nil
	}

	lines := []string{"FLIGHTS", ""}
	for i, f := range flights {
		if i >= 4 {
			break
		}
		fs, err := p.Fetch(ctx, f)
		if err != nil {
			lines = append(lines, strings.ToUpper(f.Number)+" UNAVAILABLE")
			continue
		}
		lines = append(lines, fs.Number+" "+strings.ToUpper(fs.Status))
	}
	return lines, nil
}
