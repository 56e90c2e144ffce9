// internal/scheduler/engine_test.go
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/colebrumley/flapboard/internal/provider"
	"github.com/colebrumley/flapboard/internal/render"
	"github.com/colebrumley/flapboard/internal/store"
)

type loggedMessage struct {
	msgType store.ContentType
	content string
	success bool
}

type fakeStore struct {
	schedules []store.Schedule
	flights   []store.Flight
	logs      []loggedMessage
	fired     []int64
}

func (f *fakeStore) Schedules(enabledOnly bool) ([]store.Schedule, error) {
	return f.schedules, nil
}

func (f *fakeStore) MarkFired(id int64, at time.Time) error {
	f.fired = append(f.fired, id)
	for i := range f.schedules {
		if f.schedules[i].ID == id {
			t := at
			f.schedules[i].LastRun = &t
		}
	}
	return nil
}

func (f *fakeStore) LogMessage(msgType store.ContentType, content string, success bool) error {
	f.logs = append(f.logs, loggedMessage{msgType, content, success})
	return nil
}

func (f *fakeStore) FlightsForDate(date string) ([]store.Flight, error) {
	return f.flights, nil
}

type fakeBoard struct {
	sent []render.Grid
	err  error
}

func (f *fakeBoard) Send(ctx context.Context, g render.Grid) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, g)
	return nil
}

type fakeLines struct {
	lines []string
	err   error
}

func (f *fakeLines) Lines(ctx context.Context) ([]string, error) {
	return f.lines, f.err
}

type fakeFlights struct {
	statuses   map[string]string // flight key -> status to report
	fetchErr   error
	fetchCalls int
}

func (f *fakeFlights) Fetch(ctx context.Context, fl store.Flight) (*provider.FlightStatus, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &provider.FlightStatus{
		Number:    strings.ToUpper(fl.Number),
		Status:    f.statuses[fl.Key()],
		Departure: "SEA",
		Arrival:   "JFK",
	}, nil
}

func (f *fakeFlights) FormatForBoard(fs *provider.FlightStatus) []string {
	return []string{"FLIGHT " + fs.Number, "", "STATUS: " + strings.ToUpper(fs.Status)}
}

func (f *fakeFlights) Lines(ctx context.Context) ([]string, error) {
	return []string{"FLIGHTS"}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(st *fakeStore, board *fakeBoard, providers Providers, at time.Time) *Engine {
	e := New(st, board, providers, testLogger(), time.Minute, 10*time.Minute)
	e.now = func() time.Time { return at }
	return e
}

func TestCheckSchedules_NewScheduleFires(t *testing.T) {
	st := &fakeStore{schedules: []store.Schedule{
		{ID: 1, Name: "Morning", Type: store.TypeText, Content: "GOOD MORNING", CronExpr: "0 7 * * *", Enabled: true},
	}}
	board := &fakeBoard{}
	e := newTestEngine(st, board, Providers{}, time.Date(2026, 8, 30, 7, 0, 30, 0, time.Local))

	e.checkSchedules(context.Background())

	if len(board.sent) != 1 {
		t.Fatalf("board received %d frames, want 1", len(board.sent))
	}
	if len(st.fired) != 1 || st.fired[0] != 1 {
		t.Errorf("fired = %v, want [1]", st.fired)
	}
	if len(st.logs) != 1 || !st.logs[0].success || st.logs[0].content != "GOOD MORNING" {
		t.Errorf("logs = %+v", st.logs)
	}
}

func TestCheckSchedules_NotDueYet(t *testing.T) {
	lastRun := time.Date(2026, 8, 29, 7, 0, 0, 0, time.Local)
	st := &fakeStore{schedules: []store.Schedule{
		{ID: 1, Name: "Morning", Type: store.TypeText, Content: "HI", CronExpr: "0 7 * * *", Enabled: true, LastRun: &lastRun},
	}}
	board := &fakeBoard{}
	e := newTestEngine(st, board, Providers{}, time.Date(2026, 8, 30, 6, 59, 0, 0, time.Local))

	e.checkSchedules(context.Background())

	if len(board.sent) != 0 {
		t.Errorf("board received %d frames, want 0", len(board.sent))
	}
	if len(st.fired) != 0 {
		t.Errorf("fired = %v, want none", st.fired)
	}
}

func TestCheckSchedules_FiresOncePerWindow(t *testing.T) {
	st := &fakeStore{schedules: []store.Schedule{
		{ID: 1, Name: "Morning", Type: store.TypeText, Content: "HI", CronExpr: "0 7 * * *", Enabled: true},
	}}
	board := &fakeBoard{}
	e := newTestEngine(st, board, Providers{}, time.Date(2026, 8, 30, 7, 0, 30, 0, time.Local))

	e.checkSchedules(context.Background())
	e.checkSchedules(context.Background())
	e.checkSchedules(context.Background())

	if len(board.sent) != 1 {
		t.Errorf("board received %d frames, want 1", len(board.sent))
	}
}

func TestCheckSchedules_RetriesAfterSendFailure(t *testing.T) {
	st := &fakeStore{schedules: []store.Schedule{
		{ID: 1, Name: "Morning", Type: store.TypeText, Content: "HI", CronExpr: "0 7 * * *", Enabled: true},
	}}
	board := &fakeBoard{err: fmt.Errorf("board offline")}
	e := newTestEngine(st, board, Providers{}, time.Date(2026, 8, 30, 7, 0, 30, 0, time.Local))

	e.checkSchedules(context.Background())

	if len(st.fired) != 0 {
		t.Fatalf("fired = %v after failed send, want none", st.fired)
	}
	if len(st.logs) != 1 || st.logs[0].success {
		t.Fatalf("logs = %+v, want one failure entry", st.logs)
	}

	// Board comes back. The schedule is still due and fires.
	board.err = nil
	e.checkSchedules(context.Background())

	if len(board.sent) != 1 {
		t.Errorf("board received %d frames after recovery, want 1", len(board.sent))
	}
	if len(st.fired) != 1 {
		t.Errorf("fired = %v after recovery, want [1]", st.fired)
	}
}

func TestCheckSchedules_InvalidCronDoesNotBlockOthers(t *testing.T) {
	st := &fakeStore{schedules: []store.Schedule{
		{ID: 1, Name: "Broken", Type: store.TypeText, Content: "A", CronExpr: "not a cron", Enabled: true},
		{ID: 2, Name: "Working", Type: store.TypeText, Content: "B", CronExpr: "0 7 * * *", Enabled: true},
	}}
	board := &fakeBoard{}
	e := newTestEngine(st, board, Providers{}, time.Date(2026, 8, 30, 7, 0, 30, 0, time.Local))

	e.checkSchedules(context.Background())

	if len(st.fired) != 1 || st.fired[0] != 2 {
		t.Errorf("fired = %v, want [2]", st.fired)
	}
}

func TestExecute_ProviderContent(t *testing.T) {
	st := &fakeStore{}
	board := &fakeBoard{}
	providers := Providers{Weather: &fakeLines{lines: []string{"SEATTLE", "", "72° CLEAR"}}}
	e := newTestEngine(st, board, providers, time.Date(2026, 8, 30, 7, 0, 0, 0, time.Local))

	sched := store.Schedule{ID: 1, Name: "Weather", Type: store.TypeWeather, CronExpr: "0 7 * * *", Enabled: true}
	if err := e.Execute(context.Background(), sched); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(board.sent) != 1 {
		t.Fatalf("board received %d frames, want 1", len(board.sent))
	}
	if st.logs[0].content != "SEATTLE\n\n72° CLEAR" {
		t.Errorf("logged content = %q", st.logs[0].content)
	}
}

func TestExecute_ProviderFailure(t *testing.T) {
	st := &fakeStore{}
	board := &fakeBoard{}
	providers := Providers{Weather: &fakeLines{err: fmt.Errorf("api down")}}
	e := newTestEngine(st, board, providers, time.Date(2026, 8, 30, 7, 0, 0, 0, time.Local))

	sched := store.Schedule{ID: 1, Name: "Weather", Type: store.TypeWeather, CronExpr: "0 7 * * *", Enabled: true}
	if err := e.Execute(context.Background(), sched); err == nil {
		t.Fatal("Execute() succeeded with failing provider")
	}
	if len(board.sent) != 0 {
		t.Errorf("board received %d frames, want 0", len(board.sent))
	}
	if len(st.fired) != 0 {
		t.Errorf("fired = %v, want none", st.fired)
	}
	if len(st.logs) != 1 || st.logs[0].success {
		t.Errorf("logs = %+v, want one failure entry", st.logs)
	}
}

func TestExecute_UnconfiguredProvider(t *testing.T) {
	st := &fakeStore{}
	e := newTestEngine(st, &fakeBoard{}, Providers{}, time.Now())

	sched := store.Schedule{ID: 1, Name: "News", Type: store.TypeNews, CronExpr: "0 7 * * *"}
	if err := e.Execute(context.Background(), sched); err == nil {
		t.Error("Execute() succeeded with no provider configured")
	}
}

func TestExecute_UnknownType(t *testing.T) {
	st := &fakeStore{}
	e := newTestEngine(st, &fakeBoard{}, Providers{}, time.Now())

	sched := store.Schedule{ID: 1, Name: "Odd", Type: store.ContentType("bogus"), CronExpr: "0 7 * * *"}
	if err := e.Execute(context.Background(), sched); err == nil {
		t.Error("Execute() succeeded with unknown content type")
	}
}

func TestSendText(t *testing.T) {
	st := &fakeStore{}
	board := &fakeBoard{}
	e := newTestEngine(st, board, Providers{}, time.Now())

	if err := e.SendText(context.Background(), "HELLO"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}
	if len(board.sent) != 1 {
		t.Fatalf("board received %d frames, want 1", len(board.sent))
	}
	if len(st.logs) != 1 || st.logs[0].msgType != store.TypeText || !st.logs[0].success {
		t.Errorf("logs = %+v", st.logs)
	}
}

func TestCheckFlights_DispatchOnFirstAndChange(t *testing.T) {
	flight := store.Flight{ID: 1, Number: "UA123", Date: "2026-08-30", Enabled: true}
	st := &fakeStore{flights: []store.Flight{flight}}
	board := &fakeBoard{}
	flights := &fakeFlights{statuses: map[string]string{flight.Key(): "scheduled"}}
	e := newTestEngine(st, board, Providers{Flights: flights}, time.Date(2026, 8, 30, 9, 0, 0, 0, time.Local))

	// First observation dispatches.
	e.checkFlights(context.Background())
	if len(board.sent) != 1 {
		t.Fatalf("board received %d frames after first check, want 1", len(board.sent))
	}

	// Same status again is suppressed.
	e.checkFlights(context.Background())
	if len(board.sent) != 1 {
		t.Fatalf("board received %d frames after unchanged check, want 1", len(board.sent))
	}

	// Status change dispatches again.
	flights.statuses[flight.Key()] = "active"
	e.checkFlights(context.Background())
	if len(board.sent) != 2 {
		t.Fatalf("board received %d frames after status change, want 2", len(board.sent))
	}
}

func TestCheckFlights_TerminalStatusStopsPolling(t *testing.T) {
	flight := store.Flight{ID: 1, Number: "UA123", Date: "2026-08-30", Enabled: true}
	st := &fakeStore{flights: []store.Flight{flight}}
	board := &fakeBoard{}
	flights := &fakeFlights{statuses: map[string]string{flight.Key(): "landed"}}
	e := newTestEngine(st, board, Providers{Flights: flights}, time.Date(2026, 8, 30, 9, 0, 0, 0, time.Local))

	e.checkFlights(context.Background())
	if flights.fetchCalls != 1 || len(board.sent) != 1 {
		t.Fatalf("fetchCalls = %d, sent = %d after landing", flights.fetchCalls, len(board.sent))
	}

	e.checkFlights(context.Background())
	e.checkFlights(context.Background())
	if flights.fetchCalls != 1 {
		t.Errorf("fetchCalls = %d after terminal status, want 1", flights.fetchCalls)
	}
}

func TestCheckFlights_FetchFailureSkips(t *testing.T) {
	flight := store.Flight{ID: 1, Number: "UA123", Date: "2026-08-30", Enabled: true}
	st := &fakeStore{flights: []store.Flight{flight}}
	board := &fakeBoard{}
	flights := &fakeFlights{fetchErr: fmt.Errorf("api down")}
	e := newTestEngine(st, board, Providers{Flights: flights}, time.Date(2026, 8, 30, 9, 0, 0, 0, time.Local))

	e.checkFlights(context.Background())
	if len(board.sent) != 0 {
		t.Errorf("board received %d frames, want 0", len(board.sent))
	}

	// The failure leaves no recorded state, so a later success dispatches.
	flights.fetchErr = nil
	flights.statuses = map[string]string{flight.Key(): "active"}
	e.checkFlights(context.Background())
	if len(board.sent) != 1 {
		t.Errorf("board received %d frames after recovery, want 1", len(board.sent))
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	st := &fakeStore{}
	e := newTestEngine(st, &fakeBoard{}, Providers{}, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
