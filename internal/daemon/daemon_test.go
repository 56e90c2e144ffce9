// internal/daemon/daemon_test.go
package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func testConfig(t *testing.T, dir string) string {
	return writeConfig(t, dir, `
board:
  local_url: http://127.0.0.1:7000
  local_key: test-key
weather:
  api_key: owm-key
db:
  path: `+filepath.Join(dir, "test.db")+`
web:
  host: 127.0.0.1
  port: 0
`)
}

func TestRun_MissingBoardConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "db:\n  path: "+filepath.Join(dir, "test.db")+"\n")

	d := New(path)
	if err := d.Run(context.Background()); err == nil {
		t.Error("Run() succeeded without board configuration")
	}
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	d := New(testConfig(t, dir))

	if err := d.setup(); err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	defer d.store.Close()

	if d.board == nil || d.engine == nil {
		t.Fatal("setup() left dependencies nil")
	}

	// Default schedules are seeded into a fresh database.
	schedules, err := d.store.Schedules(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(schedules) == 0 {
		t.Error("no default schedules were seeded")
	}
}

func TestBuildProviders(t *testing.T) {
	dir := t.TempDir()
	d := New(testConfig(t, dir))
	if err := d.setup(); err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	defer d.store.Close()

	p := d.buildProviders(d.config)
	if p.Weather == nil {
		t.Error("weather provider missing despite configured key")
	}
	if p.Countdowns == nil {
		t.Error("countdown provider missing, it needs no key")
	}
	if p.Calendar != nil || p.News != nil || p.Flights != nil {
		t.Error("providers built without configured keys")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	d := New(testConfig(t, dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
