// internal/board/client_test.go
package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/colebrumley/flapboard/internal/render"
)

func TestSend(t *testing.T) {
	var gotPath, gotKey string
	var gotBody [][]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Vestaboard-Local-Api-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "secret", 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	g := render.RenderMessage("HI", true)
	if err := c.Send(context.Background(), g); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotPath != "/local-api/message" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("api key header = %q", gotKey)
	}
	if len(gotBody) != render.Rows || len(gotBody[0]) != render.Cols {
		t.Errorf("body dimensions = %dx%d", len(gotBody), len(gotBody[0]))
	}
}

func TestSend_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "k", 0)
	if err := c.Send(context.Background(), render.Grid{}); err == nil {
		t.Error("Send() succeeded on a 403")
	}
}

func TestClear_SendsAllBlank(t *testing.T) {
	var gotBody [][]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "k", 0)
	if err := c.Clear(context.Background()); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	for _, row := range gotBody {
		for _, code := range row {
			if code != 0 {
				t.Fatal("Clear() sent a non-blank cell")
			}
		}
	}
}

func TestCurrent_WrappedResponse(t *testing.T) {
	want := render.RenderMessage("NOW SHOWING", true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"message": want.Slices()})
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "k", 0)
	got, err := c.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got != want {
		t.Error("Current() returned a different grid")
	}
}

func TestCurrent_BareResponse(t *testing.T) {
	want := render.RenderMessage("BARE", false)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(want.Slices())
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "k", 0)
	got, err := c.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got != want {
		t.Error("Current() returned a different grid")
	}
}

func TestCurrent_MalformedFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]int{{1, 2, 3}})
	}))
	defer srv.Close()

	c, _ := New(srv.URL, "k", 0)
	if _, err := c.Current(context.Background()); err == nil {
		t.Error("Current() accepted a 1x3 frame")
	}
}

func TestTestConnection(t *testing.T) {
	cases := []struct {
		status int
		want   bool
	}{
		{http.StatusOK, true},
		{http.StatusMethodNotAllowed, true},
		{http.StatusUnauthorized, false},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c, _ := New(srv.URL, "k", time.Second)
		if got := c.TestConnection(context.Background()); got != tc.want {
			t.Errorf("TestConnection() with %d = %v, want %v", tc.status, got, tc.want)
		}
		srv.Close()
	}
}

func TestNew_RequiresURLAndKey(t *testing.T) {
	if _, err := New("", "k", 0); err == nil {
		t.Error("New() accepted empty URL")
	}
	if _, err := New("http://x", "", 0); err == nil {
		t.Error("New() accepted empty key")
	}
}
