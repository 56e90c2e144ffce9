// internal/board/client.go
// Package board talks to the split-flap display's local network API.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/colebrumley/flapboard/internal/render"
)

const apiKeyHeader = "X-Vestaboard-Local-Api-Key"

// Client sends frames to the display. A Grid's dimensions are enforced
// by its type, so the device never sees a malformed frame.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a client for the display at baseURL using the local API
// key. Timeout bounds every request; zero means 10 seconds.
func New(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("board URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("board API key is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) messageURL() string {
	return c.baseURL + "/local-api/message"
}

// Send pushes a frame to the display.
func (c *Client) Send(ctx context.Context, g render.Grid) error {
	body, err := json.Marshal(g.Slices())
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messageURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending frame: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("board returned status %d", resp.StatusCode)
	}
	return nil
}

// Clear blanks the display by sending an all-blank frame.
func (c *Client) Clear(ctx context.Context) error {
	return c.Send(ctx, render.Grid{})
}

// Current fetches the frame currently shown on the display. The local
// API returns either the bare matrix or {"message": matrix}.
func (c *Client) Current(ctx context.Context) (render.Grid, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.messageURL(), nil)
	if err != nil {
		return render.Grid{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return render.Grid{}, fmt.Errorf("reading board: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return render.Grid{}, fmt.Errorf("board returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return render.Grid{}, fmt.Errorf("reading board response: %w", err)
	}

	var wrapped struct {
		Message [][]int `json:"message"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Message != nil {
		if g, ok := render.FromSlices(wrapped.Message); ok {
			return g, nil
		}
		return render.Grid{}, fmt.Errorf("board returned a malformed frame")
	}

	var raw [][]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return render.Grid{}, fmt.Errorf("decoding board response: %w", err)
	}
	g, ok := render.FromSlices(raw)
	if !ok {
		return render.Grid{}, fmt.Errorf("board returned a malformed frame")
	}
	return g, nil
}

// TestConnection reports whether the display's local API is reachable.
// A 405 counts as reachable: some firmware rejects GET on the message
// endpoint but is otherwise up.
func (c *Client) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.messageURL(), nil)
	if err != nil {
		return false
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusMethodNotAllowed
}
