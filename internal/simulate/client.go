package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrUnexpectedStatus is returned for responses outside the expected codes.
var ErrUnexpectedStatus = errors.New("unexpected status")

type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{http: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// do sends a request and decodes a JSON response into out when the status
// is one of want.
func (c *client) do(ctx context.Context, method, path string, body, out any, want ...int) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	for _, code := range want {
		if resp.StatusCode != code {
			continue
		}
		if out == nil {
			return resp.StatusCode, nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return resp.StatusCode, nil
	}
	return resp.StatusCode, fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, bytes.TrimSpace(data))
}

type receipt struct {
	EventID   string `json:"event_id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type eventResult struct {
	EventID string `json:"event_id"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

// Entry is a leaderboard row as served by GET /leaderboard.
type Entry struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
	MMR  int    `json:"mmr"`
	Tier string `json:"tier"`
}

type competitor struct {
	Name string          `json:"name"`
	MMR  json.RawMessage `json:"mmr"`
	Tier string          `json:"tier"`
}

func (c *client) health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
	return err
}

func (c *client) submit(ctx context.Context, r Room) (receipt, error) { //nolint:gocritic // hugeParam: marshalled once
	var rc receipt
	_, err := c.do(ctx, http.MethodPost, "/events", r, &rc, http.StatusAccepted, http.StatusOK)
	return rc, err
}

func (c *client) result(ctx context.Context, id string) (eventResult, error) {
	var res eventResult
	_, err := c.do(ctx, http.MethodGet, "/events/"+url.PathEscape(id), nil, &res, http.StatusOK)
	return res, err
}

func (c *client) leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	var entries []Entry
	_, err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(limit), nil, &entries, http.StatusOK)
	return entries, err
}

func (c *client) competitor(ctx context.Context, name string) (competitor, error) {
	var v competitor
	_, err := c.do(ctx, http.MethodGet, "/competitors/"+url.PathEscape(name), nil, &v, http.StatusOK)
	return v, err
}
