package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/scorestream/internal/domain/model"
)

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeRateLimited
	outcomeFailed
)

// httpClient talks to the API server.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

func (c *httpClient) health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *httpClient) publish(ctx context.Context, r model.Record) (outcome, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return outcomeFailed, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/api/publish", body)
	if err != nil {
		return outcomeFailed, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return outcomeAccepted, nil
	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return outcomeRateLimited, nil
	}
	var e struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&e)
	return outcomeFailed, fmt.Errorf("publish returned %d: %s", resp.StatusCode, e.Error)
}

func (c *httpClient) leaderboard(ctx context.Context) (model.Board, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/data", nil)
	if err != nil {
		return model.Board{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Board{}, fmt.Errorf("data returned %d", resp.StatusCode)
	}
	var board model.Board
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return model.Board{}, fmt.Errorf("decode leaderboard: %w", err)
	}
	return board, nil
}

func (c *httpClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
