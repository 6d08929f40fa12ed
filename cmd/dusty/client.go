package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustybot/dusty/internal/config"
	"github.com/dustybot/dusty/internal/storage"
)

type apiClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func newAPIClient(cfg config.Config) *apiClient {
	return &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		token:      cfg.API.Token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func loadAPIClient() (*apiClient, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return newAPIClient(cfg), nil
}

func (c *apiClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable, is dusty running? (%w)", err)
	}
	return resp, nil
}

func (c *apiClient) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

func (c *apiClient) delete(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, "")
}

func (c *apiClient) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (c *apiClient) listUsers(ctx context.Context) ([]storage.User, error) {
	resp, err := c.get(ctx, "/api/users")
	if err != nil {
		return nil, err
	}
	var users []storage.User
	if err := decodeJSON(resp, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *apiClient) listChores(ctx context.Context, assignee string, unassigned bool) ([]storage.Chore, error) {
	q := url.Values{}
	if assignee != "" {
		q.Set("assignee", assignee)
	}
	if unassigned {
		q.Set("unassigned", "true")
	}
	path := "/api/chores"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var chores []storage.Chore
	if err := decodeJSON(resp, &chores); err != nil {
		return nil, err
	}
	return chores, nil
}

func (c *apiClient) listHistory(ctx context.Context, limit int) ([]storage.HistoryEntry, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/api/history?limit=%d", limit))
	if err != nil {
		return nil, err
	}
	var entries []storage.HistoryEntry
	if err := decodeJSON(resp, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *apiClient) deleteChore(ctx context.Context, id string) error {
	resp, err := c.delete(ctx, "/api/chores/"+id)
	if err != nil {
		return err
	}
	var result map[string]string
	return decodeJSON(resp, &result)
}

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("server returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
