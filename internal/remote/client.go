package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"listaris/internal/content"
	"listaris/internal/session"
)

var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status     int
	Message    string
	Suggestion string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Result mirrors the server's answer to a mutation.
type Result struct {
	Accepted bool           `json:"accepted"`
	Click    *session.Click `json:"click,omitempty"`
	Gain     int64          `json:"gain,omitempty"`
	State    session.View   `json:"state"`
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) State(ctx context.Context) (session.View, error) {
	var out session.View
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out)
	return out, err
}

// Catalog returns the server's tables for display. Lookups by id are not
// indexed on the decoded value.
func (c *Client) Catalog(ctx context.Context) (*content.Catalog, error) {
	var out content.Catalog
	if err := c.jsonRequest(ctx, http.MethodGet, "/v1/catalog", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Achievements(ctx context.Context) ([]session.AchievementView, error) {
	var out struct {
		Achievements []session.AchievementView `json:"achievements"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/achievements", nil, &out)
	return out.Achievements, err
}

func (c *Client) Click(ctx context.Context) (Result, error) {
	return c.mutate(ctx, "/v1/click", nil)
}

func (c *Client) BuyBuilding(ctx context.Context, id string) (Result, error) {
	return c.mutate(ctx, "/v1/buildings/"+url.PathEscape(id)+"/buy", nil)
}

func (c *Client) BuyUpgrade(ctx context.Context, id string) (Result, error) {
	return c.mutate(ctx, "/v1/upgrades/"+url.PathEscape(id)+"/buy", nil)
}

func (c *Client) Boost(ctx context.Context) (Result, error) {
	return c.mutate(ctx, "/v1/boost", nil)
}

func (c *Client) Prestige(ctx context.Context) (Result, error) {
	return c.mutate(ctx, "/v1/prestige", nil)
}

func (c *Client) Reset(ctx context.Context) (Result, error) {
	return c.mutate(ctx, "/v1/reset", map[string]any{"confirm": true})
}

func (c *Client) mutate(ctx context.Context, path string, in any) (Result, error) {
	var out Result
	err := c.jsonRequest(ctx, http.MethodPost, path, in, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var payload struct {
			Error      string `json:"error"`
			Suggestion string `json:"suggestion"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
			apiErr.Suggestion = payload.Suggestion
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
