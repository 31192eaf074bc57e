// Package client talks to a livesync server over its RPC and change
// feed endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shipfast/livesync/todo"

	internalstrings "github.com/shipfast/livesync/internal/strings"
)

// Client is an authenticated RPC client for a livesync server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the server at baseURL using the given
// session token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: internalstrings.TrimTrailingSlash(baseURL),
		token:   token,
		http:    &http.Client{},
	}
}

// BaseURL returns the server base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the session token the client authenticates with.
func (c *Client) Token() string {
	return c.token
}

type listRequest struct {
	Filter string `json:"filter,omitempty"`
}

type listResponse struct {
	Success bool           `json:"success"`
	Todos   []todo.Todo    `json:"data,omitempty"`
	Error   todo.ErrorKind `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
}

type createRequest struct {
	Title   string             `json:"title"`
	Options todo.CreateOptions `json:"options"`
}

type updateRequest struct {
	ID      int64              `json:"id"`
	Options todo.UpdateOptions `json:"options"`
}

type idRequest struct {
	ID int64 `json:"id"`
}

// List fetches the owner's todos, optionally filtered.
func (c *Client) List(ctx context.Context, mode todo.FilterMode) ([]todo.Todo, error) {
	var response listResponse
	if err := c.postJSON(ctx, "/rpc/todos/list", listRequest{Filter: string(mode)}, &response); err != nil {
		return nil, err
	}
	if !response.Success {
		return nil, fmt.Errorf("list todos: %s", responseMessage(response.Error, response.Message))
	}
	return response.Todos, nil
}

// Create adds a todo and returns the server's result envelope.
func (c *Client) Create(ctx context.Context, title string, opts todo.CreateOptions) (todo.Result, error) {
	return c.mutate(ctx, "/rpc/todos/create", createRequest{Title: title, Options: opts})
}

// Update modifies the set fields of a todo.
func (c *Client) Update(ctx context.Context, id int64, opts todo.UpdateOptions) (todo.Result, error) {
	return c.mutate(ctx, "/rpc/todos/update", updateRequest{ID: id, Options: opts})
}

// Toggle flips a todo's completion state.
func (c *Client) Toggle(ctx context.Context, id int64) (todo.Result, error) {
	return c.mutate(ctx, "/rpc/todos/toggle", idRequest{ID: id})
}

// Delete removes a todo. Succeeds even when the id no longer exists.
func (c *Client) Delete(ctx context.Context, id int64) (todo.Result, error) {
	return c.mutate(ctx, "/rpc/todos/delete", idRequest{ID: id})
}

// Seed populates demo data. Requires the server's dev routes.
func (c *Client) Seed(ctx context.Context) error {
	return c.devPost(ctx, "/dev/seed")
}

// Reset clears all data. Requires the server's dev routes.
func (c *Client) Reset(ctx context.Context) error {
	return c.devPost(ctx, "/dev/reset")
}

func (c *Client) devPost(ctx context.Context, path string) error {
	var response struct {
		Success bool           `json:"success"`
		Error   todo.ErrorKind `json:"error,omitempty"`
		Message string         `json:"message,omitempty"`
	}
	if err := c.postJSON(ctx, path, struct{}{}, &response); err != nil {
		return err
	}
	if !response.Success {
		return fmt.Errorf("livesync error: %s", responseMessage(response.Error, response.Message))
	}
	return nil
}

// Healthz reports whether the server is reachable.
func (c *Client) Healthz(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("livesync error: %s", resp.Status)
	}
	return nil
}

func (c *Client) mutate(ctx context.Context, path string, payload any) (todo.Result, error) {
	var result todo.Result
	if err := c.postJSON(ctx, path, payload, &result); err != nil {
		return todo.Result{}, err
	}
	return result, nil
}

// postJSON posts a request and decodes the body into dest. The server
// returns a result envelope on every RPC status, so non-2xx responses
// with a decodable body are not transport errors.
func (c *Client) postJSON(ctx context.Context, path string, payload any, dest any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return fmt.Errorf("livesync error: %s", resp.Status)
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("livesync error: %s", resp.Status)
	}
	return nil
}

func responseMessage(kind todo.ErrorKind, message string) string {
	if message != "" {
		return message
	}
	if kind != "" {
		return string(kind)
	}
	return "request failed"
}

// feedURL returns the websocket endpoint for the change feed.
func (c *Client) feedURL() string {
	base := c.baseURL
	if value, found := strings.CutPrefix(base, "https://"); found {
		base = "wss://" + value
	} else if value, found := strings.CutPrefix(base, "http://"); found {
		base = "ws://" + value
	}
	return base + "/ws/todos?token=" + c.token
}
