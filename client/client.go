// Package client talks to the todo REST API and keeps the client-side view
// state.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "github.com/example/todo-app/domain/todo"
)

// DefaultBaseURL is the todo collection URL of a locally running server.
const DefaultBaseURL = "http://localhost:5000/api/todos"

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Client is an HTTP client for the todo endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the todo collection at baseURL
// (e.g. http://localhost:5000/api/todos).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the collection URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type createBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type replaceBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// List fetches all todos, newest first.
func (c *Client) List(ctx context.Context) ([]domain.Todo, error) {
	var todos []domain.Todo
	if err := c.do(ctx, http.MethodGet, c.baseURL, nil, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []domain.Todo{}
	}
	return todos, nil
}

// Get fetches a single todo.
func (c *Client) Get(ctx context.Context, id int64) (*domain.Todo, error) {
	var t domain.Todo
	if err := c.do(ctx, http.MethodGet, c.itemURL(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create adds a todo and returns the stored row.
func (c *Client) Create(ctx context.Context, title, description string) (*domain.Todo, error) {
	var t domain.Todo
	body := createBody{Title: title, Description: description}
	if err := c.do(ctx, http.MethodPost, c.baseURL, body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Replace overwrites title, description and completed of a todo.
func (c *Client) Replace(ctx context.Context, id int64, title, description string, completed bool) (*domain.Todo, error) {
	var t domain.Todo
	body := replaceBody{Title: title, Description: description, Completed: completed}
	if err := c.do(ctx, http.MethodPut, c.itemURL(id), body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Toggle flips the completed flag of a todo.
func (c *Client) Toggle(ctx context.Context, id int64) (*domain.Todo, error) {
	var t domain.Todo
	if err := c.do(ctx, http.MethodPatch, c.itemURL(id)+"/toggle", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a todo.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.itemURL(id), nil, nil)
}

func (c *Client) itemURL(id int64) string {
	return c.baseURL + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
