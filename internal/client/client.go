// Package client calls the todo procedures over HTTP.
package client

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

	"todo-tracker/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

// Error is a failure reported by the server in an error envelope.
type Error struct {
	Procedure  string
	Code       string
	HTTPStatus int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Procedure, e.Message, e.Code)
}

func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Code == "NOT_FOUND"
}

type envelope struct {
	Result *struct {
		Data json.RawMessage `json:"data"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
		Data    struct {
			Code       string `json:"code"`
			HTTPStatus int    `json:"httpStatus"`
		} `json:"data"`
	} `json:"error"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTimeout sets the per-request timeout on a copy of the HTTP client, so a
// client passed to WithHTTPClient is never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		httpClient := *c.httpClient
		httpClient.Timeout = timeout
		c.httpClient = &httpClient
	}
}

// New returns a client for the server at baseURL, for example
// "http://localhost:2022". The /trpc prefix is appended.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/trpc",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) GetTodos(ctx context.Context) ([]models.Todo, error) {
	todos := []models.Todo{}
	if err := c.query(ctx, "getTodos", &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *Client) CreateTodo(ctx context.Context, input models.CreateTodoInput) (*models.Todo, error) {
	var todo models.Todo
	if err := c.mutate(ctx, "createTodo", input, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) UpdateTodo(ctx context.Context, input models.UpdateTodoInput) (*models.Todo, error) {
	var todo models.Todo
	if err := c.mutate(ctx, "updateTodo", input, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) ToggleTodo(ctx context.Context, id uint) (*models.Todo, error) {
	var todo models.Todo
	if err := c.mutate(ctx, "toggleTodo", models.ToggleTodoInput{ID: id}, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo reports whether a todo was removed. A missing id is not an error.
func (c *Client) DeleteTodo(ctx context.Context, id uint) (bool, error) {
	var result models.DeleteTodoResult
	if err := c.mutate(ctx, "deleteTodo", models.DeleteTodoInput{ID: id}, &result); err != nil {
		return false, err
	}
	return result.Success, nil
}

func (c *Client) query(ctx context.Context, procedure string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(procedure), nil)
	if err != nil {
		return err
	}
	return c.do(req, procedure, out)
}

func (c *Client) mutate(ctx context.Context, procedure string, input, out interface{}) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encode %s input: %w", procedure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+url.PathEscape(procedure), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, procedure, out)
}

func (c *Client) do(req *http.Request, procedure string, out interface{}) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", procedure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", procedure, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &Error{
			Procedure:  procedure,
			Code:       "INTERNAL_SERVER_ERROR",
			HTTPStatus: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected response: %s", strings.TrimSpace(string(data))),
		}
	}

	if env.Error != nil {
		return &Error{
			Procedure:  procedure,
			Code:       env.Error.Data.Code,
			HTTPStatus: resp.StatusCode,
			Message:    env.Error.Message,
		}
	}

	if env.Result == nil {
		return &Error{
			Procedure:  procedure,
			Code:       "INTERNAL_SERVER_ERROR",
			HTTPStatus: resp.StatusCode,
			Message:    "response has neither result nor error",
		}
	}

	if err := json.Unmarshal(env.Result.Data, out); err != nil {
		return fmt.Errorf("decode %s result: %w", procedure, err)
	}
	return nil
}
