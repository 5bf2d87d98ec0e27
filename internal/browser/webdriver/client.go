// Package webdriver is a small W3C WebDriver client covering what benchmark
// sessions need: create, timeouts, navigate, execute-async and delete.
package webdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/relbench/internal/browser"
)

// Client talks to a WebDriver endpoint (Selenium, chromedriver, a cloud grid).
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a client for the endpoint at baseURL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithTimeout sets the HTTP timeout for each WebDriver command
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader adds a header to every command, e.g. grid credentials
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// Error is a WebDriver error response.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("webdriver: HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("webdriver: %s: %s", e.Code, e.Message)
}

// Is matches browser.ErrScriptTimeout for script timeouts.
func (e *Error) Is(target error) bool {
	if target != browser.ErrScriptTimeout {
		return false
	}
	return e.Code == "script timeout" || strings.Contains(e.Message, browser.TimeoutSignature)
}

// NewSession creates a session with the given capabilities.
func (c *Client) NewSession(ctx context.Context, caps map[string]interface{}) (*Session, error) {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": caps,
		},
		"desiredCapabilities": caps,
	}

	value, raw, err := c.command(ctx, http.MethodPost, "/session", body)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	id := value.Get("sessionId").String()
	if id == "" {
		// JSON wire protocol servers put the id at the top level
		id = raw.Get("sessionId").String()
	}
	if id == "" {
		return nil, fmt.Errorf("create session: response has no session id")
	}

	return &Session{client: c, id: id}, nil
}

// command sends one WebDriver command and returns the "value" member of the
// reply along with the whole reply.
func (c *Client) command(ctx context.Context, method, path string, payload interface{}) (gjson.Result, gjson.Result, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return gjson.Result{}, gjson.Result{}, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return gjson.Result{}, gjson.Result{}, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, gjson.Result{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, gjson.Result{}, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if !gjson.ValidBytes(data) {
		if resp.StatusCode >= 400 {
			return gjson.Result{}, gjson.Result{}, &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		}
		return gjson.Result{}, gjson.Result{}, fmt.Errorf("%s %s: invalid JSON reply", method, path)
	}

	raw := gjson.ParseBytes(data)
	value := raw.Get("value")

	if code := value.Get("error"); code.Exists() && code.Type == gjson.String {
		return value, raw, &Error{
			Status:  resp.StatusCode,
			Code:    code.String(),
			Message: value.Get("message").String(),
		}
	}
	// JSON wire protocol: non-zero status with the message under value
	if status := raw.Get("status"); status.Exists() && status.Int() != 0 {
		e := &Error{Status: resp.StatusCode, Message: value.Get("message").String()}
		if status.Int() == 28 {
			e.Code = "script timeout"
		}
		return value, raw, e
	}
	if resp.StatusCode >= 400 {
		return value, raw, &Error{Status: resp.StatusCode, Message: value.String()}
	}

	return value, raw, nil
}
