package webdriver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/relbench/internal/browser"
)

// Session is a live WebDriver session.
type Session struct {
	client *Client
	id     string
}

// ID returns the server-assigned session id.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) path(suffix string) string {
	return "/session/" + s.id + suffix
}

// SetScriptTimeout bounds how long execute-async waits for its callback.
// Servers that reject the W3C body are retried with the JSON wire form.
func (s *Session) SetScriptTimeout(ctx context.Context, d time.Duration) error {
	ms := d.Milliseconds()
	_, _, err := s.client.command(ctx, http.MethodPost, s.path("/timeouts"), map[string]interface{}{
		"script": ms,
	})
	if err == nil {
		return nil
	}

	_, _, legacyErr := s.client.command(ctx, http.MethodPost, s.path("/timeouts"), map[string]interface{}{
		"type": "script",
		"ms":   ms,
	})
	if legacyErr != nil {
		return fmt.Errorf("set script timeout: %w", err)
	}
	return nil
}

// Navigate implements browser.Session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	_, _, err := s.client.command(ctx, http.MethodPost, s.path("/url"), map[string]interface{}{
		"url": url,
	})
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	return nil
}

// ExecuteAsync implements browser.Session.
func (s *Session) ExecuteAsync(ctx context.Context, script string, args ...interface{}) (string, error) {
	if args == nil {
		args = []interface{}{}
	}
	value, _, err := s.client.command(ctx, http.MethodPost, s.path("/execute/async"), map[string]interface{}{
		"script": script,
		"args":   args,
	})
	if err != nil {
		return "", fmt.Errorf("execute async script: %w", err)
	}
	if value.Type == gjson.String {
		return value.String(), nil
	}
	return value.Raw, nil
}

// Quit implements browser.Session.
func (s *Session) Quit(ctx context.Context) error {
	if _, _, err := s.client.command(ctx, http.MethodDelete, s.path(""), nil); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Launcher opens sessions on a WebDriver endpoint.
type Launcher struct {
	Client *Client
}

// NewLauncher creates a launcher for client.
func NewLauncher(client *Client) *Launcher {
	return &Launcher{Client: client}
}

// Open implements browser.Launcher.
func (l *Launcher) Open(ctx context.Context, target browser.Target, opts browser.SessionOptions) (browser.Session, error) {
	sess, err := l.Client.NewSession(ctx, target.Requested())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target.Label(), err)
	}

	if opts.ScriptTimeout > 0 {
		if err := sess.SetScriptTimeout(ctx, opts.ScriptTimeout); err != nil {
			_ = sess.Quit(ctx)
			return nil, fmt.Errorf("%s: %w", target.Label(), err)
		}
	}

	return sess, nil
}
