// Package chromium runs benchmark sessions in a locally launched Chromium
// over the DevTools protocol.
package chromium

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/wesleyorama2/relbench/internal/browser"
)

// executeAsync emulates WebDriver's execute-async: the script body runs with
// its arguments followed by a completion callback, and the promise settles
// with whatever the callback receives.
const executeAsync = `(script, args) => new Promise((resolve, reject) => {
	try {
		new Function(script).apply(window, args.concat([resolve]));
	} catch (e) {
		reject(e);
	}
})`

// Launcher starts a fresh Chromium per session.
type Launcher struct {
	Headless bool
	Bin      string
	Logger   *slog.Logger
}

// NewLauncher creates a launcher. bin may be empty to let rod locate or
// download a browser.
func NewLauncher(headless bool, bin string, logger *slog.Logger) *Launcher {
	return &Launcher{
		Headless: headless,
		Bin:      bin,
		Logger:   logger.With(slog.String("driver", "chromium")),
	}
}

// Open implements browser.Launcher.
func (l *Launcher) Open(ctx context.Context, target browser.Target, opts browser.SessionOptions) (browser.Session, error) {
	lc := launcher.New().Context(ctx).Headless(l.Headless)
	if l.Bin != "" {
		lc = lc.Bin(l.Bin)
	}

	controlURL, err := lc.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", target.Name, err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		lc.Kill()
		return nil, fmt.Errorf("connect to %s: %w", target.Name, err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		lc.Kill()
		return nil, fmt.Errorf("open page in %s: %w", target.Name, err)
	}

	l.Logger.Debug("browser launched", slog.String("control_url", controlURL))

	return &Session{
		launcher:      lc,
		browser:       b,
		page:          page,
		scriptTimeout: opts.ScriptTimeout,
	}, nil
}

// Session is one local browser with a single page.
type Session struct {
	launcher      *launcher.Launcher
	browser       *rod.Browser
	page          *rod.Page
	scriptTimeout time.Duration
}

// Navigate implements browser.Session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}
	return nil
}

// ExecuteAsync implements browser.Session.
func (s *Session) ExecuteAsync(ctx context.Context, script string, args ...interface{}) (string, error) {
	if args == nil {
		args = []interface{}{}
	}

	p := s.page.Context(ctx)
	if s.scriptTimeout > 0 {
		p = p.Timeout(s.scriptTimeout)
		defer p.CancelTimeout()
	}

	res, err := p.Evaluate(rod.Eval(executeAsync, script, args).ByPromise())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return "", fmt.Errorf("%w after %s", browser.ErrScriptTimeout, s.scriptTimeout)
		}
		return "", fmt.Errorf("execute async script: %w", err)
	}
	return res.Value.Str(), nil
}

// Quit implements browser.Session.
func (s *Session) Quit(_ context.Context) error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
