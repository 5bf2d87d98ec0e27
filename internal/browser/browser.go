// Package browser abstracts the remote page a benchmark session drives: load
// a page, run an asynchronous script in it, quit.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimeoutSignature is the message fragment drivers use for script timeouts.
const TimeoutSignature = "Timed out"

// ErrScriptTimeout marks an asynchronous script that did not call back in
// time. It is a per-sample outcome, not a session failure.
var ErrScriptTimeout = errors.New("Timed out waiting for asynchronous script result")

// IsTimeout reports whether err carries the script timeout signature.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrScriptTimeout) || strings.Contains(err.Error(), TimeoutSignature)
}

// Session is one live browser context.
type Session interface {
	// Navigate loads url and waits for the page to load.
	Navigate(ctx context.Context, url string) error

	// ExecuteAsync runs script as an asynchronous function body. The driver
	// appends a completion callback after args; the value passed to it is
	// returned as a string.
	ExecuteAsync(ctx context.Context, script string, args ...interface{}) (string, error)

	// Quit ends the session and releases the browser.
	Quit(ctx context.Context) error
}

// SessionOptions configure a session when it is opened.
type SessionOptions struct {
	ScriptTimeout time.Duration
}

// Target names the browser a session runs in: either a plain browser name or
// a remote capability descriptor.
type Target struct {
	Name         string
	Capabilities map[string]interface{}
}

// BrowserTarget targets a browser by name.
func BrowserTarget(name string) Target {
	return Target{Name: name}
}

// CapabilityTarget targets a remote capability descriptor.
func CapabilityTarget(caps map[string]interface{}) Target {
	name, _ := caps["browserName"].(string)
	return Target{Name: name, Capabilities: caps}
}

// IsCapability reports whether the target came from a capability descriptor.
func (t Target) IsCapability() bool {
	return t.Capabilities != nil
}

// Label renders the target for logs and report headers, e.g.
// "firefox 121 (Windows 10)".
func (t Target) Label() string {
	if !t.IsCapability() {
		return t.Name
	}

	parts := []string{t.Name}
	for _, key := range []string{"browserVersion", "version"} {
		if v := capString(t.Capabilities, key); v != "" {
			parts = append(parts, v)
			break
		}
	}
	label := strings.Join(parts, " ")

	for _, key := range []string{"platformName", "platform", "os"} {
		if v := capString(t.Capabilities, key); v != "" {
			osLabel := v
			if ver := capString(t.Capabilities, "os_version"); ver != "" && key == "os" {
				osLabel += " " + ver
			}
			label += " (" + osLabel + ")"
			break
		}
	}
	return label
}

// Requested returns the capabilities sent when the session is created.
func (t Target) Requested() map[string]interface{} {
	if t.IsCapability() {
		return t.Capabilities
	}
	return map[string]interface{}{"browserName": t.Name}
}

func capString(caps map[string]interface{}, key string) string {
	switch v := caps[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return ""
	}
}

// Launcher opens sessions.
type Launcher interface {
	Open(ctx context.Context, target Target, opts SessionOptions) (Session, error)
}

// Router picks a launcher per target. When Remote is set every target goes
// to it; otherwise browser names listed in Local are started locally.
type Router struct {
	Remote Launcher
	Local  map[string]Launcher
}

// Open implements Launcher.
func (r *Router) Open(ctx context.Context, target Target, opts SessionOptions) (Session, error) {
	if r.Remote != nil {
		return r.Remote.Open(ctx, target, opts)
	}
	if target.IsCapability() {
		return nil, fmt.Errorf("capability %s needs a remote WebDriver server", target.Label())
	}
	if l, ok := r.Local[strings.ToLower(target.Name)]; ok {
		return l.Open(ctx, target, opts)
	}

	local := make([]string, 0, len(r.Local))
	for name := range r.Local {
		local = append(local, name)
	}
	sort.Strings(local)
	return nil, fmt.Errorf("browser %q needs a remote WebDriver server (local browsers: %s)",
		target.Name, strings.Join(local, ", "))
}
