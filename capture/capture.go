// Package capture turns a target page into its serialized markup.
//
// A capture never validates the markup: any string, including the empty
// string, is a valid capture.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/use-agent/pagedrop/engine"
)

// Target identifies the page to capture. Exactly one field is meaningful:
// Path wins over ActiveTab, which wins over URL.
type Target struct {
	// URL is rendered through the engine dispatcher.
	URL string

	// ActiveTab captures the focused tab of the user's browser over CDP.
	ActiveTab bool

	// Path reads a saved page from disk; "-" reads stdin.
	Path string
}

// ParseTarget interprets a command-line argument. "" and "tab" select the
// active tab, "-" is stdin, http(s) URLs are rendered, anything else is a
// file path.
func ParseTarget(arg string) Target {
	switch {
	case arg == "" || arg == "tab":
		return Target{ActiveTab: true}
	case arg == "-":
		return Target{Path: "-"}
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		return Target{URL: arg}
	default:
		return Target{Path: arg}
	}
}

func (t Target) String() string {
	switch {
	case t.Path == "-":
		return "stdin"
	case t.Path != "":
		return "file:" + t.Path
	case t.ActiveTab:
		return "active tab"
	default:
		return t.URL
	}
}

// Capturer reads the full markup of a target page.
type Capturer interface {
	Capture(ctx context.Context, t Target) (string, error)
}

// ErrNoTarget is returned for an empty Target.
var ErrNoTarget = errors.New("capture: no target given")

// ErrTooLarge is returned when a document is bigger than the configured
// byte limit. A partial document is never returned.
var ErrTooLarge = errors.New("capture: document too large")

// Router is the default Capturer. It sends each kind of target to the
// collaborator that can read it.
type Router struct {
	dispatcher *engine.Dispatcher
	tabs       *TabReader
	stdin      io.Reader
	maxBytes   int64
	timeout    time.Duration
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithDispatcher enables URL targets.
func WithDispatcher(d *engine.Dispatcher) RouterOption {
	return func(r *Router) { r.dispatcher = d }
}

// WithTabs enables active-tab targets.
func WithTabs(t *TabReader) RouterOption {
	return func(r *Router) { r.tabs = t }
}

// WithStdin replaces os.Stdin for "-" targets.
func WithStdin(in io.Reader) RouterOption {
	return func(r *Router) { r.stdin = in }
}

// WithLimits sets the read cap for files/stdin and the render deadline
// for URL targets.
func WithLimits(maxBytes int64, timeout time.Duration) RouterOption {
	return func(r *Router) {
		r.maxBytes = maxBytes
		r.timeout = timeout
	}
}

// NewRouter creates a Router.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{stdin: os.Stdin, maxBytes: 10 << 20, timeout: 30 * time.Second}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Capture implements Capturer.
func (r *Router) Capture(ctx context.Context, t Target) (string, error) {
	switch {
	case t.Path == "-":
		return readLimited(r.stdin, r.maxBytes)
	case t.Path != "":
		return r.readFile(t.Path)
	case t.ActiveTab:
		if r.tabs == nil {
			return "", fmt.Errorf("capture: active tab needs a CDP URL (PAGEDROP_CDP_URL)")
		}
		return r.tabs.ActiveTabHTML(ctx)
	case t.URL != "":
		return r.render(ctx, t.URL)
	default:
		return "", ErrNoTarget
	}
}

func (r *Router) render(ctx context.Context, url string) (string, error) {
	if r.dispatcher == nil {
		return "", fmt.Errorf("capture: no engines configured for %s", url)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	res, err := r.dispatcher.Dispatch(ctx, &engine.FetchRequest{URL: url, Timeout: r.timeout})
	if err != nil {
		return "", fmt.Errorf("capture %s: %w", url, err)
	}
	return res.HTML, nil
}

func (r *Router) readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}
	defer f.Close()
	return readLimited(f, r.maxBytes)
}

func readLimited(in io.Reader, max int64) (string, error) {
	if in == nil {
		return "", fmt.Errorf("capture: no input")
	}
	if max > 0 {
		in = io.LimitReader(in, max+1)
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("capture: read: %w", err)
	}
	if max > 0 && int64(len(b)) > max {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, max)
	}
	return string(b), nil
}
