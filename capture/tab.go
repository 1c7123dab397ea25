package capture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// outerHTMLJS runs in the page and serializes the whole document.
const outerHTMLJS = `() => document.documentElement.outerHTML`

// TabReader reads the active tab of a browser the user already runs with
// remote debugging enabled.
type TabReader struct {
	controlURL string
}

// NewTabReader creates a TabReader for a DevTools endpoint. Both the
// websocket URL and the http://host:port form are accepted.
func NewTabReader(controlURL string) *TabReader {
	return &TabReader{controlURL: controlURL}
}

// ActiveTabHTML serializes the document of the active tab.
func (t *TabReader) ActiveTabHTML(ctx context.Context) (string, error) {
	wsURL := t.controlURL
	if !strings.HasPrefix(wsURL, "ws") {
		resolved, err := launcher.ResolveURL(wsURL)
		if err != nil {
			return "", fmt.Errorf("resolve devtools url: %w", err)
		}
		wsURL = resolved
	}

	// Cancelling ctx drops the websocket. Browser.Close would shut down
	// the user's browser, so it is never called here.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	browser := rod.New().Context(ctx).ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect devtools: %w", err)
	}

	page, err := activePage(browser)
	if err != nil {
		return "", err
	}

	res, err := page.Eval(outerHTMLJS)
	if err != nil {
		return "", fmt.Errorf("serialize active tab: %w", err)
	}
	return res.Value.Str(), nil
}

// activePage picks the focused visible tab, then any visible tab, then the
// first tab.
func activePage(browser *rod.Browser) (*rod.Page, error) {
	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no open tabs")
	}

	var visible *rod.Page
	for _, p := range pages {
		res, err := p.Eval(`() => [document.visibilityState === "visible", document.hasFocus()]`)
		if err != nil {
			slog.Debug("skipping tab", "error", err)
			continue
		}
		arr := res.Value.Arr()
		if len(arr) != 2 || !arr[0].Bool() {
			continue
		}
		if arr[1].Bool() {
			return p, nil
		}
		if visible == nil {
			visible = p
		}
	}
	if visible != nil {
		return visible, nil
	}
	return pages[0], nil
}
