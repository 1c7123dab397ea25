package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/pagedrop/config"
	"github.com/use-agent/pagedrop/engine"
	"github.com/ysmood/gson"
)

// Browser renders URL targets in a headless Chrome. Chrome is launched on
// the first Fetch, not at construction, so captures that never need a
// browser never start one. Safe for concurrent use.
type Browser struct {
	cfg        config.BrowserConfig
	captureCfg config.CaptureConfig

	mu      sync.Mutex
	browser *rod.Browser
	pool    rod.Pool[rod.Page]
}

// NewBrowser creates a Browser.
func NewBrowser(cfg config.BrowserConfig, captureCfg config.CaptureConfig) *Browser {
	return &Browser{cfg: cfg, captureCfg: captureCfg}
}

func (b *Browser) ensure() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().
		Headless(b.cfg.Headless).
		NoSandbox(b.cfg.NoSandbox)
	if b.cfg.BrowserBin != "" {
		l = l.Bin(b.cfg.BrowserBin)
	}
	if b.cfg.Proxy != "" {
		l = l.Proxy(b.cfg.Proxy)
	}
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	br := rod.New().ControlURL(controlURL)
	if err := br.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	b.browser = br
	b.pool = rod.NewPagePool(b.cfg.MaxPages)
	return br, nil
}

// Fetch renders req and returns the serialized DOM. It matches
// engine.BrowserFetchFunc.
//
// Order matters: stealth and resource blocking must be installed before
// Navigate, and the page goes back to about:blank before it returns to the
// pool so the previous DOM is released.
func (b *Browser) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	br, err := b.ensure()
	if err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = b.captureCfg.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	page, err := b.pool.Get(func() (*rod.Page, error) {
		return br.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, fmt.Errorf("acquire page: %w", err)
	}
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to reset page", "error", navErr)
		}
		b.pool.Put(page)
	}()

	if req.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, continuing without it", "error", err)
		}
	}

	if headers := requestHeaders(req); len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: headers}.Call(page)
	}

	if router := blockResources(page, b.captureCfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	nav := p
	if b.captureCfg.NavigationTimeout > 0 {
		nav = p.Timeout(b.captureCfg.NavigationTimeout)
	}
	if err := nav.Navigate(req.URL); err != nil {
		return nil, classify(err, "navigate")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("DOM did not settle, capturing current state", "url", req.URL, "error", err)
	}

	markup, err := p.HTML()
	if err != nil {
		return nil, classify(err, "serialize page")
	}

	finalURL := evalString(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}
	status := 0
	if res, err := p.Eval(`() => {
		const nav = performance.getEntriesByType("navigation");
		return nav.length > 0 ? (nav[0].responseStatus || 0) : 0;
	}`); err == nil {
		status = res.Value.Int()
	}

	return &engine.FetchResult{
		HTML:       markup,
		Title:      evalString(p, `() => document.title`),
		StatusCode: status,
		FinalURL:   finalURL,
	}, nil
}

// Close drains the page pool and kills Chrome if it was started.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return
	}
	b.pool.Cleanup(func(p *rod.Page) { _ = p.Close() })
	if err := b.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
	b.browser = nil
	slog.Info("browser closed")
}

// requestHeaders adds a search-engine Referer unless the caller set one.
func requestHeaders(req *engine.FetchRequest) proto.NetworkHeaders {
	h := make(proto.NetworkHeaders, len(req.Headers)+1)
	if _, ok := req.Headers["Referer"]; !ok {
		if u, err := url.Parse(req.URL); err == nil && u.Hostname() != "" {
			h["Referer"] = gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname()))
		}
	}
	for k, v := range req.Headers {
		h[k] = gson.New(v)
	}
	return h
}

func evalString(p *rod.Page, js string) string {
	res, err := p.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func classify(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: timed out: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
