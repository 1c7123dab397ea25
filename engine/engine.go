// Package engine renders a URL into markup with a ladder of fetch engines:
// plain HTTP first, then a headless browser, then a stealth browser.
package engine

import (
	"context"
	"time"
)

// Engine fetches the rendered markup of a page.
type Engine interface {
	// Name identifies the engine in logs and domain memory
	// ("http", "rod", "rod-stealth").
	Name() string

	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest describes one page to render.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool
}

// FetchResult is the markup an engine produced.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}
