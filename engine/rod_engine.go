package engine

import (
	"context"
	"fmt"
)

// BrowserFetchFunc renders a request in a real browser. capture.Browser
// provides it; taking a func keeps engine free of browser imports.
type BrowserFetchFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine adapts a BrowserFetchFunc to the Engine interface. With
// forceStealth set it always asks for the stealth variant.
type RodEngine struct {
	fetch        BrowserFetchFunc
	forceStealth bool
}

// NewRodEngine creates a RodEngine named "rod" or "rod-stealth".
func NewRodEngine(fetch BrowserFetchFunc, forceStealth bool) *RodEngine {
	return &RodEngine{fetch: fetch, forceStealth: forceStealth}
}

func (e *RodEngine) Name() string {
	if e.forceStealth {
		return "rod-stealth"
	}
	return "rod"
}

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.fetch == nil {
		return nil, fmt.Errorf("%s: no browser configured", e.Name())
	}

	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	res, err := e.fetch(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}
	res.EngineName = e.Name()
	return res, nil
}
