package capture

import (
	"github.com/use-agent/pagedrop/config"
	"github.com/use-agent/pagedrop/engine"
)

// FromConfig wires the default Router: the http → rod → rod-stealth ladder
// for URL targets, and active-tab capture when a CDP URL is configured.
// The returned Browser must be closed on shutdown.
func FromConfig(cfg *config.Config) (*Router, *Browser) {
	br := NewBrowser(cfg.Browser, cfg.Capture)

	engines := []engine.Engine{
		engine.NewHTTPEngine(cfg.Capture.MaxBytes),
		engine.NewRodEngine(br.Fetch, false),
		engine.NewRodEngine(br.Fetch, true),
	}
	dispatcher := engine.NewDispatcher(engines, cfg.Engine.EscalationDelays,
		engine.NewDomainMemory(cfg.Engine.MemoryTTL))

	opts := []RouterOption{
		WithDispatcher(dispatcher),
		WithLimits(cfg.Capture.MaxBytes, cfg.Capture.Timeout),
	}
	if cfg.Capture.CDPURL != "" {
		opts = append(opts, WithTabs(NewTabReader(cfg.Capture.CDPURL)))
	}
	return NewRouter(opts...), br
}
