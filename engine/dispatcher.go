package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Dispatcher races the engines with staged start delays: engine i starts
// delays[i] after the race begins unless an earlier engine already won.
// The first success cancels everything else.
type Dispatcher struct {
	engines []Engine
	delays  []time.Duration
	memory  *DomainMemory
}

// NewDispatcher creates a Dispatcher. Missing delays default to zero.
func NewDispatcher(engines []Engine, delays []time.Duration, memory *DomainMemory) *Dispatcher {
	d := make([]time.Duration, len(engines))
	copy(d, delays)
	return &Dispatcher{engines: engines, delays: d, memory: memory}
}

// Dispatch renders req with the remembered engine for its domain if any,
// otherwise with the full race.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if len(d.engines) == 0 {
		return nil, fmt.Errorf("dispatcher: no engines configured")
	}

	domain := hostOf(req.URL)
	if name := d.memory.Get(domain); name != "" {
		for _, eng := range d.engines {
			if eng.Name() != name {
				continue
			}
			res, err := eng.Fetch(ctx, req)
			if err == nil {
				slog.Debug("engine memory hit", "domain", domain, "engine", name)
				return res, nil
			}
			slog.Info("remembered engine failed, racing all engines",
				"domain", domain, "engine", name, "error", err)
			d.memory.Forget(domain)
			break
		}
	}

	return d.race(ctx, req, domain)
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, domain string) (*FetchResult, error) {
	type attempt struct {
		res *FetchResult
		err error
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	attempts := make(chan attempt, len(d.engines))
	var wg sync.WaitGroup
	for i, eng := range d.engines {
		wg.Add(1)
		go func(eng Engine, delay time.Duration) {
			defer wg.Done()
			if delay > 0 {
				t := time.NewTimer(delay)
				defer t.Stop()
				select {
				case <-raceCtx.Done():
					return
				case <-t.C:
				}
			}
			if raceCtx.Err() != nil {
				return
			}
			res, err := eng.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
			}
			attempts <- attempt{res: res, err: err}
		}(eng, d.delays[i])
	}
	go func() {
		wg.Wait()
		close(attempts)
	}()

	var lastErr error
	for a := range attempts {
		if a.err != nil {
			lastErr = a.err
			continue
		}
		cancel()
		slog.Info("engine won race", "engine", a.res.EngineName, "url", req.URL)
		d.memory.Set(domain, a.res.EngineName)
		return a.res, nil
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Hostname()
}
