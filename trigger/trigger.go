// Package trigger drives one capture-and-submit cycle per activation of the
// send control.
//
// The control moves Idle → Submitting → Idle. Activation is accepted only
// in Idle; the control is disabled for the whole cycle and re-enabled once
// the outcome is known, whatever it is.
package trigger

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/use-agent/pagedrop/capture"
	"github.com/use-agent/pagedrop/models"
	"github.com/use-agent/pagedrop/ui"
)

// State is the state of the send control.
type State int

const (
	Idle State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "idle"
}

// ErrBusy is returned when the control is activated while a submission is
// still in flight. No second submission is started.
var ErrBusy = errors.New("trigger: submission already in flight")

// Submitter posts a captured document and reports its outcome.
type Submitter interface {
	Submit(ctx context.Context, doc string) models.Outcome
}

// Widgets are the popup elements a cycle updates.
type Widgets struct {
	Status ui.StatusLine
	List   ui.EntryList
	Button ui.Control

	// Surface, when set, draws outcomes instead of Status and List.
	Surface ui.Surface
}

// Controller owns the send control's state machine.
type Controller struct {
	capturer  capture.Capturer
	submitter Submitter
	widgets   Widgets

	mu    sync.Mutex
	state State
}

// New creates a Controller in the Idle state.
func New(c capture.Capturer, s Submitter, w Widgets) *Controller {
	return &Controller{capturer: c, submitter: s, widgets: w}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Activate runs one full cycle synchronously and returns its outcome.
// It returns ErrBusy, and no outcome, if a cycle is already running.
func (c *Controller) Activate(ctx context.Context, t capture.Target) (models.Outcome, error) {
	if err := c.enter(); err != nil {
		return models.Outcome{}, err
	}
	return c.run(ctx, t), nil
}

// Start begins a cycle on its own goroutine. The channel receives the
// single outcome and is closed; the control is already re-enabled by the
// time the outcome is readable.
func (c *Controller) Start(ctx context.Context, t capture.Target) (<-chan models.Outcome, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	out := make(chan models.Outcome, 1)
	go func() {
		defer close(out)
		out <- c.run(ctx, t)
	}()
	return out, nil
}

// enter performs Idle → Submitting and disables the control.
func (c *Controller) enter() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Submitting {
		return ErrBusy
	}
	c.state = Submitting
	c.widgets.Button.SetEnabled(false)
	return nil
}

// leave performs Submitting → Idle and re-enables the control.
func (c *Controller) leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	c.widgets.Button.SetEnabled(true)
}

func (c *Controller) run(ctx context.Context, t capture.Target) (o models.Outcome) {
	defer c.leave()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("submission cycle panicked", "panic", r)
			o = models.Failure(models.NewSubmissionError(models.ErrCodeTransport, "submission aborted", nil))
			c.draw(o)
		}
	}()

	o = c.cycle(ctx, t)
	c.draw(o)
	return o
}

func (c *Controller) draw(o models.Outcome) {
	if c.widgets.Surface != nil {
		c.widgets.Surface.Show(o)
		return
	}
	ui.Render(o, c.widgets.Status, c.widgets.List)
}

func (c *Controller) cycle(ctx context.Context, t capture.Target) models.Outcome {
	doc, err := c.capturer.Capture(ctx, t)
	if err != nil {
		slog.Warn("capture failed", "target", t.String(), "error", err)
		return models.Failure(models.NewSubmissionError(models.ErrCodeCapture, "capture "+t.String(), err))
	}
	slog.Debug("captured document", "target", t.String(), "bytes", len(doc))
	return c.submitter.Submit(ctx, doc)
}
